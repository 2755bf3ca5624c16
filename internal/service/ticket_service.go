package service

import (
	"context"
	"errors"
	"fmt"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketService interface {
	// CreateOrGet is the idempotent upsert keyed by (apartado_id, clave): at
	// most one ticket ever exists per pair.
	CreateOrGet(ctx context.Context, apartadoID uuid.UUID, clave, html string) (*model.Ticket, error)
	// Regenerar rebuilds the artifact of one abono from the ledger plus the
	// payment history. Pure given the same history: repeated calls report
	// identical (pagadoAnterior, pagadoNuevo, saldoNuevo) triples.
	Regenerar(ctx context.Context, apartadoID, abonoID uuid.UUID) (*dto.TicketResponse, error)
	ListByApartado(ctx context.Context, apartadoID uuid.UUID) ([]model.Ticket, error)
}

type ticketService struct {
	repo         repository.TicketRepository
	apartadoRepo repository.ApartadoRepository
	negocio      string
}

func NewTicketService(repo repository.TicketRepository, apartadoRepo repository.ApartadoRepository, negocio string) TicketService {
	return &ticketService{repo: repo, apartadoRepo: apartadoRepo, negocio: negocio}
}

// ClaveAbono derives the ticket key of an abono within the chronologically
// sorted payment history. The very first payment keeps the legacy "payment"
// key; every later installment is keyed by its own id.
func ClaveAbono(abonos []model.Abono, abonoID uuid.UUID) string {
	if len(abonos) > 0 && abonos[0].ID == abonoID {
		return model.ClaveTicketLegacy
	}
	return fmt.Sprintf("payment-%s", abonoID)
}

func (s *ticketService) CreateOrGet(ctx context.Context, apartadoID uuid.UUID, clave, html string) (*model.Ticket, error) {
	return s.repo.Upsert(ctx, &model.Ticket{
		ApartadoID: apartadoID,
		Clave:      clave,
		HTML:       html,
	})
}

func (s *ticketService) Regenerar(ctx context.Context, apartadoID, abonoID uuid.UUID) (*dto.TicketResponse, error) {
	apartado, err := s.apartadoRepo.FindByID(ctx, apartadoID)
	if err != nil {
		return nil, err
	}

	abonos, err := s.apartadoRepo.ListAbonos(ctx, apartadoID)
	if err != nil {
		return nil, err
	}

	// The repo returns abonos sorted by created_at; the arithmetic below
	// depends on that temporal order, never on id order.
	idx := -1
	for i, ab := range abonos {
		if ab.ID == abonoID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &apierror.NotFoundError{Recurso: "abono"}
	}
	objetivo := abonos[idx]

	pagadoAnterior := decimal.Zero
	for _, ab := range abonos[:idx] {
		pagadoAnterior = pagadoAnterior.Add(ab.Monto)
	}
	pagadoNuevo := pagadoAnterior.Add(objetivo.Monto)
	saldoNuevo := apartado.Total.Sub(pagadoNuevo)

	html, err := renderTicketHTML(s.negocio, apartado, &objetivo, pagadoAnterior, pagadoNuevo, saldoNuevo)
	if err != nil {
		return nil, &apierror.TicketGenerationError{Causa: err.Error()}
	}

	clave := ClaveAbono(abonos, abonoID)
	ticket, err := s.resolverExistente(ctx, apartadoID, clave)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		ticket, err = s.repo.Upsert(ctx, &model.Ticket{ApartadoID: apartadoID, Clave: clave, HTML: html})
		if err != nil {
			return nil, err
		}
	} else {
		// Regeneration repairs a lost or stale artifact in place without
		// touching ledger state.
		ticket.HTML = html
		if err := s.repo.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}

	return &dto.TicketResponse{
		ID:             ticket.ID.String(),
		ApartadoID:     apartadoID.String(),
		Clave:          ticket.Clave,
		HTML:           ticket.HTML,
		CreatedAt:      ticket.CreatedAt.Format("2006-01-02T15:04:05Z"),
		PagadoAnterior: pagadoAnterior,
		PagadoNuevo:    pagadoNuevo,
		SaldoNuevo:     saldoNuevo,
	}, nil
}

// resolverExistente finds the stored ticket for a clave, also accepting the
// older "sale" spelling of the legacy first-payment key. Returns nil (no
// error) when no row exists yet.
func (s *ticketService) resolverExistente(ctx context.Context, apartadoID uuid.UUID, clave string) (*model.Ticket, error) {
	t, err := s.repo.FindByClave(ctx, apartadoID, clave)
	if err == nil {
		return t, nil
	}
	var nf *apierror.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}
	if clave == model.ClaveTicketLegacy {
		t, err = s.repo.FindByClave(ctx, apartadoID, model.ClaveTicketLegacySale)
		if err == nil {
			return t, nil
		}
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *ticketService) ListByApartado(ctx context.Context, apartadoID uuid.UUID) ([]model.Ticket, error) {
	return s.repo.ListByApartado(ctx, apartadoID)
}
