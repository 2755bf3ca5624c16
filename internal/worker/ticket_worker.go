package worker

// ticket_worker.go
// Processes receipt jobs from QueueTickets: regenerates the canonical HTML
// ticket for one abono, renders the PDF artifact, and optionally enqueues an
// email job with the PDF attached. Implements exponential backoff (max 3
// retries) before sending the job to the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"

	"joyapos/internal/dto"
	"joyapos/internal/infra"
	"joyapos/internal/repository"
	"joyapos/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// TicketJobPayload is the job envelope sent to QueueTickets.
type TicketJobPayload struct {
	ApartadoID   string  `json:"apartado_id"`
	AbonoID      string  `json:"abono_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

// TicketWorker turns a committed abono into its receipt artifacts. The ticket
// row is the idempotent source of truth; the PDF on disk is derived and safe
// to overwrite on every run.
type TicketWorker struct {
	tickets      service.TicketService
	apartadoRepo repository.ApartadoRepository
	dispatcher   *Dispatcher
	rdb          *redis.Client
	negocio      string
	storagePath  string
}

func NewTicketWorker(
	tickets service.TicketService,
	apartadoRepo repository.ApartadoRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	negocio string,
	storagePath string,
) *TicketWorker {
	return &TicketWorker{
		tickets:      tickets,
		apartadoRepo: apartadoRepo,
		dispatcher:   dispatcher,
		rdb:          rdb,
		negocio:      negocio,
		storagePath:  storagePath,
	}
}

// Process handles a single ticket job:
//  1. Parse TicketJobPayload from the job envelope
//  2. Regenerate the canonical HTML ticket with retry (max 3 attempts)
//  3. Render the PDF artifact
//  4. Optionally enqueue an email job with the PDF attached
func (w *TicketWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload TicketJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("ticket_worker: invalid payload")
		return
	}

	apartadoID, err := uuid.Parse(payload.ApartadoID)
	if err != nil {
		log.Error().Str("apartado_id", payload.ApartadoID).Msg("ticket_worker: invalid apartado_id")
		return
	}
	abonoID, err := uuid.Parse(payload.AbonoID)
	if err != nil {
		log.Error().Str("abono_id", payload.AbonoID).Msg("ticket_worker: invalid abono_id")
		return
	}

	var ticket *dto.TicketResponse
	genErr := withRetry(ctx, 3, func(attempt int) error {
		t, err := w.tickets.Regenerar(ctx, apartadoID, abonoID)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("apartado_id", payload.ApartadoID).
				Msg("ticket_worker: generation attempt failed, retrying")
			return err
		}
		ticket = t
		return nil
	})
	if genErr != nil {
		log.Error().Err(genErr).Str("apartado_id", payload.ApartadoID).Msg("ticket_worker: generation failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueTickets, "ticket", raw, genErr.Error(), 3)
		return
	}

	pdfPath := w.generarPDF(ctx, apartadoID, abonoID, ticket)

	if payload.ClienteEmail != nil && *payload.ClienteEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.ClienteEmail,
			Subject: "Recibo de abono — " + w.negocio,
			Body: fmt.Sprintf(
				"Adjunto encontrarás tu recibo de abono.\nPagado acumulado: $%s\nSaldo restante: $%s",
				ticket.PagadoNuevo.StringFixed(2), ticket.SaldoNuevo.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("ticket_worker: failed to enqueue email")
		} else {
			log.Info().Str("email", *payload.ClienteEmail).Msg("ticket_worker: email job enqueued")
		}
	}
}

// generarPDF renders the PDF next to the HTML ticket. Best-effort: the HTML
// row already exists, so a PDF failure only logs.
func (w *TicketWorker) generarPDF(ctx context.Context, apartadoID, abonoID uuid.UUID, ticket *dto.TicketResponse) string {
	apartado, err := w.apartadoRepo.FindByID(ctx, apartadoID)
	if err != nil {
		log.Warn().Err(err).Str("apartado_id", apartadoID.String()).Msg("ticket_worker: apartado fetch for PDF failed")
		return ""
	}
	abonos, err := w.apartadoRepo.ListAbonos(ctx, apartadoID)
	if err != nil {
		log.Warn().Err(err).Str("apartado_id", apartadoID.String()).Msg("ticket_worker: abonos fetch for PDF failed")
		return ""
	}
	for i := range abonos {
		if abonos[i].ID != abonoID {
			continue
		}
		pdfPath, err := infra.GenerateAbonoPDF(w.negocio, apartado, &abonos[i],
			ticket.PagadoAnterior, ticket.PagadoNuevo, ticket.SaldoNuevo, w.storagePath)
		if err != nil {
			log.Warn().Err(err).Str("apartado_id", apartadoID.String()).Msg("ticket_worker: PDF generation failed")
			return ""
		}
		log.Info().Str("pdf", pdfPath).Str("apartado_id", apartadoID.String()).Msg("ticket_worker: PDF generated")
		return pdfPath
	}
	return ""
}
