package repository

import (
	"context"
	"errors"

	"joyapos/internal/apierror"
	"joyapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepository interface {
	// Upsert inserts the ticket unless one already exists for the
	// (apartado_id, clave) pair, then returns the stored row. Idempotent.
	Upsert(ctx context.Context, t *model.Ticket) (*model.Ticket, error)
	FindByClave(ctx context.Context, apartadoID uuid.UUID, clave string) (*model.Ticket, error)
	ListByApartado(ctx context.Context, apartadoID uuid.UUID) ([]model.Ticket, error)
	Update(ctx context.Context, t *model.Ticket) error
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &ticketRepo{db: db} }

func (r *ticketRepo) Upsert(ctx context.Context, t *model.Ticket) (*model.Ticket, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "apartado_id"}, {Name: "clave"}},
			DoNothing: true,
		}).
		Create(t).Error
	if err != nil {
		return nil, err
	}
	// Re-read: on conflict the insert was a no-op and t.ID is not the stored
	// row's id.
	return r.FindByClave(ctx, t.ApartadoID, t.Clave)
}

func (r *ticketRepo) FindByClave(ctx context.Context, apartadoID uuid.UUID, clave string) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).
		Where("apartado_id = ? AND clave = ?", apartadoID, clave).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierror.NotFoundError{Recurso: "ticket"}
	}
	return &t, err
}

func (r *ticketRepo) ListByApartado(ctx context.Context, apartadoID uuid.UUID) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.db.WithContext(ctx).
		Where("apartado_id = ?", apartadoID).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepo) Update(ctx context.Context, t *model.Ticket) error {
	return r.db.WithContext(ctx).Save(t).Error
}
