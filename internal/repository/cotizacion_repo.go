package repository

import (
	"context"
	"errors"

	"joyapos/internal/apierror"
	"joyapos/internal/model"

	"gorm.io/gorm"
)

type CotizacionRepository interface {
	Create(ctx context.Context, c *model.CotizacionMetal) error
	// Ultima returns the most recent rate for a metal.
	Ultima(ctx context.Context, metal string) (*model.CotizacionMetal, error)
	Historial(ctx context.Context, metal string, limit int) ([]model.CotizacionMetal, error)
}

type cotizacionRepo struct{ db *gorm.DB }

func NewCotizacionRepository(db *gorm.DB) CotizacionRepository { return &cotizacionRepo{db: db} }

func (r *cotizacionRepo) Create(ctx context.Context, c *model.CotizacionMetal) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cotizacionRepo) Ultima(ctx context.Context, metal string) (*model.CotizacionMetal, error) {
	var c model.CotizacionMetal
	err := r.db.WithContext(ctx).
		Where("metal = ?", metal).
		Order("created_at DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierror.NotFoundError{Recurso: "cotización"}
	}
	return &c, err
}

func (r *cotizacionRepo) Historial(ctx context.Context, metal string, limit int) ([]model.CotizacionMetal, error) {
	var cotizaciones []model.CotizacionMetal
	err := r.db.WithContext(ctx).
		Where("metal = ?", metal).
		Order("created_at DESC").
		Limit(limit).
		Find(&cotizaciones).Error
	return cotizaciones, err
}
