package repository

import (
	"context"
	"errors"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApartadoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, a *model.Apartado) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Apartado, error)
	// FindByIDForUpdate takes the per-apartado row lock inside tx. Every
	// ledger mutation (abono, transition) must go through this.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Apartado, error)
	// UpdateLedgerTx persists monto_pagado/saldo/estado guarded by the
	// optimistic version check. Returns ConcurrentModificationError when the
	// row version moved underneath the caller.
	UpdateLedgerTx(ctx context.Context, tx *gorm.DB, a *model.Apartado) error
	CreateAbonoTx(ctx context.Context, tx *gorm.DB, ab *model.Abono) error
	CreateHistorialTx(ctx context.Context, tx *gorm.DB, h *model.HistorialEstado) error
	ListAbonos(ctx context.Context, apartadoID uuid.UUID) ([]model.Abono, error)
	FindAbonoByID(ctx context.Context, id uuid.UUID) (*model.Abono, error)
	ListHistorial(ctx context.Context, apartadoID uuid.UUID) ([]model.HistorialEstado, error)
	List(ctx context.Context, tenant string, filter dto.ApartadoFilter) ([]model.Apartado, int64, error)
	NextFolio(ctx context.Context, tx *gorm.DB) (int, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type apartadoRepo struct{ db *gorm.DB }

func NewApartadoRepository(db *gorm.DB) ApartadoRepository { return &apartadoRepo{db: db} }

func (r *apartadoRepo) DB() *gorm.DB { return r.db }

func (r *apartadoRepo) Create(ctx context.Context, tx *gorm.DB, a *model.Apartado) error {
	return tx.WithContext(ctx).Create(a).Error
}

func (r *apartadoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Apartado, error) {
	var a model.Apartado
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Abonos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Cliente").
		First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierror.NotFoundError{Recurso: "apartado"}
	}
	return &a, err
}

func (r *apartadoRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Apartado, error) {
	var a model.Apartado
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierror.NotFoundError{Recurso: "apartado"}
	}
	return &a, err
}

func (r *apartadoRepo) UpdateLedgerTx(ctx context.Context, tx *gorm.DB, a *model.Apartado) error {
	res := tx.WithContext(ctx).Model(&model.Apartado{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]interface{}{
			"monto_pagado": a.MontoPagado,
			"saldo":        a.Saldo,
			"estado":       a.Estado,
			"version":      a.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &apierror.ConcurrentModificationError{}
	}
	a.Version++
	return nil
}

func (r *apartadoRepo) CreateAbonoTx(ctx context.Context, tx *gorm.DB, ab *model.Abono) error {
	return tx.WithContext(ctx).Create(ab).Error
}

func (r *apartadoRepo) CreateHistorialTx(ctx context.Context, tx *gorm.DB, h *model.HistorialEstado) error {
	return tx.WithContext(ctx).Create(h).Error
}

func (r *apartadoRepo) ListAbonos(ctx context.Context, apartadoID uuid.UUID) ([]model.Abono, error) {
	var abonos []model.Abono
	// Sorted by created_at, not by id: regeneration arithmetic depends on the
	// temporal order of payments.
	err := r.db.WithContext(ctx).
		Where("apartado_id = ?", apartadoID).
		Order("created_at ASC").
		Find(&abonos).Error
	return abonos, err
}

func (r *apartadoRepo) FindAbonoByID(ctx context.Context, id uuid.UUID) (*model.Abono, error) {
	var ab model.Abono
	err := r.db.WithContext(ctx).First(&ab, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apierror.NotFoundError{Recurso: "abono"}
	}
	return &ab, err
}

func (r *apartadoRepo) ListHistorial(ctx context.Context, apartadoID uuid.UUID) ([]model.HistorialEstado, error) {
	var hist []model.HistorialEstado
	err := r.db.WithContext(ctx).
		Where("apartado_id = ?", apartadoID).
		Order("created_at ASC").
		Find(&hist).Error
	return hist, err
}

func (r *apartadoRepo) List(ctx context.Context, tenant string, filter dto.ApartadoFilter) ([]model.Apartado, int64, error) {
	var apartados []model.Apartado
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Apartado{}).Where("tenant = ?", tenant)

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Tipo != "" && filter.Tipo != "all" {
		q = q.Where("tipo = ?", filter.Tipo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Preload("Cliente").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&apartados).Error

	return apartados, total, err
}

func (r *apartadoRepo) NextFolio(ctx context.Context, tx *gorm.DB) (int, error) {
	// Uses a PostgreSQL sequence for atomic folio generation
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('apartados_folio_seq')").Scan(&num).Error
	return num, err
}
