package service

import (
	"context"

	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CotizacionesClient fetches current metal rates from the external quote
// provider. Implemented in infra with a circuit breaker around the HTTP call.
type CotizacionesClient interface {
	ObtenerPrecios(ctx context.Context) (map[string]decimal.Decimal, error)
}

type CotizacionService interface {
	RegistrarManual(ctx context.Context, req dto.RegistrarCotizacionRequest) (*dto.CotizacionResponse, error)
	Ultima(ctx context.Context, metal string) (*dto.CotizacionResponse, error)
	Historial(ctx context.Context, metal string, limit int) ([]dto.CotizacionResponse, error)
	// RefrescarDesdeProveedor pulls fresh rates and appends them to the
	// history. Called by the periodic cron; safe to call concurrently since
	// the history is append-only.
	RefrescarDesdeProveedor(ctx context.Context) error
}

type cotizacionService struct {
	repo    repository.CotizacionRepository
	cliente CotizacionesClient
}

func NewCotizacionService(repo repository.CotizacionRepository, cliente CotizacionesClient) CotizacionService {
	return &cotizacionService{repo: repo, cliente: cliente}
}

func (s *cotizacionService) RegistrarManual(ctx context.Context, req dto.RegistrarCotizacionRequest) (*dto.CotizacionResponse, error) {
	c := &model.CotizacionMetal{
		Metal:       req.Metal,
		PrecioGramo: req.PrecioGramo,
		Fuente:      "manual",
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return cotizacionToResponse(c), nil
}

func (s *cotizacionService) Ultima(ctx context.Context, metal string) (*dto.CotizacionResponse, error) {
	c, err := s.repo.Ultima(ctx, metal)
	if err != nil {
		return nil, err
	}
	return cotizacionToResponse(c), nil
}

func (s *cotizacionService) Historial(ctx context.Context, metal string, limit int) ([]dto.CotizacionResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	cotizaciones, err := s.repo.Historial(ctx, metal, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CotizacionResponse, 0, len(cotizaciones))
	for i := range cotizaciones {
		resp = append(resp, *cotizacionToResponse(&cotizaciones[i]))
	}
	return resp, nil
}

func (s *cotizacionService) RefrescarDesdeProveedor(ctx context.Context) error {
	precios, err := s.cliente.ObtenerPrecios(ctx)
	if err != nil {
		return err
	}
	for metal, precio := range precios {
		c := &model.CotizacionMetal{
			Metal:       metal,
			PrecioGramo: precio,
			Fuente:      "proveedor",
		}
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		log.Info().Str("metal", metal).Str("precio_gramo", precio.StringFixed(2)).Msg("cotización actualizada")
	}
	return nil
}

func cotizacionToResponse(c *model.CotizacionMetal) *dto.CotizacionResponse {
	return &dto.CotizacionResponse{
		Metal:       c.Metal,
		PrecioGramo: c.PrecioGramo,
		Fuente:      c.Fuente,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
