package service

import (
	"context"
	"fmt"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioService covers stock movement recording, manual adjustments and
// low-stock alerts. Every stock change leaves an immutable MovimientoStock.
type InventarioService interface {
	// DescontarStockTx is called within a sale or apartado transaction.
	DescontarStockTx(ctx context.Context, productoID uuid.UUID, cantidad int, tx *gorm.DB) error
	RegistrarMovimientoTx(tx *gorm.DB, m *model.MovimientoStock) error
	AjustarStock(ctx context.Context, tenant string, actor Actor, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
	ObtenerAlertas(ctx context.Context, tenant string) ([]dto.ProductoResponse, error)
	ListarMovimientos(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error)
}

type inventarioService struct {
	repo      repository.ProductoRepository
	stockRepo repository.MovimientoStockRepository
}

func NewInventarioService(repo repository.ProductoRepository, stockRepo repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{repo: repo, stockRepo: stockRepo}
}

func (s *inventarioService) DescontarStockTx(ctx context.Context, productoID uuid.UUID, cantidad int, tx *gorm.DB) error {
	return s.repo.UpdateStockTx(tx, productoID, -cantidad)
}

func (s *inventarioService) RegistrarMovimientoTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return s.stockRepo.CreateTx(tx, m)
}

// AjustarStock applies a signed manual correction (merma, conteo físico,
// devolución a vitrina) and records the movement with the actor's motive.
func (s *inventarioService) AjustarStock(ctx context.Context, tenant string, actor Actor, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, productoID)
	if err != nil {
		return nil, err
	}
	if p.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "producto"}
	}
	if p.StockActual+req.Cantidad < 0 {
		return nil, apierror.Validacion("el ajuste dejaría el stock en negativo")
	}

	txErr := runTx(ctx, s.stockRepo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateStockTx(tx, productoID, req.Cantidad); err != nil {
			return err
		}
		mov := &model.MovimientoStock{
			ProductoID:    productoID,
			Tipo:          "ajuste",
			Cantidad:      req.Cantidad,
			StockAnterior: p.StockActual,
			StockNuevo:    p.StockActual + req.Cantidad,
			Motivo:        fmt.Sprintf("%s — %s", req.Motivo, actor.Username),
		}
		return s.stockRepo.CreateTx(tx, mov)
	})
	if txErr != nil {
		return nil, txErr
	}

	p.StockActual += req.Cantidad
	return productoToResponse(p), nil
}

func (s *inventarioService) ObtenerAlertas(ctx context.Context, tenant string) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.ListBajoStock(ctx, tenant)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		resp = append(resp, *productoToResponse(&productos[i]))
	}
	return resp, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.stockRepo.ListByProducto(ctx, productoID, limit)
}
