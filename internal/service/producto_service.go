package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// precioCacheTTL keeps the barcode price check fast at the counter without
// serving stale metal rates for long.
const precioCacheTTL = 60 * time.Second

type ProductoService interface {
	Crear(ctx context.Context, tenant string, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, tenant string, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, tenant string, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, tenant string, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, tenant string, id uuid.UUID) error
	// ConsultarPrecio is the barcode price check used at the counter. For
	// price-per-gram pieces the price is derived from the latest metal rate.
	ConsultarPrecio(ctx context.Context, tenant, codigo string) (*dto.PrecioConsultaResponse, error)
}

type productoService struct {
	repo           repository.ProductoRepository
	cotizacionRepo repository.CotizacionRepository
	rdb            *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, cotizacionRepo repository.CotizacionRepository, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, cotizacionRepo: cotizacionRepo, rdb: rdb}
}

func (s *productoService) Crear(ctx context.Context, tenant string, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if existing, err := s.repo.FindByCodigo(ctx, tenant, req.Codigo); err == nil && existing != nil {
		return nil, apierror.Validacion(fmt.Sprintf("ya existe un producto con código %s", req.Codigo))
	}

	p := &model.Producto{
		Tenant:         tenant,
		Codigo:         req.Codigo,
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		Categoria:      req.Categoria,
		Metal:          req.Metal,
		Quilataje:      req.Quilataje,
		PesoGramos:     req.PesoGramos,
		PrecioCosto:    req.PrecioCosto,
		PrecioVenta:    req.PrecioVenta,
		PrecioPorGramo: req.PrecioPorGramo,
		MargenPct:      req.MargenPct,
		StockActual:    req.StockActual,
		StockMinimo:    req.StockMinimo,
		Activo:         true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, tenant string, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "producto"}
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, tenant string, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, tenant, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		items = append(items, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, tenant string, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "producto"}
	}

	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Categoria != nil {
		p.Categoria = *req.Categoria
	}
	if req.Quilataje != nil {
		p.Quilataje = *req.Quilataje
	}
	if req.PesoGramos != nil {
		p.PesoGramos = *req.PesoGramos
	}
	if req.PrecioCosto != nil {
		p.PrecioCosto = *req.PrecioCosto
	}
	if req.PrecioVenta != nil {
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.PrecioPorGramo != nil {
		p.PrecioPorGramo = *req.PrecioPorGramo
	}
	if req.MargenPct != nil {
		p.MargenPct = *req.MargenPct
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidarCachePrecio(ctx, tenant, p.Codigo)
	return productoToResponse(p), nil
}

func (s *productoService) Desactivar(ctx context.Context, tenant string, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Tenant != tenant {
		return &apierror.NotFoundError{Recurso: "producto"}
	}
	s.invalidarCachePrecio(ctx, tenant, p.Codigo)
	return s.repo.SetActivo(ctx, id, false)
}

// ── ConsultarPrecio ───────────────────────────────────────────────────────────

func (s *productoService) ConsultarPrecio(ctx context.Context, tenant, codigo string) (*dto.PrecioConsultaResponse, error) {
	cacheKey := fmt.Sprintf("precio:%s:%s", tenant, codigo)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.PrecioConsultaResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.repo.FindByCodigo(ctx, tenant, codigo)
	if err != nil {
		return nil, err
	}

	resp := &dto.PrecioConsultaResponse{
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		PrecioVenta: p.PrecioVenta,
	}

	if p.PrecioPorGramo {
		cotizacion, err := s.cotizacionRepo.Ultima(ctx, p.Metal)
		if err == nil {
			resp.PrecioVenta = precioPorGramo(p, cotizacion.PrecioGramo)
			resp.Cotizado = true
		}
		// No rate on record: fall back to the fixed tag price.
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = s.rdb.Set(ctx, cacheKey, payload, precioCacheTTL).Err()
		}
	}

	return resp, nil
}

// precioPorGramo derives the selling price from the metal rate:
// peso × cotización × (1 + margen/100), rounded to centavos.
func precioPorGramo(p *model.Producto, precioGramo decimal.Decimal) decimal.Decimal {
	margen := decimal.NewFromInt(1).Add(p.MargenPct.Div(cien))
	return p.PesoGramos.Mul(precioGramo).Mul(margen).Round(2)
}

func (s *productoService) invalidarCachePrecio(ctx context.Context, tenant, codigo string) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, fmt.Sprintf("precio:%s:%s", tenant, codigo)).Err()
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:             p.ID.String(),
		Codigo:         p.Codigo,
		Nombre:         p.Nombre,
		Descripcion:    p.Descripcion,
		Categoria:      p.Categoria,
		Metal:          p.Metal,
		Quilataje:      p.Quilataje,
		PesoGramos:     p.PesoGramos,
		PrecioVenta:    p.PrecioVenta,
		PrecioPorGramo: p.PrecioPorGramo,
		StockActual:    p.StockActual,
		StockMinimo:    p.StockMinimo,
		Activo:         p.Activo,
	}
}
