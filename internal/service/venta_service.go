package service

import (
	"context"
	"fmt"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, tenant string, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, tenant string, actor Actor, id uuid.UUID, motivo string) error
	ListVentas(ctx context.Context, tenant string, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	inventario   InventarioService
	caja         CajaService
	cajaRepo     repository.CajaRepository
	productoRepo repository.ProductoRepository
}

func NewVentaService(
	repo repository.VentaRepository,
	inventario InventarioService,
	caja CajaService,
	cajaRepo repository.CajaRepository,
	productoRepo repository.ProductoRepository,
) VentaService {
	return &ventaService{
		repo:         repo,
		inventario:   inventario,
		caja:         caja,
		cajaRepo:     cajaRepo,
		productoRepo: productoRepo,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Cash (contado) sale: paid in full at the counter, one ACID transaction.
//  1. Validate sesión de caja is open
//  2. For each item: fetch product price, calc subtotal, check stock
//  3. Validate total pagos >= total venta
//  4. BEGIN TX: nextval ticket, create venta+items+pagos, descontar stock,
//     crear movimientos de caja
//  5. COMMIT

func (s *ventaService) RegistrarVenta(ctx context.Context, tenant string, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validacion("sesion_caja_id inválido")
	}

	if err := s.caja.FindSesionAbierta(ctx, tenant, sesionID); err != nil {
		return nil, err
	}

	// Resolve products and calculate totals (pre-flight, outside TX)
	type resolvedItem struct {
		productoID uuid.UUID
		nombre     string
		precio     decimal.Decimal
		cantidad   int
		descuento  decimal.Decimal
		subtotal   decimal.Decimal
		stockAntes int
	}

	var resolved []resolvedItem
	subtotal := decimal.Zero
	descuentoTotal := decimal.Zero

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, apierror.Validacion("producto_id inválido")
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, err
		}
		if p.Tenant != tenant {
			return nil, &apierror.NotFoundError{Recurso: "producto"}
		}
		if !p.Activo {
			return nil, apierror.Validacion(fmt.Sprintf("producto %s está inactivo y no puede venderse", p.Nombre))
		}
		if p.StockActual < item.Cantidad {
			return nil, apierror.Validacion(fmt.Sprintf("stock insuficiente para %s", p.Nombre))
		}
		lineSubtotal := p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad))).Sub(item.Descuento)
		subtotal = subtotal.Add(lineSubtotal)
		descuentoTotal = descuentoTotal.Add(item.Descuento)
		resolved = append(resolved, resolvedItem{
			productoID: pid,
			nombre:     p.Nombre,
			precio:     p.PrecioVenta,
			cantidad:   item.Cantidad,
			descuento:  item.Descuento,
			subtotal:   lineSubtotal,
			stockAntes: p.StockActual,
		})
	}

	// Same discount pipeline as apartados, minus the VIP layer.
	total, err := CalcularTotal(subtotal, req.DescuentoPct, nil)
	if err != nil {
		return nil, err
	}

	// Validate payment sufficiency
	totalPagos := decimal.Zero
	for _, pago := range req.Pagos {
		if !pago.Monto.IsPositive() {
			return nil, apierror.Validacion("cada pago debe ser mayor a cero")
		}
		totalPagos = totalPagos.Add(pago.Monto)
	}
	if totalPagos.LessThan(total) {
		return nil, apierror.Validacion("el monto total de pagos es insuficiente")
	}
	vuelto := totalPagos.Sub(total)

	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, apierror.Validacion("cliente_id inválido")
		}
		clienteID = &cid
	}

	var venta model.Venta
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ticketNum, err := s.repo.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}

		venta = model.Venta{
			Tenant:         tenant,
			NumeroTicket:   ticketNum,
			SesionCajaID:   sesionID,
			UsuarioID:      actor.ID,
			ClienteID:      clienteID,
			Subtotal:       subtotal,
			DescuentoTotal: descuentoTotal,
			Total:          total,
			Estado:         "completada",
		}

		for _, r := range resolved {
			venta.Items = append(venta.Items, model.VentaItem{
				ProductoID:     r.productoID,
				Cantidad:       r.cantidad,
				PrecioUnitario: r.precio,
				DescuentoItem:  r.descuento,
				Subtotal:       r.subtotal,
			})
		}

		for _, pago := range req.Pagos {
			venta.Pagos = append(venta.Pagos, model.VentaPago{
				Metodo: pago.Metodo,
				Monto:  pago.Monto,
			})
		}

		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return err
		}

		for _, r := range resolved {
			if err := s.inventario.DescontarStockTx(ctx, r.productoID, r.cantidad, tx); err != nil {
				return fmt.Errorf("error descontando stock de %s: %w", r.nombre, err)
			}

			ventaRef := venta.ID
			mov := &model.MovimientoStock{
				ProductoID:    r.productoID,
				Tipo:          "venta",
				Cantidad:      -r.cantidad,
				StockAnterior: r.stockAntes,
				StockNuevo:    r.stockAntes - r.cantidad,
				Motivo:        fmt.Sprintf("Venta #%d", ticketNum),
				ReferenciaID:  &ventaRef,
			}
			if err := s.inventario.RegistrarMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		// Create movimientos de caja (one per payment method)
		for _, pago := range req.Pagos {
			metodo := pago.Metodo
			mov := model.MovimientoCaja{
				SesionCajaID: sesionID,
				Tipo:         "venta",
				MetodoPago:   &metodo,
				Monto:        pago.Monto,
				Descripcion:  fmt.Sprintf("Venta #%d", ticketNum),
				ReferenciaID: &venta.ID,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, &mov); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := ventaToResponse(&venta)
	resp.Vuelto = vuelto
	// Enrich items with product names from resolved slice
	for i, r := range resolved {
		resp.Items[i].Producto = r.nombre
	}
	return resp, nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Void a completed sale: restores stock and writes inverse caja movements. The
// original movements stay untouched.

func (s *ventaService) AnularVenta(ctx context.Context, tenant string, actor Actor, id uuid.UUID, motivo string) error {
	if !RolPuedeTransicionar(actor.Rol) {
		return apierror.Validacion("rol sin permisos para anular ventas")
	}

	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if venta.Tenant != tenant {
		return &apierror.NotFoundError{Recurso: "venta"}
	}
	if venta.Estado == "anulada" {
		return apierror.Validacion("la venta ya está anulada")
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, item := range venta.Items {
			prodBefore, _ := s.productoRepo.FindByID(ctx, item.ProductoID)
			stockAntes := 0
			if prodBefore != nil {
				stockAntes = prodBefore.StockActual
			}

			if err := s.productoRepo.UpdateStockTx(tx, item.ProductoID, item.Cantidad); err != nil {
				return err
			}

			ventaRef := venta.ID
			movStock := &model.MovimientoStock{
				ProductoID:    item.ProductoID,
				Tipo:          "restore_anulacion",
				Cantidad:      item.Cantidad,
				StockAnterior: stockAntes,
				StockNuevo:    stockAntes + item.Cantidad,
				Motivo:        fmt.Sprintf("Anulación venta #%d — %s", venta.NumeroTicket, motivo),
				ReferenciaID:  &ventaRef,
			}
			if err := s.inventario.RegistrarMovimientoTx(tx, movStock); err != nil {
				return err
			}
		}

		for _, pago := range venta.Pagos {
			metodo := pago.Metodo
			monto := pago.Monto.Neg()
			mov := model.MovimientoCaja{
				SesionCajaID: venta.SesionCajaID,
				Tipo:         "anulacion",
				MetodoPago:   &metodo,
				Monto:        monto,
				Descripcion:  fmt.Sprintf("Anulación venta #%d — %s", venta.NumeroTicket, motivo),
				ReferenciaID: &venta.ID,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, &mov); err != nil {
				return err
			}
		}

		return s.repo.UpdateEstadoTx(tx, id, "anulada")
	})
}

// ListVentas returns a paginated list of sales, filtered by date and estado.
// Default filter: today's completed sales.
func (s *ventaService) ListVentas(ctx context.Context, tenant string, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = "completada"
	}
	ventas, total, err := s.repo.List(ctx, tenant, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		items = append(items, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		items = append(items, dto.ItemVentaResponse{
			Producto:       nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	pagos := make([]dto.PagoRequest, 0, len(v.Pagos))
	for _, p := range v.Pagos {
		pagos = append(pagos, dto.PagoRequest{Metodo: p.Metodo, Monto: p.Monto})
	}
	return &dto.VentaResponse{
		ID:             v.ID.String(),
		NumeroTicket:   v.NumeroTicket,
		Items:          items,
		Subtotal:       v.Subtotal,
		DescuentoTotal: v.DescuentoTotal,
		Total:          v.Total,
		Pagos:          pagos,
		Estado:         v.Estado,
		CreatedAt:      v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
