package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// toleranciaSaldo absorbs rounding noise on the outstanding balance: an abono
// may exceed the saldo by at most this much, and a saldo at or below it counts
// as settled.
var toleranciaSaldo = decimal.NewFromFloat(0.001)

// Actor is the verified identity behind every core call. It is passed
// explicitly into each operation — never read from ambient/global state.
type Actor struct {
	ID       uuid.UUID
	Username string
	Rol      string
}

// ActorSistema authors automatic transitions (balance settlement).
var ActorSistema = Actor{Username: "system", Rol: model.RolAdministrador}

// TicketDispatcher decouples the ledger from the async worker pool. Ticket
// and email jobs are fire-and-forget: enqueue failures never roll back a
// committed payment.
type TicketDispatcher interface {
	EnqueueTicket(ctx context.Context, payload interface{}) error
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

type ApartadoService interface {
	Crear(ctx context.Context, tenant string, actor Actor, req dto.CrearApartadoRequest) (*dto.ApartadoResponse, error)
	RegistrarAbono(ctx context.Context, tenant string, actor Actor, apartadoID uuid.UUID, req dto.RegistrarAbonoRequest) (*dto.AbonoResponse, error)
	CambiarEstado(ctx context.Context, tenant string, actor Actor, apartadoID uuid.UUID, req dto.CambiarEstadoRequest) (*dto.HistorialEstadoResponse, error)
	EstadoCuenta(ctx context.Context, tenant string, apartadoID uuid.UUID) (*dto.EstadoCuentaResponse, error)
	Historial(ctx context.Context, tenant string, apartadoID uuid.UUID) ([]dto.HistorialEstadoResponse, error)
	Obtener(ctx context.Context, tenant string, apartadoID uuid.UUID) (*dto.ApartadoResponse, error)
	Listar(ctx context.Context, tenant string, filter dto.ApartadoFilter) (*dto.ApartadoListResponse, error)
}

type apartadoService struct {
	repo         repository.ApartadoRepository
	productoRepo repository.ProductoRepository
	clienteRepo  repository.ClienteRepository
	cajaRepo     repository.CajaRepository
	stockRepo    repository.MovimientoStockRepository
	dispatcher   TicketDispatcher
}

func NewApartadoService(
	repo repository.ApartadoRepository,
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	cajaRepo repository.CajaRepository,
	stockRepo repository.MovimientoStockRepository,
	dispatcher TicketDispatcher,
) ApartadoService {
	return &apartadoService{
		repo:         repo,
		productoRepo: productoRepo,
		clienteRepo:  clienteRepo,
		cajaRepo:     cajaRepo,
		stockRepo:    stockRepo,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// Opens a layaway or custom order. The total is computed exactly once here —
// no later operation ever recomputes it. At least one strictly-positive
// anticipo is mandatory; each initial abono obeys the same rules as
// RegistrarAbono.

func (s *apartadoService) Crear(ctx context.Context, tenant string, actor Actor, req dto.CrearApartadoRequest) (*dto.ApartadoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.Validacion("cliente_id inválido")
	}
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validacion("sesion_caja_id inválido")
	}

	cliente, err := s.clienteRepo.FindByID(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	if cliente.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "cliente"}
	}

	// VIP discount is a manager decision, recorded once at creation.
	if req.DescuentoVIPPct != nil && !RolPuedeTransicionar(actor.Rol) {
		return nil, apierror.Validacion("solo supervisor o administrador puede aplicar descuento VIP")
	}

	// Resolve products into frozen snapshots (pre-flight, outside TX).
	type resolvedItem struct {
		producto *model.Producto
		cantidad int
		desc     decimal.Decimal
		subtotal decimal.Decimal
	}
	var resolved []resolvedItem
	subtotal := decimal.Zero

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
		lineSubtotal := p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad))).Sub(item.Descuento)
		subtotal = subtotal.Add(lineSubtotal)
		resolved = append(resolved, resolvedItem{producto: p, cantidad: item.Cantidad, desc: item.Descuento, subtotal: lineSubtotal})
	}

	total, err := CalcularTotal(subtotal, req.DescuentoPct, req.DescuentoVIPPct)
	if err != nil {
		return nil, err
	}

	// Anticipo: every initial abono must be strictly positive, and their sum
	// may not exceed the total beyond tolerance.
	anticipo := decimal.Zero
	for _, ab := range req.AbonosIniciales {
		if !ab.Monto.IsPositive() {
			return nil, apierror.Validacion("anticipo requerido: cada abono inicial debe ser mayor a cero")
		}
		anticipo = anticipo.Add(ab.Monto)
	}
	if !anticipo.IsPositive() {
		return nil, apierror.Validacion("anticipo requerido")
	}
	if anticipo.GreaterThan(total.Add(toleranciaSaldo)) {
		return nil, &apierror.OverpaymentError{Maximo: total}
	}

	saldo := total.Sub(anticipo)
	estado := model.EstadoPendiente
	if saldo.LessThanOrEqual(toleranciaSaldo) {
		estado = model.EstadoPagado
	}

	var apartado model.Apartado
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		folio, err := s.repo.NextFolio(ctx, tx)
		if err != nil {
			return err
		}

		apartado = model.Apartado{
			Tenant:          tenant,
			Folio:           folio,
			Tipo:            req.Tipo,
			ClienteID:       clienteID,
			VendedorID:      actor.ID,
			Subtotal:        subtotal,
			DescuentoPct:    req.DescuentoPct,
			DescuentoVIPPct: req.DescuentoVIPPct,
			Total:           total,
			MontoPagado:     anticipo,
			Saldo:           saldo,
			Estado:          estado,
		}

		for _, r := range resolved {
			apartado.Items = append(apartado.Items, model.ApartadoItem{
				ProductoID:     r.producto.ID,
				Nombre:         r.producto.Nombre,
				Codigo:         r.producto.Codigo,
				Metal:          r.producto.Metal,
				Quilataje:      r.producto.Quilataje,
				PesoGramos:     r.producto.PesoGramos,
				Cantidad:       r.cantidad,
				PrecioUnitario: r.producto.PrecioVenta,
				DescuentoItem:  r.desc,
				Subtotal:       r.subtotal,
			})
		}
		for _, ab := range req.AbonosIniciales {
			apartado.Abonos = append(apartado.Abonos, model.Abono{
				Monto:  ab.Monto,
				Metodo: ab.Metodo,
				Notas:  ab.Notas,
			})
		}

		if err := s.repo.Create(ctx, tx, &apartado); err != nil {
			return err
		}

		// Reserve stock: apartado merchandise leaves the showcase.
		for _, r := range resolved {
			if err := s.productoRepo.UpdateStockTx(tx, r.producto.ID, -r.cantidad); err != nil {
				return fmt.Errorf("error reservando stock de %s: %w", r.producto.Nombre, err)
			}
			ref := apartado.ID
			mov := &model.MovimientoStock{
				ProductoID:    r.producto.ID,
				Tipo:          "apartado",
				Cantidad:      -r.cantidad,
				StockAnterior: r.producto.StockActual,
				StockNuevo:    r.producto.StockActual - r.cantidad,
				Motivo:        fmt.Sprintf("Apartado folio %d", folio),
				ReferenciaID:  &ref,
			}
			if err := s.stockRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		// The anticipo enters the drawer: one caja movement per instrument.
		for i := range apartado.Abonos {
			ab := &apartado.Abonos[i]
			metodo := ab.Metodo
			mov := &model.MovimientoCaja{
				SesionCajaID: sesionID,
				Tipo:         "abono",
				MetodoPago:   &metodo,
				Monto:        ab.Monto,
				Descripcion:  fmt.Sprintf("Anticipo apartado folio %d", folio),
				ReferenciaID: &ab.ID,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.despacharTicket(ctx, &apartado, req.ClienteEmail)

	resp := apartadoToResponse(&apartado)
	return resp, nil
}

// ── RegistrarAbono ───────────────────────────────────────────────────────────
// Records one installment as a single atomic unit under the per-apartado row
// lock: read balance → validate → write abono → write new balance → possibly
// auto-transition to pagado. A lost-update conflict is retried once before
// surfacing ConcurrentModificationError. Ticket generation happens after the
// commit and can only ever produce a warning.

func (s *apartadoService) RegistrarAbono(ctx context.Context, tenant string, actor Actor, apartadoID uuid.UUID, req dto.RegistrarAbonoRequest) (*dto.AbonoResponse, error) {
	resp, err := s.registrarAbonoOnce(ctx, tenant, apartadoID, req)
	var conflicto *apierror.ConcurrentModificationError
	if errors.As(err, &conflicto) {
		log.Warn().Str("apartado_id", apartadoID.String()).Msg("conflicto de concurrencia en abono, reintentando")
		resp, err = s.registrarAbonoOnce(ctx, tenant, apartadoID, req)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *apartadoService) registrarAbonoOnce(ctx context.Context, tenant string, apartadoID uuid.UUID, req dto.RegistrarAbonoRequest) (*dto.AbonoResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, apierror.Validacion("el monto del abono debe ser mayor a cero")
	}
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validacion("sesion_caja_id inválido")
	}

	var abono model.Abono
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		apartado, err := s.repo.FindByIDForUpdate(ctx, tx, apartadoID)
		if err != nil {
			return err
		}
		if apartado.Tenant != tenant {
			return &apierror.NotFoundError{Recurso: "apartado"}
		}
		if apartado.EsTerminal() {
			return &apierror.InvalidStateError{Estado: apartado.Estado}
		}
		if req.Monto.GreaterThan(apartado.Saldo.Add(toleranciaSaldo)) {
			return &apierror.OverpaymentError{Maximo: apartado.Saldo}
		}

		abono = model.Abono{
			ApartadoID: apartadoID,
			Monto:      req.Monto,
			Metodo:     req.Metodo,
			Notas:      req.Notas,
		}
		if err := s.repo.CreateAbonoTx(ctx, tx, &abono); err != nil {
			return err
		}

		// amount_paid stays the exact sum of abonos; saldo stays the exact
		// difference (display clamps at zero, the arithmetic never does).
		apartado.MontoPagado = apartado.MontoPagado.Add(req.Monto)
		apartado.Saldo = apartado.Total.Sub(apartado.MontoPagado)

		if apartado.Saldo.LessThanOrEqual(toleranciaSaldo) && apartado.Estado != model.EstadoPagado {
			if err := ValidarTransicion(apartado.Estado, model.EstadoPagado); err != nil {
				return err
			}
			anterior := apartado.Estado
			apartado.Estado = model.EstadoPagado
			if err := s.repo.CreateHistorialTx(ctx, tx, &model.HistorialEstado{
				ApartadoID:     apartadoID,
				EstadoAnterior: anterior,
				EstadoNuevo:    model.EstadoPagado,
				Actor:          ActorSistema.Username,
			}); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateLedgerTx(ctx, tx, apartado); err != nil {
			return err
		}

		metodo := abono.Metodo
		mov := &model.MovimientoCaja{
			SesionCajaID: sesionID,
			Tipo:         "abono",
			MetodoPago:   &metodo,
			Monto:        abono.Monto,
			Descripcion:  fmt.Sprintf("Abono apartado folio %d", apartado.Folio),
			ReferenciaID: &abono.ID,
		}
		return s.cajaRepo.CreateMovimientoTx(tx, mov)
	})
	if txErr != nil {
		return nil, txErr
	}

	warning := s.despacharTicketAbono(ctx, apartadoID, abono.ID, req.ClienteEmail)

	resp := &dto.AbonoResponse{
		ID:            abono.ID.String(),
		Monto:         abono.Monto,
		Metodo:        abono.Metodo,
		Notas:         abono.Notas,
		CreatedAt:     abono.CreatedAt.Format("2006-01-02T15:04:05Z"),
		TicketWarning: warning,
	}
	return resp, nil
}

// ── CambiarEstado ─────────────────────────────────────────────────────────────
// Administrative status transition. The transition table is the only
// authority; every change appends exactly one immutable history entry.

func (s *apartadoService) CambiarEstado(ctx context.Context, tenant string, actor Actor, apartadoID uuid.UUID, req dto.CambiarEstadoRequest) (*dto.HistorialEstadoResponse, error) {
	if !RolPuedeTransicionar(actor.Rol) {
		return nil, apierror.Validacion("rol sin permisos para cambiar el estado")
	}

	var entrada model.HistorialEstado
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		apartado, err := s.repo.FindByIDForUpdate(ctx, tx, apartadoID)
		if err != nil {
			return err
		}
		if apartado.Tenant != tenant {
			return &apierror.NotFoundError{Recurso: "apartado"}
		}
		if err := ValidarTransicion(apartado.Estado, req.Estado); err != nil {
			return err
		}

		anterior := apartado.Estado
		apartado.Estado = req.Estado
		if err := s.repo.UpdateLedgerTx(ctx, tx, apartado); err != nil {
			return err
		}

		entrada = model.HistorialEstado{
			ApartadoID:     apartadoID,
			EstadoAnterior: anterior,
			EstadoNuevo:    req.Estado,
			Actor:          actor.Username,
			Notas:          req.Notas,
		}
		return s.repo.CreateHistorialTx(ctx, tx, &entrada)
	})
	if txErr != nil {
		return nil, txErr
	}

	return historialToResponse(&entrada), nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *apartadoService) EstadoCuenta(ctx context.Context, tenant string, apartadoID uuid.UUID) (*dto.EstadoCuentaResponse, error) {
	apartado, err := s.buscarEnTenant(ctx, tenant, apartadoID)
	if err != nil {
		return nil, err
	}
	saldo := apartado.Saldo
	if saldo.IsNegative() {
		saldo = decimal.Zero
	}
	return &dto.EstadoCuentaResponse{
		Total:       apartado.Total,
		MontoPagado: apartado.MontoPagado,
		Saldo:       saldo,
		SaldoExacto: apartado.Saldo,
		Estado:      apartado.Estado,
	}, nil
}

func (s *apartadoService) Historial(ctx context.Context, tenant string, apartadoID uuid.UUID) ([]dto.HistorialEstadoResponse, error) {
	if _, err := s.buscarEnTenant(ctx, tenant, apartadoID); err != nil {
		return nil, err
	}
	entradas, err := s.repo.ListHistorial(ctx, apartadoID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.HistorialEstadoResponse, 0, len(entradas))
	for i := range entradas {
		resp = append(resp, *historialToResponse(&entradas[i]))
	}
	return resp, nil
}

func (s *apartadoService) Obtener(ctx context.Context, tenant string, apartadoID uuid.UUID) (*dto.ApartadoResponse, error) {
	apartado, err := s.buscarEnTenant(ctx, tenant, apartadoID)
	if err != nil {
		return nil, err
	}
	resp := apartadoToResponse(apartado)
	aging := ClasificarAntiguedad(apartado, time.Now())
	resp.Aging = &aging
	return resp, nil
}

func (s *apartadoService) Listar(ctx context.Context, tenant string, filter dto.ApartadoFilter) (*dto.ApartadoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	apartados, total, err := s.repo.List(ctx, tenant, filter)
	if err != nil {
		return nil, err
	}
	ahora := time.Now()
	items := make([]dto.ApartadoResponse, 0, len(apartados))
	for i := range apartados {
		resp := apartadoToResponse(&apartados[i])
		aging := ClasificarAntiguedad(&apartados[i], ahora)
		resp.Aging = &aging
		items = append(items, *resp)
	}
	return &dto.ApartadoListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *apartadoService) buscarEnTenant(ctx context.Context, tenant string, apartadoID uuid.UUID) (*model.Apartado, error) {
	apartado, err := s.repo.FindByID(ctx, apartadoID)
	if err != nil {
		return nil, err
	}
	if apartado.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "apartado"}
	}
	return apartado, nil
}

// ── Ticket dispatch ──────────────────────────────────────────────────────────

// despacharTicket enqueues ticket jobs for every initial abono of a freshly
// created apartado. Best-effort: failures are logged, never surfaced as
// operation errors.
func (s *apartadoService) despacharTicket(ctx context.Context, apartado *model.Apartado, email *string) {
	if s.dispatcher == nil {
		return
	}
	for i := range apartado.Abonos {
		payload := map[string]interface{}{
			"apartado_id": apartado.ID.String(),
			"abono_id":    apartado.Abonos[i].ID.String(),
		}
		if email != nil && *email != "" {
			payload["cliente_email"] = *email
		}
		if err := s.dispatcher.EnqueueTicket(ctx, payload); err != nil {
			log.Warn().Err(err).Str("apartado_id", apartado.ID.String()).Msg("no se pudo encolar el ticket del anticipo")
		}
	}
}

// despacharTicketAbono enqueues the ticket job of one abono and returns the
// warning text when the enqueue itself fails.
func (s *apartadoService) despacharTicketAbono(ctx context.Context, apartadoID, abonoID uuid.UUID, email *string) *string {
	if s.dispatcher == nil {
		return nil
	}
	payload := map[string]interface{}{
		"apartado_id": apartadoID.String(),
		"abono_id":    abonoID.String(),
	}
	if email != nil && *email != "" {
		payload["cliente_email"] = *email
	}
	if err := s.dispatcher.EnqueueTicket(ctx, payload); err != nil {
		log.Warn().Err(err).Str("apartado_id", apartadoID.String()).Msg("no se pudo encolar el ticket del abono")
		w := (&apierror.TicketGenerationError{Causa: err.Error()}).Error()
		return &w
	}
	return nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func apartadoToResponse(a *model.Apartado) *dto.ApartadoResponse {
	items := make([]dto.ItemApartadoResponse, 0, len(a.Items))
	for _, item := range a.Items {
		items = append(items, dto.ItemApartadoResponse{
			Producto:       item.Nombre,
			Codigo:         item.Codigo,
			Metal:          item.Metal,
			Quilataje:      item.Quilataje,
			PesoGramos:     item.PesoGramos,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	abonos := make([]dto.AbonoResponse, 0, len(a.Abonos))
	for _, ab := range a.Abonos {
		abonos = append(abonos, dto.AbonoResponse{
			ID:        ab.ID.String(),
			Monto:     ab.Monto,
			Metodo:    ab.Metodo,
			Notas:     ab.Notas,
			CreatedAt: ab.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	saldo := a.Saldo
	if saldo.IsNegative() {
		saldo = decimal.Zero
	}
	return &dto.ApartadoResponse{
		ID:              a.ID.String(),
		Folio:           a.Folio,
		Tipo:            a.Tipo,
		ClienteID:       a.ClienteID.String(),
		Items:           items,
		Subtotal:        a.Subtotal,
		DescuentoPct:    a.DescuentoPct,
		DescuentoVIPPct: a.DescuentoVIPPct,
		Total:           a.Total,
		MontoPagado:     a.MontoPagado,
		Saldo:           saldo,
		Estado:          a.Estado,
		Abonos:          abonos,
		CreatedAt:       a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func historialToResponse(h *model.HistorialEstado) *dto.HistorialEstadoResponse {
	return &dto.HistorialEstadoResponse{
		ID:             h.ID.String(),
		EstadoAnterior: h.EstadoAnterior,
		EstadoNuevo:    h.EstadoNuevo,
		Actor:          h.Actor,
		Notas:          h.Notas,
		CreatedAt:      h.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
