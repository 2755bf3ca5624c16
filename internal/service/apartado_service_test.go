package service

import (
	"context"
	"testing"
	"time"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubApartadoRepo is an in-memory ApartadoRepository. DB() returns nil so the
// service runs its transaction body directly.
type stubApartadoRepo struct {
	apartados map[uuid.UUID]*model.Apartado
	abonos    map[uuid.UUID][]model.Abono
	historial map[uuid.UUID][]model.HistorialEstado
	folio     int
	reloj     time.Time
	// conflictos fuerza N fallos de versión consecutivos en UpdateLedgerTx.
	conflictos int
}

func newStubApartadoRepo() *stubApartadoRepo {
	return &stubApartadoRepo{
		apartados: make(map[uuid.UUID]*model.Apartado),
		abonos:    make(map[uuid.UUID][]model.Abono),
		historial: make(map[uuid.UUID][]model.HistorialEstado),
		reloj:     time.Now(),
	}
}

func (r *stubApartadoRepo) tick() time.Time {
	r.reloj = r.reloj.Add(time.Second)
	return r.reloj
}

func (r *stubApartadoRepo) Create(_ context.Context, _ *gorm.DB, a *model.Apartado) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	a.CreatedAt = r.tick()
	for i := range a.Abonos {
		a.Abonos[i].ID = uuid.New()
		a.Abonos[i].ApartadoID = a.ID
		a.Abonos[i].CreatedAt = r.tick()
		r.abonos[a.ID] = append(r.abonos[a.ID], a.Abonos[i])
	}
	copia := *a
	r.apartados[a.ID] = &copia
	return nil
}

func (r *stubApartadoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Apartado, error) {
	a, ok := r.apartados[id]
	if !ok {
		return nil, &apierror.NotFoundError{Recurso: "apartado"}
	}
	copia := *a
	copia.Abonos = append([]model.Abono(nil), r.abonos[id]...)
	return &copia, nil
}

func (r *stubApartadoRepo) FindByIDForUpdate(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Apartado, error) {
	return r.FindByID(ctx, id)
}

func (r *stubApartadoRepo) UpdateLedgerTx(_ context.Context, _ *gorm.DB, a *model.Apartado) error {
	if r.conflictos > 0 {
		r.conflictos--
		return &apierror.ConcurrentModificationError{}
	}
	stored, ok := r.apartados[a.ID]
	if !ok {
		return &apierror.NotFoundError{Recurso: "apartado"}
	}
	if stored.Version != a.Version {
		return &apierror.ConcurrentModificationError{}
	}
	stored.MontoPagado = a.MontoPagado
	stored.Saldo = a.Saldo
	stored.Estado = a.Estado
	stored.Version++
	a.Version = stored.Version
	return nil
}

func (r *stubApartadoRepo) CreateAbonoTx(_ context.Context, _ *gorm.DB, ab *model.Abono) error {
	ab.ID = uuid.New()
	ab.CreatedAt = r.tick()
	r.abonos[ab.ApartadoID] = append(r.abonos[ab.ApartadoID], *ab)
	return nil
}

func (r *stubApartadoRepo) CreateHistorialTx(_ context.Context, _ *gorm.DB, h *model.HistorialEstado) error {
	h.ID = uuid.New()
	h.CreatedAt = r.tick()
	r.historial[h.ApartadoID] = append(r.historial[h.ApartadoID], *h)
	return nil
}

func (r *stubApartadoRepo) ListAbonos(_ context.Context, apartadoID uuid.UUID) ([]model.Abono, error) {
	return append([]model.Abono(nil), r.abonos[apartadoID]...), nil
}

func (r *stubApartadoRepo) FindAbonoByID(_ context.Context, id uuid.UUID) (*model.Abono, error) {
	for _, lista := range r.abonos {
		for i := range lista {
			if lista[i].ID == id {
				return &lista[i], nil
			}
		}
	}
	return nil, &apierror.NotFoundError{Recurso: "abono"}
}

func (r *stubApartadoRepo) ListHistorial(_ context.Context, apartadoID uuid.UUID) ([]model.HistorialEstado, error) {
	return append([]model.HistorialEstado(nil), r.historial[apartadoID]...), nil
}

func (r *stubApartadoRepo) List(_ context.Context, tenant string, _ dto.ApartadoFilter) ([]model.Apartado, int64, error) {
	var out []model.Apartado
	for _, a := range r.apartados {
		if a.Tenant == tenant {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubApartadoRepo) NextFolio(_ context.Context, _ *gorm.DB) (int, error) {
	r.folio++
	return r.folio, nil
}

func (r *stubApartadoRepo) DB() *gorm.DB { return nil }

var _ repository.ApartadoRepository = (*stubApartadoRepo)(nil)

// stubProductoRepo holds a fixed catalog.
type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, &apierror.NotFoundError{Recurso: "producto"}
	}
	return p, nil
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) FindByCodigo(_ context.Context, _, codigo string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.Codigo == codigo {
			return p, nil
		}
	}
	return nil, &apierror.NotFoundError{Recurso: "producto"}
}

func (r *stubProductoRepo) List(_ context.Context, _ string, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	return nil, 0, nil
}

func (r *stubProductoRepo) Update(_ context.Context, _ *model.Producto) error { return nil }

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.productos[id]
	if !ok {
		return &apierror.NotFoundError{Recurso: "producto"}
	}
	p.StockActual += delta
	return nil
}

func (r *stubProductoRepo) SetActivo(_ context.Context, _ uuid.UUID, _ bool) error { return nil }

func (r *stubProductoRepo) ListBajoStock(_ context.Context, _ string) ([]model.Producto, error) {
	return nil, nil
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// stubClienteRepo returns a single known client.
type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, &apierror.NotFoundError{Recurso: "cliente"}
	}
	return c, nil
}

func (r *stubClienteRepo) List(_ context.Context, _ string, _ bool) ([]model.Cliente, error) {
	return nil, nil
}
func (r *stubClienteRepo) Update(_ context.Context, _ *model.Cliente) error       { return nil }
func (r *stubClienteRepo) SetActivo(_ context.Context, _ uuid.UUID, _ bool) error { return nil }

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// stubCajaRepo captures drawer movements for assertion.
type stubCajaRepo struct {
	movimientos []model.MovimientoCaja
}

func (r *stubCajaRepo) CreateSesion(_ context.Context, _ *model.SesionCaja) error { return nil }
func (r *stubCajaRepo) FindSesionAbiertaPorPDV(_ context.Context, _ string, _ int) (*model.SesionCaja, error) {
	return nil, nil
}
func (r *stubCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	return &model.SesionCaja{ID: id, Estado: "abierta"}, nil
}
func (r *stubCajaRepo) UpdateSesion(_ context.Context, _ *model.SesionCaja) error { return nil }
func (r *stubCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}
func (r *stubCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}
func (r *stubCajaRepo) ListMovimientos(_ context.Context, _ uuid.UUID) ([]model.MovimientoCaja, error) {
	return nil, nil
}
func (r *stubCajaRepo) SumMovimientosByMetodo(_ context.Context, _ uuid.UUID) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}
func (r *stubCajaRepo) ListSesiones(_ context.Context, _ string, _ int) ([]model.SesionCaja, error) {
	return nil, nil
}

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

// stubStockRepo records inventory movements.
type stubStockRepo struct {
	movimientos []model.MovimientoStock
}

func (r *stubStockRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}
func (r *stubStockRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}
func (r *stubStockRepo) ListByProducto(_ context.Context, _ uuid.UUID, _ int) ([]model.MovimientoStock, error) {
	return nil, nil
}
func (r *stubStockRepo) DB() *gorm.DB { return nil }

var _ repository.MovimientoStockRepository = (*stubStockRepo)(nil)

// stubDispatcher records enqueued jobs; can be told to fail.
type stubDispatcher struct {
	tickets []interface{}
	emails  []interface{}
	falla   bool
}

func (d *stubDispatcher) EnqueueTicket(_ context.Context, payload interface{}) error {
	if d.falla {
		return assert.AnError
	}
	d.tickets = append(d.tickets, payload)
	return nil
}

func (d *stubDispatcher) EnqueueEmail(_ context.Context, payload interface{}) error {
	if d.falla {
		return assert.AnError
	}
	d.emails = append(d.emails, payload)
	return nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

const tenantPrueba = "sucursal-centro"

type fixture struct {
	svc        ApartadoService
	repo       *stubApartadoRepo
	productos  *stubProductoRepo
	caja       *stubCajaRepo
	stock      *stubStockRepo
	dispatcher *stubDispatcher
	clienteID  uuid.UUID
	productoID uuid.UUID
	sesionID   uuid.UUID
	vendedor   Actor
	supervisor Actor
}

func newFixture() *fixture {
	repo := newStubApartadoRepo()
	clienteID := uuid.New()
	productoID := uuid.New()

	clientes := &stubClienteRepo{clientes: map[uuid.UUID]*model.Cliente{
		clienteID: {ID: clienteID, Tenant: tenantPrueba, Nombre: "María López"},
	}}
	productos := &stubProductoRepo{productos: map[uuid.UUID]*model.Producto{
		productoID: {
			ID:          productoID,
			Tenant:      tenantPrueba,
			Codigo:      "AN-014",
			Nombre:      "Anillo oro 14k",
			Metal:       model.MetalOro,
			Quilataje:   "14k",
			PesoGramos:  dec("4.2"),
			PrecioVenta: dec("500"),
			StockActual: 10,
			Activo:      true,
		},
	}}
	caja := &stubCajaRepo{}
	stock := &stubStockRepo{}
	dispatcher := &stubDispatcher{}

	return &fixture{
		svc:        NewApartadoService(repo, productos, clientes, caja, stock, dispatcher),
		repo:       repo,
		productos:  productos,
		caja:       caja,
		stock:      stock,
		dispatcher: dispatcher,
		clienteID:  clienteID,
		productoID: productoID,
		sesionID:   uuid.New(),
		vendedor:   Actor{ID: uuid.New(), Username: "vendedor1", Rol: model.RolVendedor},
		supervisor: Actor{ID: uuid.New(), Username: "super1", Rol: model.RolSupervisor},
	}
}

// crearRequest builds a 3 × $500 layaway (total 1500) with the given anticipo.
func (f *fixture) crearRequest(anticipo string) dto.CrearApartadoRequest {
	return dto.CrearApartadoRequest{
		Tipo:      model.TipoApartado,
		ClienteID: f.clienteID.String(),
		Items: []dto.ItemApartadoRequest{
			{ProductoID: f.productoID.String(), Cantidad: 3},
		},
		AbonosIniciales: []dto.AbonoRequest{
			{Monto: dec(anticipo), Metodo: model.MetodoEfectivo},
		},
		SesionCajaID: f.sesionID.String(),
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func TestCrearApartadoAnticipoRequerido(t *testing.T) {
	f := newFixture()

	req := f.crearRequest("100")
	req.AbonosIniciales = nil
	_, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, req)
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "anticipo requerido")

	// Un abono inicial en cero tampoco cuenta como anticipo.
	req = f.crearRequest("0")
	_, err = f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, req)
	require.ErrorAs(t, err, &verr)
}

func TestCrearApartadoPendienteConAnticipoParcial(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, f.crearRequest("300"))
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPendiente, resp.Estado)
	assert.True(t, dec("1500").Equal(resp.Total))
	assert.True(t, dec("300").Equal(resp.MontoPagado))
	assert.True(t, dec("1200").Equal(resp.Saldo))
	assert.Equal(t, 1, resp.Folio)

	// La creación no escribe historial: el estado inicial se fija directo.
	id := uuid.MustParse(resp.ID)
	hist, _ := f.repo.ListHistorial(context.Background(), id)
	assert.Empty(t, hist)

	// Stock reservado y anticipo en caja.
	assert.Equal(t, 7, f.productos.productos[f.productoID].StockActual)
	require.Len(t, f.stock.movimientos, 1)
	assert.Equal(t, "apartado", f.stock.movimientos[0].Tipo)
	assert.Equal(t, -3, f.stock.movimientos[0].Cantidad)
	require.Len(t, f.caja.movimientos, 1)
	assert.Equal(t, "abono", f.caja.movimientos[0].Tipo)
	assert.True(t, dec("300").Equal(f.caja.movimientos[0].Monto))

	// Un job de ticket por anticipo.
	assert.Len(t, f.dispatcher.tickets, 1)
}

func TestCrearApartadoPagoExactoQuedaPagado(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, f.crearRequest("1500"))
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPagado, resp.Estado)
	assert.True(t, resp.Saldo.IsZero())
}

func TestCrearApartadoToleranciaDeRedondeo(t *testing.T) {
	f := newFixture()

	// 0.0005 por encima del total cae dentro de la tolerancia.
	resp, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, f.crearRequest("1500.0005"))
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPagado, resp.Estado)
}

func TestCrearApartadoSobrepagoRechazado(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, f.crearRequest("1501"))
	var serr *apierror.OverpaymentError
	require.ErrorAs(t, err, &serr)
	assert.True(t, dec("1500").Equal(serr.Maximo))
}

func TestCrearApartadoVIPRequiereRol(t *testing.T) {
	f := newFixture()

	vip := dec("10")
	req := f.crearRequest("300")
	req.DescuentoVIPPct = &vip

	_, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, req)
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)

	resp, err := f.svc.Crear(context.Background(), tenantPrueba, f.supervisor, req)
	require.NoError(t, err)
	// 1500 − VIP 10% = 1350
	assert.True(t, dec("1350").Equal(resp.Total))
}

func TestCrearApartadoClienteDeOtroTenant(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Crear(context.Background(), "otra-sucursal", f.vendedor, f.crearRequest("300"))
	var nf *apierror.NotFoundError
	require.ErrorAs(t, err, &nf)
}

// ── RegistrarAbono ───────────────────────────────────────────────────────────

func abrirApartado(t *testing.T, f *fixture, anticipo string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), tenantPrueba, f.vendedor, f.crearRequest(anticipo))
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func TestRegistrarAbonoLiquidaYTransiciona(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	resp, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("1200"),
		Metodo:       model.MetodoTarjeta,
		SesionCajaID: f.sesionID.String(),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.TicketWarning)

	estado, err := f.svc.EstadoCuenta(context.Background(), tenantPrueba, id)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPagado, estado.Estado)
	assert.True(t, estado.Saldo.IsZero())
	assert.True(t, dec("1500").Equal(estado.MontoPagado))

	// La transición automática queda en el historial con actor "system".
	hist, err := f.svc.Historial(context.Background(), tenantPrueba, id)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, model.EstadoPendiente, hist[0].EstadoAnterior)
	assert.Equal(t, model.EstadoPagado, hist[0].EstadoNuevo)
	assert.Equal(t, "system", hist[0].Actor)
}

func TestRegistrarAbonoMontoInvalido(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	var verr *apierror.ValidationError
	_, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        decimal.Zero,
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	require.ErrorAs(t, err, &verr)
}

func TestRegistrarAbonoSobrepago(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	_, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("1201"),
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	var serr *apierror.OverpaymentError
	require.ErrorAs(t, err, &serr)
	assert.True(t, dec("1200").Equal(serr.Maximo))
}

func TestRegistrarAbonoDentroDeTolerancia(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	_, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("1200.0005"),
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	require.NoError(t, err)

	estado, err := f.svc.EstadoCuenta(context.Background(), tenantPrueba, id)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPagado, estado.Estado)
	// Saldo visible en cero; el exacto conserva el excedente.
	assert.True(t, estado.Saldo.IsZero())
	assert.True(t, estado.SaldoExacto.IsNegative())
}

func TestRegistrarAbonoEnEstadoTerminal(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "1500")

	_, err := f.svc.CambiarEstado(context.Background(), tenantPrueba, f.supervisor, id, dto.CambiarEstadoRequest{
		Estado: model.EstadoEntregado,
	})
	require.NoError(t, err)

	_, err = f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("10"),
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	var terr *apierror.InvalidStateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.EstadoEntregado, terr.Estado)
}

func TestRegistrarAbonoReintentaTrasConflicto(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	// Un conflicto: el reintento único debe salvar la operación.
	f.repo.conflictos = 1
	_, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("100"),
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	require.NoError(t, err)

	estado, err := f.svc.EstadoCuenta(context.Background(), tenantPrueba, id)
	require.NoError(t, err)
	assert.True(t, dec("400").Equal(estado.MontoPagado))
}

func TestRegistrarAbonoConflictoPersistente(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	// Dos conflictos seguidos agotan el reintento.
	f.repo.conflictos = 2
	_, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("100"),
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	var cerr *apierror.ConcurrentModificationError
	require.ErrorAs(t, err, &cerr)
}

func TestRegistrarAbonoTicketWarningNoFallaElPago(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	f.dispatcher.falla = true
	resp, err := f.svc.RegistrarAbono(context.Background(), tenantPrueba, f.vendedor, id, dto.RegistrarAbonoRequest{
		Monto:        dec("100"),
		Metodo:       model.MetodoEfectivo,
		SesionCajaID: f.sesionID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.TicketWarning)

	// El pago quedó registrado a pesar del warning.
	estado, err := f.svc.EstadoCuenta(context.Background(), tenantPrueba, id)
	require.NoError(t, err)
	assert.True(t, dec("400").Equal(estado.MontoPagado))
}

// ── CambiarEstado ────────────────────────────────────────────────────────────

func TestCambiarEstadoRolInsuficiente(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	_, err := f.svc.CambiarEstado(context.Background(), tenantPrueba, f.vendedor, id, dto.CambiarEstadoRequest{
		Estado: model.EstadoCancelado,
	})
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCambiarEstadoTransicionInvalida(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "1500") // nace pagado

	_, err := f.svc.CambiarEstado(context.Background(), tenantPrueba, f.supervisor, id, dto.CambiarEstadoRequest{
		Estado: model.EstadoPendiente,
	})
	var terr *apierror.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.EstadoPagado, terr.Actual)
	assert.Equal(t, model.EstadoPendiente, terr.Solicitado)
}

func TestCambiarEstadoRegistraHistorial(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	notas := "cliente desistió"
	entrada, err := f.svc.CambiarEstado(context.Background(), tenantPrueba, f.supervisor, id, dto.CambiarEstadoRequest{
		Estado: model.EstadoCancelado,
		Notas:  &notas,
	})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPendiente, entrada.EstadoAnterior)
	assert.Equal(t, model.EstadoCancelado, entrada.EstadoNuevo)
	assert.Equal(t, "super1", entrada.Actor)

	// Cancelar dos veces: cancelado no tiene salidas.
	_, err = f.svc.CambiarEstado(context.Background(), tenantPrueba, f.supervisor, id, dto.CambiarEstadoRequest{
		Estado: model.EstadoCancelado,
	})
	var terr *apierror.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
}

// ── Consultas ────────────────────────────────────────────────────────────────

func TestObtenerIncluyeAging(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	resp, err := f.svc.Obtener(context.Background(), tenantPrueba, id)
	require.NoError(t, err)
	require.NotNil(t, resp.Aging)
	assert.Equal(t, SeveridadNormal, resp.Aging.Severidad)
}

func TestObtenerDeOtroTenantEsNotFound(t *testing.T) {
	f := newFixture()
	id := abrirApartado(t, f, "300")

	_, err := f.svc.Obtener(context.Background(), "otra-sucursal", id)
	var nf *apierror.NotFoundError
	require.ErrorAs(t, err, &nf)
}
