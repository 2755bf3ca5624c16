package service

import (
	"context"
	"time"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CajaService interface {
	Abrir(ctx context.Context, tenant string, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, tenant string, req dto.MovimientoManualRequest) error
	Arqueo(ctx context.Context, tenant string, req dto.ArqueoRequest) (*dto.ArqueoResponse, error)
	ObtenerReporte(ctx context.Context, tenant string, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	// FindSesionAbierta is called by VentaService and ApartadoService to
	// validate an open session before money touches the drawer.
	FindSesionAbierta(ctx context.Context, tenant string, sesionID uuid.UUID) error
}

type cajaService struct {
	repo repository.CajaRepository
}

func NewCajaService(repo repository.CajaRepository) CajaService {
	return &cajaService{repo: repo}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, tenant string, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error) {
	// Guard: no duplicate open session per punto_de_venta
	if existing, err := s.repo.FindSesionAbiertaPorPDV(ctx, tenant, req.PuntoDeVenta); err == nil && existing != nil {
		return nil, apierror.Validacion("ya existe una caja abierta en este punto de venta")
	}

	sesion := &model.SesionCaja{
		Tenant:       tenant,
		PuntoDeVenta: req.PuntoDeVenta,
		UsuarioID:    usuarioID,
		MontoInicial: req.MontoInicial,
		Estado:       "abierta",
		OpenedAt:     time.Now(),
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		return nil, err
	}

	return s.buildReporte(ctx, sesion)
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Ingreso / egreso manual. Movements are immutable — no Update/Delete.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, tenant string, req dto.MovimientoManualRequest) error {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return apierror.Validacion("sesion_caja_id inválido")
	}
	if err := s.FindSesionAbierta(ctx, tenant, sesionID); err != nil {
		return err
	}

	monto := req.Monto
	if req.Tipo == "egreso_manual" {
		monto = req.Monto.Neg()
	}
	metodo := req.MetodoPago
	mov := &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         req.Tipo,
		MetodoPago:   &metodo,
		Monto:        monto,
		Descripcion:  req.Descripcion,
	}
	return s.repo.CreateMovimiento(ctx, mov)
}

// ── Arqueo ────────────────────────────────────────────────────────────────────
// Blind count: the desvio is calculated only AFTER the cashier declares what
// is physically in the drawer. Closes the session and records classification.

func (s *cajaService) Arqueo(ctx context.Context, tenant string, req dto.ArqueoRequest) (*dto.ArqueoResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validacion("sesion_caja_id inválido")
	}

	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "sesión de caja"}
	}
	if sesion.Estado != "abierta" {
		return nil, apierror.Validacion("la sesión ya está cerrada")
	}

	sums, err := s.repo.SumMovimientosByMetodo(ctx, sesionID)
	if err != nil {
		return nil, err
	}

	esperado := dto.MontosPorMetodo{
		Efectivo: sesion.MontoInicial.Add(sums[model.MetodoEfectivo]),
		Tarjeta:  sums[model.MetodoTarjeta],
	}
	esperado.Total = esperado.Efectivo.Add(esperado.Tarjeta)

	declarado := dto.MontosPorMetodo{
		Efectivo: req.Declaracion.Efectivo,
		Tarjeta:  req.Declaracion.Tarjeta,
	}
	declarado.Total = declarado.Efectivo.Add(declarado.Tarjeta)

	desvioMonto := declarado.Total.Sub(esperado.Total)
	var desvioPct decimal.Decimal
	if !esperado.Total.IsZero() {
		desvioPct = desvioMonto.Div(esperado.Total).Mul(decimal.NewFromInt(100)).Round(2)
	}

	clasificacion := clasificarDesvio(desvioPct)

	// Cierre con desvío crítico requiere observaciones del supervisor.
	if clasificacion == "critico" && (req.Observaciones == nil || *req.Observaciones == "") {
		return nil, apierror.Validacion("desvío crítico: se requieren observaciones del supervisor")
	}

	montoEsperado := esperado.Total
	montoDeclarado := declarado.Total
	ahora := time.Now()
	sesion.MontoEsperado = &montoEsperado
	sesion.MontoDeclarado = &montoDeclarado
	sesion.Desvio = &desvioMonto
	sesion.DesvioPct = &desvioPct
	sesion.Estado = "cerrada"
	sesion.ClasificacionDesvio = &clasificacion
	sesion.Observaciones = req.Observaciones
	sesion.ClosedAt = &ahora

	if err := s.repo.UpdateSesion(ctx, sesion); err != nil {
		return nil, err
	}

	return &dto.ArqueoResponse{
		SesionCajaID:   sesionID.String(),
		MontoEsperado:  esperado,
		MontoDeclarado: declarado,
		Desvio: dto.DesvioResponse{
			Monto:         desvioMonto,
			Porcentaje:    desvioPct,
			Clasificacion: clasificacion,
		},
		Estado: "cerrada",
	}, nil
}

// ── ObtenerReporte ────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerReporte(ctx context.Context, tenant string, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "sesión de caja"}
	}
	return s.buildReporte(ctx, sesion)
}

// ── FindSesionAbierta ─────────────────────────────────────────────────────────

func (s *cajaService) FindSesionAbierta(ctx context.Context, tenant string, sesionID uuid.UUID) error {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return err
	}
	if sesion.Tenant != tenant {
		return &apierror.NotFoundError{Recurso: "sesión de caja"}
	}
	if sesion.Estado != "abierta" {
		return apierror.Validacion("no hay sesión de caja abierta")
	}
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// clasificarDesvio returns "normal" | "advertencia" | "critico"
// normal: |desvio| <= 1%, advertencia: <= 5%, critico: > 5%
func clasificarDesvio(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return "normal"
	case abs.LessThanOrEqual(five):
		return "advertencia"
	default:
		return "critico"
	}
}

func (s *cajaService) buildReporte(ctx context.Context, sesion *model.SesionCaja) (*dto.ReporteCajaResponse, error) {
	sums, err := s.repo.SumMovimientosByMetodo(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}

	esperado := dto.MontosPorMetodo{
		Efectivo: sesion.MontoInicial.Add(sums[model.MetodoEfectivo]),
		Tarjeta:  sums[model.MetodoTarjeta],
	}
	esperado.Total = esperado.Efectivo.Add(esperado.Tarjeta)

	reporte := &dto.ReporteCajaResponse{
		SesionCajaID:  sesion.ID.String(),
		PuntoDeVenta:  sesion.PuntoDeVenta,
		MontoInicial:  sesion.MontoInicial,
		MontoEsperado: esperado,
		Estado:        sesion.Estado,
		Observaciones: sesion.Observaciones,
		OpenedAt:      sesion.OpenedAt.Format("2006-01-02T15:04:05Z"),
	}

	if sesion.MontoDeclarado != nil {
		montoDeclarado := dto.MontosPorMetodo{Total: *sesion.MontoDeclarado}
		reporte.MontoDeclarado = &montoDeclarado
	}

	if sesion.Desvio != nil && sesion.DesvioPct != nil && sesion.ClasificacionDesvio != nil {
		reporte.Desvio = &dto.DesvioResponse{
			Monto:         *sesion.Desvio,
			Porcentaje:    *sesion.DesvioPct,
			Clasificacion: *sesion.ClasificacionDesvio,
		}
	}

	if sesion.ClosedAt != nil {
		t := sesion.ClosedAt.Format("2006-01-02T15:04:05Z")
		reporte.ClosedAt = &t
	}

	return reporte, nil
}
