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

// stubArqueoCajaRepo serves a single open session with configurable sums.
type stubArqueoCajaRepo struct {
	sesion *model.SesionCaja
	sums   map[string]decimal.Decimal
}

func (r *stubArqueoCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	s.ID = uuid.New()
	r.sesion = s
	return nil
}
func (r *stubArqueoCajaRepo) FindSesionAbiertaPorPDV(_ context.Context, _ string, _ int) (*model.SesionCaja, error) {
	return nil, nil
}
func (r *stubArqueoCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	if r.sesion == nil || r.sesion.ID != id {
		return nil, &apierror.NotFoundError{Recurso: "sesión de caja"}
	}
	return r.sesion, nil
}
func (r *stubArqueoCajaRepo) UpdateSesion(_ context.Context, s *model.SesionCaja) error {
	r.sesion = s
	return nil
}
func (r *stubArqueoCajaRepo) CreateMovimiento(_ context.Context, _ *model.MovimientoCaja) error {
	return nil
}
func (r *stubArqueoCajaRepo) CreateMovimientoTx(_ *gorm.DB, _ *model.MovimientoCaja) error {
	return nil
}
func (r *stubArqueoCajaRepo) ListMovimientos(_ context.Context, _ uuid.UUID) ([]model.MovimientoCaja, error) {
	return nil, nil
}
func (r *stubArqueoCajaRepo) SumMovimientosByMetodo(_ context.Context, _ uuid.UUID) (map[string]decimal.Decimal, error) {
	return r.sums, nil
}
func (r *stubArqueoCajaRepo) ListSesiones(_ context.Context, _ string, _ int) ([]model.SesionCaja, error) {
	return nil, nil
}

var _ repository.CajaRepository = (*stubArqueoCajaRepo)(nil)

// sesionAbierta seeds an open session: MontoInicial 1000, efectivo 500,
// tarjeta 300 → esperado total 1800.
func sesionAbierta() *stubArqueoCajaRepo {
	return &stubArqueoCajaRepo{
		sesion: &model.SesionCaja{
			ID:           uuid.New(),
			Tenant:       tenantPrueba,
			PuntoDeVenta: 1,
			MontoInicial: dec("1000"),
			Estado:       "abierta",
			OpenedAt:     time.Now(),
		},
		sums: map[string]decimal.Decimal{
			model.MetodoEfectivo: dec("500"),
			model.MetodoTarjeta:  dec("300"),
		},
	}
}

func arqueoReq(repo *stubArqueoCajaRepo, efectivo, tarjeta string, obs *string) dto.ArqueoRequest {
	return dto.ArqueoRequest{
		SesionCajaID: repo.sesion.ID.String(),
		Declaracion: dto.MontosPorMetodo{
			Efectivo: dec(efectivo),
			Tarjeta:  dec(tarjeta),
		},
		Observaciones: obs,
	}
}

func TestArqueoSinDesvio(t *testing.T) {
	repo := sesionAbierta()
	svc := NewCajaService(repo)

	resp, err := svc.Arqueo(context.Background(), tenantPrueba, arqueoReq(repo, "1500", "300", nil))
	require.NoError(t, err)

	assert.Equal(t, "normal", resp.Desvio.Clasificacion)
	assert.True(t, resp.Desvio.Monto.IsZero())
	assert.Equal(t, "cerrada", resp.Estado)
	assert.Equal(t, "cerrada", repo.sesion.Estado)
	require.NotNil(t, repo.sesion.ClosedAt)
}

func TestArqueoDesvioAdvertencia(t *testing.T) {
	repo := sesionAbierta()
	svc := NewCajaService(repo)

	// Faltan $54 sobre 1800 esperado = −3% → advertencia.
	resp, err := svc.Arqueo(context.Background(), tenantPrueba, arqueoReq(repo, "1446", "300", nil))
	require.NoError(t, err)
	assert.Equal(t, "advertencia", resp.Desvio.Clasificacion)
	assert.True(t, dec("-3").Equal(resp.Desvio.Porcentaje), "got %s", resp.Desvio.Porcentaje)
}

func TestArqueoDesvioCriticoExigeObservaciones(t *testing.T) {
	repo := sesionAbierta()
	svc := NewCajaService(repo)

	// Faltan $180 = −10% → crítico, sin observaciones se rechaza.
	_, err := svc.Arqueo(context.Background(), tenantPrueba, arqueoReq(repo, "1320", "300", nil))
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "abierta", repo.sesion.Estado)

	obs := "faltante reportado al supervisor de turno"
	resp, err := svc.Arqueo(context.Background(), tenantPrueba, arqueoReq(repo, "1320", "300", &obs))
	require.NoError(t, err)
	assert.Equal(t, "critico", resp.Desvio.Clasificacion)
}

func TestArqueoSesionYaCerrada(t *testing.T) {
	repo := sesionAbierta()
	repo.sesion.Estado = "cerrada"
	svc := NewCajaService(repo)

	_, err := svc.Arqueo(context.Background(), tenantPrueba, arqueoReq(repo, "1800", "0", nil))
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestArqueoOtroTenantEsNotFound(t *testing.T) {
	repo := sesionAbierta()
	svc := NewCajaService(repo)

	_, err := svc.Arqueo(context.Background(), "otra-sucursal", arqueoReq(repo, "1800", "0", nil))
	var nf *apierror.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestClasificarDesvio(t *testing.T) {
	assert.Equal(t, "normal", clasificarDesvio(dec("0")))
	assert.Equal(t, "normal", clasificarDesvio(dec("1")))
	assert.Equal(t, "normal", clasificarDesvio(dec("-1")))
	assert.Equal(t, "advertencia", clasificarDesvio(dec("1.01")))
	assert.Equal(t, "advertencia", clasificarDesvio(dec("-5")))
	assert.Equal(t, "critico", clasificarDesvio(dec("5.01")))
	assert.Equal(t, "critico", clasificarDesvio(dec("-12")))
}
