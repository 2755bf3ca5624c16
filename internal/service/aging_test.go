package service

import (
	"testing"
	"time"

	"joyapos/internal/model"

	"github.com/stretchr/testify/assert"
)

// apartadoConEdad ancla CreatedAt unos minutos más allá del umbral para que
// la división entera de horas caiga exactamente en `dias`.
func apartadoConEdad(ahora time.Time, dias int, estado string, saldo string) *model.Apartado {
	return &model.Apartado{
		Estado:    estado,
		Saldo:     dec(saldo),
		CreatedAt: ahora.Add(-time.Duration(dias)*24*time.Hour - 5*time.Minute),
	}
}

func TestClasificarAntiguedadUmbrales(t *testing.T) {
	ahora := time.Now()

	cases := []struct {
		dias      int
		severidad string
		etiqueta  string
	}{
		{80, SeveridadCritical, "¡VENCIDO!"},
		{75, SeveridadCritical, "¡VENCIDO!"},
		{74, SeveridadWarning, "Vence en 1 días"},
		{68, SeveridadWarning, "Vence en 7 días"},
		{67, SeveridadCaution, "67 días"},
		{60, SeveridadCaution, "60 días"},
		{59, SeveridadNormal, "59 días"},
		{0, SeveridadNormal, "0 días"},
	}

	for _, tc := range cases {
		a := apartadoConEdad(ahora, tc.dias, model.EstadoPendiente, "500")
		got := ClasificarAntiguedad(a, ahora)
		assert.Equal(t, tc.severidad, got.Severidad, "dias=%d", tc.dias)
		assert.Equal(t, tc.etiqueta, got.Etiqueta, "dias=%d", tc.dias)
		assert.Equal(t, tc.dias, got.Dias)
	}
}

func TestClasificarAntiguedadTerminalNoAlerta(t *testing.T) {
	ahora := time.Now()

	for _, estado := range []string{model.EstadoEntregado, model.EstadoCancelado} {
		a := apartadoConEdad(ahora, 90, estado, "500")
		got := ClasificarAntiguedad(a, ahora)
		assert.Equal(t, SeveridadNormal, got.Severidad, "estado=%s", estado)
		assert.Equal(t, "-", got.Etiqueta)
	}
}

func TestClasificarAntiguedadSaldoCeroNoAlerta(t *testing.T) {
	ahora := time.Now()
	a := apartadoConEdad(ahora, 90, model.EstadoPagado, "0")
	got := ClasificarAntiguedad(a, ahora)
	assert.Equal(t, SeveridadNormal, got.Severidad)
	assert.Equal(t, "-", got.Etiqueta)
}

func TestClasificarAntiguedadSoloLectura(t *testing.T) {
	// El clasificador jamás escribe vencido: marcar vencido es una acción
	// administrativa explícita.
	ahora := time.Now()
	a := apartadoConEdad(ahora, 90, model.EstadoPendiente, "500")
	_ = ClasificarAntiguedad(a, ahora)
	assert.Equal(t, model.EstadoPendiente, a.Estado)
}
