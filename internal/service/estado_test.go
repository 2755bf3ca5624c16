package service

import (
	"testing"

	"joyapos/internal/apierror"
	"joyapos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidarTransicionGrafoCompleto(t *testing.T) {
	cases := []struct {
		actual  string
		nuevo   string
		permite bool
	}{
		{model.EstadoPendiente, model.EstadoPagado, true},
		{model.EstadoPendiente, model.EstadoVencido, true},
		{model.EstadoPendiente, model.EstadoCancelado, true},
		{model.EstadoPendiente, model.EstadoEntregado, false},

		{model.EstadoPagado, model.EstadoEntregado, true},
		{model.EstadoPagado, model.EstadoVencido, true},
		{model.EstadoPagado, model.EstadoCancelado, true},
		{model.EstadoPagado, model.EstadoPendiente, false}, // un saldo liquidado no se des-paga

		{model.EstadoVencido, model.EstadoPagado, true},
		{model.EstadoVencido, model.EstadoEntregado, true},
		{model.EstadoVencido, model.EstadoCancelado, true},
		{model.EstadoVencido, model.EstadoPendiente, false},

		{model.EstadoEntregado, model.EstadoPagado, false},
		{model.EstadoEntregado, model.EstadoCancelado, false},
		{model.EstadoCancelado, model.EstadoPendiente, false},
		{model.EstadoCancelado, model.EstadoCancelado, false}, // cancelar dos veces
	}

	for _, tc := range cases {
		err := ValidarTransicion(tc.actual, tc.nuevo)
		if tc.permite {
			assert.NoError(t, err, "%s → %s debería permitirse", tc.actual, tc.nuevo)
		} else {
			var terr *apierror.InvalidTransitionError
			require.ErrorAs(t, err, &terr, "%s → %s debería rechazarse", tc.actual, tc.nuevo)
			assert.Equal(t, tc.actual, terr.Actual)
			assert.Equal(t, tc.nuevo, terr.Solicitado)
		}
	}
}

func TestValidarTransicionEstadoDesconocido(t *testing.T) {
	var terr *apierror.InvalidTransitionError
	err := ValidarTransicion("inexistente", model.EstadoPagado)
	require.ErrorAs(t, err, &terr)
}

func TestEstadoEsTerminal(t *testing.T) {
	assert.True(t, EstadoEsTerminal(model.EstadoEntregado))
	assert.True(t, EstadoEsTerminal(model.EstadoCancelado))
	assert.False(t, EstadoEsTerminal(model.EstadoPendiente))
	assert.False(t, EstadoEsTerminal(model.EstadoPagado))
	assert.False(t, EstadoEsTerminal(model.EstadoVencido))
}

func TestRolPuedeTransicionar(t *testing.T) {
	assert.True(t, RolPuedeTransicionar(model.RolSupervisor))
	assert.True(t, RolPuedeTransicionar(model.RolAdministrador))
	assert.False(t, RolPuedeTransicionar(model.RolVendedor))
	assert.False(t, RolPuedeTransicionar(""))
}
