package service

import (
	"testing"

	"joyapos/internal/apierror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalcularTotalSinDescuentos(t *testing.T) {
	total, err := CalcularTotal(dec("1500"), decimal.Zero, nil)
	require.NoError(t, err)
	assert.True(t, dec("1500").Equal(total), "got %s", total)
}

func TestCalcularTotalDescuentoOrden(t *testing.T) {
	// 1533.33 − 10% = 1379.997 → round 1380.00 → ceil 1380
	total, err := CalcularTotal(dec("1533.33"), dec("10"), nil)
	require.NoError(t, err)
	assert.True(t, dec("1380").Equal(total), "got %s", total)
}

func TestCalcularTotalCapaVIP(t *testing.T) {
	// 1600 − 10% = 1440 → − VIP 10% = 1296
	vip := dec("10")
	total, err := CalcularTotal(dec("1600"), dec("10"), &vip)
	require.NoError(t, err)
	assert.True(t, dec("1296").Equal(total), "got %s", total)
}

func TestCalcularTotalCeilFinal(t *testing.T) {
	// El total final siempre sube al peso entero: nunca se cobra de menos.
	cases := []struct {
		subtotal string
		pct      string
		want     string
	}{
		{"100.10", "0", "101"},
		{"999.01", "0", "1000"},
		{"200", "33.33", "134"}, // 200 − 66.66 = 133.34 → 134
	}
	for _, tc := range cases {
		total, err := CalcularTotal(dec(tc.subtotal), dec(tc.pct), nil)
		require.NoError(t, err)
		assert.True(t, dec(tc.want).Equal(total), "subtotal=%s pct=%s got %s", tc.subtotal, tc.pct, total)
	}
}

func TestCalcularTotalRedondeoIntermedio(t *testing.T) {
	// La etapa intermedia redondea a 2 decimales antes de aplicar la capa VIP.
	vip := dec("10")
	// 1533.33 − 10% = 1379.997 → 1380.00; VIP → 1242.00 → ceil 1242
	total, err := CalcularTotal(dec("1533.33"), dec("10"), &vip)
	require.NoError(t, err)
	assert.True(t, dec("1242").Equal(total), "got %s", total)
}

func TestCalcularTotalValidaciones(t *testing.T) {
	var verr *apierror.ValidationError

	_, err := CalcularTotal(dec("-1"), decimal.Zero, nil)
	require.ErrorAs(t, err, &verr)

	_, err = CalcularTotal(dec("100"), dec("101"), nil)
	require.ErrorAs(t, err, &verr)

	_, err = CalcularTotal(dec("100"), dec("-5"), nil)
	require.ErrorAs(t, err, &verr)

	vipMalo := dec("150")
	_, err = CalcularTotal(dec("100"), decimal.Zero, &vipMalo)
	require.ErrorAs(t, err, &verr)
}
