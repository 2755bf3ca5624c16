package service

import (
	"joyapos/internal/apierror"

	"github.com/shopspring/decimal"
)

var cien = decimal.NewFromInt(100)

// CalcularTotal computes the final chargeable total of a sale from its
// subtotal, the order-level discount percentage and an optional VIP
// percentage layered on top. Pure — no side effects.
//
// Two rounding modes coexist on purpose and must not be unified:
//   - intermediate discount stages round half-up to 2 decimals,
//   - the final total is CEILED to the whole currency unit, so the merchant
//     never charges a fraction of a peso and never under-collects.
func CalcularTotal(subtotal, descuentoPct decimal.Decimal, vipPct *decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		return decimal.Zero, apierror.Validacion("el subtotal no puede ser negativo")
	}
	if err := validarPorcentaje(descuentoPct); err != nil {
		return decimal.Zero, err
	}

	total := subtotal.Sub(subtotal.Mul(descuentoPct).Div(cien)).Round(2)

	if vipPct != nil {
		if err := validarPorcentaje(*vipPct); err != nil {
			return decimal.Zero, err
		}
		total = total.Sub(total.Mul(*vipPct).Div(cien))
	}

	return total.Ceil(), nil
}

func validarPorcentaje(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(cien) {
		return apierror.Validacion("el porcentaje de descuento debe estar entre 0 y 100")
	}
	return nil
}
