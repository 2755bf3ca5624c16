package dto

import "github.com/shopspring/decimal"

type CotizacionResponse struct {
	Metal       string          `json:"metal"`
	PrecioGramo decimal.Decimal `json:"precio_gramo"`
	Fuente      string          `json:"fuente"`
	CreatedAt   string          `json:"created_at"`
}

type RegistrarCotizacionRequest struct {
	Metal       string          `json:"metal"        validate:"required,oneof=oro plata"`
	PrecioGramo decimal.Decimal `json:"precio_gramo" validate:"required"`
}
