package dto

import "github.com/shopspring/decimal"

// ─── Requests ────────────────────────────────────────────────────────────────

type ItemApartadoRequest struct {
	ProductoID string          `json:"producto_id" validate:"required,uuid"`
	Cantidad   int             `json:"cantidad"    validate:"required,min=1"`
	Descuento  decimal.Decimal `json:"descuento"   validate:"min=0"`
}

type AbonoRequest struct {
	Monto  decimal.Decimal `json:"monto"  validate:"required"`
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta"`
	Notas  *string         `json:"notas"`
}

type CrearApartadoRequest struct {
	Tipo      string                `json:"tipo"       validate:"required,oneof=apartado pedido"`
	ClienteID string                `json:"cliente_id" validate:"required,uuid"`
	Items     []ItemApartadoRequest `json:"items"      validate:"required,min=1,dive"`
	// DescuentoPct is the order-level discount applied before the VIP layer.
	DescuentoPct decimal.Decimal `json:"descuento_pct" validate:"min=0,max=100"`
	// DescuentoVIPPct may only be applied by supervisor/administrador.
	DescuentoVIPPct *decimal.Decimal `json:"descuento_vip_pct" validate:"omitempty"`
	// AbonosIniciales: at least one strictly-positive anticipo is required.
	AbonosIniciales []AbonoRequest `json:"abonos_iniciales" validate:"required,min=1,dive"`
	SesionCajaID    string         `json:"sesion_caja_id"   validate:"required,uuid"`
	ClienteEmail    *string        `json:"cliente_email"    validate:"omitempty,email"`
}

type RegistrarAbonoRequest struct {
	Monto        decimal.Decimal `json:"monto"          validate:"required"`
	Metodo       string          `json:"metodo"         validate:"required,oneof=efectivo tarjeta"`
	Notas        *string         `json:"notas"`
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	ClienteEmail *string         `json:"cliente_email"  validate:"omitempty,email"`
}

type CambiarEstadoRequest struct {
	Estado string  `json:"estado" validate:"required,oneof=pendiente pagado entregado vencido cancelado"`
	Notas  *string `json:"notas"`
}

// ApartadoFilter is bound from the query string of GET /v1/apartados.
type ApartadoFilter struct {
	Estado string `form:"estado"` // pendiente | pagado | entregado | vencido | cancelado | all
	Tipo   string `form:"tipo"`   // apartado | pedido | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type ItemApartadoResponse struct {
	Producto       string          `json:"producto"`
	Codigo         string          `json:"codigo"`
	Metal          string          `json:"metal,omitempty"`
	Quilataje      string          `json:"quilataje,omitempty"`
	PesoGramos     decimal.Decimal `json:"peso_gramos"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type AbonoResponse struct {
	ID        string          `json:"id"`
	Monto     decimal.Decimal `json:"monto"`
	Metodo    string          `json:"metodo"`
	Notas     *string         `json:"notas,omitempty"`
	CreatedAt string          `json:"created_at"`
	// TicketWarning surfaces a non-fatal ticket generation problem alongside
	// the committed payment; it never means the abono failed.
	TicketWarning *string `json:"ticket_warning,omitempty"`
}

type ApartadoResponse struct {
	ID              string                 `json:"id"`
	Folio           int                    `json:"folio"`
	Tipo            string                 `json:"tipo"`
	ClienteID       string                 `json:"cliente_id"`
	Items           []ItemApartadoResponse `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	DescuentoPct    decimal.Decimal        `json:"descuento_pct"`
	DescuentoVIPPct *decimal.Decimal       `json:"descuento_vip_pct,omitempty"`
	Total           decimal.Decimal        `json:"total"`
	MontoPagado     decimal.Decimal        `json:"monto_pagado"`
	Saldo           decimal.Decimal        `json:"saldo"`
	Estado          string                 `json:"estado"`
	Abonos          []AbonoResponse        `json:"abonos,omitempty"`
	Aging           *AgingResponse         `json:"aging,omitempty"`
	CreatedAt       string                 `json:"created_at"`
}

type ApartadoListResponse struct {
	Data  []ApartadoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// EstadoCuentaResponse reports the ledger state of an apartado. Saldo is
// clamped at zero for display; SaldoExacto keeps the unclamped difference for
// accounting.
type EstadoCuentaResponse struct {
	Total       decimal.Decimal `json:"total"`
	MontoPagado decimal.Decimal `json:"monto_pagado"`
	Saldo       decimal.Decimal `json:"saldo"`
	SaldoExacto decimal.Decimal `json:"saldo_exacto"`
	Estado      string          `json:"estado"`
}

type HistorialEstadoResponse struct {
	ID             string  `json:"id"`
	EstadoAnterior string  `json:"estado_anterior"`
	EstadoNuevo    string  `json:"estado_nuevo"`
	Actor          string  `json:"actor"`
	Notas          *string `json:"notas,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// AgingResponse is the read-only overdue classification of an open balance.
type AgingResponse struct {
	Dias      int    `json:"dias"`
	Etiqueta  string `json:"etiqueta"`
	Severidad string `json:"severidad"` // normal | caution | warning | critical
}

type TicketResponse struct {
	ID         string `json:"id"`
	ApartadoID string `json:"apartado_id"`
	Clave      string `json:"clave"`
	HTML       string `json:"html"`
	CreatedAt  string `json:"created_at"`
	// Computed ledger triple reported by regeneration.
	PagadoAnterior decimal.Decimal `json:"pagado_anterior"`
	PagadoNuevo    decimal.Decimal `json:"pagado_nuevo"`
	SaldoNuevo     decimal.Decimal `json:"saldo_nuevo"`
}
