package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	Codigo         string          `json:"codigo"       validate:"required"`
	Nombre         string          `json:"nombre"       validate:"required"`
	Descripcion    *string         `json:"descripcion"`
	Categoria      string          `json:"categoria"    validate:"required"`
	Metal          string          `json:"metal"        validate:"required,oneof=oro plata"`
	Quilataje      string          `json:"quilataje"`
	PesoGramos     decimal.Decimal `json:"peso_gramos"  validate:"required"`
	PrecioCosto    decimal.Decimal `json:"precio_costo" validate:"min=0"`
	PrecioVenta    decimal.Decimal `json:"precio_venta" validate:"min=0"`
	PrecioPorGramo bool            `json:"precio_por_gramo"`
	MargenPct      decimal.Decimal `json:"margen_pct"   validate:"min=0"`
	StockActual    int             `json:"stock_actual" validate:"min=0"`
	StockMinimo    int             `json:"stock_minimo" validate:"min=0"`
}

type ActualizarProductoRequest struct {
	Nombre         *string          `json:"nombre"`
	Descripcion    *string          `json:"descripcion"`
	Categoria      *string          `json:"categoria"`
	Quilataje      *string          `json:"quilataje"`
	PesoGramos     *decimal.Decimal `json:"peso_gramos"`
	PrecioCosto    *decimal.Decimal `json:"precio_costo"`
	PrecioVenta    *decimal.Decimal `json:"precio_venta"`
	PrecioPorGramo *bool            `json:"precio_por_gramo"`
	MargenPct      *decimal.Decimal `json:"margen_pct"`
	StockMinimo    *int             `json:"stock_minimo"`
}

type AjustarStockRequest struct {
	Cantidad int    `json:"cantidad" validate:"required"`
	Motivo   string `json:"motivo"   validate:"required,min=3"`
}

type ProductoResponse struct {
	ID             string          `json:"id"`
	Codigo         string          `json:"codigo"`
	Nombre         string          `json:"nombre"`
	Descripcion    *string         `json:"descripcion,omitempty"`
	Categoria      string          `json:"categoria"`
	Metal          string          `json:"metal"`
	Quilataje      string          `json:"quilataje,omitempty"`
	PesoGramos     decimal.Decimal `json:"peso_gramos"`
	PrecioVenta    decimal.Decimal `json:"precio_venta"`
	PrecioPorGramo bool            `json:"precio_por_gramo"`
	StockActual    int             `json:"stock_actual"`
	StockMinimo    int             `json:"stock_minimo"`
	Activo         bool            `json:"activo"`
}

type ProductoFilter struct {
	Categoria string `form:"categoria"`
	Metal     string `form:"metal"`
	Buscar    string `form:"buscar"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// PrecioConsultaResponse is returned by the public barcode price check.
type PrecioConsultaResponse struct {
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	// Cotizado is true when the price was derived from the current metal rate.
	Cotizado bool `json:"cotizado"`
}
