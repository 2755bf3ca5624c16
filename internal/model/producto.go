package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metales handled by the catalog and the cotizaciones service.
const (
	MetalOro   = "oro"
	MetalPlata = "plata"
)

// Producto is a jewelry catalog item. PrecioVenta is the tag price; when
// PrecioPorGramo is true the selling price is derived from the current metal
// rate (peso × cotización × margen) instead of the fixed tag.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tenant      string    `gorm:"type:varchar(50);index;not null"`
	Codigo      string    `gorm:"uniqueIndex;not null"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	Categoria   string `gorm:"not null"`

	Metal      string          `gorm:"type:varchar(20);not null"`
	Quilataje  string          `gorm:"type:varchar(10)"` // "10k" | "14k" | "18k" | "925"
	PesoGramos decimal.Decimal `gorm:"type:decimal(10,3);not null"`

	PrecioCosto    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioVenta    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioPorGramo bool            `gorm:"not null;default:false"`
	MargenPct      decimal.Decimal `gorm:"type:decimal(5,2)"`

	StockActual int  `gorm:"not null;default:0"`
	StockMinimo int  `gorm:"not null;default:1"`
	Activo      bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MovimientoStock is an immutable inventory event. Tipo: "venta" | "apartado"
// | "entrega" | "ajuste" | "restore_anulacion". Movements are never modified
// or deleted — corrections create inverse entries.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Tipo          string    `gorm:"type:varchar(30);not null"`
	Cantidad      int       `gorm:"not null"`
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string    `gorm:"not null"`
	// ReferenciaID links to the originating Venta or Apartado
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}
