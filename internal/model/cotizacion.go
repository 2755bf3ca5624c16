package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CotizacionMetal is one observed metal rate. Rows are append-only: the
// current rate is the most recent row per metal, and the history feeds the
// price audit endpoints. Quotes never rewrite prices on existing sales.
type CotizacionMetal struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Metal       string          `gorm:"type:varchar(20);index;not null"`
	PrecioGramo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fuente      string          `gorm:"not null"`
	CreatedAt   time.Time
}
