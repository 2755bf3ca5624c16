package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados of an Apartado. pendiente and pagado are working states, vencido is
// an administrative overdue marker, entregado and cancelado are terminal.
const (
	EstadoPendiente = "pendiente"
	EstadoPagado    = "pagado"
	EstadoEntregado = "entregado"
	EstadoVencido   = "vencido"
	EstadoCancelado = "cancelado"
)

// Tipos of ledger-bearing sales. Both follow identical payment rules.
const (
	TipoApartado = "apartado"
	TipoPedido   = "pedido"
)

// Payment methods accepted for abonos.
const (
	MetodoEfectivo = "efectivo"
	MetodoTarjeta  = "tarjeta"
)

// Apartado is the ledger-bearing credit sale: a layaway ("apartado") or a
// custom order ("pedido"). Total is computed once at creation and never
// recomputed; MontoPagado and Saldo are maintained exclusively by the abono
// flow. Version backs the optimistic lock on ledger updates. Apartados are
// never physically deleted.
type Apartado struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tenant string    `gorm:"type:varchar(50);index;not null"`
	Folio  int       `gorm:"uniqueIndex;not null"`
	Tipo   string    `gorm:"type:varchar(20);not null;default:'apartado'"`

	ClienteID  uuid.UUID `gorm:"type:uuid;index;not null"`
	VendedorID uuid.UUID `gorm:"type:uuid;not null"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescuentoPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	// DescuentoVIPPct is set only at creation, by a supervisor or admin.
	DescuentoVIPPct *decimal.Decimal `gorm:"type:decimal(5,2);column:descuento_vip_pct"`
	Total           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoPagado     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Saldo           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`

	Estado  string `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Version int    `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Cliente   *Cliente          `gorm:"foreignKey:ClienteID"`
	Vendedor  *Usuario          `gorm:"foreignKey:VendedorID"`
	Items     []ApartadoItem    `gorm:"foreignKey:ApartadoID"`
	Abonos    []Abono           `gorm:"foreignKey:ApartadoID"`
	Historial []HistorialEstado `gorm:"foreignKey:ApartadoID"`
}

// EsTerminal reports whether no further payments or transitions are accepted.
func (a *Apartado) EsTerminal() bool {
	return a.Estado == EstadoEntregado || a.Estado == EstadoCancelado
}

// ApartadoItem is a frozen product snapshot captured at creation time. The
// catalog is never re-queried after the sale exists: name, code, weight and
// quilataje stay as sold even if the product changes later.
type ApartadoItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApartadoID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null"`

	Nombre     string          `gorm:"not null"`
	Codigo     string          `gorm:"not null"`
	Metal      string          `gorm:"type:varchar(20)"`
	Quilataje  string          `gorm:"type:varchar(10)"`
	PesoGramos decimal.Decimal `gorm:"type:decimal(10,3)"`

	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescuentoItem  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time
}

// Abono is a single installment payment applied to an apartado's balance.
// Abonos are immutable once written.
type Abono struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApartadoID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Metodo     string          `gorm:"type:varchar(20);not null"`
	Notas      *string
	CreatedAt  time.Time
}

// HistorialEstado is the append-only audit trail of status transitions.
// Entries are NEVER updated or deleted.
type HistorialEstado struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApartadoID     uuid.UUID `gorm:"type:uuid;index;not null"`
	EstadoAnterior string    `gorm:"type:varchar(20);not null"`
	EstadoNuevo    string    `gorm:"type:varchar(20);not null"`
	// Actor is the identity that requested the transition; "system" for
	// automatic transitions on balance settlement.
	Actor     string `gorm:"not null"`
	Notas     *string
	CreatedAt time.Time
}
