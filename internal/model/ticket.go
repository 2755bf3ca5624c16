package model

import (
	"time"

	"github.com/google/uuid"
)

// Ticket claves. The first abono of an apartado keeps the legacy "payment"
// key (older rows may carry "sale"); every later abono uses "payment-{id}".
const (
	ClaveTicketLegacy     = "payment"
	ClaveTicketLegacySale = "sale"
)

// Ticket stores one receipt artifact per abono. (ApartadoID, Clave) is the
// natural key: at most one ticket exists per pair, and the artifact is always
// re-derivable from the ledger plus the payment history.
type Ticket struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApartadoID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_apartado_clave"`
	Clave      string    `gorm:"type:varchar(60);not null;uniqueIndex:idx_ticket_apartado_clave"`
	// HTML is the rendered artifact blob; opaque to the ledger.
	HTML string `gorm:"type:text;not null"`
	// PDFPath is relative to TICKET_STORAGE_PATH, set by the ticket worker.
	PDFPath   *string `gorm:"column:pdf_path"`
	CreatedAt time.Time
}
