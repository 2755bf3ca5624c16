// Package apierror provides standardized error response structures for the API
// plus the typed domain errors raised by the ledger core. All errors returned
// to clients go through this package to ensure consistency and to prevent
// leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps malformed or out-of-range input. Fields maps each
// offending field to a short reason.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string { return e.Detail }

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Validacion builds a ValidationError with a single message and no field map.
func Validacion(msg string) *ValidationError {
	return &ValidationError{Detail: msg}
}

// OverpaymentError rejects an abono that exceeds the outstanding balance
// beyond tolerance. Maximo is the largest amount the caller may retry with.
type OverpaymentError struct {
	Maximo decimal.Decimal `json:"maximo"`
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("el abono excede el saldo pendiente; máximo permitido: %s", e.Maximo.StringFixed(2))
}

// InvalidStateError rejects an operation against a terminal-state apartado.
type InvalidStateError struct {
	Estado string `json:"estado"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operación no permitida: el apartado está en estado %q", e.Estado)
}

// InvalidTransitionError rejects a status change not in the allowed graph.
type InvalidTransitionError struct {
	Actual     string `json:"actual"`
	Solicitado string `json:"solicitado"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de estado no permitida: %s → %s", e.Actual, e.Solicitado)
}

// NotFoundError — unknown apartado/abono/producto id.
type NotFoundError struct {
	Recurso string `json:"recurso"`
}

func (e *NotFoundError) Error() string { return e.Recurso + " no encontrado" }

// ConcurrentModificationError — lost-update race on the ledger row. The
// service retries once internally before surfacing this.
type ConcurrentModificationError struct{}

func (e *ConcurrentModificationError) Error() string {
	return "el apartado fue modificado por otra operación; intente nuevamente"
}

// TicketGenerationError is the only deliberately non-fatal category: it is
// logged and reported as a warning alongside a successful financial operation,
// never as a failure of the operation itself.
type TicketGenerationError struct {
	Causa string `json:"causa"`
}

func (e *TicketGenerationError) Error() string {
	return "no se pudo generar el ticket: " + e.Causa
}
