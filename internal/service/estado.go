package service

import (
	"joyapos/internal/apierror"
	"joyapos/internal/model"
)

// transicionesPermitidas is the single authority on the estado graph. Every
// call site consults this table — nothing else re-implements the rules.
//
//	pendiente → pagado | vencido | cancelado
//	pagado    → entregado | vencido | cancelado
//	vencido   → pagado | entregado | cancelado
//	entregado → (terminal)
//	cancelado → (terminal)
//
// pagado → pendiente is absent on purpose: a settled balance cannot be
// un-paid. vencido is only ever written by an explicit administrative action;
// the aging classifier never touches it.
var transicionesPermitidas = map[string]map[string]bool{
	model.EstadoPendiente: {
		model.EstadoPagado:    true,
		model.EstadoVencido:   true,
		model.EstadoCancelado: true,
	},
	model.EstadoPagado: {
		model.EstadoEntregado: true,
		model.EstadoVencido:   true,
		model.EstadoCancelado: true,
	},
	model.EstadoVencido: {
		model.EstadoPagado:    true,
		model.EstadoEntregado: true,
		model.EstadoCancelado: true,
	},
	model.EstadoEntregado: {},
	model.EstadoCancelado: {},
}

// ValidarTransicion checks actual → nuevo against the graph. Cancelling twice
// also lands here: cancelado has no outgoing edges, not even to itself.
func ValidarTransicion(actual, nuevo string) error {
	destinos, ok := transicionesPermitidas[actual]
	if !ok {
		return &apierror.InvalidTransitionError{Actual: actual, Solicitado: nuevo}
	}
	if !destinos[nuevo] {
		return &apierror.InvalidTransitionError{Actual: actual, Solicitado: nuevo}
	}
	return nil
}

// EstadoEsTerminal reports whether an estado freezes the apartado: no further
// abonos, no further transitions.
func EstadoEsTerminal(estado string) bool {
	return estado == model.EstadoEntregado || estado == model.EstadoCancelado
}

// RolPuedeTransicionar gates non-automatic transitions: only supervisors and
// administrators may move an apartado by hand. The rol comes from the verified
// JWT claim, never from client-held flags.
func RolPuedeTransicionar(rol string) bool {
	return rol == model.RolSupervisor || rol == model.RolAdministrador
}
