package service

import (
	"fmt"
	"time"

	"joyapos/internal/dto"
	"joyapos/internal/model"
)

// Aging horizon: an apartado older than ~2 months + 15 days with an open
// balance is overdue.
const (
	diasVencimiento = 75
	diasWarning     = 68
	diasCaution     = 60
)

// Severidades returned by ClasificarAntiguedad.
const (
	SeveridadNormal   = "normal"
	SeveridadCaution  = "caution"
	SeveridadWarning  = "warning"
	SeveridadCritical = "critical"
)

// ClasificarAntiguedad derives the overdue-risk label of an apartado from its
// age, balance and estado. Read-only: it never writes vencido or anything
// else — marking an apartado vencido stays an explicit administrative action.
func ClasificarAntiguedad(a *model.Apartado, ahora time.Time) dto.AgingResponse {
	dias := int(ahora.Sub(a.CreatedAt).Hours() / 24)

	// Delivered, cancelled or fully paid apartados never alert.
	if a.EsTerminal() || !a.Saldo.IsPositive() {
		return dto.AgingResponse{Dias: dias, Etiqueta: "-", Severidad: SeveridadNormal}
	}

	switch {
	case dias >= diasVencimiento:
		return dto.AgingResponse{Dias: dias, Etiqueta: "¡VENCIDO!", Severidad: SeveridadCritical}
	case dias >= diasWarning:
		return dto.AgingResponse{
			Dias:      dias,
			Etiqueta:  fmt.Sprintf("Vence en %d días", diasVencimiento-dias),
			Severidad: SeveridadWarning,
		}
	case dias >= diasCaution:
		return dto.AgingResponse{
			Dias:      dias,
			Etiqueta:  fmt.Sprintf("%d días", dias),
			Severidad: SeveridadCaution,
		}
	default:
		return dto.AgingResponse{
			Dias:      dias,
			Etiqueta:  fmt.Sprintf("%d días", dias),
			Severidad: SeveridadNormal,
		}
	}
}
