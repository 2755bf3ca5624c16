package worker

// cotizacion_cron.go
// Background goroutine that periodically refreshes metal rates from the
// external quote provider. The HTTP client carries its own circuit breaker,
// so a downed provider fast-fails instead of blocking the tick.

import (
	"context"
	"time"

	"joyapos/internal/service"

	"github.com/rs/zerolog/log"
)

// StartCotizacionCron launches a background goroutine that pulls fresh metal
// rates every refreshMinutes. It refreshes once at startup so the price
// consultation endpoint has rates from minute zero.
func StartCotizacionCron(ctx context.Context, svc service.CotizacionService, refreshMinutes int) {
	if refreshMinutes <= 0 {
		refreshMinutes = 30
	}
	interval := time.Duration(refreshMinutes) * time.Minute

	go func() {
		log.Info().Int("refresh_minutes", refreshMinutes).Msg("cotizacion_cron: started")

		refresh(ctx, svc)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("cotizacion_cron: shutting down")
				return
			case <-ticker.C:
				refresh(ctx, svc)
			}
		}
	}()
}

func refresh(ctx context.Context, svc service.CotizacionService) {
	if err := svc.RefrescarDesdeProveedor(ctx); err != nil {
		log.Warn().Err(err).Msg("cotizacion_cron: refresh failed")
	}
}
