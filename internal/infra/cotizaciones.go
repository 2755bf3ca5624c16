package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// cotizacionesResponse is the wire format of the external quote provider:
// current price per gram for each metal.
type cotizacionesResponse struct {
	Precios map[string]decimal.Decimal `json:"precios"` // metal → precio por gramo
	Fecha   string                     `json:"fecha"`
}

// CotizacionesClient queries the external metal quote service over HTTP. All
// calls go through a circuit breaker so a dead provider fast-fails instead of
// stalling the refresh cron.
type CotizacionesClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewCotizacionesClient(baseURL string) *CotizacionesClient {
	return &CotizacionesClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cb:         NewCircuitBreaker(DefaultCBConfig()),
	}
}

// ObtenerPrecios fetches the current precio-por-gramo table.
func (c *CotizacionesClient) ObtenerPrecios(ctx context.Context) (map[string]decimal.Decimal, error) {
	var result cotizacionesResponse

	err := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/precios", nil)
		if err != nil {
			return fmt.Errorf("cotizaciones: create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("cotizaciones: proveedor unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("cotizaciones: proveedor returned %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("cotizaciones: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result.Precios, nil
}

// EstadoCircuito exposes the breaker state for the health endpoint.
func (c *CotizacionesClient) EstadoCircuito() string {
	return c.cb.State().String()
}
