package service

import (
	"bytes"
	"html/template"
	"time"

	"joyapos/internal/model"

	"github.com/shopspring/decimal"
)

// ticketTemplate is the receipt artifact for one abono. Every semantic field
// comes from the ledger and the payment history; the generation timestamp is
// the only non-semantic metadata and regeneration may legitimately change it.
var ticketTemplate = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Abono — Folio {{.Folio}}</title></head>
<body>
  <h1>{{.Negocio}}</h1>
  <h2>Recibo de abono</h2>
  <p>Folio: <strong>{{.Folio}}</strong> ({{.Tipo}})</p>
  <p>Cliente: {{.Cliente}}</p>
  <p>Fecha del abono: {{.FechaAbono}}</p>
  <table>
    <tr><td>Abono ({{.Metodo}})</td><td>$ {{.Monto}}</td></tr>
    <tr><td>Pagado anterior</td><td>$ {{.PagadoAnterior}}</td></tr>
    <tr><td>Pagado acumulado</td><td>$ {{.PagadoNuevo}}</td></tr>
    <tr><td>Total</td><td>$ {{.Total}}</td></tr>
    <tr><td><strong>Saldo restante</strong></td><td><strong>$ {{.SaldoNuevo}}</strong></td></tr>
  </table>
  <p><small>Generado: {{.Generado}}</small></p>
</body>
</html>
`))

type ticketData struct {
	Negocio        string
	Folio          int
	Tipo           string
	Cliente        string
	FechaAbono     string
	Metodo         string
	Monto          string
	PagadoAnterior string
	PagadoNuevo    string
	Total          string
	SaldoNuevo     string
	Generado       string
}

func renderTicketHTML(negocio string, a *model.Apartado, ab *model.Abono, pagadoAnterior, pagadoNuevo, saldoNuevo decimal.Decimal) (string, error) {
	cliente := ""
	if a.Cliente != nil {
		cliente = a.Cliente.Nombre
	}
	data := ticketData{
		Negocio:        negocio,
		Folio:          a.Folio,
		Tipo:           a.Tipo,
		Cliente:        cliente,
		FechaAbono:     ab.CreatedAt.Format("02/01/2006 15:04"),
		Metodo:         ab.Metodo,
		Monto:          ab.Monto.StringFixed(2),
		PagadoAnterior: pagadoAnterior.StringFixed(2),
		PagadoNuevo:    pagadoNuevo.StringFixed(2),
		Total:          a.Total.StringFixed(2),
		SaldoNuevo:     saldoNuevo.StringFixed(2),
		Generado:       time.Now().Format(time.RFC3339),
	}
	var buf bytes.Buffer
	if err := ticketTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
