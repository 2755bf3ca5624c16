package infra

// pdf.go — receipt generation using go-pdf/fpdf.
// Produces A7-size thermal receipt-style PDFs:
//   - GenerateAbonoPDF: installment receipt for an apartado payment, showing
//     the abono, accumulated paid amount and remaining balance.
//   - GenerateVentaPDF: cash sale receipt with item table and payment breakdown.
//
// Output files land under storagePath (created if needed).

import (
	"fmt"
	"os"
	"path/filepath"

	"joyapos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// A7 ≈ 74mm × 105mm — close to thermal receipt paper (custom size, "A7" is not in fpdf's named list)
func newReceiptPDF() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()
	return pdf
}

// GenerateAbonoPDF renders the installment receipt for one abono of an
// apartado. The monetary triple (pagadoAnterior, pagadoNuevo, saldoNuevo) is
// computed by the caller from the payment history so regeneration always
// reproduces the same figures.
func GenerateAbonoPDF(negocio string, a *model.Apartado, ab *model.Abono, pagadoAnterior, pagadoNuevo, saldoNuevo decimal.Decimal, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("apartado_%d_abono_%s.pdf", a.Folio, ab.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := newReceiptPDF()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, negocio, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Recibo de Abono", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Apartado info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Folio %d (%s)", a.Folio, a.Tipo), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	if a.Cliente != nil {
		pdf.CellFormat(contentW, 4, "Cliente: "+a.Cliente.Nombre, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 4, ab.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Amounts ───────────────────────────────────────────────────────────────
	colL := contentW * 0.60
	colR := contentW * 0.40

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 7)
		pdf.CellFormat(colL, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(colR, 5, value, "", 1, "R", false, 0, "")
	}

	row("Abono ("+ab.Metodo+"):", "$"+ab.Monto.StringFixed(2), false)
	row("Pagado anterior:", "$"+pagadoAnterior.StringFixed(2), false)
	row("Pagado acumulado:", "$"+pagadoNuevo.StringFixed(2), false)
	row("Total apartado:", "$"+a.Total.StringFixed(2), false)

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colL, 6, "SALDO:", "", 0, "L", false, 0, "")
	pdf.CellFormat(colR, 6, "$"+saldoNuevo.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	if saldoNuevo.LessThanOrEqual(decimal.Zero) {
		pdf.CellFormat(contentW, 4, "Apartado liquidado. ¡Gracias!", "", 1, "C", false, 0, "")
	} else {
		pdf.CellFormat(contentW, 4, "¡Gracias por su abono!", "", 1, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

// GenerateVentaPDF renders the receipt for a completed cash sale.
func GenerateVentaPDF(negocio string, venta *model.Venta, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("venta_%d.pdf", venta.NumeroTicket)
	filePath := filepath.Join(storagePath, fileName)

	pdf := newReceiptPDF()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, negocio, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Comprobante de Venta", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ticket N° %d", venta.NumeroTicket), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		if len(nombre) > 22 {
			nombre = nombre[:21] + "…"
		}
		pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	if !venta.DescuentoTotal.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+venta.DescuentoTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	for _, pago := range venta.Pagos {
		pdf.CellFormat(col1+col2, 4, "Pago ("+pago.Metodo+"):", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+pago.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "¡Gracias por su compra!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
