package fulfillment

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
)

const receiptDisclaimer = "Denne kvitteringen er ikke et lisensbevis. Lisensen er gyldig " +
	"først når den er registrert hos Norges Bilsportforbund."

const dateLayout = "02.01.2006"

type receiptSection struct {
	Heading string
	Rows    [][2]string
}

// receiptSections builds the printable content of one receipt. Kept separate
// from the PDF rendering so the content stays easy to assert on.
func receiptSections(detail orders.OrderDetail) []receiptSection {
	license := [][2]string{
		{"Lisens", detail.License.Name},
		{"Kategori", detail.License.Category.Label()},
		{"Fører", detail.Order.DriverName},
	}
	if detail.Order.VehicleReg != nil && *detail.Order.VehicleReg != "" {
		license = append(license, [2]string{"Kjøretøy", *detail.Order.VehicleReg})
	}
	if detail.Club != nil {
		license = append(license, [2]string{"Klubb", detail.Club.Name})
	}
	license = append(license,
		[2]string{"Gyldig fra", detail.Order.ValidFrom.Format(dateLayout)},
		[2]string{"Gyldig til", detail.Order.ValidTo.Format(dateLayout)},
	)

	payment := [][2]string{
		{"Ordrereferanse", detail.Order.OrderRef},
		{"Beløp", formatNOK(detail.Order.TotalAmount.StringFixed(2))},
	}
	if detail.Order.PaymentMethod != nil && *detail.Order.PaymentMethod != "" {
		payment = append(payment, [2]string{"Betalingsmåte", *detail.Order.PaymentMethod})
	}
	if detail.Order.TransactionID != nil && *detail.Order.TransactionID != "" {
		payment = append(payment, [2]string{"Transaksjon", *detail.Order.TransactionID})
	}
	payment = append(payment, [2]string{"Ordredato", detail.Order.OrderDate.Format(dateLayout)})

	return []receiptSection{
		{Heading: "LISENSDETALJER", Rows: license},
		{Heading: "KONTAKTINFORMASJON", Rows: [][2]string{
			{"E-post", detail.Order.CustomerEmail},
			{"Telefon", detail.Order.CustomerPhone},
		}},
		{Heading: "BETALINGSINFORMASJON", Rows: payment},
	}
}

func formatNOK(fixed string) string {
	return strings.ReplaceAll(fixed, ".", ",") + " NOK"
}

// BuildReceipt renders the receipt PDF for one order.
func BuildReceipt(detail orders.OrderDetail) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("KVITTERING"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr("Norges Bilsportforbund"))
	pdf.Ln(6)
	if detail.Total > 1 {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Lisens %d av %d", detail.Ordinal, detail.Total)))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	for _, section := range receiptSections(detail) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr(section.Heading))
		pdf.Ln(8)

		for _, row := range section.Rows {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.Cell(55, 6, tr(row[0]))
			pdf.SetFont("Helvetica", "", 10)
			pdf.Cell(0, 6, tr(row[1]))
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr(receiptDisclaimer), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ReceiptFilename names the attachment for one license within a checkout.
func ReceiptFilename(ordinal int, driverName string) string {
	return fmt.Sprintf("lisens_%d_%s.pdf", ordinal, sanitizeFilename(driverName))
}

func sanitizeFilename(value string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case r == 'æ':
			b.WriteString("ae")
			lastUnderscore = false
		case r == 'ø':
			b.WriteString("o")
			lastUnderscore = false
		case r == 'å':
			b.WriteString("a")
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
