package fulfillment

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/config"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Attachment is one receipt PDF going out with the confirmation email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer sends receipt emails through SendGrid.
type Mailer struct {
	client    mailClient
	fromName  string
	fromEmail string
	logg      *logger.Logger
}

// NewMailer builds a SendGrid backed mailer.
func NewMailer(cfg config.SendgridConfig, logg *logger.Logger) (*Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Mailer{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		logg:      logg,
	}, nil
}

// SendReceipt mails the receipts for one checkout to the customer.
func (m *Mailer) SendReceipt(ctx context.Context, toEmail, orderNumber string, attachments []Attachment) error {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(m.fromName, m.fromEmail))
	message.Subject = fmt.Sprintf("Kvittering for ordre %s", orderNumber)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", toEmail))
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", receiptBody(orderNumber, len(attachments))))

	for _, attachment := range attachments {
		pdf := mail.NewAttachment()
		pdf.SetContent(base64.StdEncoding.EncodeToString(attachment.Content))
		pdf.SetType("application/pdf")
		pdf.SetFilename(attachment.Filename)
		pdf.SetDisposition("attachment")
		message.AddAttachment(pdf)
	}

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending receipt email")
	}
	if response.StatusCode >= 400 {
		logCtx := m.logg.WithFields(ctx, map[string]any{
			"order_number": orderNumber,
			"status_code":  response.StatusCode,
		})
		m.logg.Warn(logCtx, "sendgrid rejected the receipt email")
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sendgrid returned status %d", response.StatusCode))
	}
	return nil
}

func receiptBody(orderNumber string, licenseCount int) string {
	var b strings.Builder
	b.WriteString("Hei,\n\n")
	b.WriteString(fmt.Sprintf("Takk for din bestilling hos Norges Bilsportforbund (ordre %s).\n", orderNumber))
	if licenseCount == 1 {
		b.WriteString("Kvitteringen for lisensen din ligger vedlagt.\n\n")
	} else {
		b.WriteString(fmt.Sprintf("Kvitteringene for de %d lisensene dine ligger vedlagt.\n\n", licenseCount))
	}
	b.WriteString(receiptDisclaimer)
	b.WriteString("\n\nMed vennlig hilsen\nNorges Bilsportforbund")
	return b.String()
}
