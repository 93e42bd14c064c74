package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

// SendGridNotifier emails the sales inbox when a lead is ingested.
type SendGridNotifier struct {
	apiKey string
	from   string
	to     string
	logger *zap.Logger
}

func NewSendGridNotifier(apiKey, from, to string, logger *zap.Logger) *SendGridNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridNotifier{apiKey: apiKey, from: from, to: to, logger: logger}
}

func (n *SendGridNotifier) NotifyLead(ctx context.Context, lead domain.Lead) error {
	if n.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if n.from == "" || n.to == "" {
		return fmt.Errorf("notification addresses are not configured")
	}

	subject := fmt.Sprintf("New order lead %s from %s", lead.ID, lead.Contact.Name)
	body := LeadSummary(lead)

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail("Storefront", n.from),
		subject,
		sgmail.NewEmail("", n.to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	n.logger.Info("lead notification sent", zap.String("lead_id", lead.ID), zap.Int("status", response.StatusCode))
	return nil
}

// LeadSummary renders a plain-text summary of the lead.
func LeadSummary(lead domain.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead: %s\n", lead.ID)
	fmt.Fprintf(&b, "Name: %s\n", lead.Contact.Name)
	if lead.Contact.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.Contact.Email)
	}
	if lead.Contact.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", lead.Contact.Phone)
	}
	if lead.Contact.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", lead.Contact.Address)
	}
	if lead.Contact.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", lead.Contact.Notes)
	}

	b.WriteString("\n")
	for _, it := range lead.Items {
		variant := strings.Join(nonEmpty(it.Size, it.Firmness), " / ")
		if variant != "" {
			variant = " (" + variant + ")"
		}
		fmt.Fprintf(&b, "%d x %s%s @ %s = %s\n",
			it.Quantity, it.Name, variant, money(it.UnitPrice), money(it.Subtotal()))
	}
	fmt.Fprintf(&b, "\nItems: %d\nTotal: %s %s\n", lead.ItemCount, money(lead.Total), lead.Currency)
	return b.String()
}

func money(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
