package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/floorworks/commerce/internal/domain"
)

// Service handles email composition and sending
type Service struct {
	sender        Sender
	fromAddress   string
	fromName      string
	templateCache *template.Template
}

// NewService creates a new email service
func NewService(sender Sender, fromAddress, fromName, templateDir string) (*Service, error) {
	// Load all email templates with custom functions
	tmpl, err := template.New("").Funcs(emailTemplateFuncs()).ParseGlob(filepath.Join(templateDir, "email", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &Service{
		sender:        sender,
		fromAddress:   fromAddress,
		fromName:      fromName,
		templateCache: tmpl,
	}, nil
}

// emailTemplateFuncs returns template functions for email templates
func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int { return time.Now().Year() },
		"formatPrice": func(cents int64) string {
			return fmt.Sprintf("%.2f", float64(cents)/100.0)
		},
	}
}

func (s *Service) send(ctx context.Context, to, subject, templateName string, data interface{}) error {
	htmlBody, textBody, err := s.renderTemplate(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", templateName, err)
	}
	email := &Email{
		To:       []string{to},
		From:     fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress),
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if _, err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send %s: %w", templateName, err)
	}
	return nil
}

// SendTwoFactorCode delivers a staff login's 2FA code, spec.md §4.2.
func (s *Service) SendTwoFactorCode(ctx context.Context, data TwoFactorCodeEmail) error {
	return s.send(ctx, data.Email, data.Subject(), data.TemplateName(), data)
}

// SendOrderConfirmation delivers order confirmation, spec.md §5's
// fire-and-forget post-commit task.
func (s *Service) SendOrderConfirmation(ctx context.Context, data OrderConfirmationEmail) error {
	return s.send(ctx, data.Email, data.Subject(), data.TemplateName(), data)
}

// SendShippingConfirmation delivers carrier/tracking details once an
// order transitions to shipped.
func (s *Service) SendShippingConfirmation(ctx context.Context, data ShippingConfirmationEmail) error {
	return s.send(ctx, data.Email, data.Subject(), data.TemplateName(), data)
}

// SendRefundIssued notifies a buyer that a refund posted.
func (s *Service) SendRefundIssued(ctx context.Context, data RefundIssuedEmail) error {
	return s.send(ctx, data.Email, data.Subject(), data.TemplateName(), data)
}

// SendPurchaseOrder implements purchaseorders.EmailSender: the vendor
// fallback dispatch path when a vendor has no SFTP inbox configured.
func (s *Service) SendPurchaseOrder(ctx context.Context, vendorEmail string, po *domain.PurchaseOrder, pdf []byte) error {
	email := &Email{
		To:       []string{vendorEmail},
		From:     fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress),
		Subject:  "Purchase Order " + po.PONumber,
		TextBody: "Please find attached purchase order " + po.PONumber + ".",
		Attachments: []Attachment{
			{Filename: po.PONumber + ".pdf", ContentType: "application/pdf", Content: pdf},
		},
	}
	_, err := s.sender.Send(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send purchase order email: %w", err)
	}
	return nil
}

// SendPODispatchFailure alerts staff when both EDI and email dispatch
// fail for a purchase order.
func (s *Service) SendPODispatchFailure(ctx context.Context, staffEmail string, data PODispatchFailureEmail) error {
	return s.send(ctx, staffEmail, data.Subject(), data.TemplateName(), data)
}

// SendRepNotification alerts a sales rep of activity on their book.
func (s *Service) SendRepNotification(ctx context.Context, data RepNotificationEmail) error {
	return s.send(ctx, data.RepEmail, data.Subject(), data.TemplateName(), data)
}

// SendTierPromotion notifies a trade customer of a tier change.
func (s *Service) SendTierPromotion(ctx context.Context, data TierPromotionEmail) error {
	return s.send(ctx, data.Email, data.Subject(), data.TemplateName(), data)
}

// SendScrapeFailure alerts staff that a vendor catalog scrape failed or
// was reaped, spec.md §4.9.
func (s *Service) SendScrapeFailure(ctx context.Context, staffEmail string, data ScrapeFailureEmail) error {
	return s.send(ctx, staffEmail, data.Subject(), data.TemplateName(), data)
}

// Helper method to render a template
func (s *Service) renderTemplate(templateName string, data interface{}) (string, string, error) {
	var htmlBuf bytes.Buffer
	err := s.templateCache.ExecuteTemplate(&htmlBuf, "email_layout", data)
	if err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
