package service

import (
	"context"
	"fmt"
	"html"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the part of the SendGrid client the email service uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type EmailConfig struct {
	APIKey      string
	FromEmail   string
	FromName    string
	SandboxMode bool
}

type emailService struct {
	client mailSender
	cfg    EmailConfig
}

func NewEmailService(cfg EmailConfig) EmailService {
	return &emailService{client: sendgrid.NewSendClient(cfg.APIKey), cfg: cfg}
}

const confirmationEmailHTML = `<html>
	<body>
		<h2>Your booking is confirmed</h2>
		<p>Hello %s,</p>
		<p>Your booking <strong>%s</strong> with %s is confirmed.</p>
		<p>Pick-up: %s at %s<br>Return: %s at %s</p>
		<p>Total: %s %s</p>
	</body>
</html>`

func (s *emailService) SendBookingConfirmation(ctx context.Context, tenant *domain.Tenant, booking *domain.Booking, driver domain.Driver) error {
	if driver.Email == "" {
		return domain.NewValidationError("driver.email", "is required")
	}
	fromName := s.cfg.FromName
	if fromName == "" {
		fromName = tenant.Name
	}
	from := mail.NewEmail(fromName, s.cfg.FromEmail)
	to := mail.NewEmail(driver.Name, driver.Email)
	subject := fmt.Sprintf("Booking %s confirmed", booking.BookingCode)

	const dateLayout = "Mon, 02 Jan 2006"
	total := booking.Values.Total.StringFixed(2)
	plainText := fmt.Sprintf(
		"Hello %s,\n\nYour booking %s with %s is confirmed.\n\nPick-up: %s at %s\nReturn: %s at %s\nTotal: %s %s\n",
		driver.Name, booking.BookingCode, tenant.Name,
		booking.StartDate.Format(dateLayout), booking.PickupLocation,
		booking.EndDate.Format(dateLayout), booking.ReturnLocation,
		total, tenant.Currency,
	)
	htmlContent := fmt.Sprintf(confirmationEmailHTML,
		html.EscapeString(driver.Name), html.EscapeString(booking.BookingCode), html.EscapeString(tenant.Name),
		booking.StartDate.Format(dateLayout), html.EscapeString(booking.PickupLocation),
		booking.EndDate.Format(dateLayout), html.EscapeString(booking.ReturnLocation),
		total, html.EscapeString(tenant.Currency),
	)

	msg := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	if s.cfg.SandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	logger.ExternalServiceCall("sendgrid", "Send", "bookingCode", booking.BookingCode)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "Send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
		logger.ExternalServiceResult("sendgrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "Send", nil, "status", resp.StatusCode)
	return nil
}
