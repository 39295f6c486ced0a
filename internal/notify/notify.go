package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
	"utac-backend/internal/crawl"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("utac-backend/internal/notify")

// maxListedErrors caps the region errors written in a summary.
const maxListedErrors = 10

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.Recipients) > 0
}

type sendFunc = func(e *email.Email, addr string, auth smtp.Auth) error

func sendEmail(e *email.Email, addr string, auth smtp.Auth) error {
	return e.Send(addr, auth)
}

type Mailer struct {
	config SmtpConfig
	send   sendFunc
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config, send: sendEmail}
}

// FormatSummary renders a crawl report as plain text.
func FormatSummary(report crawl.AggregateReport) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Run: %s\n", report.RunID)
	fmt.Fprintf(b, "Started: %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(b, "Duration: %s\n", report.TotalDuration.Round(time.Second))
	fmt.Fprintf(b, "Centers: %d\n", report.TotalCenters)
	fmt.Fprintf(
		b, "Regions: %d (%d succeeded, %d failed)\n",
		report.TotalRegions, report.SuccessfulRegions, report.FailedRegions,
	)
	fmt.Fprintf(b, "Average per region: %.1f\n", report.AverageCentersPerRegion)
	fmt.Fprintf(b, "Centers per second: %.2f\n", report.CentersPerSecond)

	if len(report.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for i, msg := range report.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(b, "... and %d more\n", len(report.Errors)-maxListedErrors)
				break
			}
			fmt.Fprintf(b, "- %s\n", msg)
		}
	}
	return b.String()
}

func (m Mailer) SendReport(ctx context.Context, report crawl.AggregateReport) error {
	_, span := tracer.Start(ctx, "SendReport")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("UTAC Crawler <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = fmt.Sprintf(
		"UTAC crawl: %d centers, %d/%d regions failed",
		report.TotalCenters, report.FailedRegions, report.TotalRegions,
	)
	mail.Text = []byte(FormatSummary(report))

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := m.send(mail, addr, smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}
