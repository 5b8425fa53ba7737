package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	jobmetrics "github.com/greengrocer/storefront/internal/jobs"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer relays mail through an unauthenticated SMTP server such as Mailpit.
type SMTPMailer struct {
	Addr string
	From string
}

// Send implements Mailer.
func (m SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := "From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + strings.ReplaceAll(body, "\n", "\r\n")
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg))
}

// OrderConfirmationJob emails customers a summary of their order.
type OrderConfirmationJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	printer *message.Printer
}

// NewOrderConfirmationJob wires dependencies for the confirmation handler.
func NewOrderConfirmationJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderConfirmationJob {
	return &OrderConfirmationJob{
		Mailer:  mailer,
		Logger:  logger,
		Metrics: metrics,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// Handle processes order confirmation tasks.
func (j *OrderConfirmationJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Mailer == nil {
		return errors.New("order confirmation: handler not configured")
	}
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Email == "" {
		j.logger().Warn("order confirmation without recipient", slog.Int64("order_id", payload.OrderID))
		return nil
	}

	tracker := j.Metrics.Track(TaskOrderConfirmation)
	defer func() {
		err = tracker.End(err)
	}()

	subject := fmt.Sprintf("GreenGrocer order #%d confirmed", payload.OrderID)
	if err = j.Mailer.Send(ctx, payload.Email, subject, j.Render(payload)); err != nil {
		j.logger().Error("send order confirmation", slog.Int64("order_id", payload.OrderID), slog.Any("error", err))
		return fmt.Errorf("send confirmation: %w", err)
	}
	j.logger().Info("order confirmation sent", slog.Int64("order_id", payload.OrderID))
	return nil
}

// Render builds the plain-text email body.
func (j *OrderConfirmationJob) Render(payload OrderConfirmationPayload) string {
	p := j.printer
	if p == nil {
		p = message.NewPrinter(language.AmericanEnglish)
	}
	var b strings.Builder
	name := payload.CustomerName
	if name == "" {
		name = "customer"
	}
	p.Fprintf(&b, "Hi %s,\n\n", name)
	p.Fprintf(&b, "Thank you for your order #%d.\n\n", payload.OrderID)
	for _, line := range payload.Lines {
		lineTotal := decimal.NewFromFloat(line.UnitPrice).Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		amount, _ := lineTotal.Float64()
		p.Fprintf(&b, "%d x %s (%s) @ $%.2f = $%.2f\n", line.Quantity, line.ProductName, line.UnitType, line.UnitPrice, amount)
	}
	p.Fprintf(&b, "\nOrder total: $%.2f\n", payload.TotalAmount)
	b.WriteString("\nWe will let you know when your order ships.\nGreenGrocer\n")
	return b.String()
}

func (j *OrderConfirmationJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
