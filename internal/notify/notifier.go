package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/domain"
	"github.com/sumanuel/Auto-Guardian-sub000/internal/log"
)

// Notifier delivers newly fired alerts for one fleet.
type Notifier interface {
	Notify(ctx context.Context, fleetID string, alerts []domain.Alert) error
}

// New returns a MailNotifier when SMTP is configured and a LogNotifier
// otherwise.
func New(cfg *config.Config, logger log.Logger) Notifier {
	if cfg.SMTPHost == "" || len(cfg.NotifyRecipients) == 0 {
		return &LogNotifier{logger: logger}
	}
	return &MailNotifier{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		user:       cfg.SMTPUser,
		password:   cfg.SMTPPassword,
		from:       cfg.NotifyFrom,
		recipients: cfg.NotifyRecipients,
	}
}

type MailNotifier struct {
	host       string
	port       int
	user       string
	password   string
	from       string
	recipients []string
}

func (n *MailNotifier) Notify(ctx context.Context, fleetID string, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	from := n.from
	if from == "" {
		from = n.user
	}

	// A fresh mail service per send: nikoksr/notify accumulates receivers
	// across AddReceivers calls.
	mailSvc := mail.New(from, fmt.Sprintf("%s:%d", n.host, n.port))
	if n.user != "" {
		mailSvc.AuthenticateSMTP("", n.user, n.password, n.host)
	}
	mailSvc.AddReceivers(n.recipients...)

	notifier := notify.New()
	notifier.UseServices(mailSvc)

	if err := notifier.Send(ctx, Subject(fleetID, alerts), Body(alerts)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

type LogNotifier struct {
	logger log.Logger
}

func NewLogNotifier(logger log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, fleetID string, alerts []domain.Alert) error {
	for _, a := range alerts {
		n.logger.Info("maintenance alert",
			"fleet_id", fleetID,
			"vehicle", a.VehicleName,
			"maintenance", a.MaintenanceType,
			"type", a.Type,
			"reason", a.Reason,
		)
	}
	return nil
}

// Subject summarizes a batch, e.g. "[Maintenance] fleet_a: 1 overdue, 2 urgent".
func Subject(fleetID string, alerts []domain.Alert) string {
	var overdue, urgent int
	for _, a := range alerts {
		switch a.Type {
		case domain.AlertOverdue:
			overdue++
		case domain.AlertUrgent:
			urgent++
		}
	}

	parts := make([]string, 0, 2)
	if overdue > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", overdue))
	}
	if urgent > 0 {
		parts = append(parts, fmt.Sprintf("%d urgent", urgent))
	}
	return fmt.Sprintf("[Maintenance] %s: %s", fleetID, strings.Join(parts, ", "))
}

// Body lists one line per alert in the given order.
func Body(alerts []domain.Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "%s - %s - %s: %s\n", strings.ToUpper(a.Type.String()), a.VehicleName, a.MaintenanceType, a.Reason)
	}
	return b.String()
}
