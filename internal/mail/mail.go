package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amira30til/ScanToWin-sub001/internal/config"
)

// RewardNotification carries everything the reward email needs.
type RewardNotification struct {
	PlayerName     string
	PlayerEmail    string
	ShopName       string
	RewardName     string
	RedemptionCode string
	ValidUntil     *time.Time
}

// Notifier dispatches reward notifications. Implementations must treat
// delivery as best-effort: the play workflow never fails because of a
// notification error.
type Notifier interface {
	NotifyReward(ctx context.Context, n RewardNotification) error
}

// SMTPNotifier sends reward emails over plain SMTP.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

// NewSMTPNotifier constructs an SMTPNotifier, or nil when mail is not
// configured.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.From) == "" {
		return nil
	}
	return &SMTPNotifier{cfg: cfg}
}

// NotifyReward sends the won-prize email.
func (s *SMTPNotifier) NotifyReward(_ context.Context, n RewardNotification) error {
	subject := fmt.Sprintf("You won %s at %s!", n.RewardName, n.ShopName)

	lines := []string{
		fmt.Sprintf("Hi %s,", n.PlayerName),
		"",
		fmt.Sprintf("Congratulations! You just won %s at %s.", n.RewardName, n.ShopName),
		"",
		fmt.Sprintf("Show this code in store to redeem your prize: %s", n.RedemptionCode),
	}
	if n.ValidUntil != nil {
		lines = append(lines, "", fmt.Sprintf("Your prize is valid until %s.", n.ValidUntil.Format("January 2, 2006")))
	}
	lines = append(lines, "", "See you there!")
	body := strings.Join(lines, "\n")

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + n.PlayerEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if errSend := smtp.SendMail(addr, auth, s.cfg.From, []string{n.PlayerEmail}, []byte(msg)); errSend != nil {
		return fmt.Errorf("mail: send reward notification: %w", errSend)
	}
	return nil
}

// LogNotifier logs notifications instead of sending them. Used when SMTP
// is not configured.
type LogNotifier struct{}

// NotifyReward logs the notification.
func (LogNotifier) NotifyReward(_ context.Context, n RewardNotification) error {
	log.WithFields(log.Fields{
		"email":  n.PlayerEmail,
		"shop":   n.ShopName,
		"reward": n.RewardName,
	}).Info("reward notification (mail disabled)")
	return nil
}
