package service

import (
	"errors"
	"fmt"
	"html"

	"expensetracker/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("email service is disabled, set TRACKER_EMAIL_ENABLED=true")

// EmailService 邮件服务
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

// Enabled 是否已启用
func (s *EmailService) Enabled() bool {
	return s.cfg.Enabled
}

// SendShareReminder 提醒成员支付群组分摊
func (s *EmailService) SendShareReminder(r ShareReminder) error {
	if !s.cfg.Enabled {
		return ErrEmailDisabled
	}
	if r.Debtor.Email == "" {
		return fmt.Errorf("user %s has no email address", r.Debtor.Username)
	}

	subject := fmt.Sprintf("[Finance Tracker] Reminder: your share of %q", r.Group.Title)
	return s.sendEmail(r.Debtor.Email, subject, s.generateReminderBody(r))
}

// generateReminderBody 生成提醒邮件内容
func (s *EmailService) generateReminderBody(r ShareReminder) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .amount { font-size: 32px; font-weight: bold; color: #1d4ed8; text-align: center; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Finance Tracker</h1>
        </div>
        <div class="content">
            <p>Hi <strong>%s</strong>,</p>
            <p>You still owe your share of <strong>%s</strong> (%s), organised by %s.</p>
            <p class="amount">%s</p>
            <p>Once you have paid, ask %s to mark your share as paid.</p>
        </div>
        <div class="footer">
            <p>This message was sent automatically, please do not reply.</p>
        </div>
    </div>
</body>
</html>
`,
		html.EscapeString(r.Debtor.Username),
		html.EscapeString(r.Group.Title),
		r.Group.Date.Format("2006-01-02"),
		html.EscapeString(r.Creator.Username),
		r.Member.ShareAmount.StringFixed(2),
		html.EscapeString(r.Creator.Username),
	)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
