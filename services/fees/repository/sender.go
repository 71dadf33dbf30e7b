package repository

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"schoolfee/config"
	"schoolfee/domain"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
)

type senderRepository struct {
	meowClient  *whatsmeow.Client
	smtpAuth    smtp.Auth
	smtpAddress string
	sendgrid    *sendgrid.Client
	emailSender string
	senderName  string
	countryCode string
}

func NewSenderRepository(s *config.Senders, senderName, countryCode string) domain.SenderRepo {
	if s == nil {
		s = &config.Senders{}
	}
	return &senderRepository{
		meowClient:  s.WhatsApp,
		smtpAuth:    s.SMTPAuth,
		smtpAddress: s.SMTPAddr,
		sendgrid:    s.Sendgrid,
		emailSender: s.EmailFrom,
		senderName:  senderName,
		countryCode: countryCode,
	}
}

func (m *senderRepository) Available(via domain.Channel) bool {
	switch via {
	case domain.ChannelWhatsApp:
		return m.meowClient != nil && m.meowClient.IsConnected() && m.meowClient.Store.ID != nil
	case domain.ChannelEmail:
		return m.smtpAuth != nil || m.sendgrid != nil
	default:
		return false
	}
}

func (m *senderRepository) Deliver(ctx context.Context, via domain.Channel, to domain.Guardian, subject, body string) error {
	if !m.Available(via) {
		return errors.Wrapf(domain.ErrChannelUnavailable, "%s", via)
	}
	switch via {
	case domain.ChannelWhatsApp:
		if to.Phone == "" {
			return errors.Errorf("no parent phone for %s", to.StudentName)
		}
		return m.sendWA(ctx, to.Phone, body)
	case domain.ChannelEmail:
		if to.Email == "" {
			return errors.Errorf("no parent email for %s", to.StudentName)
		}
		return m.sendEmail(to.Email, subject, body)
	default:
		return errors.Wrapf(domain.ErrChannelUnavailable, "%s", via)
	}
}

// NormalizePhone turns a local number into international digits:
// 03001234567 and 3001234567 both become 923001234567 for code "92".
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:]
	case len(digits) == 10:
		return countryCode + digits
	default:
		return digits
	}
}

func (m *senderRepository) sendWA(ctx context.Context, phone, body string) error {
	jid := types.NewJID(NormalizePhone(phone, m.countryCode), types.DefaultUserServer)

	conversationMessage := &waE2E.Message{
		Conversation: &body,
	}

	if _, err := m.meowClient.SendMessage(ctx, jid, conversationMessage); err != nil {
		return fmt.Errorf("failed to send whatsapp: %w", err)
	}
	return nil
}

func (m *senderRepository) sendEmail(to, subject, body string) error {
	if m.smtpAuth != nil {
		msg := "From: " + m.emailSender + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			body

		if err := smtp.SendMail(m.smtpAddress, m.smtpAuth, m.emailSender, []string{to}, []byte(msg)); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	from := sgmail.NewEmail(m.senderName, m.emailSender)
	message := sgmail.NewSingleEmail(from, subject, sgmail.NewEmail("", to), body, "")
	resp, err := m.sendgrid.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
