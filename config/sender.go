package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/lib/pq"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/skip2/go-qrcode"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
)

var (
	meowWhatsapp *whatsmeow.Client
	qrCodeSent   bool
	mu           sync.Mutex
)

// Senders holds the outbound channels. Any of them may be unset.
type Senders struct {
	WhatsApp      *whatsmeow.Client
	EmailProvider string
	EmailFrom     string
	SMTPAuth      smtp.Auth
	SMTPAddr      string
	Sendgrid      *sendgrid.Client
}

func InitSender(ctx context.Context) (*Senders, error) {
	log := GetLogrusInstance()
	s := &Senders{EmailProvider: GetEmailProvider()}

	switch s.EmailProvider {
	case "smtp":
		emailSender, err := getSender()
		if err != nil {
			return nil, err
		}
		emailPassword, err := getPassword()
		if err != nil {
			return nil, err
		}
		smtpHost, err := getHost()
		if err != nil {
			return nil, err
		}
		smtpPort, err := getSMTPPort()
		if err != nil {
			return nil, err
		}
		s.EmailFrom = *emailSender
		s.SMTPAuth = smtp.PlainAuth("", *emailSender, *emailPassword, *smtpHost)
		s.SMTPAddr = fmt.Sprintf("%s:%s", *smtpHost, *smtpPort)
		log.Info("SMTP initialized")
	case "sendgrid":
		emailSender, err := getSender()
		if err != nil {
			return nil, err
		}
		key, err := getSendgridKey()
		if err != nil {
			return nil, err
		}
		s.EmailFrom = *emailSender
		s.Sendgrid = sendgrid.NewSendClient(*key)
		log.Info("Sendgrid initialized")
	default:
		log.Info("Email channel disabled")
	}

	if !GetWhatsAppEnabled() {
		log.Info("WhatsApp channel disabled")
		return s, nil
	}

	client, err := initWhatsApp(ctx, s)
	if err != nil {
		return nil, err
	}
	s.WhatsApp = client
	return s, nil
}

func initWhatsApp(ctx context.Context, s *Senders) (*whatsmeow.Client, error) {
	log := GetLogrusInstance()

	dbms, err := getDBMS()
	if err != nil {
		return nil, err
	}

	container, err := sqlstore.New(*dbms, GetDatabaseURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to load whatsapp device: %w", err)
	}
	meowWhatsapp = whatsmeow.NewClient(deviceStore, nil)

	if meowWhatsapp.Store.ID != nil {
		if err := meowWhatsapp.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect whatsapp: %w", err)
		}
		log.Info("WhatsMeow initialized")
		return meowWhatsapp, nil
	}

	qrChan, err := meowWhatsapp.GetQRChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open qr channel: %w", err)
	}
	if err := meowWhatsapp.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect whatsapp: %w", err)
	}

	// Pairing runs in the background so the HTTP server can start meanwhile.
	go func() {
		for evt := range qrChan {
			if evt.Event != "code" {
				log.Infof("WhatsApp login event: %s", evt.Event)
				continue
			}
			mu.Lock()
			if !qrCodeSent {
				log.Warn("No WhatsApp session found, an admin needs to scan the QR code")
				if err := generateQRCode(evt.Code, "qrcode.png"); err != nil {
					log.WithError(err).Error("failed to write QR code")
				} else if err := SendQRtoEmail(s, "qrcode.png"); err != nil {
					log.WithError(err).Error("failed to email QR code, scan qrcode.png on the server instead")
				} else {
					log.Infof("QR code sent to %s", s.EmailFrom)
				}
				qrCodeSent = true
			}
			mu.Unlock()
		}
	}()

	return meowWhatsapp, nil
}

func getSender() (*string, error) {
	sender := conf.GetString("EMAIL_SENDER")
	if sender == "" {
		return nil, fmt.Errorf("email sender invalid, value : %s", sender)
	}
	return &sender, nil
}

func getHost() (*string, error) {
	host := conf.GetString("SMTP_HOST")
	if host == "" {
		return nil, fmt.Errorf("smtp value invalid, value : %s", host)
	}
	return &host, nil
}

func getPassword() (*string, error) {
	pass := conf.GetString("EMAIL_SENDER_PASSWORD")
	if pass == "" {
		return nil, fmt.Errorf("email password is missing")
	}
	return &pass, nil
}

func getSMTPPort() (*string, error) {
	port := conf.GetString("SMTP_PORT")
	if port == "" {
		return nil, fmt.Errorf("smtp port invalid, value : %s", port)
	}
	return &port, nil
}

func getSendgridKey() (*string, error) {
	key := conf.GetString("SENDGRID_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("sendgrid api key is missing")
	}
	return &key, nil
}

func getDBMS() (*string, error) {
	dbms := conf.GetString("DBMS")
	if dbms == "" {
		return nil, fmt.Errorf("DBMS is missing, value: %s", dbms)
	}
	return &dbms, nil
}

func generateQRCode(data, filePath string) error {
	err := qrcode.WriteFile(data, qrcode.Medium, 256, filePath)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %v", err)
	}
	return nil
}

// SendQRtoEmail mails the pairing QR code to the configured sender address.
func SendQRtoEmail(s *Senders, qrFilePath string) error {
	fileData, err := os.ReadFile(qrFilePath)
	if err != nil {
		return fmt.Errorf("failed to read QR code file: %v", err)
	}
	fileName := filepath.Base(qrFilePath)
	subject := GetAppName() + " WhatsApp QR Code Login"
	body := "Please find the attached QR code for login."

	switch {
	case s.SMTPAuth != nil:
		boundary := "qr-boundary-7f3a"
		msg := []byte("From: " + s.EmailFrom + "\n" +
			"To: " + s.EmailFrom + "\n" +
			"Subject: " + subject + "\n" +
			"MIME-Version: 1.0\n" +
			"Content-Type: multipart/mixed; boundary=" + boundary + "\n\n" +
			"--" + boundary + "\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\n\n" +
			body + "\n\n" +
			"--" + boundary + "\n" +
			"Content-Type: image/png\n" +
			"Content-Disposition: attachment; filename=\"" + fileName + "\"\n" +
			"Content-Transfer-Encoding: base64\n\n")
		msg = append(msg, []byte(base64.StdEncoding.EncodeToString(fileData))...)
		msg = append(msg, []byte("\n--"+boundary+"--")...)

		if err := smtp.SendMail(s.SMTPAddr, s.SMTPAuth, s.EmailFrom, []string{s.EmailFrom}, msg); err != nil {
			return fmt.Errorf("failed to send email: %v", err)
		}
		return nil
	case s.Sendgrid != nil:
		from := sgmail.NewEmail(GetAppName(), s.EmailFrom)
		m := sgmail.NewSingleEmail(from, subject, from, body, "")
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(fileData))
		a.SetType("image/png")
		a.SetFilename(fileName)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
		resp, err := s.Sendgrid.Send(m)
		if err != nil {
			return fmt.Errorf("failed to send email: %v", err)
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("sendgrid rejected email: %d %s", resp.StatusCode, resp.Body)
		}
		return nil
	default:
		return fmt.Errorf("no email channel configured")
	}
}
