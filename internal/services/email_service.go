package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a single message. Implementations do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService renders and sends the transactional emails.
type EmailService struct {
	Mailer Mailer
	Log    *zap.Logger
}

func NewEmailService(mailer Mailer, log *zap.Logger) *EmailService {
	return &EmailService{Mailer: mailer, Log: log}
}

var magicLinkHTML = template.Must(template.New("magic-link").Parse(`<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h1 style="font-size: 20px;">Connexion à StudyLink</h1>
  <p>Bonjour,</p>
  <p>Cliquez sur le bouton ci-dessous pour vous connecter. Ce lien est valable {{.Hours}} heures et ne peut être utilisé qu'une seule fois.</p>
  <p><a href="{{.Link}}" style="display: inline-block; padding: 12px 20px; background: #2563eb; color: #ffffff; text-decoration: none; border-radius: 6px;">Se connecter</a></p>
  <p style="font-size: 12px; color: #6b7280;">Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>
</body>
</html>`))

// SendMagicLink emails a sign-in link to the given address.
func (s *EmailService) SendMagicLink(ctx context.Context, to, link string, ttl time.Duration) error {
	var html bytes.Buffer
	hours := int(ttl / time.Hour)
	if err := magicLinkHTML.Execute(&html, struct {
		Link  string
		Hours int
	}{link, hours}); err != nil {
		return fmt.Errorf("render magic link: %w", err)
	}

	msg := Message{
		To:      to,
		Subject: "Connexion à StudyLink",
		HTML:    html.String(),
		Text: fmt.Sprintf("Bonjour,\n\nConnectez-vous à StudyLink avec ce lien (valable %d heures, usage unique) :\n%s\n\nSi vous n'êtes pas à l'origine de cette demande, ignorez cet email.\n",
			hours, link),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.Log.Error("magic link delivery failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	s.Log.Info("magic link sent", zap.String("to", to))
	return nil
}

// ─── Resend (HTTP API) ───────────────────────────────────────────────────────

type ResendMailer struct {
	httpClient *resty.Client
	from       string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func NewResendMailer(baseURL, apiKey, from string) *ResendMailer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ResendMailer{httpClient: client, from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	var (
		out    resendResponse
		apiErr resendError
	)
	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    m.from,
			To:      []string{msg.To},
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resend: %s (status %d)", apiErr.Message, resp.StatusCode())
	}
	return nil
}

// ─── Gmail API ───────────────────────────────────────────────────────────────

type GmailMailer struct {
	Client *gmail.Service
	From   string
}

func NewGmailMailer(client *gmail.Service, from string) *GmailMailer {
	return &GmailMailer{Client: client, From: from}
}

func (m *GmailMailer) Send(ctx context.Context, msg Message) error {
	raw := buildMIME(m.From, msg)
	_, err := m.Client.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			return fmt.Errorf("gmail send (status %d): %w", gErr.Code, err)
		}
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// buildMIME renders an RFC 5322 message with an HTML body.
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// ─── Log (development) ───────────────────────────────────────────────────────

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Log *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info("email (not sent, log provider)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
