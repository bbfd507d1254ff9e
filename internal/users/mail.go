package users

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// Mailer envia o código de restablecimiento para o usuário
type Mailer interface {
	SendResetCode(ctx context.Context, to, nombre, code string) error
}

// SMTPMailer implementa Mailer sobre um servidor SMTP
type SMTPMailer struct {
	from string
	addr string
	auth smtp.Auth
}

// NewSMTPMailer cria uma nova instância de SMTPMailer
func NewSMTPMailer(host, port, account, password string) *SMTPMailer {
	return &SMTPMailer{
		from: account,
		addr: fmt.Sprintf("%s:%s", host, port),
		auth: smtp.PlainAuth("", account, password, host),
	}
}

// SendResetCode envia o código por correio em HTML
func (m *SMTPMailer) SendResetCode(_ context.Context, to, nombre, code string) error {
	body, err := renderResetEmail(nombre, code)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("Mi Tienda Online <%s>", m.from)
	e.To = []string{to}
	e.Subject = "Restablecimiento de Contraseña - Mi Tienda Online"
	e.HTML = body

	if err := e.Send(m.addr, m.auth); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func renderResetEmail(nombre, code string) ([]byte, error) {
	tmpl, err := template.New("resetEmail").Parse(resetEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct {
		Nombre string
		Codigo string
	}{nombre, code}); err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.Bytes(), nil
}

const resetEmailTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="text-align: center;">Restablecimiento de Contraseña</h2>
  <p>Hola <strong>{{.Nombre}}</strong>,</p>
  <p>Has solicitado restablecer tu contraseña. Tu código de verificación es:</p>
  <div style="padding: 20px; text-align: center; border-radius: 10px; margin: 20px 0; background: #f0f0f0;">
    <h1 style="font-size: 2.5rem; margin: 0; letter-spacing: 10px;">{{.Codigo}}</h1>
  </div>
  <p><strong>Este código expira en 30 minutos.</strong></p>
  <p>Si no solicitaste este restablecimiento, puedes ignorar este correo.</p>
</div>
`
