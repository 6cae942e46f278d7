package mail

import (
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
)

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// SendLeadNotification envia o aviso de lead por SMTP. Nunca deixa erro (nem
// panic) vazar: o resultado volta em SendResult e quem chama decide o que
// registrar.
func (s *EmailSender) SendLeadNotification(to, subject string, data LeadNotificationData) (result SendResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("❌ Email: panic no envio para %s: %v", to, rec)
			result = SendResult{Success: false, Error: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	messageID := uuid.New().String()

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-Id", fmt.Sprintf("<%s@ligue-leads>", messageID))
	m.SetBody("text/html", buildBody(data))

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		middleware.RecordIntegrationError("smtp")
		return SendResult{Success: false, Error: fmt.Sprintf("erro ao enviar email SMTP: %v", err)}
	}

	return SendResult{Success: true, MessageID: messageID}
}

// buildBody monta o HTML escapando TODO texto controlado pelo caller. O corpo
// mostra só "First L."; o PII completo fica atrás do console autenticado.
func buildBody(data LeadNotificationData) string {
	var b strings.Builder

	b.WriteString("<h2>Novo lead</h2>")
	b.WriteString(fmt.Sprintf("<p><strong>Nome:</strong> %s</p>", html.EscapeString(data.MaskedName)))

	if data.Page != "" {
		b.WriteString(fmt.Sprintf("<p><strong>Página:</strong> %s</p>", html.EscapeString(data.Page)))
	}
	if data.Message != "" {
		b.WriteString(fmt.Sprintf("<p><strong>Mensagem:</strong> %s</p>", html.EscapeString(data.Message)))
	}
	if data.Reason != "" {
		b.WriteString(fmt.Sprintf("<p><strong>Motivo:</strong> %s</p>", html.EscapeString(data.Reason)))
	}

	b.WriteString(fmt.Sprintf("<p>Referência: %s</p>", html.EscapeString(data.LeadID)))

	return b.String()
}

// MaskName reduz "Jane Doe" para "Jane D." no conteúdo enviado por email.
func MaskName(fullName string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}

	last := []rune(parts[len(parts)-1])
	return fmt.Sprintf("%s %s.", parts[0], strings.ToUpper(string(last[0])))
}
