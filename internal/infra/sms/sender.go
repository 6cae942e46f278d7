package sms

import (
	"context"
	"log"
	"unicode"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
)

type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// Provider é um gateway de SMS na cadeia de prioridade.
type Provider interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, phone, text string) (string, error)
}

// Sender percorre os providers em ordem de prioridade: o primeiro habilitado
// ganha. Nenhum habilitado é escolha de configuração, não falha: vira no-op
// com sucesso silencioso.
type Sender struct {
	providers []Provider
}

func NewSender(providers ...Provider) *Sender {
	return &Sender{providers: providers}
}

const minPhoneDigits = 8

func (s *Sender) Send(ctx context.Context, phone, text string) SendResult {
	if countDigits(phone) < minPhoneDigits {
		return SendResult{Success: false, Error: "phone number has too few digits"}
	}

	for _, p := range s.providers {
		if !p.Enabled() {
			continue
		}

		messageID, err := p.Send(ctx, phone, text)
		if err != nil {
			log.Printf("⚠️ SMS (%s): falha ao enviar para %s: %v", p.Name(), phone, err)
			middleware.RecordIntegrationError("sms-" + p.Name())
			return SendResult{Success: false, Error: err.Error()}
		}

		return SendResult{Success: true, MessageID: messageID}
	}

	log.Printf("⚠️ SMS: nenhum provider habilitado, envio para %s ignorado", phone)
	return SendResult{Success: true}
}

func countDigits(phone string) int {
	count := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}
