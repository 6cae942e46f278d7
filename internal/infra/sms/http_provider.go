package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/xavierca1/ligue-leads/internal/infra/secrets"
)

// HTTPProvider é um gateway de SMS genérico falando JSON. As credenciais
// passam pelo cache de secrets (TTL 5min) para não bater no store a cada
// envio e mesmo assim pegar rotação de credencial rápido.
type HTTPProvider struct {
	name     string
	flagEnv  string
	urlEnv   string
	tokenEnv string
	creds    *secrets.Cache
	client   *http.Client
}

// NewPrimaryProvider é o gateway preferido: exige flag ligada E configuração
// completa (URL + token).
func NewPrimaryProvider(creds *secrets.Cache) *HTTPProvider {
	return &HTTPProvider{
		name:     "primary",
		flagEnv:  "SMS_PRIMARY_ENABLED",
		urlEnv:   "SMS_PRIMARY_URL",
		tokenEnv: "SMS_PRIMARY_TOKEN",
		creds:    creds,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewFallbackProvider entra quando o preferido está desligado ou sem config.
func NewFallbackProvider(creds *secrets.Cache) *HTTPProvider {
	return &HTTPProvider{
		name:     "fallback",
		flagEnv:  "SMS_FALLBACK_ENABLED",
		urlEnv:   "SMS_FALLBACK_URL",
		tokenEnv: "SMS_FALLBACK_TOKEN",
		creds:    creds,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Name() string {
	return p.name
}

func (p *HTTPProvider) Enabled() bool {
	if os.Getenv(p.flagEnv) != "true" {
		return false
	}
	return os.Getenv(p.urlEnv) != "" && os.Getenv(p.tokenEnv) != ""
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type sendResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

func (p *HTTPProvider) Send(ctx context.Context, phone, text string) (string, error) {
	token, err := p.creds.Get(p.tokenEnv, func() (string, error) {
		value := os.Getenv(p.tokenEnv)
		if value == "" {
			return "", fmt.Errorf("%s não configurado", p.tokenEnv)
		}
		return value, nil
	})
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(sendRequest{To: phone, Message: text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", os.Getenv(p.urlEnv), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("sms gateway %s retornou status %d: %s", p.name, resp.StatusCode, string(respBody))
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("sms gateway %s: %s", p.name, result.Error)
	}

	return result.ID, nil
}
