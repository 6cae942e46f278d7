package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/ligue-leads/internal/clock"
)

// Domínios de email descartável conhecidos. Lista curta de propósito:
// pega os casos óbvios sem depender de serviço externo.
var disposableDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.com":      true,
	"temp-mail.org":     true,
	"trashmail.com":     true,
	"yopmail.com":       true,
	"discard.email":     true,
	"sharklasers.com":   true,
}

// Submissão mais rápida que isso desde o render da página é bot, não humano.
const minFillLatency = 3 * time.Second

type Verdict struct {
	Suspicious bool
	Reasons    []string
}

type Analysis struct {
	HashedIP       string
	HashedEmail    string
	IdempotencyKey string
	Verdict        Verdict
}

// Submission é o que o analisador enxerga da requisição, já normalizado.
type Submission struct {
	Email    string
	Referrer string
	UTM      map[string]string

	// Honeypot: campo invisível no form. Humano não preenche.
	Website string

	// RenderedAt é o timestamp (RFC3339) que a página gravou ao renderizar o form.
	RenderedAt string
}

type Analyzer struct {
	salt   string
	window time.Duration
	clock  clock.Clock
}

func NewAnalyzer(salt string, window time.Duration, clk clock.Clock) *Analyzer {
	return &Analyzer{salt: salt, window: window, clock: clk}
}

// Analyze deriva os fingerprints, a chave de idempotência e o veredito.
// O veredito nunca rejeita: só decide entre ACCEPTED e QUARANTINED. Lead em
// quarentena continua contando para rate limit e idempotência, então
// não é rota de fuga do throttling.
func (a *Analyzer) Analyze(sub Submission, clientIP string) Analysis {
	hashedIP := a.hash(clientIP)
	hashedEmail := a.hash(sub.Email)

	// Bucket de tempo do tamanho da janela de rate limit: reenvios dentro da
	// mesma janela colapsam para a mesma chave.
	bucket := a.clock.Now().Unix() / int64(a.window.Seconds())
	key := a.hash(fmt.Sprintf("%s|%s|%d", hashedEmail, hashedIP, bucket))

	return Analysis{
		HashedIP:       hashedIP,
		HashedEmail:    hashedEmail,
		IdempotencyKey: key,
		Verdict:        a.inspect(sub),
	}
}

func (a *Analyzer) inspect(sub Submission) Verdict {
	var reasons []string

	if at := strings.LastIndex(sub.Email, "@"); at >= 0 {
		domain := strings.ToLower(sub.Email[at+1:])
		if disposableDomains[domain] {
			reasons = append(reasons, "disposable email domain: "+domain)
		}
	}

	if strings.TrimSpace(sub.Website) != "" {
		reasons = append(reasons, "honeypot field populated")
	}

	if len(sub.UTM) > 0 && strings.TrimSpace(sub.Referrer) == "" {
		reasons = append(reasons, "utm params present without referrer")
	}

	if sub.RenderedAt != "" {
		if rendered, err := time.Parse(time.RFC3339, sub.RenderedAt); err == nil {
			if elapsed := a.clock.Now().Sub(rendered); elapsed >= 0 && elapsed < minFillLatency {
				reasons = append(reasons, fmt.Sprintf("form filled in %s", elapsed.Round(time.Millisecond)))
			}
		}
	}

	return Verdict{Suspicious: len(reasons) > 0, Reasons: reasons}
}

func (a *Analyzer) hash(value string) string {
	sum := sha256.Sum256([]byte(a.salt + "|" + value))
	return hex.EncodeToString(sum[:])
}

// ClientIP extrai o melhor endereço conhecido do cliente: primeira entrada do
// X-Forwarded-For, senão o host do RemoteAddr, senão "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
