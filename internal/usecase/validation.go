package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var emailDomainRe = regexp.MustCompile(`@[^@\s]+\.[^@\s]+$`)

// ValidateCaptureLeadInput valida tudo de uma vez e devolve a lista completa de
// erros, assim o front mostra todos os problemas em uma única ida.
func ValidateCaptureLeadInput(input CaptureLeadInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len(strings.TrimSpace(input.Name)) > 120 {
		errors = append(errors, ValidationError{"name", "must not exceed 120 characters"})
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if len(email) > 254 {
		errors = append(errors, ValidationError{"email", "must not exceed 254 characters"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	} else if !emailDomainRe.MatchString(email) {
		// net/mail aceita "a@b" sem TLD; aqui exigimos local@domain.tld
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if len(input.Phone) > 40 {
		errors = append(errors, ValidationError{"phone", "must not exceed 40 characters"})
	}

	if len(input.Message) > 2000 {
		errors = append(errors, ValidationError{"message", "must not exceed 2000 characters"})
	}

	for key, value := range input.UTM {
		if len(value) > 120 {
			errors = append(errors, ValidationError{"utm." + key, "must not exceed 120 characters"})
		}
	}

	return errors
}

// NormalizeCaptureLeadInput apara espaços e baixa o email para o keying
// downstream. O casing do nome visível ao caller não é alterado.
// Idempotente: normalizar duas vezes dá o mesmo resultado.
func NormalizeCaptureLeadInput(input CaptureLeadInput) CaptureLeadInput {
	out := input
	out.Name = strings.TrimSpace(input.Name)
	out.Email = strings.ToLower(strings.TrimSpace(input.Email))
	out.Phone = strings.TrimSpace(input.Phone)
	out.Message = strings.TrimSpace(input.Message)
	out.Page = strings.TrimSpace(input.Page)
	out.Referrer = strings.TrimSpace(input.Referrer)

	if len(input.UTM) > 0 {
		utm := make(map[string]string, len(input.UTM))
		for key, value := range input.UTM {
			utm[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		out.UTM = utm
	}

	return out
}
