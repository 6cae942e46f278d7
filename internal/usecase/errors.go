package usecase

// DomainError é erro de negócio/cliente: vira 4xx e pode ser descrito ao caller.
type DomainError struct {
	Code    string
	Message string

	// Fields carrega o mapa campo->mensagem quando Code == VALIDATION_ERROR.
	Fields map[string]string

	// RetryAfterSeconds é preenchido quando Code == RATE_LIMITED.
	RetryAfterSeconds int
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError é falha de infraestrutura no caminho crítico: vira 500,
// fail-closed, nunca tratado silenciosamente como sucesso.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}
