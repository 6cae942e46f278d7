package clock

import "time"

// Clock abstrai time.Now para permitir testes determinísticos
// (cache de secrets, janela de rate limit, bucket de idempotência).
type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}
