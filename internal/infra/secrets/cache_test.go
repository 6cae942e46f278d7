package secrets

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-leads/internal/clock"
)

// TestCacheServesWithinTTL - dentro do TTL não chama o loader de novo
func TestCacheServesWithinTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	cache := NewCache(time.Minute, clk)

	calls := 0
	load := func() (string, error) {
		calls++
		return "secret-v1", nil
	}

	value, err := cache.Get("sms-token", load)
	assert.NoError(t, err)
	assert.Equal(t, "secret-v1", value)

	clk.Advance(30 * time.Second)

	value, _ = cache.Get("sms-token", load)
	assert.Equal(t, "secret-v1", value)
	assert.Equal(t, 1, calls)
}

// TestCacheRefreshesAfterTTL - passado o TTL renova via loader
func TestCacheRefreshesAfterTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	cache := NewCache(time.Minute, clk)

	calls := 0
	load := func() (string, error) {
		calls++
		if calls == 1 {
			return "secret-v1", nil
		}
		return "secret-v2", nil
	}

	cache.Get("sms-token", load)
	clk.Advance(61 * time.Second)

	value, err := cache.Get("sms-token", load)
	assert.NoError(t, err)
	assert.Equal(t, "secret-v2", value)
	assert.Equal(t, 2, calls)
}

// TestCacheServesStaleOnLoadFailure - loader quebrado devolve o valor velho
func TestCacheServesStaleOnLoadFailure(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	cache := NewCache(time.Minute, clk)

	calls := 0
	load := func() (string, error) {
		calls++
		if calls == 1 {
			return "secret-v1", nil
		}
		return "", errors.New("secret store offline")
	}

	cache.Get("sms-token", load)
	clk.Advance(2 * time.Minute)

	value, err := cache.Get("sms-token", load)
	assert.NoError(t, err)
	assert.Equal(t, "secret-v1", value)
}

// TestCacheFailsWithoutFallback - sem valor velho, o erro sobe
func TestCacheFailsWithoutFallback(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	cache := NewCache(time.Minute, clk)

	_, err := cache.Get("sms-token", func() (string, error) {
		return "", errors.New("secret store offline")
	})
	assert.Error(t, err)
}
