package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"travel-planner/internal/repository"
)

// Cuenta el intento y fija la expiración (ms) solo en el primero de la ventana.
const redisLoginAttemptScript = `
local attempts = redis.call("INCR", KEYS[1])
if attempts == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return attempts
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisLoginRateLimiter comparte el conteo de intentos entre réplicas. Las claves usan
// un hash del email para no dejar direcciones en claro en Redis.
type redisLoginRateLimiter struct {
	client  redisEvaler
	window  time.Duration
	max     int
	prefix  string
	timeout time.Duration
}

// NewRedisLoginRateLimiter devuelve nil si no hay cliente.
func NewRedisLoginRateLimiter(client *redis.Client, window time.Duration, max int) LoginRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginRateLimiter{
		client:  client,
		window:  window,
		max:     max,
		prefix:  "login:attempts:",
		timeout: 500 * time.Millisecond,
	}
}

func (l *redisLoginRateLimiter) Allow(email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	email = repository.NormalizeEmail(email)
	if email == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	attempts, err := l.client.Eval(ctx, redisLoginAttemptScript, []string{l.attemptsKey(email)}, l.window.Milliseconds()).Int()
	if err != nil {
		// Fail-open: una caída de Redis no bloquea los logins.
		return true
	}
	return attempts <= l.max
}

func (l *redisLoginRateLimiter) attemptsKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return l.prefix + hex.EncodeToString(sum[:])
}
