package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"4000"`
	APIPrefix       string        `env:"API_PREFIX" envDefault:"/api"`
	ClientOrigin    string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5174"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL          time.Duration `env:"JWT_TTL" envDefault:"168h"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"file"`
	UsersFile       string        `env:"USERS_FILE" envDefault:"data/users.json"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	LLMAPIKey       string        `env:"LLM_API_KEY"`
	LLMBaseURL      string        `env:"LLM_BASE_URL" envDefault:"https://router.huggingface.co/v1"`
	LLMModel        string        `env:"LLM_MODEL"`
	AIRequireAuth   bool          `env:"AI_REQUIRE_AUTH" envDefault:"false"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"10m"`
	LoginRateMax    int           `env:"LOGIN_RATE_MAX" envDefault:"10"`
	SMTPHost        string        `env:"SMTP_HOST"`
	SMTPPort        int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser        string        `env:"SMTP_USER"`
	SMTPPass        string        `env:"SMTP_PASS"`
	SMTPFrom        string        `env:"SMTP_FROM"`
	SMTPFromName    string        `env:"SMTP_FROM_NAME"`
	SMTPUseTLS      bool          `env:"SMTP_USE_TLS" envDefault:"false"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
}

// Drivers de almacenamiento soportados para cuentas.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
