// Pacote config centraliza o carregamento das variáveis de ambiente usadas pela API.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config agrega todos os parâmetros necessários para o binário da API.
type Config struct {
	HTTPAddress string `env:"HTTP_ADDRESS" env-default:":8080"`

	PostgresHost     string `env:"POSTGRES_HOST" env-default:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" env-default:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" env-default:"urna"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" env-default:"urna"`
	PostgresDB       string `env:"POSTGRES_DB" env-default:"urna_votos"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" env-default:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	ContadorKeyPrefix string `env:"REDIS_COUNTER_PREFIX" env-default:"contador"`

	RateLimitEnabled       bool   `env:"ANTIFRAUDE_RATE_LIMIT_ENABLED" env-default:"true"`
	RateLimitMaxActions    int    `env:"ANTIFRAUDE_RATE_LIMIT_MAX" env-default:"30"`
	RateLimitWindowSeconds int    `env:"ANTIFRAUDE_RATE_LIMIT_WINDOW" env-default:"60"`
	RateLimitKeyPrefix     string `env:"ANTIFRAUDE_RATE_LIMIT_PREFIX" env-default:"ratelimit"`

	AutoMigrate bool `env:"DB_AUTO_MIGRATE" env-default:"true"`

	PaginaTamanhoPadrao int `env:"PAGINACAO_TAMANHO_PADRAO" env-default:"10"`
	PaginaTamanhoMaximo int `env:"PAGINACAO_TAMANHO_MAXIMO" env-default:"100"`
}

func Load() (Config, error) {
	// Defaults priorizam execução local; variáveis permitem sobrescrever em Docker/K8s.
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: leitura do ambiente: %w", err)
	}
	return cfg, nil
}

func (c Config) PostgresDSN() string {
	// Mantemos o formato DSN compatível com GORM e ferramentas de migração.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}
