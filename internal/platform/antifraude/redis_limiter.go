// Pacote antifraude limita tentativas de voto suspeitas por origem
// (rate limit em janela fixa no Redis, mais um modo noop para desligar).
package antifraude

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gfmoreira/urna-api/internal/domain"
)

// ErrLimiteVotos indica que a origem estourou a cota de tentativas na
// janela corrente; a API responde 429 para este erro.
var ErrLimiteVotos = errors.New("limite de tentativas de voto atingido")

// RedisRateLimiter conta tentativas por (assembleia, IP, user-agent) em
// janelas fixas. A chave nasce no primeiro INCR e expira junto com a
// janela, então não há limpeza a fazer.
type RedisRateLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

var _ domain.Antifraude = (*RedisRateLimiter)(nil)

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{client: client, limit: limit, window: window, keyPrefix: prefix}
}

func (r *RedisRateLimiter) Validar(ctx context.Context, tentativa domain.TentativaVoto) error {
	if r.client == nil || r.limit <= 0 || r.window <= 0 {
		// Sem configuração válida o limiter vira permissivo.
		return nil
	}

	chave := r.buildKey(tentativa)

	contagem, err := r.client.Incr(ctx, chave).Result()
	if err != nil {
		return fmt.Errorf("antifraude: incr %s: %w", chave, err)
	}
	if contagem == 1 {
		// Primeira tentativa da janela define o TTL.
		if err := r.client.Expire(ctx, chave, r.window).Err(); err != nil {
			return fmt.Errorf("antifraude: expire %s: %w", chave, err)
		}
	}

	if contagem > int64(r.limit) {
		return ErrLimiteVotos
	}
	return nil
}

// buildKey resume a origem num SHA-1 para não gravar IP e user-agent em
// claro no Redis.
func (r *RedisRateLimiter) buildKey(tentativa domain.TentativaVoto) string {
	base := string(tentativa.AssembleiaID) + "|" + tentativa.OrigemIP + "|" + tentativa.UserAgent
	hash := sha1.Sum([]byte(base))
	return r.keyPrefix + ":" + hex.EncodeToString(hash[:])
}
