package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gfmoreira/urna-api/internal/domain"
)

// Contador guarda os números das parciais de votação em chaves Redis
// prefixadas. As escritas são INCRBY simples; a leitura agregada usa MGET
// para resolver todas as chaves de uma assembleia em uma ida só.
type Contador struct {
	client *redis.Client
	prefix string
}

var _ domain.Contador = (*Contador)(nil)

func NewContador(client *redis.Client, prefix string) *Contador {
	return &Contador{client: client, prefix: prefix}
}

func (c *Contador) Incrementar(ctx context.Context, chave string, delta int64) (int64, error) {
	return c.client.IncrBy(ctx, c.key(chave), delta).Result()
}

// Obter trata chave ausente como zero: uma assembleia sem votos ainda não
// tem contador materializado.
func (c *Contador) Obter(ctx context.Context, chave string) (int64, error) {
	valor, err := c.client.Get(ctx, c.key(chave)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return valor, err
}

func (c *Contador) ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error) {
	resultado := make(map[string]int64, len(chaves))
	if len(chaves) == 0 {
		return resultado, nil
	}

	prefixadas := make([]string, len(chaves))
	for i, chave := range chaves {
		prefixadas[i] = c.key(chave)
	}

	valores, err := c.client.MGet(ctx, prefixadas...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis contador: mget: %w", err)
	}

	for i, bruto := range valores {
		num, convErr := paraInt64(bruto)
		if convErr != nil {
			return nil, fmt.Errorf("redis contador: chave %s: %w", chaves[i], convErr)
		}
		resultado[chaves[i]] = num
	}

	return resultado, nil
}

// paraInt64 normaliza o retorno do MGET: nil vira zero, strings numéricas
// são convertidas e qualquer outro tipo é erro de dado corrompido.
func paraInt64(bruto any) (int64, error) {
	switch v := bruto.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("tipo inesperado %T", bruto)
	}
}

func (c *Contador) key(chave string) string {
	if c.prefix == "" {
		return chave
	}
	return c.prefix + ":" + chave
}
