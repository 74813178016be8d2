// Pacote postgres implementa a camada de persistência no Postgres via GORM.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxConexoes       = 25
	tempoOciosoMaximo = 5 * time.Minute
	vidaMaxima        = time.Hour
)

// Open abre a conexão, ajusta o pool e valida com ping. TranslateError
// transforma violação de índice único em gorm.ErrDuplicatedKey, que os
// repositórios traduzem para os conflitos de domínio (CPF duplicado, voto
// repetido).
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: abrir conexao: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: obter sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConexoes)
	sqlDB.SetMaxIdleConns(maxConexoes)
	sqlDB.SetConnMaxIdleTime(tempoOciosoMaximo)
	sqlDB.SetConnMaxLifetime(vidaMaxima)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctxPing); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return gormDB, nil
}
