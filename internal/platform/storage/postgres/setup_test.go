package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
)

func setupPostgres(t *testing.T) *gorm.DB {
	// TranslateError também no SQLite para os testes exercitarem a mesma
	// tradução de chave duplicada usada em produção.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&domain.Pauta{}, &domain.Membro{}, &domain.Assembleia{}, &domain.Voto{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

var testBase = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func pautaTeste(t *testing.T, gen *ids.Generator, titulo string) domain.Pauta {
	t.Helper()
	p, err := domain.NovaPauta(domain.PautaID(gen.New()), titulo, "Descrição de "+titulo, testBase)
	require.NoError(t, err)
	return p
}

func membroTeste(t *testing.T, gen *ids.Generator, nome, cpf string) domain.Membro {
	t.Helper()
	m, err := domain.NovoMembro(domain.MembroID(gen.New()), nome, cpf)
	require.NoError(t, err)
	return m
}

func assembleiaTeste(t *testing.T, gen *ids.Generator, pauta *domain.Pauta) domain.Assembleia {
	t.Helper()
	a, err := domain.NovaAssembleia(domain.AssembleiaID(gen.New()), pauta, testBase)
	require.NoError(t, err)
	return a
}
