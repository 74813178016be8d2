package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gfmoreira/urna-api/internal/domain"
)

// PautaRepository mapeia pautas para a tabela GORM e concentra as buscas
// de texto e período usadas pelos filtros do serviço.
type PautaRepository struct {
	db *gorm.DB
}

func NewPautaRepository(db *gorm.DB) *PautaRepository {
	return &PautaRepository{db: db}
}

type pautaModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Titulo    string    `gorm:"column:titulo"`
	Descricao string    `gorm:"column:descricao"`
	CriadaEm  time.Time `gorm:"column:criada_em"`
}

func (pautaModel) TableName() string {
	return "pautas"
}

func (m pautaModel) toDomain() domain.Pauta {
	return domain.Pauta{
		ID:        domain.PautaID(m.ID),
		Titulo:    m.Titulo,
		Descricao: m.Descricao,
		CriadaEm:  m.CriadaEm,
	}
}

func fromDomainPauta(p domain.Pauta) pautaModel {
	return pautaModel{
		ID:        string(p.ID),
		Titulo:    p.Titulo,
		Descricao: p.Descricao,
		CriadaEm:  p.CriadaEm,
	}
}

func (r *PautaRepository) Criar(ctx context.Context, p domain.Pauta) error {
	model := fromDomainPauta(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm pauta: inserir: %w", err)
	}
	return nil
}

func (r *PautaRepository) Atualizar(ctx context.Context, p domain.Pauta) error {
	// Apenas título e descrição mudam; criada_em nunca é reescrita.
	if err := r.db.WithContext(ctx).Model(&pautaModel{}).
		Where("id = ?", string(p.ID)).
		Updates(map[string]any{
			"titulo":    p.Titulo,
			"descricao": p.Descricao,
		}).Error; err != nil {
		return fmt.Errorf("gorm pauta: atualizar: %w", err)
	}
	return nil
}

func (r *PautaRepository) BuscarPorID(ctx context.Context, id domain.PautaID) (domain.Pauta, error) {
	var model pautaModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Pauta{}, domain.ErrNaoEncontrado
		}
		return domain.Pauta{}, fmt.Errorf("gorm pauta: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *PautaRepository) Existe(ctx context.Context, id domain.PautaID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&pautaModel{}).
		Where("id = ?", string(id)).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm pauta: verificar existencia: %w", err)
	}
	return total > 0, nil
}

func (r *PautaRepository) Excluir(ctx context.Context, id domain.PautaID) error {
	if err := r.db.WithContext(ctx).Delete(&pautaModel{}, "id = ?", string(id)).Error; err != nil {
		return fmt.Errorf("gorm pauta: excluir: %w", err)
	}
	return nil
}

func (r *PautaRepository) Listar(ctx context.Context, offset, limite int) ([]domain.Pauta, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&pautaModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm pauta: contar: %w", err)
	}

	var models []pautaModel
	if err := r.db.WithContext(ctx).
		Order("criada_em ASC").
		Offset(offset).
		Limit(limite).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm pauta: listar: %w", err)
	}

	return pautasToDomain(models), total, nil
}

func (r *PautaRepository) BuscarPorTituloExato(ctx context.Context, titulo string) ([]domain.Pauta, error) {
	var models []pautaModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(titulo) = ?", strings.ToLower(titulo)).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm pauta: buscar titulo exato: %w", err)
	}
	return pautasToDomain(models), nil
}

func (r *PautaRepository) BuscarPorTitulo(ctx context.Context, trecho string) ([]domain.Pauta, error) {
	var models []pautaModel
	if err := r.db.WithContext(ctx).
		// LOWER + LIKE mantém o mesmo comportamento em Postgres e no SQLite dos testes.
		Where("LOWER(titulo) LIKE ?", padraoContem(trecho)).
		Order("criada_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm pauta: buscar titulo: %w", err)
	}
	return pautasToDomain(models), nil
}

func (r *PautaRepository) BuscarPorDescricao(ctx context.Context, trecho string) ([]domain.Pauta, error) {
	var models []pautaModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(descricao) LIKE ?", padraoContem(trecho)).
		Order("criada_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm pauta: buscar descricao: %w", err)
	}
	return pautasToDomain(models), nil
}

func (r *PautaRepository) BuscarPorPeriodoCriacao(ctx context.Context, de, ate time.Time) ([]domain.Pauta, error) {
	var models []pautaModel
	if err := r.db.WithContext(ctx).
		Where("criada_em >= ? AND criada_em <= ?", de, ate).
		Order("criada_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm pauta: buscar periodo: %w", err)
	}
	return pautasToDomain(models), nil
}

func pautasToDomain(models []pautaModel) []domain.Pauta {
	result := make([]domain.Pauta, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result
}

func padraoContem(trecho string) string {
	return "%" + strings.ToLower(trecho) + "%"
}

var _ domain.PautaRepository = (*PautaRepository)(nil)
