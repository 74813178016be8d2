package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gfmoreira/urna-api/internal/domain"
)

// MembroRepository persiste membros. O índice único de cpf é o guardião
// final da unicidade; a violação vira domain.ErrConflito aqui dentro.
type MembroRepository struct {
	db *gorm.DB
}

func NewMembroRepository(db *gorm.DB) *MembroRepository {
	return &MembroRepository{db: db}
}

type membroModel struct {
	ID   string `gorm:"column:id;primaryKey"`
	Nome string `gorm:"column:nome"`
	Cpf  string `gorm:"column:cpf"`
}

func (membroModel) TableName() string {
	return "membros"
}

func (m membroModel) toDomain() domain.Membro {
	return domain.Membro{
		ID:   domain.MembroID(m.ID),
		Nome: m.Nome,
		Cpf:  domain.Cpf(m.Cpf),
	}
}

func fromDomainMembro(m domain.Membro) membroModel {
	return membroModel{
		ID:   string(m.ID),
		Nome: m.Nome,
		Cpf:  m.Cpf.Valor(),
	}
}

func (r *MembroRepository) Criar(ctx context.Context, m domain.Membro) error {
	model := fromDomainMembro(m)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: cpf ja cadastrado", domain.ErrConflito)
		}
		return fmt.Errorf("gorm membro: inserir: %w", err)
	}
	return nil
}

func (r *MembroRepository) Atualizar(ctx context.Context, m domain.Membro) error {
	model := fromDomainMembro(m)
	if err := r.db.WithContext(ctx).Model(&membroModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"nome": model.Nome,
			"cpf":  model.Cpf,
		}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: cpf ja cadastrado", domain.ErrConflito)
		}
		return fmt.Errorf("gorm membro: atualizar: %w", err)
	}
	return nil
}

func (r *MembroRepository) BuscarPorID(ctx context.Context, id domain.MembroID) (domain.Membro, error) {
	var model membroModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Membro{}, domain.ErrNaoEncontrado
		}
		return domain.Membro{}, fmt.Errorf("gorm membro: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *MembroRepository) Existe(ctx context.Context, id domain.MembroID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&membroModel{}).
		Where("id = ?", string(id)).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm membro: verificar existencia: %w", err)
	}
	return total > 0, nil
}

func (r *MembroRepository) Excluir(ctx context.Context, id domain.MembroID) error {
	if err := r.db.WithContext(ctx).Delete(&membroModel{}, "id = ?", string(id)).Error; err != nil {
		return fmt.Errorf("gorm membro: excluir: %w", err)
	}
	return nil
}

func (r *MembroRepository) Listar(ctx context.Context, offset, limite int) ([]domain.Membro, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&membroModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm membro: contar: %w", err)
	}

	var models []membroModel
	if err := r.db.WithContext(ctx).
		// Ordenamos por nome para manter previsibilidade na API.
		Order("nome ASC").
		Offset(offset).
		Limit(limite).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm membro: listar: %w", err)
	}

	return membrosToDomain(models), total, nil
}

func (r *MembroRepository) BuscarPorCpf(ctx context.Context, cpf domain.Cpf) (domain.Membro, error) {
	var model membroModel
	if err := r.db.WithContext(ctx).First(&model, "cpf = ?", cpf.Valor()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Membro{}, domain.ErrNaoEncontrado
		}
		return domain.Membro{}, fmt.Errorf("gorm membro: buscar cpf: %w", err)
	}
	return model.toDomain(), nil
}

func (r *MembroRepository) ExistePorCpf(ctx context.Context, cpf domain.Cpf) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&membroModel{}).
		Where("cpf = ?", cpf.Valor()).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm membro: verificar cpf: %w", err)
	}
	return total > 0, nil
}

func (r *MembroRepository) BuscarPorNome(ctx context.Context, trecho string) ([]domain.Membro, error) {
	var models []membroModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(nome) LIKE ?", padraoContem(trecho)).
		Order("nome ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm membro: buscar nome: %w", err)
	}
	return membrosToDomain(models), nil
}

func membrosToDomain(models []membroModel) []domain.Membro {
	result := make([]domain.Membro, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result
}

var _ domain.MembroRepository = (*MembroRepository)(nil)
