package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gfmoreira/urna-api/internal/domain"
)

// AssembleiaRepository mapeia assembleias e suas consultas por status,
// pauta e período de início.
type AssembleiaRepository struct {
	db *gorm.DB
}

func NewAssembleiaRepository(db *gorm.DB) *AssembleiaRepository {
	return &AssembleiaRepository{db: db}
}

type assembleiaModel struct {
	ID           string      `gorm:"column:id;primaryKey"`
	PautaID      string      `gorm:"column:pauta_id;index"`
	Pauta        *pautaModel `gorm:"foreignKey:PautaID;references:ID"`
	Status       string      `gorm:"column:status"`
	IniciadaEm   time.Time   `gorm:"column:iniciada_em"`
	FinalizadaEm *time.Time  `gorm:"column:finalizada_em"`
}

func (assembleiaModel) TableName() string {
	return "assembleias"
}

func (m assembleiaModel) toDomain() domain.Assembleia {
	a := domain.Assembleia{
		ID:           domain.AssembleiaID(m.ID),
		PautaID:      domain.PautaID(m.PautaID),
		Status:       domain.StatusAssembleia(m.Status),
		IniciadaEm:   m.IniciadaEm,
		FinalizadaEm: m.FinalizadaEm,
	}
	if m.Pauta != nil {
		pauta := m.Pauta.toDomain()
		a.Pauta = &pauta
	}
	return a
}

func fromDomainAssembleia(a domain.Assembleia) assembleiaModel {
	return assembleiaModel{
		ID:           string(a.ID),
		PautaID:      string(a.PautaID),
		Status:       string(a.Status),
		IniciadaEm:   a.IniciadaEm,
		FinalizadaEm: a.FinalizadaEm,
	}
}

func (r *AssembleiaRepository) Criar(ctx context.Context, a domain.Assembleia) error {
	model := fromDomainAssembleia(a)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm assembleia: inserir: %w", err)
	}
	return nil
}

func (r *AssembleiaRepository) Atualizar(ctx context.Context, a domain.Assembleia) error {
	model := fromDomainAssembleia(a)
	if err := r.db.WithContext(ctx).Model(&assembleiaModel{}).
		Where("id = ?", model.ID).
		// O mapa inclui finalizada_em mesmo nula: reabertura precisa limpar o carimbo.
		Updates(map[string]any{
			"pauta_id":      model.PautaID,
			"status":        model.Status,
			"finalizada_em": model.FinalizadaEm,
		}).Error; err != nil {
		return fmt.Errorf("gorm assembleia: atualizar: %w", err)
	}
	return nil
}

func (r *AssembleiaRepository) BuscarPorID(ctx context.Context, id domain.AssembleiaID) (domain.Assembleia, error) {
	var model assembleiaModel
	if err := r.db.WithContext(ctx).
		// Preload deixa a pauta pronta para os guardas de domínio.
		Preload("Pauta").
		First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Assembleia{}, domain.ErrNaoEncontrado
		}
		return domain.Assembleia{}, fmt.Errorf("gorm assembleia: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *AssembleiaRepository) Existe(ctx context.Context, id domain.AssembleiaID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&assembleiaModel{}).
		Where("id = ?", string(id)).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm assembleia: verificar existencia: %w", err)
	}
	return total > 0, nil
}

func (r *AssembleiaRepository) Excluir(ctx context.Context, id domain.AssembleiaID) error {
	if err := r.db.WithContext(ctx).Delete(&assembleiaModel{}, "id = ?", string(id)).Error; err != nil {
		return fmt.Errorf("gorm assembleia: excluir: %w", err)
	}
	return nil
}

func (r *AssembleiaRepository) Listar(ctx context.Context, offset, limite int) ([]domain.Assembleia, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&assembleiaModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm assembleia: contar: %w", err)
	}

	var models []assembleiaModel
	if err := r.db.WithContext(ctx).
		Order("iniciada_em ASC").
		Offset(offset).
		Limit(limite).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("gorm assembleia: listar: %w", err)
	}

	return assembleiasToDomain(models), total, nil
}

func (r *AssembleiaRepository) ListarPorStatus(ctx context.Context, status domain.StatusAssembleia) ([]domain.Assembleia, error) {
	var models []assembleiaModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("iniciada_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm assembleia: listar status: %w", err)
	}
	return assembleiasToDomain(models), nil
}

func (r *AssembleiaRepository) ListarPorPauta(ctx context.Context, pautaID domain.PautaID) ([]domain.Assembleia, error) {
	var models []assembleiaModel
	if err := r.db.WithContext(ctx).
		Where("pauta_id = ?", string(pautaID)).
		Order("iniciada_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm assembleia: listar pauta: %w", err)
	}
	return assembleiasToDomain(models), nil
}

func (r *AssembleiaRepository) ListarPorPeriodoInicio(ctx context.Context, de, ate time.Time) ([]domain.Assembleia, error) {
	var models []assembleiaModel
	if err := r.db.WithContext(ctx).
		Where("iniciada_em >= ? AND iniciada_em <= ?", de, ate).
		Order("iniciada_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm assembleia: listar periodo: %w", err)
	}
	return assembleiasToDomain(models), nil
}

func (r *AssembleiaRepository) ExisteAbertaParaPauta(ctx context.Context, pautaID domain.PautaID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&assembleiaModel{}).
		Where("pauta_id = ? AND status = ?", string(pautaID), string(domain.StatusAberta)).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm assembleia: verificar aberta: %w", err)
	}
	return total > 0, nil
}

func (r *AssembleiaRepository) ExistePorPauta(ctx context.Context, pautaID domain.PautaID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&assembleiaModel{}).
		Where("pauta_id = ?", string(pautaID)).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm assembleia: verificar pauta: %w", err)
	}
	return total > 0, nil
}

func assembleiasToDomain(models []assembleiaModel) []domain.Assembleia {
	result := make([]domain.Assembleia, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result
}

var _ domain.AssembleiaRepository = (*AssembleiaRepository)(nil)
