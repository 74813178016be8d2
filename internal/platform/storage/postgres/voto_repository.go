package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gfmoreira/urna-api/internal/domain"
)

// VotoRepository guarda votos e expõe as agregações usadas pela apuração.
// O índice único (assembleia_id, membro_id) é a garantia de correção contra
// corridas; a pré-checagem no serviço só antecipa a rejeição.
type VotoRepository struct {
	db *gorm.DB
}

func NewVotoRepository(db *gorm.DB) *VotoRepository {
	return &VotoRepository{db: db}
}

type votoModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	AssembleiaID string     `gorm:"column:assembleia_id;index"`
	MembroID     string     `gorm:"column:membro_id;index"`
	Decisao      string     `gorm:"column:decisao"`
	RegistradoEm *time.Time `gorm:"column:registrado_em"`
}

func (votoModel) TableName() string {
	return "votos"
}

func (m votoModel) toDomain() domain.Voto {
	return domain.Voto{
		ID:           domain.VotoID(m.ID),
		AssembleiaID: domain.AssembleiaID(m.AssembleiaID),
		MembroID:     domain.MembroID(m.MembroID),
		Decisao:      domain.Decisao(m.Decisao),
		RegistradoEm: m.RegistradoEm,
	}
}

func fromDomainVoto(v domain.Voto) votoModel {
	return votoModel{
		ID:           string(v.ID),
		AssembleiaID: string(v.AssembleiaID),
		MembroID:     string(v.MembroID),
		Decisao:      string(v.Decisao),
		RegistradoEm: v.RegistradoEm,
	}
}

func (r *VotoRepository) Registrar(ctx context.Context, v domain.Voto) error {
	model := fromDomainVoto(v)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: membro ja votou nesta assembleia", domain.ErrVotoJaRegistrado)
		}
		return fmt.Errorf("gorm voto: inserir: %w", err)
	}
	return nil
}

func (r *VotoRepository) BuscarPorAssembleiaEMembro(ctx context.Context, assembleiaID domain.AssembleiaID, membroID domain.MembroID) (domain.Voto, error) {
	var model votoModel
	if err := r.db.WithContext(ctx).
		First(&model, "assembleia_id = ? AND membro_id = ?", string(assembleiaID), string(membroID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Voto{}, domain.ErrNaoEncontrado
		}
		return domain.Voto{}, fmt.Errorf("gorm voto: buscar assembleia e membro: %w", err)
	}
	return model.toDomain(), nil
}

func (r *VotoRepository) ExistePorAssembleiaEMembro(ctx context.Context, assembleiaID domain.AssembleiaID, membroID domain.MembroID) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&votoModel{}).
		Where("assembleia_id = ? AND membro_id = ?", string(assembleiaID), string(membroID)).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("gorm voto: verificar existencia: %w", err)
	}
	return total > 0, nil
}

func (r *VotoRepository) ListarPorAssembleia(ctx context.Context, assembleiaID domain.AssembleiaID) ([]domain.Voto, error) {
	var models []votoModel
	if err := r.db.WithContext(ctx).
		Where("assembleia_id = ?", string(assembleiaID)).
		Order("registrado_em ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm voto: listar: %w", err)
	}

	result := make([]domain.Voto, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func (r *VotoRepository) TotalPorAssembleia(ctx context.Context, assembleiaID domain.AssembleiaID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&votoModel{}).
		Where("assembleia_id = ?", string(assembleiaID)).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm voto: total assembleia: %w", err)
	}
	return total, nil
}

func (r *VotoRepository) TotalPorDecisao(ctx context.Context, assembleiaID domain.AssembleiaID, decisao domain.Decisao) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&votoModel{}).
		Where("assembleia_id = ? AND decisao = ?", string(assembleiaID), string(decisao)).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm voto: total decisao: %w", err)
	}
	return total, nil
}

func (r *VotoRepository) TotaisPorDecisao(ctx context.Context, assembleiaID domain.AssembleiaID) (map[domain.Decisao]int64, error) {
	type resultado struct {
		Decisao string
		Total   int64
	}
	var res []resultado
	if err := r.db.WithContext(ctx).
		Model(&votoModel{}).
		Select("decisao as decisao, COUNT(*) as total").
		Where("assembleia_id = ?", string(assembleiaID)).
		Group("decisao").
		Scan(&res).Error; err != nil {
		return nil, fmt.Errorf("gorm voto: totais por decisao: %w", err)
	}

	totais := make(map[domain.Decisao]int64, len(res))
	for _, item := range res {
		totais[domain.Decisao(item.Decisao)] = item.Total
	}
	return totais, nil
}

var _ domain.VotoRepository = (*VotoRepository)(nil)
