package votacao

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
)

// FiltroAssembleia combina os filtros da listagem. Status ganha do
// período; sem nenhum dos dois a listagem é paginada direto no banco.
type FiltroAssembleia struct {
	Status    *domain.StatusAssembleia
	InicioDe  *time.Time
	InicioAte *time.Time
}

// AssembleiaService conduz o ciclo de vida das sessões de votação.
type AssembleiaService struct {
	assembleias domain.AssembleiaRepository
	pautas      domain.PautaRepository
	clock       domain.Clock
	ids         *ids.Generator
	log         *slog.Logger
}

func NewAssembleiaService(
	assembleias domain.AssembleiaRepository,
	pautas domain.PautaRepository,
	clock domain.Clock,
	idsGen *ids.Generator,
	log *slog.Logger,
) *AssembleiaService {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if log == nil {
		log = slog.Default()
	}
	return &AssembleiaService{
		assembleias: assembleias,
		pautas:      pautas,
		clock:       clock,
		ids:         idsGen,
		log:         log,
	}
}

// Criar abre uma assembleia para a pauta. Mais de uma assembleia aberta
// por pauta é permitido, mas fica registrado no log para auditoria.
func (s *AssembleiaService) Criar(ctx context.Context, pautaID domain.PautaID) (domain.Assembleia, error) {
	pauta, err := s.pautas.BuscarPorID(ctx, pautaID)
	if err != nil {
		return domain.Assembleia{}, fmt.Errorf("pauta %s: %w", pautaID, err)
	}

	jaAberta, err := s.assembleias.ExisteAbertaParaPauta(ctx, pautaID)
	if err != nil {
		return domain.Assembleia{}, err
	}
	if jaAberta {
		s.log.Warn("pauta ja possui assembleia aberta", "pauta_id", string(pautaID))
	}

	assembleia, err := domain.NovaAssembleia(domain.AssembleiaID(s.ids.New()), &pauta, s.clock.Agora())
	if err != nil {
		return domain.Assembleia{}, err
	}
	if err := s.assembleias.Criar(ctx, assembleia); err != nil {
		return domain.Assembleia{}, err
	}
	return assembleia, nil
}

func (s *AssembleiaService) BuscarPorID(ctx context.Context, id domain.AssembleiaID) (domain.Assembleia, error) {
	return s.assembleias.BuscarPorID(ctx, id)
}

// Atualizar troca a pauta e/ou aplica uma transição de status. Campos
// vazios ficam como estão. A troca de pauta é recusada em assembleias
// encerradas; a transição segue as regras da entidade.
func (s *AssembleiaService) Atualizar(ctx context.Context, id domain.AssembleiaID, pautaID domain.PautaID, status string) (domain.Assembleia, error) {
	assembleia, err := s.assembleias.BuscarPorID(ctx, id)
	if err != nil {
		return domain.Assembleia{}, err
	}

	if pautaID != "" && pautaID != assembleia.PautaID {
		pauta, err := s.pautas.BuscarPorID(ctx, pautaID)
		if err != nil {
			return domain.Assembleia{}, fmt.Errorf("pauta %s: %w", pautaID, err)
		}
		if err := assembleia.DefinirPauta(&pauta); err != nil {
			return domain.Assembleia{}, err
		}
	}

	if status != "" {
		novo, err := domain.ParseStatusAssembleia(status)
		if err != nil {
			return domain.Assembleia{}, err
		}
		if err := assembleia.AlterarStatus(novo, s.clock.Agora()); err != nil {
			return domain.Assembleia{}, err
		}
	}

	if err := s.assembleias.Atualizar(ctx, assembleia); err != nil {
		return domain.Assembleia{}, err
	}
	return assembleia, nil
}

func (s *AssembleiaService) Encerrar(ctx context.Context, id domain.AssembleiaID) (domain.Assembleia, error) {
	assembleia, err := s.assembleias.BuscarPorID(ctx, id)
	if err != nil {
		return domain.Assembleia{}, err
	}
	if err := assembleia.Encerrar(s.clock.Agora()); err != nil {
		return domain.Assembleia{}, err
	}
	if err := s.assembleias.Atualizar(ctx, assembleia); err != nil {
		return domain.Assembleia{}, err
	}
	return assembleia, nil
}

func (s *AssembleiaService) Reabrir(ctx context.Context, id domain.AssembleiaID) (domain.Assembleia, error) {
	assembleia, err := s.assembleias.BuscarPorID(ctx, id)
	if err != nil {
		return domain.Assembleia{}, err
	}
	if err := assembleia.Reabrir(); err != nil {
		return domain.Assembleia{}, err
	}
	if err := s.assembleias.Atualizar(ctx, assembleia); err != nil {
		return domain.Assembleia{}, err
	}
	return assembleia, nil
}

func (s *AssembleiaService) Excluir(ctx context.Context, id domain.AssembleiaID) (bool, error) {
	existe, err := s.assembleias.Existe(ctx, id)
	if err != nil {
		return false, err
	}
	if !existe {
		return false, nil
	}
	if err := s.assembleias.Excluir(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AssembleiaService) Buscar(ctx context.Context, filtro FiltroAssembleia, pag Paginacao) (domain.Pagina[domain.Assembleia], error) {
	pag = pag.sanear()

	if filtro.Status != nil {
		assembleias, err := s.assembleias.ListarPorStatus(ctx, *filtro.Status)
		if err != nil {
			return domain.Pagina[domain.Assembleia]{}, err
		}
		return paginarEmMemoria(assembleias, pag), nil
	}

	if filtro.InicioDe != nil || filtro.InicioAte != nil {
		de := time.Time{}
		if filtro.InicioDe != nil {
			de = *filtro.InicioDe
		}
		ate := s.clock.Agora()
		if filtro.InicioAte != nil {
			ate = *filtro.InicioAte
		}
		assembleias, err := s.assembleias.ListarPorPeriodoInicio(ctx, de, ate)
		if err != nil {
			return domain.Pagina[domain.Assembleia]{}, err
		}
		return paginarEmMemoria(assembleias, pag), nil
	}

	assembleias, total, err := s.assembleias.Listar(ctx, pag.offset(), pag.Tamanho)
	if err != nil {
		return domain.Pagina[domain.Assembleia]{}, err
	}
	return paginaDe(assembleias, total, pag), nil
}
