// Pacote votacao implementa as regras de negócio da urna: pautas, membros,
// assembleias, votos e apuração de resultados.
package votacao

import (
	"context"
	"fmt"
	"time"

	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
)

// FiltroPauta combina os filtros da listagem de pautas. Texto tem
// precedência sobre o período; sem nenhum dos dois a listagem é paginada
// direto no banco.
type FiltroPauta struct {
	Texto     string
	CriadaDe  *time.Time
	CriadaAte *time.Time
}

// PautaService concentra as regras de pauta e delega acesso aos repositórios.
type PautaService struct {
	pautas      domain.PautaRepository
	assembleias domain.AssembleiaRepository
	clock       domain.Clock
	ids         *ids.Generator
}

func NewPautaService(
	pautas domain.PautaRepository,
	assembleias domain.AssembleiaRepository,
	clock domain.Clock,
	idsGen *ids.Generator,
) *PautaService {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &PautaService{
		pautas:      pautas,
		assembleias: assembleias,
		clock:       clock,
		ids:         idsGen,
	}
}

func (s *PautaService) Criar(ctx context.Context, titulo, descricao string) (domain.Pauta, error) {
	pauta, err := domain.NovaPauta(domain.PautaID(s.ids.New()), titulo, descricao, s.clock.Agora())
	if err != nil {
		return domain.Pauta{}, err
	}
	if err := s.pautas.Criar(ctx, pauta); err != nil {
		return domain.Pauta{}, err
	}
	return pauta, nil
}

func (s *PautaService) BuscarPorID(ctx context.Context, id domain.PautaID) (domain.Pauta, error) {
	return s.pautas.BuscarPorID(ctx, id)
}

// Atualizar edita apenas título e descrição; id e data de criação ficam como estão.
func (s *PautaService) Atualizar(ctx context.Context, id domain.PautaID, titulo, descricao string) (domain.Pauta, error) {
	pauta, err := s.pautas.BuscarPorID(ctx, id)
	if err != nil {
		return domain.Pauta{}, err
	}
	if err := pauta.DefinirTitulo(titulo); err != nil {
		return domain.Pauta{}, err
	}
	if err := pauta.DefinirDescricao(descricao); err != nil {
		return domain.Pauta{}, err
	}
	if err := s.pautas.Atualizar(ctx, pauta); err != nil {
		return domain.Pauta{}, err
	}
	return pauta, nil
}

// Excluir remove a pauta e informa se algo foi de fato removido. Pautas
// referenciadas por assembleias não podem ser excluídas.
func (s *PautaService) Excluir(ctx context.Context, id domain.PautaID) (bool, error) {
	existe, err := s.pautas.Existe(ctx, id)
	if err != nil {
		return false, err
	}
	if !existe {
		return false, nil
	}

	referenciada, err := s.assembleias.ExistePorPauta(ctx, id)
	if err != nil {
		return false, err
	}
	if referenciada {
		return false, fmt.Errorf("%w: pauta possui assembleias vinculadas", domain.ErrConflito)
	}

	if err := s.pautas.Excluir(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Buscar resolve o filtro em três caminhos: busca textual (título ∪
// descrição, sem duplicar ids, mantendo primeiro a ordem dos acertos de
// título), período de criação, ou listagem paginada no banco.
func (s *PautaService) Buscar(ctx context.Context, filtro FiltroPauta, pag Paginacao) (domain.Pagina[domain.Pauta], error) {
	pag = pag.sanear()

	if filtro.Texto != "" {
		porTitulo, err := s.pautas.BuscarPorTitulo(ctx, filtro.Texto)
		if err != nil {
			return domain.Pagina[domain.Pauta]{}, err
		}
		porDescricao, err := s.pautas.BuscarPorDescricao(ctx, filtro.Texto)
		if err != nil {
			return domain.Pagina[domain.Pauta]{}, err
		}

		vistas := make(map[domain.PautaID]struct{}, len(porTitulo))
		combinadas := make([]domain.Pauta, 0, len(porTitulo)+len(porDescricao))
		for _, pauta := range porTitulo {
			vistas[pauta.ID] = struct{}{}
			combinadas = append(combinadas, pauta)
		}
		for _, pauta := range porDescricao {
			if _, ok := vistas[pauta.ID]; ok {
				continue
			}
			combinadas = append(combinadas, pauta)
		}
		return paginarEmMemoria(combinadas, pag), nil
	}

	if filtro.CriadaDe != nil || filtro.CriadaAte != nil {
		de := time.Time{}
		if filtro.CriadaDe != nil {
			de = *filtro.CriadaDe
		}
		ate := s.clock.Agora()
		if filtro.CriadaAte != nil {
			ate = *filtro.CriadaAte
		}
		pautas, err := s.pautas.BuscarPorPeriodoCriacao(ctx, de, ate)
		if err != nil {
			return domain.Pagina[domain.Pauta]{}, err
		}
		return paginarEmMemoria(pautas, pag), nil
	}

	pautas, total, err := s.pautas.Listar(ctx, pag.offset(), pag.Tamanho)
	if err != nil {
		return domain.Pagina[domain.Pauta]{}, err
	}
	return paginaDe(pautas, total, pag), nil
}
