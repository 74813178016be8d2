package votacao

import (
	"context"
	"fmt"

	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
)

// MembroService administra o cadastro de eleitores. O CPF é a chave
// natural: a pré-checagem dá o erro amigável e o índice único do banco
// garante a corrida.
type MembroService struct {
	membros domain.MembroRepository
	ids     *ids.Generator
}

func NewMembroService(membros domain.MembroRepository, idsGen *ids.Generator) *MembroService {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &MembroService{membros: membros, ids: idsGen}
}

func (s *MembroService) Criar(ctx context.Context, nome, cpf string) (domain.Membro, error) {
	membro, err := domain.NovoMembro(domain.MembroID(s.ids.New()), nome, cpf)
	if err != nil {
		return domain.Membro{}, err
	}

	jaCadastrado, err := s.membros.ExistePorCpf(ctx, membro.Cpf)
	if err != nil {
		return domain.Membro{}, err
	}
	if jaCadastrado {
		return domain.Membro{}, fmt.Errorf("%w: cpf %s ja cadastrado", domain.ErrConflito, membro.Cpf.Formatado())
	}

	if err := s.membros.Criar(ctx, membro); err != nil {
		return domain.Membro{}, err
	}
	return membro, nil
}

func (s *MembroService) BuscarPorID(ctx context.Context, id domain.MembroID) (domain.Membro, error) {
	return s.membros.BuscarPorID(ctx, id)
}

func (s *MembroService) Atualizar(ctx context.Context, id domain.MembroID, nome, cpf string) (domain.Membro, error) {
	membro, err := s.membros.BuscarPorID(ctx, id)
	if err != nil {
		return domain.Membro{}, err
	}
	if err := membro.DefinirNome(nome); err != nil {
		return domain.Membro{}, err
	}
	if err := membro.DefinirCpf(cpf); err != nil {
		return domain.Membro{}, err
	}
	if err := s.membros.Atualizar(ctx, membro); err != nil {
		return domain.Membro{}, err
	}
	return membro, nil
}

func (s *MembroService) Excluir(ctx context.Context, id domain.MembroID) (bool, error) {
	existe, err := s.membros.Existe(ctx, id)
	if err != nil {
		return false, err
	}
	if !existe {
		return false, nil
	}
	if err := s.membros.Excluir(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Buscar filtra por trecho do nome quando informado; caso contrário pagina
// direto no banco.
func (s *MembroService) Buscar(ctx context.Context, nome string, pag Paginacao) (domain.Pagina[domain.Membro], error) {
	pag = pag.sanear()

	if nome != "" {
		membros, err := s.membros.BuscarPorNome(ctx, nome)
		if err != nil {
			return domain.Pagina[domain.Membro]{}, err
		}
		return paginarEmMemoria(membros, pag), nil
	}

	membros, total, err := s.membros.Listar(ctx, pag.offset(), pag.Tamanho)
	if err != nil {
		return domain.Pagina[domain.Membro]{}, err
	}
	return paginaDe(membros, total, pag), nil
}
