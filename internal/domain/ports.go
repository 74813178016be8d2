package domain

import (
	"context"
	"time"
)

type PautaRepository interface {
	Criar(ctx context.Context, p Pauta) error
	Atualizar(ctx context.Context, p Pauta) error
	BuscarPorID(ctx context.Context, id PautaID) (Pauta, error)
	Existe(ctx context.Context, id PautaID) (bool, error)
	Excluir(ctx context.Context, id PautaID) error
	Listar(ctx context.Context, offset, limite int) ([]Pauta, int64, error)
	BuscarPorTituloExato(ctx context.Context, titulo string) ([]Pauta, error)
	BuscarPorTitulo(ctx context.Context, trecho string) ([]Pauta, error)
	BuscarPorDescricao(ctx context.Context, trecho string) ([]Pauta, error)
	BuscarPorPeriodoCriacao(ctx context.Context, de, ate time.Time) ([]Pauta, error)
}

type MembroRepository interface {
	Criar(ctx context.Context, m Membro) error
	Atualizar(ctx context.Context, m Membro) error
	BuscarPorID(ctx context.Context, id MembroID) (Membro, error)
	Existe(ctx context.Context, id MembroID) (bool, error)
	Excluir(ctx context.Context, id MembroID) error
	Listar(ctx context.Context, offset, limite int) ([]Membro, int64, error)
	BuscarPorCpf(ctx context.Context, cpf Cpf) (Membro, error)
	ExistePorCpf(ctx context.Context, cpf Cpf) (bool, error)
	BuscarPorNome(ctx context.Context, trecho string) ([]Membro, error)
}

type AssembleiaRepository interface {
	Criar(ctx context.Context, a Assembleia) error
	Atualizar(ctx context.Context, a Assembleia) error
	BuscarPorID(ctx context.Context, id AssembleiaID) (Assembleia, error)
	Existe(ctx context.Context, id AssembleiaID) (bool, error)
	Excluir(ctx context.Context, id AssembleiaID) error
	Listar(ctx context.Context, offset, limite int) ([]Assembleia, int64, error)
	ListarPorStatus(ctx context.Context, status StatusAssembleia) ([]Assembleia, error)
	ListarPorPauta(ctx context.Context, pautaID PautaID) ([]Assembleia, error)
	ListarPorPeriodoInicio(ctx context.Context, de, ate time.Time) ([]Assembleia, error)
	ExisteAbertaParaPauta(ctx context.Context, pautaID PautaID) (bool, error)
	ExistePorPauta(ctx context.Context, pautaID PautaID) (bool, error)
}

type VotoRepository interface {
	Registrar(ctx context.Context, v Voto) error
	BuscarPorAssembleiaEMembro(ctx context.Context, assembleiaID AssembleiaID, membroID MembroID) (Voto, error)
	ExistePorAssembleiaEMembro(ctx context.Context, assembleiaID AssembleiaID, membroID MembroID) (bool, error)
	ListarPorAssembleia(ctx context.Context, assembleiaID AssembleiaID) ([]Voto, error)
	TotalPorAssembleia(ctx context.Context, assembleiaID AssembleiaID) (int64, error)
	TotalPorDecisao(ctx context.Context, assembleiaID AssembleiaID, decisao Decisao) (int64, error)
	TotaisPorDecisao(ctx context.Context, assembleiaID AssembleiaID) (map[Decisao]int64, error)
}

type Contador interface {
	Incrementar(ctx context.Context, chave string, delta int64) (int64, error)
	Obter(ctx context.Context, chave string) (int64, error)
	ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error)
}

// TentativaVoto é o que o antifraude enxerga antes do voto existir.
type TentativaVoto struct {
	AssembleiaID AssembleiaID
	OrigemIP     string
	UserAgent    string
}

type Antifraude interface {
	Validar(ctx context.Context, tentativa TentativaVoto) error
}

type Clock interface {
	Agora() time.Time
}
