package domain

// Erro é o erro de domínio com código estável legível por máquina.
// Os handlers HTTP usam o código para montar a resposta sem inspecionar texto.
type Erro struct {
	Codigo   string
	Mensagem string
}

func (e *Erro) Error() string {
	return e.Mensagem
}

var (
	ErrNaoEncontrado           = &Erro{Codigo: "NAO_ENCONTRADO", Mensagem: "recurso nao encontrado"}
	ErrArgumentoInvalido       = &Erro{Codigo: "ARGUMENTO_INVALIDO", Mensagem: "argumento invalido"}
	ErrTransicaoStatusInvalida = &Erro{Codigo: "TRANSICAO_STATUS_INVALIDA", Mensagem: "transicao de status invalida"}
	ErrAssembleiaEncerrada     = &Erro{Codigo: "ASSEMBLEIA_ENCERRADA", Mensagem: "assembleia encerrada"}
	ErrVotoJaRegistrado        = &Erro{Codigo: "VOTO_JA_REGISTRADO", Mensagem: "voto ja registrado"}
	ErrConflito                = &Erro{Codigo: "CONFLITO", Mensagem: "conflito de dados"}
	ErrCpfInvalido             = &Erro{Codigo: "CPF_INVALIDO", Mensagem: "cpf invalido"}
)
