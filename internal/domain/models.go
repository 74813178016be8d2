package domain

import (
	"fmt"
	"strings"
	"time"
)

type (
	PautaID      string
	MembroID     string
	AssembleiaID string
	VotoID       string
)

type StatusAssembleia string

const (
	StatusAberta    StatusAssembleia = "Aberta"
	StatusEncerrada StatusAssembleia = "Encerrada"
)

func ParseStatusAssembleia(valor string) (StatusAssembleia, error) {
	switch StatusAssembleia(valor) {
	case StatusAberta, StatusEncerrada:
		return StatusAssembleia(valor), nil
	}
	return "", fmt.Errorf("%w: status desconhecido %q", ErrArgumentoInvalido, valor)
}

type Decisao string

const (
	DecisaoConcordo Decisao = "Concordo"
	DecisaoDiscordo Decisao = "Discordo"
)

func ParseDecisao(valor string) (Decisao, error) {
	switch Decisao(valor) {
	case DecisaoConcordo, DecisaoDiscordo:
		return Decisao(valor), nil
	}
	return "", fmt.Errorf("%w: decisao desconhecida %q", ErrArgumentoInvalido, valor)
}

const tituloPautaMax = 120

// Pauta é o assunto colocado em votação. Titulo e descrição são editáveis;
// id e data de criação nunca mudam depois de criados.
type Pauta struct {
	ID        PautaID   `gorm:"column:id;type:char(36);primaryKey"`
	Titulo    string    `gorm:"column:titulo;type:varchar(120);not null"`
	Descricao string    `gorm:"column:descricao;type:text;not null"`
	CriadaEm  time.Time `gorm:"column:criada_em;not null"`
}

func NovaPauta(id PautaID, titulo, descricao string, agora time.Time) (Pauta, error) {
	p := Pauta{ID: id, CriadaEm: agora}
	if err := p.DefinirTitulo(titulo); err != nil {
		return Pauta{}, err
	}
	if err := p.DefinirDescricao(descricao); err != nil {
		return Pauta{}, err
	}
	return p, nil
}

func (p *Pauta) DefinirTitulo(titulo string) error {
	titulo = strings.TrimSpace(titulo)
	if titulo == "" {
		return fmt.Errorf("%w: titulo obrigatorio", ErrArgumentoInvalido)
	}
	if len([]rune(titulo)) > tituloPautaMax {
		return fmt.Errorf("%w: titulo excede %d caracteres", ErrArgumentoInvalido, tituloPautaMax)
	}
	p.Titulo = titulo
	return nil
}

func (p *Pauta) DefinirDescricao(descricao string) error {
	if strings.TrimSpace(descricao) == "" {
		return fmt.Errorf("%w: descricao obrigatoria", ErrArgumentoInvalido)
	}
	p.Descricao = descricao
	return nil
}

// Membro é o eleitor, identificado pelo CPF como chave natural. A unicidade
// do CPF fica a cargo do índice único no banco; o serviço traduz a violação
// para ErrConflito.
type Membro struct {
	ID   MembroID `gorm:"column:id;type:char(36);primaryKey"`
	Nome string   `gorm:"column:nome;type:varchar(120);not null"`
	Cpf  Cpf      `gorm:"column:cpf;type:char(11);not null;uniqueIndex:idx_membros_cpf"`
}

func NovoMembro(id MembroID, nome, cpf string) (Membro, error) {
	m := Membro{ID: id}
	if err := m.DefinirNome(nome); err != nil {
		return Membro{}, err
	}
	if err := m.DefinirCpf(cpf); err != nil {
		return Membro{}, err
	}
	return m, nil
}

func (m *Membro) DefinirNome(nome string) error {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return fmt.Errorf("%w: nome obrigatorio", ErrArgumentoInvalido)
	}
	m.Nome = nome
	return nil
}

func (m *Membro) DefinirCpf(valor string) error {
	cpf, err := NovoCpf(valor)
	if err != nil {
		return err
	}
	m.Cpf = cpf
	return nil
}

// Assembleia é a sessão de votação aberta contra exatamente uma pauta.
// Toda mutação de status passa pelos métodos guardados; nenhum outro
// componente escreve Status ou FinalizadaEm diretamente.
type Assembleia struct {
	ID           AssembleiaID     `gorm:"column:id;type:char(36);primaryKey"`
	PautaID      PautaID          `gorm:"column:pauta_id;type:char(36);not null;index:idx_assembleias_pauta"`
	Pauta        *Pauta           `gorm:"foreignKey:PautaID;references:ID"`
	Status       StatusAssembleia `gorm:"column:status;type:varchar(20);not null"`
	IniciadaEm   time.Time        `gorm:"column:iniciada_em;not null"`
	FinalizadaEm *time.Time       `gorm:"column:finalizada_em"`
}

func NovaAssembleia(id AssembleiaID, pauta *Pauta, agora time.Time) (Assembleia, error) {
	if pauta == nil {
		return Assembleia{}, fmt.Errorf("%w: pauta obrigatoria", ErrArgumentoInvalido)
	}
	return Assembleia{
		ID:         id,
		PautaID:    pauta.ID,
		Pauta:      pauta,
		Status:     StatusAberta,
		IniciadaEm: agora,
	}, nil
}

func (a *Assembleia) EstaAberta() bool {
	return a.Status == StatusAberta
}

func (a *Assembleia) EstaEncerrada() bool {
	return a.Status == StatusEncerrada
}

// Encerrar fecha a assembleia e carimba FinalizadaEm. Encerrar duas vezes
// é transição inválida.
func (a *Assembleia) Encerrar(agora time.Time) error {
	if err := a.validarTransicao(StatusEncerrada); err != nil {
		return err
	}
	a.Status = StatusEncerrada
	a.FinalizadaEm = &agora
	return nil
}

// Reabrir volta uma assembleia encerrada para Aberta e limpa FinalizadaEm.
// Só assembleias encerradas podem ser reabertas.
func (a *Assembleia) Reabrir() error {
	if a.Status != StatusEncerrada {
		return fmt.Errorf("%w: apenas assembleias encerradas podem ser reabertas", ErrTransicaoStatusInvalida)
	}
	a.Status = StatusAberta
	a.FinalizadaEm = nil
	return nil
}

// AlterarStatus aplica uma transição genérica. Reabertura não passa por
// aqui: Encerrada para Aberta exige Reabrir. Transição no-op é erro.
func (a *Assembleia) AlterarStatus(status StatusAssembleia, agora time.Time) error {
	if status != StatusAberta && status != StatusEncerrada {
		return fmt.Errorf("%w: status desconhecido %q", ErrArgumentoInvalido, status)
	}
	if err := a.validarTransicao(status); err != nil {
		return err
	}
	if status == StatusEncerrada && a.FinalizadaEm == nil {
		a.FinalizadaEm = &agora
	}
	a.Status = status
	return nil
}

// DefinirPauta troca a pauta referenciada; proibido com a assembleia encerrada.
func (a *Assembleia) DefinirPauta(pauta *Pauta) error {
	if pauta == nil {
		return fmt.Errorf("%w: pauta obrigatoria", ErrArgumentoInvalido)
	}
	if a.EstaEncerrada() {
		return fmt.Errorf("%w: nao e possivel alterar uma assembleia encerrada", ErrAssembleiaEncerrada)
	}
	a.PautaID = pauta.ID
	a.Pauta = pauta
	return nil
}

// DefinirFinalizadaEm aceita reajuste do carimbo, nunca antes do início.
func (a *Assembleia) DefinirFinalizadaEm(fim *time.Time) error {
	if fim != nil && fim.Before(a.IniciadaEm) {
		return fmt.Errorf("%w: finalizacao anterior ao inicio", ErrArgumentoInvalido)
	}
	a.FinalizadaEm = fim
	return nil
}

func (a *Assembleia) validarTransicao(novo StatusAssembleia) error {
	if a.Status == StatusEncerrada && novo == StatusAberta {
		return fmt.Errorf("%w: nao e possivel reabrir uma assembleia ja encerrada", ErrTransicaoStatusInvalida)
	}
	if a.Status == novo {
		return fmt.Errorf("%w: assembleia ja esta no status %s", ErrTransicaoStatusInvalida, novo)
	}
	return nil
}

// Voto é a decisão de um membro dentro de uma assembleia. Depois de
// registrado (RegistradoEm preenchido) o voto é imutável.
type Voto struct {
	ID           VotoID       `gorm:"column:id;type:char(36);primaryKey"`
	AssembleiaID AssembleiaID `gorm:"column:assembleia_id;type:char(36);not null;uniqueIndex:idx_votos_assembleia_membro,priority:1"`
	Assembleia   *Assembleia  `gorm:"foreignKey:AssembleiaID;references:ID"`
	MembroID     MembroID     `gorm:"column:membro_id;type:char(36);not null;uniqueIndex:idx_votos_assembleia_membro,priority:2"`
	Membro       *Membro      `gorm:"foreignKey:MembroID;references:ID"`
	Decisao      Decisao      `gorm:"column:decisao;type:varchar(10);not null"`
	RegistradoEm *time.Time   `gorm:"column:registrado_em"`
}

// NovoVoto valida a admissão e carimba RegistradoEm de imediato: um voto
// construído por aqui já nasce registrado.
func NovoVoto(id VotoID, assembleia *Assembleia, membro *Membro, decisao Decisao, agora time.Time) (Voto, error) {
	if err := validarAssembleiaAberta(assembleia); err != nil {
		return Voto{}, err
	}
	if err := validarObrigatorios(assembleia, membro, decisao); err != nil {
		return Voto{}, err
	}
	return Voto{
		ID:           id,
		AssembleiaID: assembleia.ID,
		Assembleia:   assembleia,
		MembroID:     membro.ID,
		Membro:       membro,
		Decisao:      decisao,
		RegistradoEm: &agora,
	}, nil
}

func (v *Voto) DefinirAssembleia(assembleia *Assembleia) error {
	if err := validarObrigatorios(assembleia, v.Membro, v.Decisao); err != nil {
		return err
	}
	if err := validarAssembleiaAberta(assembleia); err != nil {
		return err
	}
	if err := v.validarNaoRegistrado(); err != nil {
		return err
	}
	v.AssembleiaID = assembleia.ID
	v.Assembleia = assembleia
	return nil
}

func (v *Voto) DefinirMembro(membro *Membro) error {
	if err := validarObrigatorios(v.Assembleia, membro, v.Decisao); err != nil {
		return err
	}
	if err := v.validarNaoRegistrado(); err != nil {
		return err
	}
	v.MembroID = membro.ID
	v.Membro = membro
	return nil
}

func (v *Voto) DefinirDecisao(decisao Decisao) error {
	if err := validarObrigatorios(v.Assembleia, v.Membro, decisao); err != nil {
		return err
	}
	if err := validarAssembleiaAberta(v.Assembleia); err != nil {
		return err
	}
	if err := v.validarNaoRegistrado(); err != nil {
		return err
	}
	v.Decisao = decisao
	return nil
}

// PodeSerAlterado só é verdadeiro para votos montados fora do construtor
// normal, com registro adiado.
func (v *Voto) PodeSerAlterado() bool {
	return v.Assembleia != nil && v.Assembleia.EstaAberta() && v.RegistradoEm == nil
}

// Confirmar carimba o registro caso ainda não exista; guarda do caminho de
// construção adiada.
func (v *Voto) Confirmar(agora time.Time) error {
	if err := validarAssembleiaAberta(v.Assembleia); err != nil {
		return err
	}
	if v.RegistradoEm == nil {
		v.RegistradoEm = &agora
	}
	return nil
}

func (v *Voto) validarNaoRegistrado() error {
	if v.RegistradoEm != nil {
		return fmt.Errorf("%w: voto registrado em %s", ErrVotoJaRegistrado, v.RegistradoEm.Format(time.RFC3339))
	}
	return nil
}

func validarAssembleiaAberta(assembleia *Assembleia) error {
	if assembleia != nil && !assembleia.EstaAberta() {
		return fmt.Errorf("%w: assembleia %s nao aceita votos", ErrAssembleiaEncerrada, assembleia.ID)
	}
	return nil
}

func validarObrigatorios(assembleia *Assembleia, membro *Membro, decisao Decisao) error {
	if assembleia == nil {
		return fmt.Errorf("%w: assembleia obrigatoria", ErrArgumentoInvalido)
	}
	if membro == nil {
		return fmt.Errorf("%w: membro obrigatorio", ErrArgumentoInvalido)
	}
	if decisao != DecisaoConcordo && decisao != DecisaoDiscordo {
		return fmt.Errorf("%w: decisao obrigatoria", ErrArgumentoInvalido)
	}
	return nil
}

func (Pauta) TableName() string { return "pautas" }

func (Membro) TableName() string { return "membros" }

func (Assembleia) TableName() string { return "assembleias" }

func (Voto) TableName() string { return "votos" }

// Pagina embrulha uma fatia paginada de resultados.
type Pagina[T any] struct {
	Conteudo      []T   `json:"conteudo"`
	NumeroPagina  int   `json:"numero_pagina"`
	TamanhoPagina int   `json:"tamanho_pagina"`
	TotalItens    int64 `json:"total_itens"`
	TotalPaginas  int   `json:"total_paginas"`
}

type ResultadoApuracao string

const (
	ResultadoAprovada  ResultadoApuracao = "Aprovada"
	ResultadoRejeitada ResultadoApuracao = "Rejeitada"
)

// ApuracaoAssembleia é o recorte da apuração para uma assembleia. Com o
// filtro de membro, traz o voto daquele membro; sem filtro, os totais por
// decisão.
type ApuracaoAssembleia struct {
	AssembleiaID AssembleiaID      `json:"assembleia_id"`
	Status       StatusAssembleia  `json:"status"`
	IniciadaEm   time.Time         `json:"iniciada_em"`
	FinalizadaEm *time.Time        `json:"finalizada_em,omitempty"`
	TotalVotos   int64             `json:"total_votos"`
	PorDecisao   map[Decisao]int64 `json:"por_decisao,omitempty"`
	MembroVotou  *bool             `json:"membro_votou,omitempty"`
	VotoMembro   *Decisao          `json:"voto_membro,omitempty"`
	ErroMembro   string            `json:"erro_membro,omitempty"`
}

// Apuracao agrega os votos das assembleias de uma pauta. Empate conta como
// Rejeitada: aprovação exige maioria estrita de Concordo.
type Apuracao struct {
	Pauta              Pauta                `json:"pauta"`
	Assembleias        []ApuracaoAssembleia `json:"assembleias"`
	TotalVotos         int64                `json:"total_votos"`
	VotosConcordo      int64                `json:"votos_concordo"`
	VotosDiscordo      int64                `json:"votos_discordo"`
	PercentualConcordo float64              `json:"percentual_concordo"`
	PercentualDiscordo float64              `json:"percentual_discordo"`
	Resultado          ResultadoApuracao    `json:"resultado"`
}

// ParcialAssembleia é a leitura rápida dos contadores Redis de uma assembleia.
type ParcialAssembleia struct {
	AssembleiaID AssembleiaID      `json:"assembleia_id"`
	Total        int64             `json:"total"`
	PorDecisao   map[Decisao]int64 `json:"por_decisao"`
}
