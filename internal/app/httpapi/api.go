// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para os serviços de votação.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gfmoreira/urna-api/internal/app/votacao"
	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/antifraude"
	"github.com/gfmoreira/urna-api/internal/platform/metrics"
)

// API empacota os handlers HTTP ligados aos serviços e ao logger.
type API struct {
	pautas        *votacao.PautaService
	membros       *votacao.MembroService
	assembleias   *votacao.AssembleiaService
	votos         *votacao.VotoService
	logger        *slog.Logger
	tamanhoPadrao int
	tamanhoMaximo int
}

func New(
	pautas *votacao.PautaService,
	membros *votacao.MembroService,
	assembleias *votacao.AssembleiaService,
	votos *votacao.VotoService,
	logger *slog.Logger,
	tamanhoPadrao, tamanhoMaximo int,
) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		pautas:        pautas,
		membros:       membros,
		assembleias:   assembleias,
		votos:         votos,
		logger:        logger,
		tamanhoPadrao: tamanhoPadrao,
		tamanhoMaximo: tamanhoMaximo,
	}
}

// Registrar monta as rotas da API no router recebido. As rotas ficam
// centralizadas aqui para facilitar testes e reuso em servidores diferentes.
func (a *API) Registrar(r chi.Router) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pautas", func(r chi.Router) {
			r.Get("/", a.listarPautas)
			r.Post("/", a.criarPauta)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.obterPauta)
				r.Put("/", a.atualizarPauta)
				r.Delete("/", a.excluirPauta)
				r.Get("/resultado", a.apurarResultado)
			})
		})

		r.Route("/membros", func(r chi.Router) {
			r.Get("/", a.listarMembros)
			r.Post("/", a.criarMembro)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.obterMembro)
				r.Put("/", a.atualizarMembro)
				r.Delete("/", a.excluirMembro)
			})
		})

		r.Route("/assembleias", func(r chi.Router) {
			r.Get("/", a.listarAssembleias)
			r.Post("/", a.criarAssembleia)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.obterAssembleia)
				r.Put("/", a.atualizarAssembleia)
				r.Delete("/", a.excluirAssembleia)
				r.Post("/encerrar", a.encerrarAssembleia)
				r.Post("/reabrir", a.reabrirAssembleia)
				r.Get("/parcial", a.obterParcial)
			})
		})

		r.Post("/votos", a.registrarVotoV1)
	})

	r.Post("/api/v2/votos", a.registrarVotoV2)
}

type pautaRequest struct {
	Titulo    string `json:"titulo"`
	Descricao string `json:"descricao"`
}

type pautaResponse struct {
	ID        string    `json:"id"`
	Titulo    string    `json:"titulo"`
	Descricao string    `json:"descricao"`
	CriadaEm  time.Time `json:"criada_em"`
}

func toPautaResponse(p domain.Pauta) pautaResponse {
	return pautaResponse{
		ID:        string(p.ID),
		Titulo:    p.Titulo,
		Descricao: p.Descricao,
		CriadaEm:  p.CriadaEm,
	}
}

func (a *API) criarPauta(w http.ResponseWriter, r *http.Request) {
	var req pautaRequest
	if err := decodificar(w, r, &req); err != nil {
		return
	}

	pauta, err := a.pautas.Criar(r.Context(), req.Titulo, req.Descricao)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusCreated, toPautaResponse(pauta))
}

func (a *API) obterPauta(w http.ResponseWriter, r *http.Request) {
	pauta, err := a.pautas.BuscarPorID(r.Context(), domain.PautaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toPautaResponse(pauta))
}

func (a *API) atualizarPauta(w http.ResponseWriter, r *http.Request) {
	var req pautaRequest
	if err := decodificar(w, r, &req); err != nil {
		return
	}

	pauta, err := a.pautas.Atualizar(r.Context(), domain.PautaID(chi.URLParam(r, "id")), req.Titulo, req.Descricao)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toPautaResponse(pauta))
}

func (a *API) excluirPauta(w http.ResponseWriter, r *http.Request) {
	removida, err := a.pautas.Excluir(r.Context(), domain.PautaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	if !removida {
		a.responderErro(w, r, domain.ErrNaoEncontrado)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listarPautas(w http.ResponseWriter, r *http.Request) {
	filtro := votacao.FiltroPauta{Texto: strings.TrimSpace(r.URL.Query().Get("busca"))}

	de, err := parseDataOpcional(r.URL.Query().Get("criada_de"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	ate, err := parseDataOpcional(r.URL.Query().Get("criada_ate"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	filtro.CriadaDe, filtro.CriadaAte = de, ate

	pagina, err := a.pautas.Buscar(r.Context(), filtro, a.paginacao(r))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, mapearPagina(pagina, toPautaResponse))
}

type membroRequest struct {
	Nome string `json:"nome"`
	Cpf  string `json:"cpf"`
}

type membroResponse struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
	Cpf  string `json:"cpf"`
}

func toMembroResponse(m domain.Membro) membroResponse {
	return membroResponse{ID: string(m.ID), Nome: m.Nome, Cpf: m.Cpf.Formatado()}
}

func (a *API) criarMembro(w http.ResponseWriter, r *http.Request) {
	var req membroRequest
	if err := decodificar(w, r, &req); err != nil {
		return
	}

	membro, err := a.membros.Criar(r.Context(), req.Nome, req.Cpf)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusCreated, toMembroResponse(membro))
}

func (a *API) obterMembro(w http.ResponseWriter, r *http.Request) {
	membro, err := a.membros.BuscarPorID(r.Context(), domain.MembroID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toMembroResponse(membro))
}

func (a *API) atualizarMembro(w http.ResponseWriter, r *http.Request) {
	var req membroRequest
	if err := decodificar(w, r, &req); err != nil {
		return
	}

	membro, err := a.membros.Atualizar(r.Context(), domain.MembroID(chi.URLParam(r, "id")), req.Nome, req.Cpf)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toMembroResponse(membro))
}

func (a *API) excluirMembro(w http.ResponseWriter, r *http.Request) {
	removido, err := a.membros.Excluir(r.Context(), domain.MembroID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	if !removido {
		a.responderErro(w, r, domain.ErrNaoEncontrado)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listarMembros(w http.ResponseWriter, r *http.Request) {
	pagina, err := a.membros.Buscar(r.Context(), strings.TrimSpace(r.URL.Query().Get("nome")), a.paginacao(r))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, mapearPagina(pagina, toMembroResponse))
}

type assembleiaCriarRequest struct {
	PautaID string `json:"pauta_id"`
}

type assembleiaAtualizarRequest struct {
	PautaID string `json:"pauta_id"`
	Status  string `json:"status"`
}

type assembleiaResponse struct {
	ID           string     `json:"id"`
	PautaID      string     `json:"pauta_id"`
	Status       string     `json:"status"`
	IniciadaEm   time.Time  `json:"iniciada_em"`
	FinalizadaEm *time.Time `json:"finalizada_em,omitempty"`
}

func toAssembleiaResponse(a domain.Assembleia) assembleiaResponse {
	return assembleiaResponse{
		ID:           string(a.ID),
		PautaID:      string(a.PautaID),
		Status:       string(a.Status),
		IniciadaEm:   a.IniciadaEm,
		FinalizadaEm: a.FinalizadaEm,
	}
}

func (a *API) criarAssembleia(w http.ResponseWriter, r *http.Request) {
	var req assembleiaCriarRequest
	if err := decodificar(w, r, &req); err != nil {
		return
	}

	assembleia, err := a.assembleias.Criar(r.Context(), domain.PautaID(req.PautaID))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusCreated, toAssembleiaResponse(assembleia))
}

func (a *API) obterAssembleia(w http.ResponseWriter, r *http.Request) {
	assembleia, err := a.assembleias.BuscarPorID(r.Context(), domain.AssembleiaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toAssembleiaResponse(assembleia))
}

func (a *API) atualizarAssembleia(w http.ResponseWriter, r *http.Request) {
	var req assembleiaAtualizarRequest
	if err := decodificar(w, r, &req); err != nil {
		return
	}

	assembleia, err := a.assembleias.Atualizar(r.Context(), domain.AssembleiaID(chi.URLParam(r, "id")), domain.PautaID(req.PautaID), req.Status)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toAssembleiaResponse(assembleia))
}

func (a *API) excluirAssembleia(w http.ResponseWriter, r *http.Request) {
	removida, err := a.assembleias.Excluir(r.Context(), domain.AssembleiaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	if !removida {
		a.responderErro(w, r, domain.ErrNaoEncontrado)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) encerrarAssembleia(w http.ResponseWriter, r *http.Request) {
	assembleia, err := a.assembleias.Encerrar(r.Context(), domain.AssembleiaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toAssembleiaResponse(assembleia))
}

func (a *API) reabrirAssembleia(w http.ResponseWriter, r *http.Request) {
	assembleia, err := a.assembleias.Reabrir(r.Context(), domain.AssembleiaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, toAssembleiaResponse(assembleia))
}

func (a *API) listarAssembleias(w http.ResponseWriter, r *http.Request) {
	var filtro votacao.FiltroAssembleia

	if valor := r.URL.Query().Get("status"); valor != "" {
		status, err := domain.ParseStatusAssembleia(valor)
		if err != nil {
			a.responderErro(w, r, err)
			return
		}
		filtro.Status = &status
	}

	de, err := parseDataOpcional(r.URL.Query().Get("inicio_de"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	ate, err := parseDataOpcional(r.URL.Query().Get("inicio_ate"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	filtro.InicioDe, filtro.InicioAte = de, ate

	pagina, err := a.assembleias.Buscar(r.Context(), filtro, a.paginacao(r))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, mapearPagina(pagina, toAssembleiaResponse))
}

func (a *API) obterParcial(w http.ResponseWriter, r *http.Request) {
	parcial, err := a.votos.Parcial(r.Context(), domain.AssembleiaID(chi.URLParam(r, "id")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, parcial)
}

type votoV1Request struct {
	AssembleiaID string `json:"assembleia_id"`
	MembroID     string `json:"membro_id"`
	Decisao      string `json:"decisao"`
}

type votoV2Request struct {
	AssembleiaID string `json:"assembleia_id"`
	Nome         string `json:"nome"`
	Cpf          string `json:"cpf"`
	Decisao      string `json:"decisao"`
}

type votoResponse struct {
	ID           string     `json:"id"`
	AssembleiaID string     `json:"assembleia_id"`
	MembroID     string     `json:"membro_id"`
	Decisao      string     `json:"decisao"`
	RegistradoEm *time.Time `json:"registrado_em,omitempty"`
}

func toVotoResponse(v domain.Voto) votoResponse {
	return votoResponse{
		ID:           string(v.ID),
		AssembleiaID: string(v.AssembleiaID),
		MembroID:     string(v.MembroID),
		Decisao:      string(v.Decisao),
		RegistradoEm: v.RegistradoEm,
	}
}

// registrarVotoV1 aceita o corpo legado com membro_id. A rota continua
// funcional, mas anuncia a substituição pela v2 via cabeçalho Deprecation.
func (a *API) registrarVotoV1(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Deprecation", "true")
	w.Header().Set("Link", `</api/v2/votos>; rel="successor-version"`)

	var req votoV1Request
	if err := decodificar(w, r, &req); err != nil {
		metrics.ObserveVotoRequest("invalid_payload")
		return
	}

	decisao, err := domain.ParseDecisao(req.Decisao)
	if err != nil {
		metrics.ObserveVotoRequest("invalid")
		a.responderErro(w, r, err)
		return
	}

	voto, err := a.votos.Registrar(r.Context(), domain.AssembleiaID(req.AssembleiaID), domain.MembroID(req.MembroID), decisao, origemDoRequest(r))
	if err != nil {
		status := statusVoto(err)
		metrics.ObserveVotoRequest(status)
		a.logger.Warn("falha ao registrar voto", "err", err, "assembleia", req.AssembleiaID, "membro", req.MembroID, "status", status)
		a.responderErro(w, r, err)
		return
	}

	metrics.ObserveVotoRequest("accepted")
	a.logger.Info("voto registrado", "assembleia", req.AssembleiaID, "membro", req.MembroID)
	responderJSON(w, http.StatusCreated, toVotoResponse(voto))
}

// registrarVotoV2 identifica o membro por nome e CPF.
func (a *API) registrarVotoV2(w http.ResponseWriter, r *http.Request) {
	var req votoV2Request
	if err := decodificar(w, r, &req); err != nil {
		metrics.ObserveVotoRequest("invalid_payload")
		return
	}

	decisao, err := domain.ParseDecisao(req.Decisao)
	if err != nil {
		metrics.ObserveVotoRequest("invalid")
		a.responderErro(w, r, err)
		return
	}

	voto, err := a.votos.RegistrarPorCpf(r.Context(), domain.AssembleiaID(req.AssembleiaID), req.Nome, req.Cpf, decisao, origemDoRequest(r))
	if err != nil {
		status := statusVoto(err)
		metrics.ObserveVotoRequest(status)
		a.logger.Warn("falha ao registrar voto por cpf", "err", err, "assembleia", req.AssembleiaID, "status", status)
		a.responderErro(w, r, err)
		return
	}

	metrics.ObserveVotoRequest("accepted")
	a.logger.Info("voto registrado", "assembleia", req.AssembleiaID, "membro", string(voto.MembroID))
	responderJSON(w, http.StatusCreated, toVotoResponse(voto))
}

// apurarResultado entrega o resultado consolidado de uma pauta, com
// recortes opcionais por assembleia e por membro.
func (a *API) apurarResultado(w http.ResponseWriter, r *http.Request) {
	pautaID := domain.PautaID(chi.URLParam(r, "id"))

	var assembleiaID *domain.AssembleiaID
	if valor := r.URL.Query().Get("assembleia_id"); valor != "" {
		id := domain.AssembleiaID(valor)
		assembleiaID = &id
	}

	var membroID *domain.MembroID
	if valor := r.URL.Query().Get("membro_id"); valor != "" {
		id := domain.MembroID(valor)
		membroID = &id
	}

	apuracao, err := a.votos.Apurar(r.Context(), pautaID, assembleiaID, membroID)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, apuracao)
}

func (a *API) paginacao(r *http.Request) votacao.Paginacao {
	pagina, _ := strconv.Atoi(r.URL.Query().Get("pagina"))
	tamanho, _ := strconv.Atoi(r.URL.Query().Get("tamanho"))
	return votacao.NovaPaginacao(pagina, tamanho, a.tamanhoPadrao, a.tamanhoMaximo)
}

func origemDoRequest(r *http.Request) votacao.OrigemVoto {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = strings.Split(r.RemoteAddr, ":")[0]
	}
	return votacao.OrigemVoto{IP: ip, UserAgent: r.UserAgent()}
}

// parseDataOpcional aceita RFC3339 ou só a data (2006-01-02).
func parseDataOpcional(valor string) (*time.Time, error) {
	if valor == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, valor); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", valor)
	if err != nil {
		return nil, fmt.Errorf("%w: data invalida %q", domain.ErrArgumentoInvalido, valor)
	}
	return &t, nil
}

func mapearPagina[T, R any](pagina domain.Pagina[T], conv func(T) R) domain.Pagina[R] {
	conteudo := make([]R, len(pagina.Conteudo))
	for i, item := range pagina.Conteudo {
		conteudo[i] = conv(item)
	}
	return domain.Pagina[R]{
		Conteudo:      conteudo,
		NumeroPagina:  pagina.NumeroPagina,
		TamanhoPagina: pagina.TamanhoPagina,
		TotalItens:    pagina.TotalItens,
		TotalPaginas:  pagina.TotalPaginas,
	}
}

type erroResponse struct {
	Codigo   string `json:"codigo"`
	Mensagem string `json:"mensagem"`
}

func decodificar(w http.ResponseWriter, r *http.Request, destino any) error {
	if err := json.NewDecoder(r.Body).Decode(destino); err != nil {
		responderJSON(w, http.StatusBadRequest, erroResponse{Codigo: "PAYLOAD_INVALIDO", Mensagem: "payload invalido"})
		return err
	}
	return nil
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *API) responderErro(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	codigo := "ERRO_INTERNO"

	var dominio *domain.Erro
	if errors.As(err, &dominio) {
		codigo = dominio.Codigo
		switch dominio {
		case domain.ErrNaoEncontrado:
			status = http.StatusNotFound
		case domain.ErrArgumentoInvalido, domain.ErrTransicaoStatusInvalida, domain.ErrCpfInvalido:
			status = http.StatusBadRequest
		case domain.ErrAssembleiaEncerrada, domain.ErrVotoJaRegistrado, domain.ErrConflito:
			status = http.StatusConflict
		}
	} else if errors.Is(err, antifraude.ErrLimiteVotos) {
		status = http.StatusTooManyRequests
		codigo = "LIMITE_VOTOS"
	}

	if status == http.StatusInternalServerError {
		a.logger.Error("erro interno", "err", err, "rota", r.URL.Path)
		responderJSON(w, status, erroResponse{Codigo: codigo, Mensagem: "erro interno"})
		return
	}

	responderJSON(w, status, erroResponse{Codigo: codigo, Mensagem: err.Error()})
}

func statusVoto(err error) string {
	switch {
	case errors.Is(err, antifraude.ErrLimiteVotos):
		return "rate_limited"
	case errors.Is(err, domain.ErrVotoJaRegistrado):
		return "duplicate"
	case errors.Is(err, domain.ErrAssembleiaEncerrada):
		return "closed"
	case errors.Is(err, domain.ErrNaoEncontrado):
		return "not_found"
	case errors.Is(err, domain.ErrArgumentoInvalido), errors.Is(err, domain.ErrCpfInvalido):
		return "invalid"
	default:
		return "error"
	}
}
