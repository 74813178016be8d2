package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gfmoreira/urna-api/internal/app/votacao"
	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/antifraude"
	"github.com/gfmoreira/urna-api/internal/platform/clock"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
	"github.com/gfmoreira/urna-api/internal/platform/storage/postgres"
	redisstore "github.com/gfmoreira/urna-api/internal/platform/storage/redis"
)

// setupRouter sobe a API completa contra SQLite em memória e miniredis:
// o caminho inteiro de request a banco é exercitado, sem mocks.
func setupRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Pauta{}, &domain.Membro{}, &domain.Assembleia{}, &domain.Voto{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	pautaRepo := postgres.NewPautaRepository(db)
	membroRepo := postgres.NewMembroRepository(db)
	assembleiaRepo := postgres.NewAssembleiaRepository(db)
	votoRepo := postgres.NewVotoRepository(db)
	contador := redisstore.NewContador(client, "teste")

	relogio := clock.NewSystemClock()
	gen := ids.NewGenerator()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	pautas := votacao.NewPautaService(pautaRepo, assembleiaRepo, relogio, gen)
	membros := votacao.NewMembroService(membroRepo, gen)
	assembleias := votacao.NewAssembleiaService(assembleiaRepo, pautaRepo, relogio, gen, log)
	votos := votacao.NewVotoService(votoRepo, assembleiaRepo, membroRepo, pautaRepo, contador, antifraude.NewNoop(), relogio, gen, log)

	router := chi.NewRouter()
	New(pautas, membros, assembleias, votos, log, 10, 100).Registrar(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var leitor io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		leitor = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, leitor)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func criarPautaHTTP(t *testing.T, router chi.Router, titulo string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/pautas", map[string]string{
		"titulo":    titulo,
		"descricao": "Descrição de " + titulo,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["id"].(string)
}

func criarAssembleiaHTTP(t *testing.T, router chi.Router, pautaID string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/assembleias", map[string]string{"pauta_id": pautaID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["id"].(string)
}

func criarMembroHTTP(t *testing.T, router chi.Router, nome, cpf string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/membros", map[string]string{"nome": nome, "cpf": cpf})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["id"].(string)
}

func TestAPI_Pautas_CRUDCompleto(t *testing.T) {
	router := setupRouter(t)

	id := criarPautaHTTP(t, router, "Reforma do estatuto")

	w := doJSON(t, router, http.MethodGet, "/api/v1/pautas/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reforma do estatuto", decodeBody(t, w)["titulo"])

	w = doJSON(t, router, http.MethodPut, "/api/v1/pautas/"+id, map[string]string{
		"titulo":    "Reforma ampla",
		"descricao": "Nova descrição",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reforma ampla", decodeBody(t, w)["titulo"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/pautas/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/pautas/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NAO_ENCONTRADO", decodeBody(t, w)["codigo"])
}

func TestAPI_Pautas_QuandoTituloVazio_DeveRetornar400(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/pautas", map[string]string{"titulo": " ", "descricao": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ARGUMENTO_INVALIDO", decodeBody(t, w)["codigo"])
}

func TestAPI_Pautas_QuandoListarComBusca_DeveFiltrar(t *testing.T) {
	router := setupRouter(t)

	criarPautaHTTP(t, router, "Orcamento anual")
	criarPautaHTTP(t, router, "Eleicao da diretoria")

	w := doJSON(t, router, http.MethodGet, "/api/v1/pautas?busca=orcamento", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["total_itens"])
}

func TestAPI_Pautas_QuandoExcluirComAssembleia_DeveRetornar409(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	criarAssembleiaHTTP(t, router, pautaID)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/pautas/"+pautaID, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLITO", decodeBody(t, w)["codigo"])
}

func TestAPI_Membros_QuandoCpfDuplicado_DeveRetornar409(t *testing.T) {
	router := setupRouter(t)

	criarMembroHTTP(t, router, "Ana Souza", "529.982.247-25")

	w := doJSON(t, router, http.MethodPost, "/api/v1/membros", map[string]string{
		"nome": "Outra Ana",
		"cpf":  "52998224725",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLITO", decodeBody(t, w)["codigo"])
}

func TestAPI_Membros_QuandoCpfInvalido_DeveRetornar400(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/membros", map[string]string{
		"nome": "Ana Souza",
		"cpf":  "11111111111",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CPF_INVALIDO", decodeBody(t, w)["codigo"])
}

func TestAPI_Assembleias_CicloDeVida(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assembleias/"+assembleiaID+"/encerrar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Encerrada", body["status"])
	assert.NotNil(t, body["finalizada_em"])

	// Encerrar de novo é transição inválida.
	w = doJSON(t, router, http.MethodPost, "/api/v1/assembleias/"+assembleiaID+"/encerrar", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TRANSICAO_STATUS_INVALIDA", decodeBody(t, w)["codigo"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/assembleias/"+assembleiaID+"/reabrir", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "Aberta", body["status"])
	_, temFinalizada := body["finalizada_em"]
	assert.False(t, temFinalizada)
}

func TestAPI_Assembleias_QuandoPautaNaoExiste_DeveRetornar404(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assembleias", map[string]string{"pauta_id": "nao-existe"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NAO_ENCONTRADO", decodeBody(t, w)["codigo"])
}

func TestAPI_Assembleias_QuandoListarPorStatus_DeveFiltrar(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	criarAssembleiaHTTP(t, router, pautaID)
	encerradaID := criarAssembleiaHTTP(t, router, pautaID)
	w := doJSON(t, router, http.MethodPost, "/api/v1/assembleias/"+encerradaID+"/encerrar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/assembleias?status=Encerrada", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["total_itens"])
}

func TestAPI_VotosV2_FluxoCompletoDeVotacao(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)
	criarMembroHTTP(t, router, "Ana Souza", "52998224725")
	criarMembroHTTP(t, router, "Bruno Lima", "11144477735")

	w := doJSON(t, router, http.MethodPost, "/api/v2/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"nome":          "Ana Souza",
		"cpf":           "529.982.247-25",
		"decisao":       "Concordo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Segundo voto do mesmo CPF na mesma assembleia conflita.
	w = doJSON(t, router, http.MethodPost, "/api/v2/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"nome":          "Ana Souza",
		"cpf":           "52998224725",
		"decisao":       "Discordo",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VOTO_JA_REGISTRADO", decodeBody(t, w)["codigo"])

	w = doJSON(t, router, http.MethodPost, "/api/v2/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"nome":          "Bruno Lima",
		"cpf":           "11144477735",
		"decisao":       "Concordo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/assembleias/"+assembleiaID+"/parcial", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parcial := decodeBody(t, w)
	assert.EqualValues(t, 2, parcial["total"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/pautas/"+pautaID+"/resultado", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resultado := decodeBody(t, w)
	assert.Equal(t, "Aprovada", resultado["resultado"])
	assert.EqualValues(t, 2, resultado["total_votos"])
	assert.EqualValues(t, 100, resultado["percentual_concordo"])
}

func TestAPI_VotosV2_QuandoNomeNaoBateComCpf_DeveRetornar404(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)
	criarMembroHTTP(t, router, "Ana Souza", "52998224725")

	w := doJSON(t, router, http.MethodPost, "/api/v2/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"nome":          "Bruno Lima",
		"cpf":           "52998224725",
		"decisao":       "Concordo",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NAO_ENCONTRADO", decodeBody(t, w)["codigo"])
}

func TestAPI_VotosV1_DeveMarcarDeprecationEAceitarMembroID(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)
	membroID := criarMembroHTTP(t, router, "Ana Souza", "52998224725")

	w := doJSON(t, router, http.MethodPost, "/api/v1/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"membro_id":     membroID,
		"decisao":       "Concordo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("Deprecation"))
	assert.Equal(t, membroID, decodeBody(t, w)["membro_id"])
}

func TestAPI_Votos_QuandoAssembleiaEncerrada_DeveRetornar409(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)
	membroID := criarMembroHTTP(t, router, "Ana Souza", "52998224725")

	w := doJSON(t, router, http.MethodPost, "/api/v1/assembleias/"+assembleiaID+"/encerrar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"membro_id":     membroID,
		"decisao":       "Concordo",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ASSEMBLEIA_ENCERRADA", decodeBody(t, w)["codigo"])
}

func TestAPI_Votos_QuandoDecisaoDesconhecida_DeveRetornar400(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)
	membroID := criarMembroHTTP(t, router, "Ana Souza", "52998224725")

	w := doJSON(t, router, http.MethodPost, "/api/v1/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"membro_id":     membroID,
		"decisao":       "Abstencao",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ARGUMENTO_INVALIDO", decodeBody(t, w)["codigo"])
}

func TestAPI_Resultado_ComFiltroDeMembro(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Reforma do estatuto")
	assembleiaID := criarAssembleiaHTTP(t, router, pautaID)
	membroID := criarMembroHTTP(t, router, "Ana Souza", "52998224725")

	w := doJSON(t, router, http.MethodPost, "/api/v1/votos", map[string]string{
		"assembleia_id": assembleiaID,
		"membro_id":     membroID,
		"decisao":       "Discordo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	caminho := fmt.Sprintf("/api/v1/pautas/%s/resultado?membro_id=%s", pautaID, membroID)
	w = doJSON(t, router, http.MethodGet, caminho, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resultado := decodeBody(t, w)
	assembleias := resultado["assembleias"].([]any)
	require.Len(t, assembleias, 1)
	recorte := assembleias[0].(map[string]any)
	assert.Equal(t, true, recorte["membro_votou"])
	assert.Equal(t, "Discordo", recorte["voto_membro"])
}

func TestAPI_Resultado_QuandoAssembleiaDeOutraPauta_DeveRetornar400(t *testing.T) {
	router := setupRouter(t)

	pautaID := criarPautaHTTP(t, router, "Primeira pauta")
	outraPautaID := criarPautaHTTP(t, router, "Segunda pauta")
	outraAssembleiaID := criarAssembleiaHTTP(t, router, outraPautaID)

	caminho := fmt.Sprintf("/api/v1/pautas/%s/resultado?assembleia_id=%s", pautaID, outraAssembleiaID)
	w := doJSON(t, router, http.MethodGet, caminho, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ARGUMENTO_INVALIDO", decodeBody(t, w)["codigo"])
}

func TestAPI_QuandoPayloadInvalido_DeveRetornar400(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pautas", bytes.NewReader([]byte("{invalido")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAYLOAD_INVALIDO", decodeBody(t, w)["codigo"])
}
