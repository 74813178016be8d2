package votacao

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gfmoreira/urna-api/internal/domain"
)

type fakePautaRepo struct {
	mu   sync.Mutex
	data map[domain.PautaID]domain.Pauta
}

func newFakePautaRepo() *fakePautaRepo {
	return &fakePautaRepo{data: make(map[domain.PautaID]domain.Pauta)}
}

func (r *fakePautaRepo) Criar(_ context.Context, p domain.Pauta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

func (r *fakePautaRepo) Atualizar(_ context.Context, p domain.Pauta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ID]; !ok {
		return domain.ErrNaoEncontrado
	}
	r.data[p.ID] = p
	return nil
}

func (r *fakePautaRepo) BuscarPorID(_ context.Context, id domain.PautaID) (domain.Pauta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.Pauta{}, domain.ErrNaoEncontrado
	}
	return p, nil
}

func (r *fakePautaRepo) Existe(_ context.Context, id domain.PautaID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[id]
	return ok, nil
}

func (r *fakePautaRepo) Excluir(_ context.Context, id domain.PautaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func (r *fakePautaRepo) todasOrdenadas() []domain.Pauta {
	pautas := make([]domain.Pauta, 0, len(r.data))
	for _, p := range r.data {
		pautas = append(pautas, p)
	}
	sort.Slice(pautas, func(i, j int) bool {
		if pautas[i].CriadaEm.Equal(pautas[j].CriadaEm) {
			return pautas[i].ID < pautas[j].ID
		}
		return pautas[i].CriadaEm.Before(pautas[j].CriadaEm)
	})
	return pautas
}

func (r *fakePautaRepo) Listar(_ context.Context, offset, limite int) ([]domain.Pauta, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pautas := r.todasOrdenadas()
	total := int64(len(pautas))
	if offset >= len(pautas) {
		return nil, total, nil
	}
	fim := offset + limite
	if fim > len(pautas) {
		fim = len(pautas)
	}
	return pautas[offset:fim], total, nil
}

func (r *fakePautaRepo) BuscarPorTituloExato(_ context.Context, titulo string) ([]domain.Pauta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Pauta
	for _, p := range r.todasOrdenadas() {
		if strings.EqualFold(p.Titulo, titulo) {
			resultado = append(resultado, p)
		}
	}
	return resultado, nil
}

func (r *fakePautaRepo) BuscarPorTitulo(_ context.Context, trecho string) ([]domain.Pauta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Pauta
	for _, p := range r.todasOrdenadas() {
		if strings.Contains(strings.ToLower(p.Titulo), strings.ToLower(trecho)) {
			resultado = append(resultado, p)
		}
	}
	return resultado, nil
}

func (r *fakePautaRepo) BuscarPorDescricao(_ context.Context, trecho string) ([]domain.Pauta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Pauta
	for _, p := range r.todasOrdenadas() {
		if strings.Contains(strings.ToLower(p.Descricao), strings.ToLower(trecho)) {
			resultado = append(resultado, p)
		}
	}
	return resultado, nil
}

func (r *fakePautaRepo) BuscarPorPeriodoCriacao(_ context.Context, de, ate time.Time) ([]domain.Pauta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Pauta
	for _, p := range r.todasOrdenadas() {
		if !p.CriadaEm.Before(de) && !p.CriadaEm.After(ate) {
			resultado = append(resultado, p)
		}
	}
	return resultado, nil
}

type fakeMembroRepo struct {
	mu   sync.Mutex
	data map[domain.MembroID]domain.Membro
}

func newFakeMembroRepo() *fakeMembroRepo {
	return &fakeMembroRepo{data: make(map[domain.MembroID]domain.Membro)}
}

func (r *fakeMembroRepo) Criar(_ context.Context, m domain.Membro) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existente := range r.data {
		if existente.Cpf == m.Cpf {
			return fmt.Errorf("%w: cpf ja cadastrado", domain.ErrConflito)
		}
	}
	r.data[m.ID] = m
	return nil
}

func (r *fakeMembroRepo) Atualizar(_ context.Context, m domain.Membro) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[m.ID]; !ok {
		return domain.ErrNaoEncontrado
	}
	for id, existente := range r.data {
		if id != m.ID && existente.Cpf == m.Cpf {
			return fmt.Errorf("%w: cpf ja cadastrado", domain.ErrConflito)
		}
	}
	r.data[m.ID] = m
	return nil
}

func (r *fakeMembroRepo) BuscarPorID(_ context.Context, id domain.MembroID) (domain.Membro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return domain.Membro{}, domain.ErrNaoEncontrado
	}
	return m, nil
}

func (r *fakeMembroRepo) Existe(_ context.Context, id domain.MembroID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[id]
	return ok, nil
}

func (r *fakeMembroRepo) Excluir(_ context.Context, id domain.MembroID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func (r *fakeMembroRepo) todosOrdenados() []domain.Membro {
	membros := make([]domain.Membro, 0, len(r.data))
	for _, m := range r.data {
		membros = append(membros, m)
	}
	sort.Slice(membros, func(i, j int) bool { return membros[i].Nome < membros[j].Nome })
	return membros
}

func (r *fakeMembroRepo) Listar(_ context.Context, offset, limite int) ([]domain.Membro, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	membros := r.todosOrdenados()
	total := int64(len(membros))
	if offset >= len(membros) {
		return nil, total, nil
	}
	fim := offset + limite
	if fim > len(membros) {
		fim = len(membros)
	}
	return membros[offset:fim], total, nil
}

func (r *fakeMembroRepo) BuscarPorCpf(_ context.Context, cpf domain.Cpf) (domain.Membro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		if m.Cpf == cpf {
			return m, nil
		}
	}
	return domain.Membro{}, domain.ErrNaoEncontrado
}

func (r *fakeMembroRepo) ExistePorCpf(_ context.Context, cpf domain.Cpf) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		if m.Cpf == cpf {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMembroRepo) BuscarPorNome(_ context.Context, trecho string) ([]domain.Membro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Membro
	for _, m := range r.todosOrdenados() {
		if strings.Contains(strings.ToLower(m.Nome), strings.ToLower(trecho)) {
			resultado = append(resultado, m)
		}
	}
	return resultado, nil
}

type fakeAssembleiaRepo struct {
	mu   sync.Mutex
	data map[domain.AssembleiaID]domain.Assembleia
}

func newFakeAssembleiaRepo() *fakeAssembleiaRepo {
	return &fakeAssembleiaRepo{data: make(map[domain.AssembleiaID]domain.Assembleia)}
}

func (r *fakeAssembleiaRepo) Criar(_ context.Context, a domain.Assembleia) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[a.ID] = a
	return nil
}

func (r *fakeAssembleiaRepo) Atualizar(_ context.Context, a domain.Assembleia) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[a.ID]; !ok {
		return domain.ErrNaoEncontrado
	}
	r.data[a.ID] = a
	return nil
}

func (r *fakeAssembleiaRepo) BuscarPorID(_ context.Context, id domain.AssembleiaID) (domain.Assembleia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return domain.Assembleia{}, domain.ErrNaoEncontrado
	}
	return a, nil
}

func (r *fakeAssembleiaRepo) Existe(_ context.Context, id domain.AssembleiaID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[id]
	return ok, nil
}

func (r *fakeAssembleiaRepo) Excluir(_ context.Context, id domain.AssembleiaID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func (r *fakeAssembleiaRepo) todasOrdenadas() []domain.Assembleia {
	assembleias := make([]domain.Assembleia, 0, len(r.data))
	for _, a := range r.data {
		assembleias = append(assembleias, a)
	}
	sort.Slice(assembleias, func(i, j int) bool {
		if assembleias[i].IniciadaEm.Equal(assembleias[j].IniciadaEm) {
			return assembleias[i].ID < assembleias[j].ID
		}
		return assembleias[i].IniciadaEm.Before(assembleias[j].IniciadaEm)
	})
	return assembleias
}

func (r *fakeAssembleiaRepo) Listar(_ context.Context, offset, limite int) ([]domain.Assembleia, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assembleias := r.todasOrdenadas()
	total := int64(len(assembleias))
	if offset >= len(assembleias) {
		return nil, total, nil
	}
	fim := offset + limite
	if fim > len(assembleias) {
		fim = len(assembleias)
	}
	return assembleias[offset:fim], total, nil
}

func (r *fakeAssembleiaRepo) ListarPorStatus(_ context.Context, status domain.StatusAssembleia) ([]domain.Assembleia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Assembleia
	for _, a := range r.todasOrdenadas() {
		if a.Status == status {
			resultado = append(resultado, a)
		}
	}
	return resultado, nil
}

func (r *fakeAssembleiaRepo) ListarPorPauta(_ context.Context, pautaID domain.PautaID) ([]domain.Assembleia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Assembleia
	for _, a := range r.todasOrdenadas() {
		if a.PautaID == pautaID {
			resultado = append(resultado, a)
		}
	}
	return resultado, nil
}

func (r *fakeAssembleiaRepo) ListarPorPeriodoInicio(_ context.Context, de, ate time.Time) ([]domain.Assembleia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Assembleia
	for _, a := range r.todasOrdenadas() {
		if !a.IniciadaEm.Before(de) && !a.IniciadaEm.After(ate) {
			resultado = append(resultado, a)
		}
	}
	return resultado, nil
}

func (r *fakeAssembleiaRepo) ExisteAbertaParaPauta(_ context.Context, pautaID domain.PautaID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.data {
		if a.PautaID == pautaID && a.Status == domain.StatusAberta {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAssembleiaRepo) ExistePorPauta(_ context.Context, pautaID domain.PautaID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.data {
		if a.PautaID == pautaID {
			return true, nil
		}
	}
	return false, nil
}

type fakeVotoRepo struct {
	mu    sync.Mutex
	lista []domain.Voto
}

func newFakeVotoRepo() *fakeVotoRepo {
	return &fakeVotoRepo{}
}

func (r *fakeVotoRepo) Registrar(_ context.Context, v domain.Voto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existente := range r.lista {
		if existente.AssembleiaID == v.AssembleiaID && existente.MembroID == v.MembroID {
			return fmt.Errorf("%w: membro ja votou nesta assembleia", domain.ErrVotoJaRegistrado)
		}
	}
	r.lista = append(r.lista, v)
	return nil
}

func (r *fakeVotoRepo) BuscarPorAssembleiaEMembro(_ context.Context, assembleiaID domain.AssembleiaID, membroID domain.MembroID) (domain.Voto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.lista {
		if v.AssembleiaID == assembleiaID && v.MembroID == membroID {
			return v, nil
		}
	}
	return domain.Voto{}, domain.ErrNaoEncontrado
}

func (r *fakeVotoRepo) ExistePorAssembleiaEMembro(_ context.Context, assembleiaID domain.AssembleiaID, membroID domain.MembroID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.lista {
		if v.AssembleiaID == assembleiaID && v.MembroID == membroID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVotoRepo) ListarPorAssembleia(_ context.Context, assembleiaID domain.AssembleiaID) ([]domain.Voto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []domain.Voto
	for _, v := range r.lista {
		if v.AssembleiaID == assembleiaID {
			resultado = append(resultado, v)
		}
	}
	return resultado, nil
}

func (r *fakeVotoRepo) TotalPorAssembleia(_ context.Context, assembleiaID domain.AssembleiaID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, v := range r.lista {
		if v.AssembleiaID == assembleiaID {
			total++
		}
	}
	return total, nil
}

func (r *fakeVotoRepo) TotalPorDecisao(_ context.Context, assembleiaID domain.AssembleiaID, decisao domain.Decisao) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, v := range r.lista {
		if v.AssembleiaID == assembleiaID && v.Decisao == decisao {
			total++
		}
	}
	return total, nil
}

func (r *fakeVotoRepo) TotaisPorDecisao(_ context.Context, assembleiaID domain.AssembleiaID) (map[domain.Decisao]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resultado := make(map[domain.Decisao]int64)
	for _, v := range r.lista {
		if v.AssembleiaID == assembleiaID {
			resultado[v.Decisao]++
		}
	}
	return resultado, nil
}

type fakeContador struct {
	mu      sync.Mutex
	valores map[string]int64
}

func newFakeContador() *fakeContador {
	return &fakeContador{valores: make(map[string]int64)}
}

func (c *fakeContador) Incrementar(_ context.Context, chave string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valores[chave] += delta
	return c.valores[chave], nil
}

func (c *fakeContador) Obter(_ context.Context, chave string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valores[chave], nil
}

func (c *fakeContador) ObterTodos(_ context.Context, chaves []string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resultado := make(map[string]int64, len(chaves))
	for _, chave := range chaves {
		resultado[chave] = c.valores[chave]
	}
	return resultado, nil
}

type antifraudeNoop struct{}

func (antifraudeNoop) Validar(_ context.Context, _ domain.TentativaVoto) error { return nil }

type antifraudeBloqueia struct{ err error }

func (a antifraudeBloqueia) Validar(_ context.Context, _ domain.TentativaVoto) error { return a.err }

type staticClock struct {
	now time.Time
}

func (s *staticClock) Agora() time.Time {
	return s.now
}
