package votacao

import "github.com/gfmoreira/urna-api/internal/domain"

const (
	tamanhoPaginaPadrao = 10
	tamanhoPaginaMaximo = 100
)

// Paginacao carrega página (base 1) e tamanho já saneados.
type Paginacao struct {
	Pagina  int
	Tamanho int
}

// NovaPaginacao normaliza os parâmetros vindos da query string. Valores
// fora de faixa caem nos limites informados; limites não positivos caem
// nos padrões do pacote.
func NovaPaginacao(pagina, tamanho, tamanhoPadrao, tamanhoMaximo int) Paginacao {
	if tamanhoPadrao <= 0 {
		tamanhoPadrao = tamanhoPaginaPadrao
	}
	if tamanhoMaximo <= 0 {
		tamanhoMaximo = tamanhoPaginaMaximo
	}
	if pagina < 1 {
		pagina = 1
	}
	if tamanho <= 0 {
		tamanho = tamanhoPadrao
	}
	if tamanho > tamanhoMaximo {
		tamanho = tamanhoMaximo
	}
	return Paginacao{Pagina: pagina, Tamanho: tamanho}
}

func (p Paginacao) sanear() Paginacao {
	return NovaPaginacao(p.Pagina, p.Tamanho, tamanhoPaginaPadrao, tamanhoPaginaMaximo)
}

func (p Paginacao) offset() int {
	return (p.Pagina - 1) * p.Tamanho
}

func totalPaginas(totalItens int64, tamanho int) int {
	if totalItens == 0 {
		return 0
	}
	paginas := totalItens / int64(tamanho)
	if totalItens%int64(tamanho) != 0 {
		paginas++
	}
	return int(paginas)
}

// paginaDe embrulha um conteúdo já recortado pelo banco.
func paginaDe[T any](conteudo []T, totalItens int64, p Paginacao) domain.Pagina[T] {
	if conteudo == nil {
		conteudo = []T{}
	}
	return domain.Pagina[T]{
		Conteudo:      conteudo,
		NumeroPagina:  p.Pagina,
		TamanhoPagina: p.Tamanho,
		TotalItens:    totalItens,
		TotalPaginas:  totalPaginas(totalItens, p.Tamanho),
	}
}

// paginarEmMemoria recorta uma fatia de um resultado filtrado inteiro em
// memória; usado pelos caminhos de busca que combinam consultas.
func paginarEmMemoria[T any](itens []T, p Paginacao) domain.Pagina[T] {
	total := int64(len(itens))
	inicio := p.offset()
	if inicio >= len(itens) {
		return paginaDe([]T{}, total, p)
	}
	fim := inicio + p.Tamanho
	if fim > len(itens) {
		fim = len(itens)
	}
	return paginaDe(itens[inicio:fim], total, p)
}
