package domain

import (
	"fmt"
	"strings"
)

// Cpf guarda o CPF sempre normalizado: onze dígitos, sem pontuação.
type Cpf string

// NovoCpf remove a formatação (pontos, traço) e valida os dígitos verificadores.
func NovoCpf(valor string) (Cpf, error) {
	digitos := semFormatacao(valor)
	if len(digitos) != 11 {
		return "", fmt.Errorf("%w: esperado 11 digitos, recebido %d", ErrCpfInvalido, len(digitos))
	}
	if todosIguais(digitos) {
		return "", fmt.Errorf("%w: digitos repetidos", ErrCpfInvalido)
	}
	if digito(digitos, 10) != int(digitos[9]-'0') || digito(digitos, 11) != int(digitos[10]-'0') {
		return "", fmt.Errorf("%w: digito verificador incorreto", ErrCpfInvalido)
	}
	return Cpf(digitos), nil
}

// Valor retorna o CPF sem formatação.
func (c Cpf) Valor() string {
	return string(c)
}

// Formatado retorna o CPF no padrão XXX.XXX.XXX-XX; valores fora do
// tamanho esperado voltam sem alteração.
func (c Cpf) Formatado() string {
	v := string(c)
	if len(v) != 11 {
		return v
	}
	return v[0:3] + "." + v[3:6] + "." + v[6:9] + "-" + v[9:]
}

func (c Cpf) String() string {
	return c.Formatado()
}

func semFormatacao(valor string) string {
	var b strings.Builder
	for _, r := range valor {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func todosIguais(digitos string) bool {
	for i := 1; i < len(digitos); i++ {
		if digitos[i] != digitos[0] {
			return false
		}
	}
	return true
}

// digito calcula o verificador na posição pos (10 ou 11) pelo módulo 11.
func digito(digitos string, pos int) int {
	soma := 0
	for i := 0; i < pos-1; i++ {
		soma += int(digitos[i]-'0') * (pos - i)
	}
	resto := soma % 11
	if resto < 2 {
		return 0
	}
	return 11 - resto
}
