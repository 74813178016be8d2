// Pacote ids centraliza a geração de identificadores das entidades.
package ids

import (
	"sync"

	"github.com/google/uuid"
)

// Generator emite UUIDs v4 em formato canônico.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) New() string {
	return uuid.NewString()
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

func DefaultGenerator() *Generator {
	defaultOnce.Do(func() {
		defaultGen = NewGenerator()
	})
	return defaultGen
}

func NewUUID() string {
	return DefaultGenerator().New()
}
