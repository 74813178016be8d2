package votacao

import (
	"fmt"

	"github.com/gfmoreira/urna-api/internal/domain"
)

func CounterKeyTotalAssembleia(id domain.AssembleiaID) string {
	return fmt.Sprintf("assembleia:%s:total", id)
}

func CounterKeyDecisao(id domain.AssembleiaID, decisao domain.Decisao) string {
	return fmt.Sprintf("assembleia:%s:decisao:%s", id, decisao)
}
