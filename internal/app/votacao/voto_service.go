package votacao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
	"github.com/gfmoreira/urna-api/internal/platform/metrics"
)

// OrigemVoto identifica de onde a tentativa de voto partiu; alimenta o antifraude.
type OrigemVoto struct {
	IP        string
	UserAgent string
}

// VotoService registra votos e apura resultados. O registro é síncrono:
// o chamador recebe na hora conflitos de voto duplicado ou assembleia
// encerrada. Os contadores Redis das parciais são melhor esforço.
type VotoService struct {
	votos       domain.VotoRepository
	assembleias domain.AssembleiaRepository
	membros     domain.MembroRepository
	pautas      domain.PautaRepository
	contador    domain.Contador
	antifraude  domain.Antifraude
	clock       domain.Clock
	ids         *ids.Generator
	log         *slog.Logger
}

func NewVotoService(
	votos domain.VotoRepository,
	assembleias domain.AssembleiaRepository,
	membros domain.MembroRepository,
	pautas domain.PautaRepository,
	contador domain.Contador,
	antifraude domain.Antifraude,
	clock domain.Clock,
	idsGen *ids.Generator,
	log *slog.Logger,
) *VotoService {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if log == nil {
		log = slog.Default()
	}
	return &VotoService{
		votos:       votos,
		assembleias: assembleias,
		membros:     membros,
		pautas:      pautas,
		contador:    contador,
		antifraude:  antifraude,
		clock:       clock,
		ids:         idsGen,
		log:         log,
	}
}

// Registrar valida e persiste o voto de um membro. A pré-checagem de voto
// existente dá o erro amigável; o índice único (assembleia, membro) cobre
// a corrida e é traduzido pelo repositório para o mesmo erro.
func (s *VotoService) Registrar(ctx context.Context, assembleiaID domain.AssembleiaID, membroID domain.MembroID, decisao domain.Decisao, origem OrigemVoto) (domain.Voto, error) {
	assembleia, err := s.assembleias.BuscarPorID(ctx, assembleiaID)
	if err != nil {
		return domain.Voto{}, fmt.Errorf("assembleia %s: %w", assembleiaID, err)
	}

	membro, err := s.membros.BuscarPorID(ctx, membroID)
	if err != nil {
		return domain.Voto{}, fmt.Errorf("membro %s: %w", membroID, err)
	}

	return s.registrar(ctx, assembleia, membro, decisao, origem)
}

// RegistrarPorCpf identifica o membro pelo CPF em vez do id. Nome
// informado que não bate com o cadastro vira não encontrado: a resposta
// não revela se o CPF existe.
func (s *VotoService) RegistrarPorCpf(ctx context.Context, assembleiaID domain.AssembleiaID, nome, cpf string, decisao domain.Decisao, origem OrigemVoto) (domain.Voto, error) {
	assembleia, err := s.assembleias.BuscarPorID(ctx, assembleiaID)
	if err != nil {
		return domain.Voto{}, fmt.Errorf("assembleia %s: %w", assembleiaID, err)
	}

	chave, err := domain.NovoCpf(cpf)
	if err != nil {
		return domain.Voto{}, err
	}

	membro, err := s.membros.BuscarPorCpf(ctx, chave)
	if err != nil {
		return domain.Voto{}, fmt.Errorf("membro: %w", err)
	}
	if nome != "" && !strings.EqualFold(strings.TrimSpace(nome), membro.Nome) {
		return domain.Voto{}, fmt.Errorf("%w: membro nao corresponde ao cpf informado", domain.ErrNaoEncontrado)
	}

	return s.registrar(ctx, assembleia, membro, decisao, origem)
}

func (s *VotoService) registrar(ctx context.Context, assembleia domain.Assembleia, membro domain.Membro, decisao domain.Decisao, origem OrigemVoto) (domain.Voto, error) {
	inicio := s.clock.Agora()

	if s.antifraude != nil {
		tentativa := domain.TentativaVoto{
			AssembleiaID: assembleia.ID,
			OrigemIP:     origem.IP,
			UserAgent:    origem.UserAgent,
		}
		if err := s.antifraude.Validar(ctx, tentativa); err != nil {
			return domain.Voto{}, err
		}
	}

	jaVotou, err := s.votos.ExistePorAssembleiaEMembro(ctx, assembleia.ID, membro.ID)
	if err != nil {
		return domain.Voto{}, err
	}
	if jaVotou {
		return domain.Voto{}, fmt.Errorf("%w: membro %s ja votou na assembleia %s", domain.ErrVotoJaRegistrado, membro.ID, assembleia.ID)
	}

	voto, err := domain.NovoVoto(domain.VotoID(s.ids.New()), &assembleia, &membro, decisao, s.clock.Agora())
	if err != nil {
		return domain.Voto{}, err
	}

	if err := s.votos.Registrar(ctx, voto); err != nil {
		return domain.Voto{}, err
	}

	s.incrementarParciais(ctx, assembleia.ID, decisao)
	metrics.ObserveRegistroDuration(s.clock.Agora().Sub(inicio).Seconds())
	return voto, nil
}

// incrementarParciais atualiza os contadores Redis. Falha aqui não desfaz
// o voto: a parcial é leitura aproximada e a apuração final sai do banco.
func (s *VotoService) incrementarParciais(ctx context.Context, assembleiaID domain.AssembleiaID, decisao domain.Decisao) {
	if s.contador == nil {
		return
	}
	if _, err := s.contador.Incrementar(ctx, CounterKeyTotalAssembleia(assembleiaID), 1); err != nil {
		s.log.Warn("falha incrementando contador total", "assembleia_id", string(assembleiaID), "err", err)
		return
	}
	if _, err := s.contador.Incrementar(ctx, CounterKeyDecisao(assembleiaID, decisao), 1); err != nil {
		s.log.Warn("falha incrementando contador por decisao", "assembleia_id", string(assembleiaID), "err", err)
	}
}

// Apurar agrega os votos das assembleias de uma pauta. Com assembleiaID o
// recorte é uma única assembleia, que precisa pertencer à pauta. Com
// membroID cada assembleia informa o voto daquele membro em vez dos
// totais por decisão.
func (s *VotoService) Apurar(ctx context.Context, pautaID domain.PautaID, assembleiaID *domain.AssembleiaID, membroID *domain.MembroID) (domain.Apuracao, error) {
	pauta, err := s.pautas.BuscarPorID(ctx, pautaID)
	if err != nil {
		return domain.Apuracao{}, fmt.Errorf("pauta %s: %w", pautaID, err)
	}

	var assembleias []domain.Assembleia
	if assembleiaID != nil {
		assembleia, err := s.assembleias.BuscarPorID(ctx, *assembleiaID)
		if err != nil {
			return domain.Apuracao{}, fmt.Errorf("assembleia %s: %w", *assembleiaID, err)
		}
		if assembleia.PautaID != pautaID {
			return domain.Apuracao{}, fmt.Errorf("%w: assembleia %s nao pertence a pauta %s", domain.ErrArgumentoInvalido, assembleia.ID, pautaID)
		}
		assembleias = []domain.Assembleia{assembleia}
	} else {
		assembleias, err = s.assembleias.ListarPorPauta(ctx, pautaID)
		if err != nil {
			return domain.Apuracao{}, err
		}
	}

	apuracao := domain.Apuracao{
		Pauta:       pauta,
		Assembleias: make([]domain.ApuracaoAssembleia, 0, len(assembleias)),
	}

	for _, assembleia := range assembleias {
		recorte := domain.ApuracaoAssembleia{
			AssembleiaID: assembleia.ID,
			Status:       assembleia.Status,
			IniciadaEm:   assembleia.IniciadaEm,
			FinalizadaEm: assembleia.FinalizadaEm,
		}

		totais, err := s.votos.TotaisPorDecisao(ctx, assembleia.ID)
		if err != nil {
			return domain.Apuracao{}, err
		}
		for decisao, total := range totais {
			recorte.TotalVotos += total
			apuracao.TotalVotos += total
			switch decisao {
			case domain.DecisaoConcordo:
				apuracao.VotosConcordo += total
			case domain.DecisaoDiscordo:
				apuracao.VotosDiscordo += total
			}
		}

		if membroID != nil {
			s.preencherVotoDoMembro(ctx, &recorte, assembleia.ID, *membroID)
		} else {
			recorte.PorDecisao = totais
		}

		apuracao.Assembleias = append(apuracao.Assembleias, recorte)
	}

	if apuracao.TotalVotos > 0 {
		apuracao.PercentualConcordo = percentual(apuracao.VotosConcordo, apuracao.TotalVotos)
		apuracao.PercentualDiscordo = percentual(apuracao.VotosDiscordo, apuracao.TotalVotos)
	}

	// Empate rejeita: aprovação exige maioria estrita de Concordo.
	apuracao.Resultado = domain.ResultadoRejeitada
	if apuracao.VotosConcordo > apuracao.VotosDiscordo {
		apuracao.Resultado = domain.ResultadoAprovada
	}

	metrics.IncApuracao()
	return apuracao, nil
}

// preencherVotoDoMembro anota no recorte se o membro votou e qual foi a
// decisão. Membro que não resolve vira marcador de erro no recorte em vez
// de derrubar a apuração inteira.
func (s *VotoService) preencherVotoDoMembro(ctx context.Context, recorte *domain.ApuracaoAssembleia, assembleiaID domain.AssembleiaID, membroID domain.MembroID) {
	if _, err := s.membros.BuscarPorID(ctx, membroID); err != nil {
		if errors.Is(err, domain.ErrNaoEncontrado) {
			recorte.ErroMembro = fmt.Sprintf("membro %s nao encontrado", membroID)
			return
		}
		recorte.ErroMembro = fmt.Sprintf("falha consultando membro %s", membroID)
		return
	}

	voto, err := s.votos.BuscarPorAssembleiaEMembro(ctx, assembleiaID, membroID)
	if err != nil {
		if errors.Is(err, domain.ErrNaoEncontrado) {
			votou := false
			recorte.MembroVotou = &votou
			return
		}
		recorte.ErroMembro = fmt.Sprintf("falha consultando voto do membro %s", membroID)
		return
	}

	votou := true
	recorte.MembroVotou = &votou
	recorte.VotoMembro = &voto.Decisao
}

// Parcial lê os contadores Redis da assembleia; leitura rápida e
// aproximada enquanto a votação corre.
func (s *VotoService) Parcial(ctx context.Context, assembleiaID domain.AssembleiaID) (domain.ParcialAssembleia, error) {
	existe, err := s.assembleias.Existe(ctx, assembleiaID)
	if err != nil {
		return domain.ParcialAssembleia{}, err
	}
	if !existe {
		return domain.ParcialAssembleia{}, fmt.Errorf("assembleia %s: %w", assembleiaID, domain.ErrNaoEncontrado)
	}

	chaveTotal := CounterKeyTotalAssembleia(assembleiaID)
	chaveConcordo := CounterKeyDecisao(assembleiaID, domain.DecisaoConcordo)
	chaveDiscordo := CounterKeyDecisao(assembleiaID, domain.DecisaoDiscordo)

	valores, err := s.contador.ObterTodos(ctx, []string{chaveTotal, chaveConcordo, chaveDiscordo})
	if err != nil {
		return domain.ParcialAssembleia{}, err
	}

	return domain.ParcialAssembleia{
		AssembleiaID: assembleiaID,
		Total:        valores[chaveTotal],
		PorDecisao: map[domain.Decisao]int64{
			domain.DecisaoConcordo: valores[chaveConcordo],
			domain.DecisaoDiscordo: valores[chaveDiscordo],
		},
	}, nil
}

func percentual(parte, total int64) float64 {
	return math.Round(float64(parte)/float64(total)*100*100) / 100
}
