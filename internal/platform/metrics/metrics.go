package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	votoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urna_voto_requests_total",
		Help: "Total de requisicoes de voto recebidas",
	}, []string{"status"})

	votoRegistroDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urna_voto_registro_duration_seconds",
		Help:    "Tempo para registrar um voto",
		Buckets: prometheus.DefBuckets,
	})

	apuracoesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urna_apuracoes_total",
		Help: "Total de apuracoes de resultado executadas",
	})
)

func ObserveVotoRequest(status string) {
	votoRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveRegistroDuration(seconds float64) {
	votoRegistroDuration.Observe(seconds)
}

func IncApuracao() {
	apuracoesTotal.Inc()
}
