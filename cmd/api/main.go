// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gfmoreira/urna-api/internal/app/httpapi"
	"github.com/gfmoreira/urna-api/internal/app/votacao"
	"github.com/gfmoreira/urna-api/internal/domain"
	"github.com/gfmoreira/urna-api/internal/platform/antifraude"
	"github.com/gfmoreira/urna-api/internal/platform/clock"
	"github.com/gfmoreira/urna-api/internal/platform/config"
	"github.com/gfmoreira/urna-api/internal/platform/health"
	"github.com/gfmoreira/urna-api/internal/platform/ids"
	"github.com/gfmoreira/urna-api/internal/platform/logger"
	"github.com/gfmoreira/urna-api/internal/platform/migrations"
	postgresstorage "github.com/gfmoreira/urna-api/internal/platform/storage/postgres"
	redisstorage "github.com/gfmoreira/urna-api/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}

	// Mantemos a conexão compartilhada em todo o ciclo para reaproveitar pool e checar readiness.
	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		// Rodamos migrations automáticas apenas se habilitado para evitar surpresas em produção.
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Redis alimenta as parciais e o antifraude; a apuração final sai do Postgres.
	redisClient, err := redisstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	pautaRepo := postgresstorage.NewPautaRepository(db)
	membroRepo := postgresstorage.NewMembroRepository(db)
	assembleiaRepo := postgresstorage.NewAssembleiaRepository(db)
	votoRepo := postgresstorage.NewVotoRepository(db)
	contador := redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
	clockSystem := clock.NewSystemClock()
	idGen := ids.NewGenerator()

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	pautaService := votacao.NewPautaService(pautaRepo, assembleiaRepo, clockSystem, idGen)
	membroService := votacao.NewMembroService(membroRepo, idGen)
	assembleiaService := votacao.NewAssembleiaService(assembleiaRepo, pautaRepo, clockSystem, idGen, logger.L())
	votoService := votacao.NewVotoService(
		votoRepo,
		assembleiaRepo,
		membroRepo,
		pautaRepo,
		contador,
		antifraudeSvc,
		clockSystem,
		idGen,
		logger.L(),
	)

	router := chi.NewRouter()
	checker := health.NewChecker(sqlDB, redisClient)

	// HTTP expõe API, health check e métricas que o Prometheus coleta.
	api := httpapi.New(
		pautaService,
		membroService,
		assembleiaService,
		votoService,
		logger.L(),
		cfg.PaginaTamanhoPadrao,
		cfg.PaginaTamanhoMaximo,
	)
	api.Registrar(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", checker.ReadyHandler())
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api encerrada")
}
