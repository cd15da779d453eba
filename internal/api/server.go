package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/internal/api/handler"
	"github.com/vfg2006/traffic-advisor-api/internal/api/handler/router"
	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/authenticating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

// Registry é o registro de métricas exposto em /metrics
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Services agrupa os casos de uso servidos pela API
type Services struct {
	Accounts       account.AccountService
	Recommender    recommending.Recommender
	Signals        signaling.Manager
	Authenticator  authenticating.Authenticator
	EvaluationSync handler.CronJob
}

type Server struct {
	httpServer *http.Server
}

func New(
	config *config.Config,
	conn database.Conn,
	registry Registry,
	services Services,
) (*Server, error) {
	rt := router.New(
		router.WithInstrumentation(middleware.NewHTTPMetrics(registry)),
		router.WithRoutes(handler.Healthcheck(conn)...),
		router.WithRoutes(handler.Metrics(registry)...),
		router.WithRoutes(handler.Authentication(services.Authenticator)...),
		router.WithRoutes(handler.Accounts(services.Accounts)...),
		router.WithRoutes(handler.Recommendations(services.Recommender)...),
		router.WithRoutes(handler.Signals(services.Signals)...),
		router.WithRoutes(handler.CronJobs(handler.CronJobServices{
			EvaluationSyncService: services.EvaluationSync,
		})...),
	)

	middlewares := []alice.Constructor{
		// LoggingMiddleware vem primeiro para o pânico ser registrado com o ID de correlação
		middleware.LoggingMiddleware(),
		middleware.LogPanicMiddleware(),
		middleware.Cors(config.Server.AllowedOrigins),
		middleware.AuthMiddleware(services.Authenticator),
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           alice.New(middlewares...).Then(rt),
			ReadHeaderTimeout: 2 * time.Second,
		},
	}

	return srv, nil
}

// Handler expõe a cadeia completa de middlewares e rotas
func (s Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"timeout": shutdownTimeout.String(),
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
