package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/infrastructure/migration"
	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository"
	"github.com/vfg2006/traffic-advisor-api/internal/api"
	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/scheduler"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/authenticating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/evaluating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	log.Setup(cfg.App.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := dbconn(ctx, cfg.Database)
	defer conn.Close()

	if err := migration.Apply(ctx, conn); err != nil {
		logrus.WithError(err).Fatal("Erro ao aplicar esquema do banco de dados")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factProvider := repository.NewFactProvider(conn)
	signalRepo := repository.NewSignalRepository(conn)
	accountRepo := repository.NewAccountRepository(conn)
	operatorRepo := repository.NewOperatorRepository(conn)

	engine := evaluating.NewEngine(factProvider, cfg, evaluating.NewMetrics(registry))

	signalManager := signaling.NewService(signalRepo)
	accountService := account.NewService(accountRepo)
	authenticator := authenticating.NewService(operatorRepo, cfg)
	recommender := recommending.NewService(accountService, engine, signalManager, cfg)

	evaluationSyncService := scheduler.NewEvaluationSyncService(accountRepo, recommender, signalManager, cfg)

	if err := evaluationSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de avaliações")
	} else {
		logrus.Info("Agendador de avaliações iniciado com sucesso")
	}

	server, err := api.New(cfg, conn, registry, api.Services{
		Accounts:       accountService,
		Recommender:    recommender,
		Signals:        signalManager,
		Authenticator:  authenticator,
		EvaluationSync: evaluationSyncService,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// dbconn abre a conexão com o banco configurado e encerra o processo se falhar
func dbconn(ctx context.Context, dbConfig config.Database) *database.Connection {
	conn, err := database.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao banco de dados")
	}

	if err := conn.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com o banco de dados")
	}

	logrus.WithField("driver", conn.Driver()).Info("Conexão com o banco de dados estabelecida com sucesso")
	return conn
}
