// Script de migração: cria o esquema e grava o operador administrador e as
// contas iniciais a partir de variáveis de ambiente.
//
//	SEED_OPERATOR_NAME, SEED_OPERATOR_EMAIL, SEED_OPERATOR_PASSWORD
//	SEED_ACCOUNTS="ext-1:Conta Um,ext-2:Conta Dois"
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/infrastructure/migration"
	"github.com/vfg2006/traffic-advisor-api/infrastructure/repository"
	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/authenticating"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	log.Setup(cfg.App.LogLevel)
	logrus.Info("Iniciando script de migração...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startTime := time.Now()

	conn, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao banco de dados")
	}
	defer conn.Close()

	if err := migration.Apply(ctx, conn); err != nil {
		logrus.WithError(err).Fatal("Erro ao aplicar esquema")
	}

	seedOperator(ctx, authenticating.NewService(repository.NewOperatorRepository(conn), cfg))
	seedAccounts(ctx, repository.NewAccountRepository(conn), os.Getenv("SEED_ACCOUNTS"))

	logrus.Infof("Migração concluída em %v", time.Since(startTime))
}

func seedOperator(ctx context.Context, authenticator authenticating.Authenticator) {
	email := os.Getenv("SEED_OPERATOR_EMAIL")
	password := os.Getenv("SEED_OPERATOR_PASSWORD")
	if email == "" || password == "" {
		logrus.Info("SEED_OPERATOR_EMAIL/SEED_OPERATOR_PASSWORD ausentes, nenhum operador criado")
		return
	}

	name := os.Getenv("SEED_OPERATOR_NAME")
	if name == "" {
		name = "Administrador"
	}

	operator, err := authenticator.CreateOperator(ctx, &domain.Operator{
		Name:   name,
		Email:  email,
		Active: true,
		RoleID: domain.OperatorRoleAdmin,
	}, password)
	if err != nil {
		if errors.Is(err, authenticating.ErrOperatorAlreadyExists) {
			logrus.WithField("email", email).Info("Operador administrador já existe")
			return
		}
		logrus.WithError(err).Fatal("Erro ao criar operador administrador")
	}

	logrus.WithField("operator_id", operator.ID).Info("Operador administrador criado")
}

// seedAccounts lê "externalID:nome" separados por vírgula
func seedAccounts(ctx context.Context, accountRepo repository.AccountRepository, raw string) {
	accounts := parseAccounts(raw)
	if len(accounts) == 0 {
		logrus.Info("SEED_ACCOUNTS vazio, nenhuma conta criada")
		return
	}

	if err := accountRepo.SaveOrUpdate(ctx, accounts); err != nil {
		logrus.WithError(err).Fatal("Erro ao gravar contas iniciais")
	}

	logrus.Infof("%d contas gravadas", len(accounts))
}

func parseAccounts(raw string) []*domain.Account {
	var accounts []*domain.Account

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		externalID, name, found := strings.Cut(entry, ":")
		if !found || strings.TrimSpace(name) == "" {
			name = externalID
		}

		accounts = append(accounts, &domain.Account{
			ID:         utils.GeneratePrefixedID("acc"),
			ExternalID: strings.TrimSpace(externalID),
			Name:       strings.TrimSpace(name),
			Status:     domain.AccountStatusActive,
		})
	}

	return accounts
}
