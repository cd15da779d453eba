package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

const (
	CronJobTypeEvaluation = "evaluation"
	CronJobTypeAll        = "all"
)

// CronJob é implementado pelos serviços agendados que aceitam execução manual
type CronJob interface {
	TriggerManualSync(ctx context.Context) bool
	GetStatus() map[string]any
}

// CronJobServices contém os serviços de cron necessários para executar manualmente
type CronJobServices struct {
	EvaluationSyncService CronJob
}

// RunCronJob executa manualmente uma cron job específica
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")

		switch cronType {
		case CronJobTypeEvaluation, CronJobTypeAll:
			if services.EvaluationSyncService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de avaliação agendada não disponível", nil)
				return
			}

			if !services.EvaluationSyncService.TriggerManualSync(r.Context()) {
				writeJSON(w, r, http.StatusConflict, map[string]any{
					"message": "Cron job já em andamento",
					"type":    cronType,
				})
				return
			}
		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de cron job inválido. Valores aceitos: evaluation, all", nil)
			return
		}

		log.ForContext(r.Context()).WithField("type", cronType).Info("Cron job iniciada manualmente")

		writeJSON(w, r, http.StatusAccepted, map[string]any{
			"message": "Cron job iniciada com sucesso",
			"type":    cronType,
		})
	}
}

func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{}
		if services.EvaluationSyncService != nil {
			status[CronJobTypeEvaluation] = services.EvaluationSyncService.GetStatus()
		}

		writeJSON(w, r, http.StatusOK, status)
	}
}
