package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/authenticating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/evaluating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeUsecaseError traduz os erros tipados dos casos de uso para a resposta
// padronizada; qualquer outro erro vira 500
func writeUsecaseError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		accountErr    *account.AccountError
		authErr       *authenticating.AuthError
		evaluationErr *evaluating.EvaluationError
		signalErr     *signaling.SignalError
	)

	switch {
	case errors.As(err, &evaluationErr):
		apiErrors.WriteError(w, evaluationErr.Code, evaluationErr.Error(), nil)
	case errors.As(err, &signalErr):
		apiErrors.WriteError(w, signalErr.Code, signalErr.Error(), nil)
	case errors.As(err, &accountErr):
		apiErrors.WriteError(w, accountErr.Code, accountErr.Error(), nil)
	case errors.As(err, &authErr):
		apiErrors.WriteError(w, authErr.Code, authErr.Error(), nil)
	default:
		log.ForContext(r.Context()).WithError(err).Error(fallback)
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, fallback, nil)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.ForContext(r.Context()).WithError(err).Error("Erro ao codificar resposta")
	}
}
