package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/middleware"
)

// ListSignals lista os sinais da conta; ?include_resolved=true inclui os encerrados
func ListSignals(service signaling.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := httprouter.ParamsFromContext(r.Context()).ByName("id")

		includeResolved := false
		if raw := r.URL.Query().Get("include_resolved"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Parâmetro include_resolved deve ser booleano", nil)
				return
			}
			includeResolved = parsed
		}

		signals, err := service.List(r.Context(), accountID, includeResolved)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao listar sinais")
			return
		}

		writeJSON(w, r, http.StatusOK, signals)
	})
}

func AcknowledgeSignal(service signaling.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signalID := httprouter.ParamsFromContext(r.Context()).ByName("id")

		signal, err := service.Acknowledge(r.Context(), signalID)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao reconhecer sinal")
			return
		}

		writeJSON(w, r, http.StatusOK, signal)
	})
}

// ResolveSignal encerra o sinal como resolved ou dismissed em nome do operador do token
func ResolveSignal(service signaling.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.OperatorFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Operador não autenticado", nil)
			return
		}

		var resolution domain.SignalResolution
		if err := json.NewDecoder(r.Body).Decode(&resolution); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		signalID := httprouter.ParamsFromContext(r.Context()).ByName("id")

		signal, err := service.Resolve(r.Context(), signalID, resolution, claims.OperatorEmail)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao resolver sinal")
			return
		}

		writeJSON(w, r, http.StatusOK, signal)
	})
}
