package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
)

// GetRecommendations avalia a conta: ?days=7&min_severity=medium
func GetRecommendations(service recommending.Recommender) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, ok := parseQuery(w, r)
		if !ok {
			return
		}

		report, err := service.Recommend(r.Context(), query)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao avaliar conta")
			return
		}

		writeJSON(w, r, http.StatusOK, report)
	})
}

// GetPretargetingPlan devolve os bundles sugeridos: ?days=7&max_configs=10
func GetPretargetingPlan(service recommending.Recommender) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, ok := parseQuery(w, r)
		if !ok {
			return
		}

		plan, err := service.Plan(r.Context(), query)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao montar plano de pretargeting")
			return
		}

		writeJSON(w, r, http.StatusOK, plan)
	})
}

func parseQuery(w http.ResponseWriter, r *http.Request) (recommending.Query, bool) {
	values := r.URL.Query()
	query := recommending.Query{
		AccountID:   httprouter.ParamsFromContext(r.Context()).ByName("id"),
		MinSeverity: domain.Severity(values.Get("min_severity")),
	}

	var err error
	if query.WindowDays, err = intParam(values, "days"); err != nil {
		apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Parâmetro days deve ser um inteiro", nil)
		return query, false
	}
	if query.MaxConfigs, err = intParam(values, "max_configs"); err != nil || query.MaxConfigs < 0 {
		apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Parâmetro max_configs deve ser um inteiro positivo", nil)
		return query, false
	}

	return query, true
}

func intParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
