package handler

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
)

// ListAccounts aceita ?status=ACTIVE,INACTIVE; sem filtro lista todas
func ListAccounts(service account.AccountService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		statuses := make([]domain.AccountStatus, 0)
		if filter := r.URL.Query().Get("status"); filter != "" {
			for _, status := range strings.Split(filter, ",") {
				statuses = append(statuses, domain.AccountStatus(strings.ToUpper(strings.TrimSpace(status))))
			}
		}

		accounts, err := service.ListAccounts(r.Context(), statuses)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao listar contas")
			return
		}

		writeJSON(w, r, http.StatusOK, accounts)
	})
}

type accountStatusRequest struct {
	Status domain.AccountStatus `json:"status"`
}

// UpdateAccountStatus ativa ou desativa a conta; contas inativas saem da avaliação agendada
func UpdateAccountStatus(service account.AccountService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request accountStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		accountID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		status := domain.AccountStatus(strings.ToUpper(strings.TrimSpace(string(request.Status))))

		updated, err := service.UpdateStatus(r.Context(), accountID, status)
		if err != nil {
			writeUsecaseError(w, r, err, "Erro ao atualizar status da conta")
			return
		}

		writeJSON(w, r, http.StatusOK, updated)
	})
}
