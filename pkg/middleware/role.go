package middleware

import (
	"net/http"
	"slices"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

// RoleMiddleware restringe o acesso aos papéis informados
func RoleMiddleware(allowedRoles []int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := OperatorFromContext(r.Context())
			if !ok {
				log.ForContext(r.Context()).Warn("Tentativa de acesso sem autenticação")
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Operador não autenticado", nil)
				return
			}

			if !slices.Contains(allowedRoles, claims.OperatorRoleID) {
				log.ForContext(r.Context()).Warnf("Acesso negado para operador ID=%d, Role=%d", claims.OperatorID, claims.OperatorRoleID)
				apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AdminOnly() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{domain.OperatorRoleAdmin})
}

// CanResolve libera quem pode alterar o estado dos sinais
func CanResolve() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{domain.OperatorRoleAdmin, domain.OperatorRoleAnalyst})
}

func AllRoles() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{domain.OperatorRoleAdmin, domain.OperatorRoleAnalyst, domain.OperatorRoleViewer})
}
