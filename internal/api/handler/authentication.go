package handler

import (
	"net/http"

	"github.com/vfg2006/traffic-advisor-api/internal/usecases/authenticating"
	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func Login(service authenticating.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		token, err := service.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			// Não revela se o email existe
			if authenticating.IsCredentialsError(err) {
				apiErrors.WriteError(w, apiErrors.ErrInvalidCredentials, "Email ou senha inválidos", nil)
				return
			}
			writeUsecaseError(w, r, err, "Erro ao realizar login")
			return
		}

		writeJSON(w, r, http.StatusOK, LoginResponse{Token: token})
	}
}
