package apiErrors

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Erros de autenticação
	ErrInvalidCredentials    = "AUTH_001" // Credenciais inválidas
	ErrUserDisabled          = "AUTH_002" // Operador desativado
	ErrUserNotFound          = "AUTH_003" // Operador não encontrado
	ErrInvalidToken          = "AUTH_006" // Token inválido
	ErrExpiredToken          = "AUTH_007" // Token expirado
	ErrInsufficientPrivilege = "AUTH_008" // Privilégios insuficientes
	ErrUserAlreadyExists     = "AUTH_009" // Operador já existe

	// Erros de validação
	ErrInvalidRequest      = "VAL_001" // Requisição inválida
	ErrMissingRequiredData = "VAL_002" // Dados obrigatórios ausentes
	ErrInvalidFormat       = "VAL_003" // Formato de dados inválido

	// Erros de contas
	ErrAccountNotFound = "ACC_001" // Conta não encontrada
	ErrAccountInactive = "ACC_002" // Conta inativa

	// Erros de avaliação
	ErrInvalidWindow      = "EVAL_001" // Janela de dias fora do intervalo
	ErrInvalidSeverity    = "EVAL_002" // Severidade mínima desconhecida
	ErrFactsUnavailable   = "EVAL_003" // Fonte de fatos indisponível
	ErrEvaluationTimedOut = "EVAL_004" // Avaliação excedeu o prazo

	// Erros de sinais
	ErrSignalNotFound        = "SIG_001" // Sinal não encontrado
	ErrSignalAlreadyResolved = "SIG_002" // Sinal já resolvido
	ErrInvalidResolution     = "SIG_003" // Resolução inválida
	ErrSignalExpired         = "SIG_004" // Sinal expirado

	// Erros do servidor
	ErrInternalServer    = "SRV_001" // Erro interno do servidor
	ErrDatabaseOperation = "SRV_002" // Erro de operação de banco de dados
	ErrCommunication     = "SRV_004" // Erro de comunicação
)

// Mapeamento de códigos de erro para status HTTP
var httpStatusMap = map[string]int{
	ErrInvalidCredentials:    http.StatusUnauthorized,
	ErrUserDisabled:          http.StatusForbidden,
	ErrUserNotFound:          http.StatusNotFound,
	ErrInvalidToken:          http.StatusUnauthorized,
	ErrExpiredToken:          http.StatusUnauthorized,
	ErrInsufficientPrivilege: http.StatusForbidden,
	ErrUserAlreadyExists:     http.StatusBadRequest,
	ErrInvalidRequest:        http.StatusBadRequest,
	ErrMissingRequiredData:   http.StatusBadRequest,
	ErrInvalidFormat:         http.StatusBadRequest,
	ErrAccountNotFound:       http.StatusNotFound,
	ErrAccountInactive:       http.StatusConflict,
	ErrInvalidWindow:         http.StatusBadRequest,
	ErrInvalidSeverity:       http.StatusBadRequest,
	ErrFactsUnavailable:      http.StatusServiceUnavailable,
	ErrEvaluationTimedOut:    http.StatusGatewayTimeout,
	ErrSignalNotFound:        http.StatusNotFound,
	ErrSignalAlreadyResolved: http.StatusConflict,
	ErrInvalidResolution:     http.StatusBadRequest,
	ErrSignalExpired:         http.StatusConflict,
	ErrInternalServer:        http.StatusInternalServerError,
	ErrDatabaseOperation:     http.StatusInternalServerError,
	ErrCommunication:         http.StatusServiceUnavailable,
}

// APIError representa um erro de API padronizado
type APIError struct {
	Code    string `json:"code"`              // Código de erro para o cliente
	Message string `json:"message,omitempty"` // Mensagem descritiva (opcional)
	Details any    `json:"details,omitempty"` // Detalhes adicionais (opcional)
}

// StatusFor devolve o status HTTP do código, ou 500 para códigos desconhecidos
func StatusFor(code string) int {
	status, exists := httpStatusMap[code]
	if !exists {
		return http.StatusInternalServerError
	}
	return status
}

// WriteError escreve o erro padronizado para a resposta HTTP
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	apiErr := APIError{
		Code:    code,
		Message: message,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	json.NewEncoder(w).Encode(apiErr)
}
