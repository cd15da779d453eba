package evaluating

import (
	"errors"
	"fmt"

	"github.com/vfg2006/traffic-advisor-api/pkg/apiErrors"
)

var (
	// Erros de validação
	ErrAccountIDRequired = errors.New("conta obrigatória para a avaliação")
	ErrInvalidWindow     = errors.New("janela de dias fora do intervalo permitido")
	ErrInvalidSeverity   = errors.New("severidade mínima desconhecida")

	// Erros de fonte de dados
	ErrFactsUnavailable = errors.New("fonte de fatos indisponível")
)

// EvaluationError é um erro com contexto adicional para a avaliação
type EvaluationError struct {
	Err       error  // Erro base
	Code      string // Código de erro para API
	AccountID string // Conta avaliada
	Details   string // Detalhes adicionais
}

func (e *EvaluationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func NewEvaluationError(err error, accountID string, details string) *EvaluationError {
	return &EvaluationError{
		Err:       err,
		Code:      codeFor(err),
		AccountID: accountID,
		Details:   details,
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrAccountIDRequired):
		return apiErrors.ErrMissingRequiredData
	case errors.Is(err, ErrInvalidWindow):
		return apiErrors.ErrInvalidWindow
	case errors.Is(err, ErrInvalidSeverity):
		return apiErrors.ErrInvalidSeverity
	case errors.Is(err, ErrFactsUnavailable):
		return apiErrors.ErrFactsUnavailable
	default:
		return apiErrors.ErrInternalServer
	}
}
