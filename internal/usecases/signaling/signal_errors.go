package signaling

import (
	"errors"
	"fmt"
)

var (
	ErrSignalNotFound        = errors.New("sinal não encontrado")
	ErrSignalAlreadyResolved = errors.New("sinal já resolvido")
	ErrSignalExpired         = errors.New("sinal expirado")
	ErrInvalidResolution     = errors.New("resolução inválida")
	ErrPersistence           = errors.New("erro ao persistir sinais")
)

// SignalError é um erro com contexto adicional para o ciclo de vida de sinais
type SignalError struct {
	Err      error  // Erro base
	Code     string // Código de erro para API
	SignalID string // Sinal envolvido (quando aplicável)
	Details  string // Detalhes adicionais
}

func (e *SignalError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *SignalError) Unwrap() error {
	return e.Err
}

func NewSignalError(err error, code string, signalID string, details string) *SignalError {
	return &SignalError{
		Err:      err,
		Code:     code,
		SignalID: signalID,
		Details:  details,
	}
}
