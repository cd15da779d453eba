package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

const (
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
	pqUniqueViolation = "23505"
)

// IsMissingRelation indica erro de tabela ou coluna inexistente
func IsMissingRelation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUndefinedTable || pqErr.Code == pqUndefinedColumn
	}

	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column")
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
