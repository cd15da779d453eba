package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsMissingRelation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "erro nulo", err: nil, expected: false},
		{name: "tabela inexistente no postgres", err: &pq.Error{Code: "42P01"}, expected: true},
		{name: "coluna inexistente no postgres", err: fmt.Errorf("consulta: %w", &pq.Error{Code: "42703"}), expected: true},
		{name: "outro erro do postgres", err: &pq.Error{Code: "23505"}, expected: false},
		{name: "tabela inexistente no sqlite", err: errors.New("SQL logic error: no such table: rtb_daily (1)"), expected: true},
		{name: "coluna inexistente no sqlite", err: errors.New("SQL logic error: no such column: video_starts (1)"), expected: true},
		{name: "erro genérico", err: errors.New("connection refused"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsMissingRelation(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: operators.email (2067)")))
	assert.False(t, IsUniqueViolation(errors.New("timeout")))
}
