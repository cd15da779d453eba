package domain

import (
	"encoding/json"
	"time"
)

const ResolvedBySystem = "system"

// Signal é a forma persistida e deduplicada de uma recomendação recorrente.
// Existe no máximo um sinal não resolvido por (account_id, entity_id, signal_type).
type Signal struct {
	ID                 string               `json:"id"`
	AccountID          string               `json:"account_id"`
	EntityID           string               `json:"entity_id"`
	SignalType         string               `json:"signal_type"`
	RecommendationType RecommendationType   `json:"recommendation_type"`
	Severity           Severity             `json:"severity"`
	Confidence         Confidence           `json:"confidence"`
	Evidence           json.RawMessage      `json:"evidence"`
	Observation        string               `json:"observation"`
	Recommendation     string               `json:"recommendation"`
	Status             RecommendationStatus `json:"status"`
	DetectedAt         time.Time            `json:"detected_at"`
	FirstDetectedAt    time.Time            `json:"first_detected_at"`
	ExpiresAt          *time.Time           `json:"expires_at,omitempty"`
	ResolvedAt         *time.Time           `json:"resolved_at,omitempty"`
	ResolvedBy         *string              `json:"resolved_by,omitempty"`
	ResolutionNotes    *string              `json:"resolution_notes,omitempty"`
}

// SignalKey identifica um sinal aberto
type SignalKey struct {
	AccountID  string
	EntityID   string
	SignalType string
}

func (s Signal) Key() SignalKey {
	return SignalKey{AccountID: s.AccountID, EntityID: s.EntityID, SignalType: s.SignalType}
}

func (s Signal) IsOpen(now time.Time) bool {
	if s.ResolvedAt != nil {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

// SignalResolution é o corpo aceito ao resolver um sinal
type SignalResolution struct {
	Status RecommendationStatus `json:"status" validate:"required,oneof=resolved dismissed"`
	Notes  string               `json:"notes" validate:"max=2000"`
}

type SignalFilter struct {
	AccountID       string
	IncludeResolved bool
	Now             time.Time
}
