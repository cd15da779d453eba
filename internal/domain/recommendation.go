// Package domain contém as estruturas de dados do domínio da aplicação
package domain

import "time"

type RecommendationType string

const (
	RecommendationSizeMismatch       RecommendationType = "size_mismatch"
	RecommendationGeoExclusion       RecommendationType = "geo_exclusion"
	RecommendationFraudAlert         RecommendationType = "fraud_alert"
	RecommendationCreativeReview     RecommendationType = "creative_review"
	RecommendationCreativePause      RecommendationType = "creative_pause"
	RecommendationConfigInefficiency RecommendationType = "config_inefficiency"
	RecommendationPublisherBlock     RecommendationType = "publisher_block"
	RecommendationOpportunity        RecommendationType = "opportunity"
)

// RecommendationTypes lista todos os tipos na ordem usada pelo resumo
var RecommendationTypes = []RecommendationType{
	RecommendationSizeMismatch,
	RecommendationGeoExclusion,
	RecommendationFraudAlert,
	RecommendationCreativeReview,
	RecommendationCreativePause,
	RecommendationConfigInefficiency,
	RecommendationPublisherBlock,
	RecommendationOpportunity,
}

type RecommendationStatus string

const (
	RecommendationStatusNew          RecommendationStatus = "new"
	RecommendationStatusAcknowledged RecommendationStatus = "acknowledged"
	RecommendationStatusResolved     RecommendationStatus = "resolved"
	RecommendationStatusDismissed    RecommendationStatus = "dismissed"
)

type Comparison string

const (
	ComparisonAbove Comparison = "above"
	ComparisonBelow Comparison = "below"
)

type ActionType string

const (
	ActionBlock   ActionType = "block"
	ActionPause   ActionType = "pause"
	ActionAdd     ActionType = "add"
	ActionReview  ActionType = "review"
	ActionExclude ActionType = "exclude"
)

type TargetType string

const (
	TargetCreative  TargetType = "creative"
	TargetPublisher TargetType = "publisher"
	TargetGeo       TargetType = "geo"
	TargetSize      TargetType = "size"
	TargetConfig    TargetType = "config"
	TargetDevice    TargetType = "device"
	TargetFormat    TargetType = "format"
)

// Evidence é um ponto de dado que sustenta uma recomendação
type Evidence struct {
	MetricName     string     `json:"metric_name"`
	MetricValue    float64    `json:"metric_value"`
	Threshold      float64    `json:"threshold"`
	Comparison     Comparison `json:"comparison"`
	TimePeriodDays int        `json:"time_period_days"`
	SampleSize     int64      `json:"sample_size"`
	Trend          *string    `json:"trend,omitempty"`
}

// Impact estima o desperdício e a economia associados a uma recomendação
type Impact struct {
	WastedQPS               float64 `json:"wasted_qps"`
	WastedQueriesDaily      int64   `json:"wasted_queries_daily"`
	WastedSpendUSD          float64 `json:"wasted_spend_usd"`
	PercentOfTotalWaste     float64 `json:"percent_of_total_waste"`
	PotentialSavingsMonthly float64 `json:"potential_savings_monthly"`
}

type Action struct {
	ActionType        ActionType `json:"action_type"`
	TargetType        TargetType `json:"target_type"`
	TargetID          string     `json:"target_id"`
	TargetName        string     `json:"target_name"`
	PretargetingField *string    `json:"pretargeting_field,omitempty"`
	Example           *string    `json:"api_example,omitempty"`
}

type Recommendation struct {
	ID                string               `json:"id"`
	Type              RecommendationType   `json:"type"`
	SignalType        string               `json:"signal_type"`
	EntityID          string               `json:"entity_id"`
	Severity          Severity             `json:"severity"`
	Confidence        Confidence           `json:"confidence"`
	Status            RecommendationStatus `json:"status"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Evidence          []Evidence           `json:"evidence"`
	Impact            Impact               `json:"impact"`
	Actions           []Action             `json:"actions"`
	AffectedCreatives []string             `json:"affected_creatives"`
	AffectedCampaigns []string             `json:"affected_campaigns"`
	Attributes        map[string]string    `json:"attributes,omitempty"`
	GeneratedAt       time.Time            `json:"generated_at"`
	ExpiresAt         *time.Time           `json:"expires_at,omitempty"`
}

// PrimaryTarget retorna o alvo da primeira ação, usado na deduplicação
func (r Recommendation) PrimaryTarget() string {
	if len(r.Actions) == 0 {
		return r.EntityID
	}
	return r.Actions[0].TargetID
}

// StringPtr é usado para campos opcionais das ações
func StringPtr(s string) *string {
	return &s
}
