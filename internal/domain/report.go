package domain

import "time"

// Totals resume o tráfego da conta na janela avaliada
type Totals struct {
	ReachedQueries          int64   `json:"reached_queries"`
	Impressions             int64   `json:"impressions"`
	Clicks                  int64   `json:"clicks"`
	SpendUSD                float64 `json:"spend_usd"`
	WasteRate               float64 `json:"waste_rate"`
	WastedQPS               float64 `json:"wasted_qps"`
	PotentialSavingsMonthly float64 `json:"potential_savings_monthly"`
}

type Summary struct {
	Total      int                        `json:"total"`
	BySeverity map[Severity]int           `json:"by_severity"`
	ByType     map[RecommendationType]int `json:"by_type"`
	Totals     Totals                     `json:"totals"`
}

// NewSummary cria um resumo com todas as chaves de severidade e tipo zeradas
func NewSummary() Summary {
	summary := Summary{
		BySeverity: map[Severity]int{
			SeverityCritical: 0,
			SeverityHigh:     0,
			SeverityMedium:   0,
			SeverityLow:      0,
		},
		ByType: make(map[RecommendationType]int, len(RecommendationTypes)),
	}
	for _, t := range RecommendationTypes {
		summary.ByType[t] = 0
	}
	return summary
}

type DataSource string

const (
	DataSourceTraffic      DataSource = "traffic"
	DataSourceFilteredBids DataSource = "filtered_bids"
	DataSourceCreatives    DataSource = "creatives"
)

type DataQuality struct {
	Score          float64          `json:"score"`
	Sufficient     bool             `json:"sufficient"`
	MissingSources []DataSource     `json:"missing_sources"`
	Availability   DataAvailability `json:"availability"`
}

type DetectorStatus string

const (
	DetectorStatusOK       DetectorStatus = "ok"
	DetectorStatusNoData   DetectorStatus = "no_data"
	DetectorStatusFailed   DetectorStatus = "failed"
	DetectorStatusTimedOut DetectorStatus = "timed_out"
	DetectorStatusSkipped  DetectorStatus = "skipped"
)

// DetectorReport descreve o resultado de um detector em uma avaliação
type DetectorReport struct {
	Name            string         `json:"name"`
	Status          DetectorStatus `json:"status"`
	Recommendations int            `json:"recommendations"`
	DurationMs      int64          `json:"duration_ms"`
	Error           string         `json:"error,omitempty"`
}

type EvaluationReport struct {
	AccountID        string            `json:"account_id"`
	WindowDays       int               `json:"window_days"`
	GeneratedAt      time.Time         `json:"generated_at"`
	DataQuality      DataQuality       `json:"data_quality"`
	Recommendations  []Recommendation  `json:"recommendations"`
	Summary          Summary           `json:"summary"`
	PretargetingPlan *PretargetingPlan `json:"pretargeting_plan,omitempty"`
	Detectors        []DetectorReport  `json:"detectors"`
}

// Bundle é uma configuração de pretargeting sugerida
type Bundle struct {
	Name                 string   `json:"name"`
	Formats              []string `json:"formats"`
	IncludedSizes        []string `json:"included_sizes"`
	IncludedGeos         []string `json:"included_geos"`
	ExcludedGeos         []string `json:"excluded_geos"`
	CreativeCount        int      `json:"creative_count"`
	EstimatedImpressions int64    `json:"estimated_impressions"`
	EstimatedSpendUSD    float64  `json:"estimated_spend_usd"`
	WasteReductionPct    float64  `json:"waste_reduction_pct"`
	Rationale            string   `json:"rationale"`
}

type PretargetingPlan struct {
	AccountID                       string   `json:"account_id"`
	ConfigLimit                     int      `json:"config_limit"`
	Bundles                         []Bundle `json:"bundles"`
	TotalEstimatedWasteReductionPct float64  `json:"total_estimated_waste_reduction_pct"`
	Summary                         string   `json:"summary"`
}
