package domain

import (
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

const SecondsPerDay = 86400

// Dimension identifica o eixo de agregação pedido ao provedor de fatos
type Dimension string

const (
	DimensionAccount   Dimension = "account"
	DimensionSize      Dimension = "size"
	DimensionGeo       Dimension = "geo"
	DimensionDevice    Dimension = "device"
	DimensionPublisher Dimension = "publisher"
	DimensionFormat    Dimension = "format"
	DimensionCreative  Dimension = "creative"
)

type FactFilters struct {
	AccountID string
	Format    string
}

// Traffic agrupa os contadores brutos de uma linha agregada
type Traffic struct {
	ReachedQueries int64 `json:"reached_queries"`
	Impressions    int64 `json:"impressions"`
	Clicks         int64 `json:"clicks"`
	SpendMicros    int64 `json:"spend_micros"`
}

// CTR retorna cliques / impressões, ou 0 sem impressões
func (t Traffic) CTR() float64 {
	if t.Impressions <= 0 {
		return 0
	}
	return float64(t.Clicks) / float64(t.Impressions)
}

// WinRate retorna impressões / queries, ou 0 sem queries
func (t Traffic) WinRate() float64 {
	if t.ReachedQueries <= 0 {
		return 0
	}
	return float64(t.Impressions) / float64(t.ReachedQueries)
}

// WasteRate retorna 1 - win rate, ou 0 sem queries
func (t Traffic) WasteRate() float64 {
	if t.ReachedQueries <= 0 {
		return 0
	}
	return 1 - t.WinRate()
}

func (t Traffic) SpendUSD() float64 {
	return utils.MicrosToUSD(t.SpendMicros)
}

// DailyQueries divide as queries pela janela; janela inválida devolve o total
func (t Traffic) DailyQueries(windowDays int) float64 {
	if windowDays <= 0 {
		return float64(t.ReachedQueries)
	}
	return float64(t.ReachedQueries) / float64(windowDays)
}

func (t Traffic) Add(other Traffic) Traffic {
	return Traffic{
		ReachedQueries: t.ReachedQueries + other.ReachedQueries,
		Impressions:    t.Impressions + other.Impressions,
		Clicks:         t.Clicks + other.Clicks,
		SpendMicros:    t.SpendMicros + other.SpendMicros,
	}
}

// FactRow é uma linha agregada por dimensão devolvida pelo provedor
type FactRow struct {
	DimensionKey  string `json:"dimension_key"`
	CreativeCount *int   `json:"creative_count,omitempty"`
	Traffic
}

// Creatives retorna a contagem de criativos, tratando ausência como zero
func (r FactRow) Creatives() int {
	if r.CreativeCount == nil {
		return 0
	}
	return *r.CreativeCount
}

const (
	FormatVideo  = "VIDEO"
	FormatHTML   = "HTML"
	FormatNative = "NATIVE"

	ApprovalApproved    = "APPROVED"
	ApprovalDisapproved = "DISAPPROVED"

	ThumbnailFailed = "failed"
)

type CreativeFact struct {
	CreativeID       string `json:"creative_id"`
	Format           string `json:"format"`
	ApprovalStatus   string `json:"approval_status"`
	ThumbnailStatus  string `json:"thumbnail_status,omitempty"`
	ThumbnailError   string `json:"thumbnail_error,omitempty"`
	VideoStarts      int64  `json:"video_starts"`
	VideoCompletions int64  `json:"video_completions"`
	DaysObserved     int    `json:"days_observed"`
	Traffic
}

func (c CreativeFact) IsVideo() bool {
	return c.Format == FormatVideo
}

// CompletionRate retorna conclusões / inícios de vídeo, ou 0 sem inícios
func (c CreativeFact) CompletionRate() float64 {
	if c.VideoStarts <= 0 {
		return 0
	}
	return float64(c.VideoCompletions) / float64(c.VideoStarts)
}

// ClickViolation conta os dias em que um publisher teve mais cliques que impressões
type ClickViolation struct {
	PublisherID   string `json:"publisher_id"`
	ViolationDays int    `json:"violation_days"`
}

// FilteredBidFact resume lances filtrados por motivo
type FilteredBidFact struct {
	Status      string  `json:"status"`
	Bids        int64   `json:"bids"`
	Impressions int64   `json:"impressions"`
	Percent     float64 `json:"percent"`
}

// InventoryRow é a contagem de criativos aprovados por formato e tamanho
type InventoryRow struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Count  int    `json:"count"`
}

// DataAvailability conta as linhas de cada fonte exigida pela avaliação
type DataAvailability struct {
	TrafficRows      int64 `json:"traffic_rows"`
	TroubleshootRows int64 `json:"troubleshooting_rows"`
	CreativeRows     int64 `json:"creative_rows"`
}
