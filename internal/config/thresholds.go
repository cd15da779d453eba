package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Thresholds concentra todos os limiares dos detectores. É carregado uma vez
// por processo e passado por valor, nunca alterado depois disso.
type Thresholds struct {
	// Tamanhos
	SizeLowVolumeDaily          float64 `mapstructure:"threshold_size_low_volume_daily" yaml:"size_low_volume_daily" validate:"gt=0"`
	SizeHighVolumeDaily         float64 `mapstructure:"threshold_size_high_volume_daily" yaml:"size_high_volume_daily" validate:"gtfield=SizeLowVolumeDaily"`
	SizeMediumVolumeDaily       float64 `mapstructure:"threshold_size_medium_volume_daily" yaml:"size_medium_volume_daily" validate:"gtfield=SizeLowVolumeDaily,ltfield=SizeHighVolumeDaily"`
	SizeHighWastePct            float64 `mapstructure:"threshold_size_high_waste_pct" yaml:"size_high_waste_pct" validate:"gte=0,lte=100"`
	SizeMediumWastePct          float64 `mapstructure:"threshold_size_medium_waste_pct" yaml:"size_medium_waste_pct" validate:"gte=0,lte=100"`
	SizeIABTolerancePx          int     `mapstructure:"threshold_size_iab_tolerance_px" yaml:"size_iab_tolerance_px" validate:"gte=0"`
	SizeHighConfidenceQueries   int64   `mapstructure:"threshold_size_high_confidence_queries" yaml:"size_high_confidence_queries" validate:"gt=0"`
	SizeMediumConfidenceQueries int64   `mapstructure:"threshold_size_medium_confidence_queries" yaml:"size_medium_confidence_queries" validate:"gt=0"`
	SizeExpiryDays              int     `mapstructure:"threshold_size_expiry_days" yaml:"size_expiry_days" validate:"gt=0"`
	SizeLowWinRateMinQueries    int64   `mapstructure:"threshold_size_low_win_rate_min_queries" yaml:"size_low_win_rate_min_queries" validate:"gt=0"`
	SizeLowWinRate              float64 `mapstructure:"threshold_size_low_win_rate" yaml:"size_low_win_rate" validate:"gte=0,lte=1"`
	SizeHighWinRate             float64 `mapstructure:"threshold_size_high_win_rate" yaml:"size_high_win_rate" validate:"gte=0,lte=1"`
	SizeHighWinRateMinQueries   int64   `mapstructure:"threshold_size_high_win_rate_min_queries" yaml:"size_high_win_rate_min_queries" validate:"gte=0"`
	SizeHighWinRateMaxQueries   int64   `mapstructure:"threshold_size_high_win_rate_max_queries" yaml:"size_high_win_rate_max_queries" validate:"gtfield=SizeHighWinRateMinQueries"`
	CostPerThousandQueries      float64 `mapstructure:"threshold_cost_per_thousand_queries" yaml:"cost_per_thousand_queries" validate:"gte=0"`

	// Geografia
	GeoUnderperformRatio         float64 `mapstructure:"threshold_geo_underperform_ratio" yaml:"geo_underperform_ratio" validate:"gt=0,lte=1"`
	GeoLowCTRFloor               float64 `mapstructure:"threshold_geo_low_ctr_floor" yaml:"geo_low_ctr_floor" validate:"gte=0,lte=1"`
	GeoMinImpressions            int64   `mapstructure:"threshold_geo_min_impressions" yaml:"geo_min_impressions" validate:"gte=0"`
	GeoMinSpendUSD               float64 `mapstructure:"threshold_geo_min_spend_usd" yaml:"geo_min_spend_usd" validate:"gte=0"`
	GeoMediumSpendUSD            float64 `mapstructure:"threshold_geo_medium_spend_usd" yaml:"geo_medium_spend_usd" validate:"gte=0"`
	GeoHighSpendUSD              float64 `mapstructure:"threshold_geo_high_spend_usd" yaml:"geo_high_spend_usd" validate:"gtfield=GeoMediumSpendUSD"`
	GeoHighConfidenceImpressions int64   `mapstructure:"threshold_geo_high_confidence_impressions" yaml:"geo_high_confidence_impressions" validate:"gt=0"`
	GeoSavingsRatio              float64 `mapstructure:"threshold_geo_savings_ratio" yaml:"geo_savings_ratio" validate:"gte=0,lte=1"`
	GeoHighWasteMinQueries       int64   `mapstructure:"threshold_geo_high_waste_min_queries" yaml:"geo_high_waste_min_queries" validate:"gt=0"`
	GeoHighWasteRate             float64 `mapstructure:"threshold_geo_high_waste_rate" yaml:"geo_high_waste_rate" validate:"gte=0,lte=1"`
	GeoExtremeWasteRate          float64 `mapstructure:"threshold_geo_extreme_waste_rate" yaml:"geo_extreme_waste_rate" validate:"gtfield=GeoHighWasteRate,lte=1"`
	GeoCoverageMinQueries        int64   `mapstructure:"threshold_geo_coverage_min_queries" yaml:"geo_coverage_min_queries" validate:"gt=0"`
	GeoCoverageMinCreatives      int     `mapstructure:"threshold_geo_coverage_min_creatives" yaml:"geo_coverage_min_creatives" validate:"gt=0"`
	GeoGoodCTRRatio              float64 `mapstructure:"threshold_geo_good_ctr_ratio" yaml:"geo_good_ctr_ratio" validate:"gt=0"`
	GeoExpandCTRRatio            float64 `mapstructure:"threshold_geo_expand_ctr_ratio" yaml:"geo_expand_ctr_ratio" validate:"gtfield=GeoGoodCTRRatio"`
	GeoExpiryDays                int     `mapstructure:"threshold_geo_expiry_days" yaml:"geo_expiry_days" validate:"gt=0"`
	GeoCoverageExpiryDays        int     `mapstructure:"threshold_geo_coverage_expiry_days" yaml:"geo_coverage_expiry_days" validate:"gt=0"`

	// Fraude
	FraudMinImpressions        int64   `mapstructure:"threshold_fraud_min_impressions" yaml:"fraud_min_impressions" validate:"gte=0"`
	FraudHighCTR               float64 `mapstructure:"threshold_fraud_high_ctr" yaml:"fraud_high_ctr" validate:"gt=0,lte=1"`
	FraudCriticalSpendUSD      float64 `mapstructure:"threshold_fraud_critical_spend_usd" yaml:"fraud_critical_spend_usd" validate:"gte=0"`
	FraudZeroClickSpendUSD     float64 `mapstructure:"threshold_fraud_zero_click_spend_usd" yaml:"fraud_zero_click_spend_usd" validate:"gte=0"`
	FraudZeroClickHighSpendUSD float64 `mapstructure:"threshold_fraud_zero_click_high_spend_usd" yaml:"fraud_zero_click_high_spend_usd" validate:"gtfield=FraudZeroClickSpendUSD"`
	FraudLowCTRMinImpressions  int64   `mapstructure:"threshold_fraud_low_ctr_min_impressions" yaml:"fraud_low_ctr_min_impressions" validate:"gt=0"`
	FraudLowCTRMinSpendUSD     float64 `mapstructure:"threshold_fraud_low_ctr_min_spend_usd" yaml:"fraud_low_ctr_min_spend_usd" validate:"gte=0"`
	FraudLowCTR                float64 `mapstructure:"threshold_fraud_low_ctr" yaml:"fraud_low_ctr" validate:"gte=0,lte=1"`
	FraudMinViolationDays      int     `mapstructure:"threshold_fraud_min_violation_days" yaml:"fraud_min_violation_days" validate:"gte=2"`
	FraudMediumViolationDays   int     `mapstructure:"threshold_fraud_medium_violation_days" yaml:"fraud_medium_violation_days" validate:"gtefield=FraudMinViolationDays"`
	FraudHighViolationDays     int     `mapstructure:"threshold_fraud_high_violation_days" yaml:"fraud_high_violation_days" validate:"gtfield=FraudMediumViolationDays"`
	FraudAlertExpiryDays       int     `mapstructure:"threshold_fraud_alert_expiry_days" yaml:"fraud_alert_expiry_days" validate:"gt=0"`
	FraudBlockExpiryDays       int     `mapstructure:"threshold_fraud_block_expiry_days" yaml:"fraud_block_expiry_days" validate:"gt=0"`

	// Criativos
	CreativeZeroEngagementImpressions int64   `mapstructure:"threshold_creative_zero_engagement_impressions" yaml:"creative_zero_engagement_impressions" validate:"gt=0"`
	CreativeZeroEngagementMinDays     int     `mapstructure:"threshold_creative_zero_engagement_min_days" yaml:"creative_zero_engagement_min_days" validate:"gt=0"`
	CreativeHighConfidenceDays        int     `mapstructure:"threshold_creative_high_confidence_days" yaml:"creative_high_confidence_days" validate:"gtefield=CreativeZeroEngagementMinDays"`
	CreativeMediumSpendUSD            float64 `mapstructure:"threshold_creative_medium_spend_usd" yaml:"creative_medium_spend_usd" validate:"gte=0"`
	CreativeHighSpendUSD              float64 `mapstructure:"threshold_creative_high_spend_usd" yaml:"creative_high_spend_usd" validate:"gtfield=CreativeMediumSpendUSD"`
	CreativeLowCTRRatio               float64 `mapstructure:"threshold_creative_low_ctr_ratio" yaml:"creative_low_ctr_ratio" validate:"gt=0,lte=1"`
	CreativeLowCTRMinImpressions      int64   `mapstructure:"threshold_creative_low_ctr_min_impressions" yaml:"creative_low_ctr_min_impressions" validate:"gte=0"`
	CreativeLowCTRMinSpendUSD         float64 `mapstructure:"threshold_creative_low_ctr_min_spend_usd" yaml:"creative_low_ctr_min_spend_usd" validate:"gte=0"`
	CreativeLowCTRHighSpendUSD        float64 `mapstructure:"threshold_creative_low_ctr_high_spend_usd" yaml:"creative_low_ctr_high_spend_usd" validate:"gtfield=CreativeLowCTRMinSpendUSD"`
	CreativeHighConfidenceImpressions int64   `mapstructure:"threshold_creative_high_confidence_impressions" yaml:"creative_high_confidence_impressions" validate:"gt=0"`
	CreativeBrokenVideoMinQueries     int64   `mapstructure:"threshold_creative_broken_video_min_queries" yaml:"creative_broken_video_min_queries" validate:"gt=0"`
	CreativeMinVideoStarts            int64   `mapstructure:"threshold_creative_min_video_starts" yaml:"creative_min_video_starts" validate:"gt=0"`
	CreativeMinCompletionRate         float64 `mapstructure:"threshold_creative_min_completion_rate" yaml:"creative_min_completion_rate" validate:"gte=0,lte=1"`
	CreativeLowWinRateMinQueries      int64   `mapstructure:"threshold_creative_low_win_rate_min_queries" yaml:"creative_low_win_rate_min_queries" validate:"gt=0"`
	CreativeLowWinRate                float64 `mapstructure:"threshold_creative_low_win_rate" yaml:"creative_low_win_rate" validate:"gte=0,lte=1"`
	CreativeUrgentExpiryDays          int     `mapstructure:"threshold_creative_urgent_expiry_days" yaml:"creative_urgent_expiry_days" validate:"gt=0"`
	CreativeExpiryDays                int     `mapstructure:"threshold_creative_expiry_days" yaml:"creative_expiry_days" validate:"gt=0"`
	CreativeReviewExpiryDays          int     `mapstructure:"threshold_creative_review_expiry_days" yaml:"creative_review_expiry_days" validate:"gt=0"`

	// Configuração
	ConfigMinQueries         int64   `mapstructure:"threshold_config_min_queries" yaml:"config_min_queries" validate:"gt=0"`
	ConfigHighWasteRate      float64 `mapstructure:"threshold_config_high_waste_rate" yaml:"config_high_waste_rate" validate:"gte=0,lte=1"`
	ConfigCriticalWasteRate  float64 `mapstructure:"threshold_config_critical_waste_rate" yaml:"config_critical_waste_rate" validate:"gtfield=ConfigHighWasteRate,lte=1"`
	ConfigFormatMaxWinRate   float64 `mapstructure:"threshold_config_format_max_win_rate" yaml:"config_format_max_win_rate" validate:"gte=0,lte=1"`
	ConfigFormatMinCreatives int     `mapstructure:"threshold_config_format_min_creatives" yaml:"config_format_min_creatives" validate:"gt=0"`
	ConfigDeviceMaxWinRate   float64 `mapstructure:"threshold_config_device_max_win_rate" yaml:"config_device_max_win_rate" validate:"gte=0,lte=1"`
	ConfigDeviceMaxCTR       float64 `mapstructure:"threshold_config_device_max_ctr" yaml:"config_device_max_ctr" validate:"gte=0,lte=1"`
	ConfigDeviceMinSpendUSD  float64 `mapstructure:"threshold_config_device_min_spend_usd" yaml:"config_device_min_spend_usd" validate:"gte=0"`
	ConfigNotApprovedPct     float64 `mapstructure:"threshold_config_not_approved_pct" yaml:"config_not_approved_pct" validate:"gte=0,lte=100"`
	ConfigDisapprovedPct     float64 `mapstructure:"threshold_config_disapproved_pct" yaml:"config_disapproved_pct" validate:"gte=0,lte=100"`
	ConfigFloorPct           float64 `mapstructure:"threshold_config_floor_pct" yaml:"config_floor_pct" validate:"gte=0,lte=100"`
	ConfigExpiryDays         int     `mapstructure:"threshold_config_expiry_days" yaml:"config_expiry_days" validate:"gt=0"`
	ConfigFormatExpiryDays   int     `mapstructure:"threshold_config_format_expiry_days" yaml:"config_format_expiry_days" validate:"gt=0"`

	// Pretargeting
	BundleConfigLimit           int     `mapstructure:"threshold_bundle_config_limit" yaml:"bundle_config_limit" validate:"gt=0"`
	BundleMaxSizes              int     `mapstructure:"threshold_bundle_max_sizes" yaml:"bundle_max_sizes" validate:"gt=0"`
	BundleMaxGeos               int     `mapstructure:"threshold_bundle_max_geos" yaml:"bundle_max_geos" validate:"gt=0"`
	BundleGoodGeoMinImpressions int64   `mapstructure:"threshold_bundle_good_geo_min_impressions" yaml:"bundle_good_geo_min_impressions" validate:"gte=0"`

	// Qualidade dos dados
	GateMinScore           float64 `mapstructure:"threshold_gate_min_score" yaml:"gate_min_score" validate:"gte=0,lte=1"`
	GateTrafficWeight      float64 `mapstructure:"threshold_gate_traffic_weight" yaml:"gate_traffic_weight" validate:"gte=0,lte=1"`
	GateFilteredBidsWeight float64 `mapstructure:"threshold_gate_filtered_bids_weight" yaml:"gate_filtered_bids_weight" validate:"gte=0,lte=1"`
	GateCreativesWeight    float64 `mapstructure:"threshold_gate_creatives_weight" yaml:"gate_creatives_weight" validate:"gte=0,lte=1"`
}

// DefaultThresholds retorna os limiares padrão dos detectores
func DefaultThresholds() Thresholds {
	return Thresholds{
		SizeLowVolumeDaily:          100,
		SizeHighVolumeDaily:         10000,
		SizeMediumVolumeDaily:       1000,
		SizeHighWastePct:            5,
		SizeMediumWastePct:          2,
		SizeIABTolerancePx:          5,
		SizeHighConfidenceQueries:   100000,
		SizeMediumConfidenceQueries: 10000,
		SizeExpiryDays:              7,
		SizeLowWinRateMinQueries:    50000,
		SizeLowWinRate:              0.02,
		SizeHighWinRate:             0.20,
		SizeHighWinRateMinQueries:   1000,
		SizeHighWinRateMaxQueries:   50000,
		CostPerThousandQueries:      0.002,

		GeoUnderperformRatio:         0.5,
		GeoLowCTRFloor:               0.02,
		GeoMinImpressions:            1000,
		GeoMinSpendUSD:               10,
		GeoMediumSpendUSD:            50,
		GeoHighSpendUSD:              100,
		GeoHighConfidenceImpressions: 10000,
		GeoSavingsRatio:              0.5,
		GeoHighWasteMinQueries:       100000,
		GeoHighWasteRate:             0.80,
		GeoExtremeWasteRate:          0.95,
		GeoCoverageMinQueries:        50000,
		GeoCoverageMinCreatives:      3,
		GeoGoodCTRRatio:              0.8,
		GeoExpandCTRRatio:            1.5,
		GeoExpiryDays:                7,
		GeoCoverageExpiryDays:        14,

		FraudMinImpressions:        1000,
		FraudHighCTR:               0.10,
		FraudCriticalSpendUSD:      100,
		FraudZeroClickSpendUSD:     50,
		FraudZeroClickHighSpendUSD: 100,
		FraudLowCTRMinImpressions:  50000,
		FraudLowCTRMinSpendUSD:     20,
		FraudLowCTR:                0.00001,
		FraudMinViolationDays:      2,
		FraudMediumViolationDays:   3,
		FraudHighViolationDays:     5,
		FraudAlertExpiryDays:       1,
		FraudBlockExpiryDays:       3,

		CreativeZeroEngagementImpressions: 5000,
		CreativeZeroEngagementMinDays:     5,
		CreativeHighConfidenceDays:        7,
		CreativeMediumSpendUSD:            10,
		CreativeHighSpendUSD:              100,
		CreativeLowCTRRatio:               0.3,
		CreativeLowCTRMinImpressions:      1000,
		CreativeLowCTRMinSpendUSD:         10,
		CreativeLowCTRHighSpendUSD:        50,
		CreativeHighConfidenceImpressions: 10000,
		CreativeBrokenVideoMinQueries:     10000,
		CreativeMinVideoStarts:            1000,
		CreativeMinCompletionRate:         0.10,
		CreativeLowWinRateMinQueries:      50000,
		CreativeLowWinRate:                0.01,
		CreativeUrgentExpiryDays:          1,
		CreativeExpiryDays:                3,
		CreativeReviewExpiryDays:          7,

		ConfigMinQueries:         10000,
		ConfigHighWasteRate:      0.80,
		ConfigCriticalWasteRate:  0.90,
		ConfigFormatMaxWinRate:   0.05,
		ConfigFormatMinCreatives: 3,
		ConfigDeviceMaxWinRate:   0.10,
		ConfigDeviceMaxCTR:       0.001,
		ConfigDeviceMinSpendUSD:  10,
		ConfigNotApprovedPct:     10,
		ConfigDisapprovedPct:     5,
		ConfigFloorPct:           15,
		ConfigExpiryDays:         7,
		ConfigFormatExpiryDays:   14,

		BundleConfigLimit:           10,
		BundleMaxSizes:              20,
		BundleMaxGeos:               20,
		BundleGoodGeoMinImpressions: 100,

		GateMinScore:           0.3,
		GateTrafficWeight:      0.4,
		GateFilteredBidsWeight: 0.3,
		GateCreativesWeight:    0.3,
	}
}

// setThresholdDefaults registra cada limiar no viper para permitir sobrescrever por variável de ambiente
func setThresholdDefaults() {
	defaults := map[string]any{}
	if err := mapstructure.Decode(DefaultThresholds(), &defaults); err != nil {
		panic(fmt.Sprintf("limiares padrão inválidos: %v", err))
	}

	for key, value := range defaults {
		viper.SetDefault(strings.ToUpper(key), value)
	}
}

var validate = validator.New()

// Validate verifica faixas e relações entre os limiares
func (t Thresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("limiares inválidos: %w", err)
	}

	weights := t.GateTrafficWeight + t.GateFilteredBidsWeight + t.GateCreativesWeight
	if weights <= 0 {
		return fmt.Errorf("limiares inválidos: soma dos pesos de qualidade deve ser positiva")
	}

	return nil
}

// LoadThresholdsFile aplica um arquivo YAML sobre base. Chaves ausentes mantêm o valor de base.
func LoadThresholdsFile(path string, base Thresholds) (Thresholds, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("erro ao ler arquivo de limiares %s: %w", path, err)
	}

	thresholds := base
	if err := yaml.Unmarshal(content, &thresholds); err != nil {
		return Thresholds{}, fmt.Errorf("erro ao interpretar arquivo de limiares %s: %w", path, err)
	}

	if err := thresholds.Validate(); err != nil {
		return Thresholds{}, err
	}

	return thresholds, nil
}
