package detecting

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vfg2006/traffic-advisor-api/internal/config"
	"github.com/vfg2006/traffic-advisor-api/internal/domain"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

// BundleRecommender monta configurações de pretargeting a partir do inventário
// aprovado e da classificação dos países. A escolha é gulosa: um bundle por
// formato, do mais abastecido para o menos, e um bundle geral se sobrar vaga.
type BundleRecommender struct {
	provider   FactProvider
	thresholds config.Thresholds
}

func NewBundleRecommender(provider FactProvider, thresholds config.Thresholds) *BundleRecommender {
	return &BundleRecommender{
		provider:   provider,
		thresholds: thresholds,
	}
}

func (b *BundleRecommender) Name() string {
	return "pretargeting_bundle"
}

type formatInventory struct {
	format    string
	sizes     map[string]struct{}
	creatives int
}

type geoSplit struct {
	included     []string
	excluded     []string
	reductionPct float64
}

// Plan gera até limit bundles; limit <= 0 usa o limite configurado
func (b *BundleRecommender) Plan(ctx context.Context, scope Scope, limit int) (*domain.PretargetingPlan, error) {
	if limit <= 0 {
		limit = b.thresholds.BundleConfigLimit
	}

	inventory, err := b.provider.GetInventory(ctx, scope.Filters())
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar inventário de criativos: %w", err)
	}
	if len(inventory) == 0 {
		return nil, ErrNoData
	}

	geoRows, totals, err := loadGeoRows(ctx, b.provider, scope)
	if err != nil {
		return nil, err
	}

	formatRows, err := b.provider.GetAggregate(ctx, domain.DimensionFormat, scope.WindowDays, scope.Filters())
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tráfego por formato: %w", err)
	}
	trafficByFormat := make(map[string]domain.Traffic, len(formatRows))
	for _, row := range formatRows {
		trafficByFormat[strings.ToUpper(row.DimensionKey)] = row.Traffic
	}

	geos := b.splitGeos(geoRows, totals.CTR())
	formats := groupInventory(inventory)

	plan := &domain.PretargetingPlan{
		AccountID:                       scope.AccountID,
		ConfigLimit:                     limit,
		Bundles:                         make([]domain.Bundle, 0, limit),
		TotalEstimatedWasteReductionPct: geos.reductionPct,
	}

	for _, inv := range formats {
		if len(plan.Bundles) >= limit {
			break
		}

		traffic := trafficByFormat[inv.format]
		plan.Bundles = append(plan.Bundles, domain.Bundle{
			Name:                 fmt.Sprintf("%s - principal", inv.format),
			Formats:              []string{inv.format},
			IncludedSizes:        b.capSizes(inv.sizes),
			IncludedGeos:         geos.included,
			ExcludedGeos:         geos.excluded,
			CreativeCount:        inv.creatives,
			EstimatedImpressions: traffic.Impressions,
			EstimatedSpendUSD:    traffic.SpendUSD(),
			WasteReductionPct:    geos.reductionPct,
			Rationale: fmt.Sprintf(
				"%d criativo(s) %s aprovados em %d tamanho(s)",
				inv.creatives, inv.format, len(inv.sizes),
			),
		})
	}

	if len(plan.Bundles) < limit && len(formats) > 1 {
		plan.Bundles = append(plan.Bundles, b.catchAll(formats, trafficByFormat, geos))
	}

	plan.Summary = fmt.Sprintf(
		"%d configuração(ões) sugerida(s) de %d disponíveis; %d país(es) incluídos e %d excluídos",
		len(plan.Bundles), limit, len(geos.included), len(geos.excluded),
	)

	log.ForAccount(ctx, scope.AccountID).Debugf("Plano de pretargeting com %d bundles", len(plan.Bundles))

	return plan, nil
}

func (b *BundleRecommender) catchAll(formats []formatInventory, traffic map[string]domain.Traffic, geos geoSplit) domain.Bundle {
	sizes := make(map[string]struct{})
	names := make([]string, 0, len(formats))
	creatives := 0
	impressions := int64(0)
	spend := decimal.Zero

	for _, inv := range formats {
		names = append(names, inv.format)
		creatives += inv.creatives
		for size := range inv.sizes {
			sizes[size] = struct{}{}
		}

		t := traffic[inv.format]
		impressions += t.Impressions
		spend = spend.Add(decimal.NewFromInt(t.SpendMicros))
	}

	return domain.Bundle{
		Name:                 "Todos os formatos",
		Formats:              names,
		IncludedSizes:        b.capSizes(sizes),
		IncludedGeos:         geos.included,
		ExcludedGeos:         geos.excluded,
		CreativeCount:        creatives,
		EstimatedImpressions: impressions,
		EstimatedSpendUSD:    spend.Shift(-6).Round(2).InexactFloat64(),
		WasteReductionPct:    geos.reductionPct,
		Rationale:            fmt.Sprintf("Cobre todos os %d formatos com %d criativo(s)", len(names), creatives),
	}
}

// splitGeos separa países bons (OK/EXPAND) e ruins (EXCLUDE). A redução de
// desperdício conta países: ruins sobre bons e ruins. Só os incluídos têm
// teto; a lista de exclusão sai completa.
func (b *BundleRecommender) splitGeos(rows []domain.FactRow, avgCTR float64) geoSplit {
	included := make(map[string]struct{})
	excluded := make(map[string]struct{})
	var good, bad int

	for _, row := range rows {
		code := CountryCode(row.DimensionKey)
		switch ClassifyGeo(row, avgCTR, b.thresholds) {
		case GeoOK, GeoExpand:
			included[code] = struct{}{}
			good++
		case GeoExclude:
			excluded[code] = struct{}{}
			bad++
		}
	}

	return geoSplit{
		included:     sortedCapped(included, b.thresholds.BundleMaxGeos),
		excluded:     sortedCapped(excluded, 0),
		reductionPct: utils.Percent(float64(bad), float64(good+bad)),
	}
}

func (b *BundleRecommender) capSizes(sizes map[string]struct{}) []string {
	return sortedCapped(sizes, b.thresholds.BundleMaxSizes)
}

// groupInventory agrupa por formato, do maior número de criativos para o menor
func groupInventory(rows []domain.InventoryRow) []formatInventory {
	byFormat := make(map[string]*formatInventory)
	for _, row := range rows {
		format := strings.ToUpper(row.Format)
		inv, ok := byFormat[format]
		if !ok {
			inv = &formatInventory{format: format, sizes: make(map[string]struct{})}
			byFormat[format] = inv
		}
		inv.creatives += row.Count
		if row.Width > 0 && row.Height > 0 {
			inv.sizes[domain.SizeKey(row.Width, row.Height)] = struct{}{}
		}
	}

	formats := make([]formatInventory, 0, len(byFormat))
	for _, inv := range byFormat {
		formats = append(formats, *inv)
	}
	sort.Slice(formats, func(i, j int) bool {
		if formats[i].creatives != formats[j].creatives {
			return formats[i].creatives > formats[j].creatives
		}
		return formats[i].format < formats[j].format
	})

	return formats
}

func sortedCapped(set map[string]struct{}, limit int) []string {
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)

	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values
}
