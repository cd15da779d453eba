package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type IABSize struct {
	Width  int
	Height int
	Name   string
}

func (s IABSize) Key() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Label retorna o formato "300x250 (Medium Rectangle)"
func (s IABSize) Label() string {
	return fmt.Sprintf("%s (%s)", s.Key(), s.Name)
}

var IABSizes = []IABSize{
	{300, 250, "Medium Rectangle"},
	{728, 90, "Leaderboard"},
	{320, 50, "Mobile Banner"},
	{160, 600, "Wide Skyscraper"},
	{300, 600, "Half Page"},
	{970, 250, "Billboard"},
	{320, 100, "Large Mobile Banner"},
	{468, 60, "Banner"},
	{234, 60, "Half Banner"},
	{120, 600, "Skyscraper"},
	{970, 90, "Super Leaderboard"},
	{336, 280, "Large Rectangle"},
	{250, 250, "Square"},
	{200, 200, "Small Square"},
	{180, 150, "Small Rectangle"},
}

type SizeCategory string

const (
	SizeCategoryIAB         SizeCategory = "IAB Standard"
	SizeCategoryVideo       SizeCategory = "Video"
	SizeCategoryAdaptive    SizeCategory = "Adaptive"
	SizeCategoryNonStandard SizeCategory = "Non-Standard"
)

// ParseSize lê "WxH" (aceita "×" e espaços)
func ParseSize(key string) (int, int, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "×", "x"))
	parts := strings.Split(normalized, "x")
	if len(parts) != 2 {
		return 0, 0, false
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width < 0 {
		return 0, 0, false
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height < 0 {
		return 0, 0, false
	}

	return width, height, true
}

func SizeKey(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

func findIAB(width, height int) (IABSize, bool) {
	for _, size := range IABSizes {
		if size.Width == width && size.Height == height {
			return size, true
		}
	}
	return IABSize{}, false
}

// CanonicalSize normaliza dimensões em pixels para um nome de categoria
func CanonicalSize(width, height int) string {
	if width == 0 || height == 0 {
		return "Adaptive/Fluid"
	}
	if width == 1 && height == 1 {
		return "Adaptive/Responsive"
	}
	if iab, ok := findIAB(width, height); ok {
		return iab.Label()
	}

	aspect := float64(width) / float64(height)
	switch {
	case aspect >= 0.5 && aspect <= 0.6:
		return "Video 9:16 (Vertical)"
	case aspect >= 1.7 && aspect <= 1.8:
		return "Video 16:9 (Horizontal)"
	case aspect >= 0.9 && aspect <= 1.1:
		return "Video 1:1 (Square)"
	case aspect >= 0.7 && aspect <= 0.8:
		return "Video 4:5 (Portrait)"
	}

	return fmt.Sprintf("Non-Standard (%dx%d)", width, height)
}

// CategoryOf classifica um tamanho canônico
func CategoryOf(canonical string) SizeCategory {
	switch {
	case strings.HasPrefix(canonical, "Adaptive"):
		return SizeCategoryAdaptive
	case strings.HasPrefix(canonical, "Video"):
		return SizeCategoryVideo
	case strings.HasPrefix(canonical, "Non-Standard"):
		return SizeCategoryNonStandard
	default:
		return SizeCategoryIAB
	}
}

// NearestIAB procura um tamanho IAB dentro da tolerância em cada dimensão,
// antes de qualquer classificação por proporção. Tamanhos IAB exatos e
// adaptativos (0xN, 1x1) não têm vizinho.
func NearestIAB(width, height, tolerancePx int) (IABSize, bool) {
	if width == 0 || height == 0 || (width == 1 && height == 1) {
		return IABSize{}, false
	}
	if _, exact := findIAB(width, height); exact {
		return IABSize{}, false
	}

	best := IABSize{}
	bestDistance := -1
	for _, size := range IABSizes {
		dw := abs(size.Width - width)
		dh := abs(size.Height - height)
		if dw > tolerancePx || dh > tolerancePx {
			continue
		}
		if bestDistance < 0 || dw+dh < bestDistance {
			best = size
			bestDistance = dw + dh
		}
	}

	return best, bestDistance >= 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
