// Package dates turns locale-formatted listing dates into DD/MM/YYYY.
package dates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
)

// Layout is the canonical output form, expressed as a Go time layout.
const Layout = "02/01/2006"

var spanishMonths = map[string]int{
	"enero":      1,
	"febrero":    2,
	"marzo":      3,
	"abril":      4,
	"mayo":       5,
	"junio":      6,
	"julio":      7,
	"agosto":     8,
	"septiembre": 9,
	"setiembre":  9,
	"octubre":    10,
	"noviembre":  11,
	"diciembre":  12,
}

// Normalizer converts "<day> <month name>, <year>" phrases to DD/MM/YYYY.
type Normalizer struct {
	log logger.Logger
}

// NewNormalizer returns a Normalizer that reports unparseable input to log.
func NewNormalizer(log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Normalizer{log: log}
}

// Normalize returns DD/MM/YYYY when raw splits into exactly day, month name and
// year. Otherwise raw is returned unchanged.
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	out, err := parse(raw)
	if err != nil {
		n.log.WarnObj("could not normalise date", "date_parse_failed", map[string]any{
			"raw":   raw,
			"error": err.Error(),
		})
		return raw
	}
	return out
}

func parse(raw string) (string, error) {
	parts := strings.Fields(strings.ReplaceAll(strings.ToLower(raw), ",", " "))
	if len(parts) != 3 {
		return "", fmt.Errorf("expected 3 tokens, got %d", len(parts))
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("day %q: %w", parts[0], err)
	}
	if day < 1 || day > 31 {
		return "", fmt.Errorf("day %d out of range", day)
	}

	month, ok := spanishMonths[parts[1]]
	if !ok {
		return "", fmt.Errorf("unknown month %q", parts[1])
	}

	year := parts[2]
	if _, err := strconv.Atoi(year); err != nil {
		return "", fmt.Errorf("year %q: %w", year, err)
	}

	return fmt.Sprintf("%02d/%02d/%s", day, month, year), nil
}

// MonthNumber looks up a Spanish month name; ok is false for unknown names.
func MonthNumber(name string) (int, bool) {
	m, ok := spanishMonths[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}
