package estimator

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed pricing.yaml
var defaultPricing []byte

// Rate is the price and volume contribution of one unit of a category.
type Rate struct {
	UnitPrice  float64 `yaml:"unitPrice"`
	UnitVolume float64 `yaml:"unitVolume"`
}

// PricingTable prices a detected inventory.
type PricingTable struct {
	BasePrice  float64         `yaml:"basePrice"`
	Categories map[string]Rate `yaml:"categories"`
	Default    Rate            `yaml:"default"`
}

// LoadPricing reads the table at path, or the built-in table when path is empty.
func LoadPricing(path string) (*PricingTable, error) {
	data := defaultPricing
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pricing table: %w", err)
		}
		data = b
	}
	return parsePricing(data)
}

// DefaultPricing returns the built-in table.
func DefaultPricing() *PricingTable {
	t, err := parsePricing(defaultPricing)
	if err != nil {
		panic(err)
	}
	return t
}

func parsePricing(data []byte) (*PricingTable, error) {
	var t PricingTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse pricing table: %w", err)
	}
	if t.BasePrice < 0 {
		return nil, fmt.Errorf("pricing table: negative base price")
	}
	normalized := make(map[string]Rate, len(t.Categories))
	for name, r := range t.Categories {
		if r.UnitPrice < 0 || r.UnitVolume < 0 {
			return nil, fmt.Errorf("pricing table: negative rate for %q", name)
		}
		normalized[strings.ToLower(strings.TrimSpace(name))] = r
	}
	t.Categories = normalized
	return &t, nil
}

// RateFor looks up a model category, falling back to the default rate.
func (t *PricingTable) RateFor(category string) Rate {
	if r, ok := t.Categories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return r
	}
	return t.Default
}
