package cost

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelPrice holds USD prices per million tokens for one model.
type ModelPrice struct {
	InputPerMTok  float64 `yaml:"input_per_mtok" json:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" json:"output_per_mtok"`
}

// Pricing maps model names to prices. Unknown models fall back to Default.
type Pricing struct {
	Models  map[string]ModelPrice `yaml:"models"`
	Default ModelPrice            `yaml:"default"`
}

// DefaultPricing returns the built-in pricing table.
func DefaultPricing() Pricing {
	return Pricing{
		Models: map[string]ModelPrice{
			"gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
			"gpt-4o":      {InputPerMTok: 2.50, OutputPerMTok: 10.00},
			"gpt-4.1":     {InputPerMTok: 2.00, OutputPerMTok: 8.00},
		},
		Default: ModelPrice{InputPerMTok: 3.0, OutputPerMTok: 15.0},
	}
}

// LoadPricing reads a pricing table from a YAML file. Models present in the
// file override the built-in table; the built-in default is kept unless the
// file sets one.
func LoadPricing(path string) (Pricing, error) {
	base := DefaultPricing()
	data, err := os.ReadFile(path)
	if err != nil {
		return Pricing{}, fmt.Errorf("read pricing %s: %w", path, err)
	}
	var loaded Pricing
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Pricing{}, fmt.Errorf("parse pricing %s: %w", path, err)
	}
	for name, price := range loaded.Models {
		base.Models[name] = price
	}
	if loaded.Default.InputPerMTok > 0 || loaded.Default.OutputPerMTok > 0 {
		base.Default = loaded.Default
	}
	return base, nil
}

// PriceFor returns the price entry for a model, falling back to Default.
func (p Pricing) PriceFor(model string) ModelPrice {
	if mp, ok := p.Models[model]; ok {
		return mp
	}
	return p.Default
}

// CostOf converts a usage record to a cost record using the model's prices.
func (p Pricing) CostOf(model string, u Usage) Info {
	mp := p.PriceFor(model)
	in := float64(u.InputTokens) / 1_000_000 * mp.InputPerMTok
	out := float64(u.OutputTokens) / 1_000_000 * mp.OutputPerMTok
	return NewInfo(in, out)
}
