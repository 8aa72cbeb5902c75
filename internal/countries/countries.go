// Package countries resolves free-text country names to currency codes.
package countries

import (
	_ "embed"
	"fmt"
	"strings"

	"travel-wallet/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var defaultTable []byte

type table struct {
	Countries []struct {
		Currency models.Currency `yaml:"currency"`
		Names    []string        `yaml:"names"`
	} `yaml:"countries"`
	Currencies map[models.Currency]string `yaml:"currencies"`
}

// Resolver maps country names to currencies.
type Resolver struct {
	byName map[string]models.Currency
	names  map[models.Currency]string
}

// Default returns the Resolver built from the bundled table.
func Default() *Resolver {
	r, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("bundled country table: %v", err))
	}
	return r
}

// Parse builds a Resolver from a YAML table.
func Parse(data []byte) (*Resolver, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding country table: %w", err)
	}

	r := &Resolver{
		byName: map[string]models.Currency{},
		names:  t.Currencies,
	}
	for _, c := range t.Countries {
		if c.Currency == "" {
			return nil, fmt.Errorf("country %v has no currency", c.Names)
		}
		for _, name := range c.Names {
			key := normalize(name)
			if prev, ok := r.byName[key]; ok && prev != c.Currency {
				return nil, fmt.Errorf("country %q maps to both %v and %v", name, prev, c.Currency)
			}
			r.byName[key] = c.Currency
		}
	}
	return r, nil
}

// Resolve returns the currency of the country named by text.
func (r *Resolver) Resolve(text string) (models.Currency, bool) {
	c, ok := r.byName[normalize(text)]
	return c, ok
}

// CurrencyName returns a display name such as "yuan (CNY)".
func (r *Resolver) CurrencyName(c models.Currency) string {
	if name, ok := r.names[c]; ok {
		return fmt.Sprintf("%s (%s)", name, c)
	}
	return fmt.Sprintf("(%s)", c)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
