package plans

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier ids of the default catalog.
const (
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// Catalog is the immutable plan table. It is built once at start-up and
// handed to whoever needs it; there is no way to change it at runtime.
type Catalog struct {
	byID  map[string]Plan
	order []string
}

// NewCatalog validates the tiers and freezes them into a Catalog.
func NewCatalog(tiers []Plan) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Plan, len(tiers))}
	for _, p := range tiers {
		id := strings.ToLower(strings.TrimSpace(p.ID))
		if id == "" {
			return nil, fmt.Errorf("plans: tier without id")
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("plans: duplicate tier %q", id)
		}
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("plans: tier %q must have a positive price", id)
		}
		p.ID = id
		if p.Currency == "" {
			p.Currency = Currency
		}
		p.Features = append([]string(nil), p.Features...)
		c.byID[id] = p
		c.order = append(c.order, id)
	}

	sort.SliceStable(c.order, func(i, j int) bool {
		return c.byID[c.order[i]].Price.LessThan(c.byID[c.order[j]].Price)
	})
	return c, nil
}

// Lookup resolves a plan id. The returned Plan is a copy.
func (c *Catalog) Lookup(id string) (Plan, bool) {
	p, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Plan{}, false
	}
	p.Features = append([]string(nil), p.Features...)
	return p, true
}

// All returns every tier ordered by price.
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		p, _ := c.Lookup(id)
		out = append(out, p)
	}
	return out
}

// DefaultTiers is the reference deployment's catalog.
func DefaultTiers() []Plan {
	return []Plan{
		{
			ID:       TierStarter,
			Name:     "Starter",
			Price:    decimal.RequireFromString("9.99"),
			Features: []string{"Unlimited tasks", "Recurring tasks", "Slack bot"},
		},
		{
			ID:       TierProfessional,
			Name:     "Professional",
			Price:    decimal.RequireFromString("19.99"),
			Features: []string{"Everything in Starter", "Unlimited projects", "Scheduled notifications"},
		},
		{
			ID:       TierEnterprise,
			Name:     "Enterprise",
			Price:    decimal.RequireFromString("49.99"),
			Features: []string{"Everything in Professional", "Admin reporting", "Priority support"},
		},
	}
}
