// Package pricing turns matched route sections into an itemized toll charge.
package pricing

import (
	"context"
	"fmt"

	"github.com/nstankic/tollcalc/server/internal/lib/routing"
	"github.com/nstankic/tollcalc/server/internal/lib/tollmatrix"
)

// ChargeItem is the priced record of one traversed section. NoPriceDefined
// marks pairs the matrix has no toll for; such items contribute 0 to the
// total but stay in the breakdown for diagnostics.
type ChargeItem struct {
	Corridor       string  `json:"corridor"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	Price          float64 `json:"price"`
	NoPriceDefined bool    `json:"no_price_defined,omitempty"`
}

// ChargeResult is the total toll for a route plus its itemized breakdown,
// in section order
type ChargeResult struct {
	Total float64      `json:"total"`
	Items []ChargeItem `json:"items"`
}

// Engine prices matched sections against the toll matrix store
type Engine struct {
	store *tollmatrix.Store
}

// NewEngine creates a pricing engine over the given matrix store
func NewEngine(store *tollmatrix.Store) *Engine {
	return &Engine{store: store}
}

// PriceSections computes the charge for each section and the total, in input
// order. A section without a highway section id prices as 0 with no matrix
// lookup. A pair the matrix defines no price for contributes 0 but is kept
// in Items with its marker. Any store failure (unknown matrix, unreachable
// source) aborts the whole computation; partial totals are never returned.
func (e *Engine) PriceSections(ctx context.Context, sections []routing.Section) (ChargeResult, error) {
	result := ChargeResult{Items: make([]ChargeItem, 0, len(sections))}

	for _, sec := range sections {
		item := ChargeItem{
			Corridor: sec.HighwaySection,
			From:     sec.Enter.Name,
			To:       sec.Exit.Name,
		}

		if sec.HighwaySection != "" {
			price, ok, err := e.store.Price(ctx, sec.HighwaySection, sec.Enter.Name, sec.Exit.Name)
			if err != nil {
				return ChargeResult{}, fmt.Errorf("failed to price section %s (%s -> %s): %w",
					sec.HighwaySection, sec.Enter.Name, sec.Exit.Name, err)
			}
			if ok {
				item.Price = price
			} else {
				item.NoPriceDefined = true
			}
		}

		result.Items = append(result.Items, item)
		result.Total += item.Price
	}

	return result, nil
}
