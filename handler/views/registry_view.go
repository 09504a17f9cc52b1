package views

import (
	"p2plend/pkg/registry"

	"github.com/shopspring/decimal"
)

// RegistryEntry ranked account of a registry
type RegistryEntry struct {
	Rank     int             `json:"rank"`
	Account  string          `json:"account"`
	Value    decimal.Decimal `json:"value"`
	Buffered bool            `json:"buffered"`
}

// RegistryView entries in rank order, buffered ones carry rank 0
func RegistryView(entries []registry.Entry) []RegistryEntry {
	items := make([]RegistryEntry, len(entries))
	rank := 0
	for idx, e := range entries {
		item := RegistryEntry{
			Account:  e.Account.Hex(),
			Value:    e.Value,
			Buffered: e.Buffered,
		}

		if !e.Buffered {
			rank++
			item.Rank = rank
		}

		items[idx] = item
	}

	return items
}
