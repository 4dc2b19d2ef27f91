package sources

import (
	"github.com/merchantpulse/merchantpulse-backend/pkg/config"
)

// endpointPaths maps source IDs to their path under the configured base URL.
var endpointPaths = map[string]string{
	IDSummary:        "metrics/summary",
	IDSales:          "metrics/sales",
	IDTopProducts:    "metrics/top-products",
	IDTransactions:   "metrics/transactions",
	IDNetProfit:      "metrics/net-profit",
	IDConversionRate: "metrics/conversion-rate",
	IDPreferences:    "metrics/customer-preferences",
	IDInventory:      "metrics/inventory",
	IDCashFlow:       "metrics/cash-flow",
}

var registryOrder = []string{
	IDSummary,
	IDSales,
	IDTopProducts,
	IDTransactions,
	IDNetProfit,
	IDConversionRate,
	IDPreferences,
	IDInventory,
	IDCashFlow,
}

// NewRegistry builds the full set of dashboard sources. Which IDs count
// as critical comes from configuration.
func NewRegistry(cfg config.SourcesConfig) []Source {
	registry := make([]Source, 0, len(registryOrder))
	for _, id := range registryOrder {
		registry = append(registry, NewHTTPSource(id, endpointPaths[id], cfg.IsCritical(id), cfg))
	}
	return registry
}
