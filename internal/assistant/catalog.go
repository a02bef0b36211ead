package assistant

import (
	"encoding/json"

	"github.com/edvin/saaslens/internal/llm"
)

const (
	ToolCountCustomers        = "countCustomers"
	ToolGetProductStats       = "getProductStats"
	ToolGetCustomerSample     = "getCustomerSample"
	ToolCalculateChurnRate    = "calculateChurnRate"
	ToolGetRevenueMetrics     = "getRevenueMetrics"
	ToolGetSubscriptionGrowth = "getSubscriptionGrowth"
	ToolFindCustomerByEmail   = "findCustomerByEmail"
	ToolAnalyzePlanChanges    = "analyzePlanChanges"
)

func function(name, description, parameters string) llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionSchema{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(parameters),
		},
	}
}

// Definitions is the tool catalog advertised to the language model.
func Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		function(ToolCountCustomers,
			"Count the total number of customers in the database",
			`{"type":"object","properties":{"filter":{"type":"string","description":"Optional filter conditions (e.g., 'with active subscriptions')","enum":["all","with active subscriptions"]}},"required":[]}`),
		function(ToolGetProductStats,
			"Get statistics about all product tiers",
			`{"type":"object","properties":{},"required":[]}`),
		function(ToolGetCustomerSample,
			"Get a sample of customers with their subscription details",
			`{"type":"object","properties":{"count":{"type":"integer","description":"Number of customers to retrieve (default: 10, max: 20)"},"productFilter":{"type":"string","description":"Filter by product name (e.g., 'Free', 'Plus', 'Pro')"},"statusFilter":{"type":"string","description":"Filter by subscription status (e.g., 'active', 'canceled')"}},"required":[]}`),
		function(ToolCalculateChurnRate,
			"Calculate churn rate for the entire customer base or by product",
			`{"type":"object","properties":{"product":{"type":"string","description":"Product name to filter by (optional)"},"timePeriod":{"type":"string","description":"Time period to analyze (e.g., 'all time', 'last month', 'last 3 months')","enum":["all time","last month","last 3 months","last 6 months","last year"]}},"required":[]}`),
		function(ToolGetRevenueMetrics,
			"Get revenue metrics for the business",
			`{"type":"object","properties":{"metric":{"type":"string","description":"Specific metric to retrieve","enum":["mrr","arr","ltv","all"]},"byProduct":{"type":"boolean","description":"Whether to break down by product"}},"required":[]}`),
		function(ToolGetSubscriptionGrowth,
			"Get subscription growth over time",
			`{"type":"object","properties":{"timeGranularity":{"type":"string","description":"Time granularity for the data","enum":["daily","weekly","monthly"]},"timePeriod":{"type":"string","description":"Time period to analyze","enum":["last month","last 3 months","last 6 months","last year","all time"]}},"required":[]}`),
		function(ToolFindCustomerByEmail,
			"Find a specific customer by email",
			`{"type":"object","properties":{"email":{"type":"string","description":"Email address to search for (partial match allowed)"}},"required":["email"]}`),
		function(ToolAnalyzePlanChanges,
			"Analyze customers upgrading or downgrading between plans",
			`{"type":"object","properties":{"changeType":{"type":"string","description":"Type of plan change to analyze","enum":["upgrades","downgrades","both"]}},"required":[]}`),
	}
}

// NewCatalog builds the registry of query tools backed by t.
func NewCatalog(t *Tools) (*Registry, error) {
	return NewRegistry(Definitions(), map[string]HandlerFunc{
		ToolCountCustomers:        typed(t.countCustomers),
		ToolGetProductStats:       typed(t.getProductStats),
		ToolGetCustomerSample:     typed(t.getCustomerSample),
		ToolCalculateChurnRate:    typed(t.calculateChurnRate),
		ToolGetRevenueMetrics:     typed(t.getRevenueMetrics),
		ToolGetSubscriptionGrowth: typed(t.getSubscriptionGrowth),
		ToolFindCustomerByEmail:   typed(t.findCustomerByEmail),
		ToolAnalyzePlanChanges:    typed(t.analyzePlanChanges),
	})
}
