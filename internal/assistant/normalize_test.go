package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute_CanonicalRoutesPassThrough(t *testing.T) {
	for _, route := range []string{RouteDBSearch, RouteFinancialAdvisor, RouteClarify, RouteReject} {
		decision := NormalizeRoute(&RouteDecision{Route: route, Limit: 20})
		assert.Equal(t, route, decision.Route)
	}
}

func TestNormalizeRoute_CaseAndWhitespace(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{Route: "  DB_Search ", Limit: 20})
	assert.Equal(t, RouteDBSearch, decision.Route)
}

func TestNormalizeRoute_SearchLikeAliases(t *testing.T) {
	for _, alias := range []string{"transaction_search", "search", "fetch", "db", "data", "lookup"} {
		decision := NormalizeRoute(&RouteDecision{Route: alias, Limit: 20})
		assert.Equal(t, RouteDBSearch, decision.Route, "alias %q", alias)
	}
}

func TestNormalizeRoute_UnknownRouteWithFiltersBecomesSearch(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{
		Route:   "gibberish",
		Filters: map[string]interface{}{"category": "Lebensmittel"},
		Limit:   20,
	})
	assert.Equal(t, RouteDBSearch, decision.Route)
	assert.Equal(t, "Lebensmittel", decision.Filters["category"])
}

func TestNormalizeRoute_AdvisorAndClarifyAliases(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{Route: "recommendation", Limit: 20})
	assert.Equal(t, RouteFinancialAdvisor, decision.Route)

	decision = NormalizeRoute(&RouteDecision{Route: "greeting", Limit: 20})
	assert.Equal(t, RouteClarify, decision.Route)
}

func TestNormalizeRoute_UnknownRouteDegradesToClarify(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{Route: "???", Limit: 20})
	assert.Equal(t, RouteClarify, decision.Route)
	assert.NotEmpty(t, decision.ClarificationQuestion)
	assert.NotEmpty(t, decision.Reason)
}

func TestNormalizeRoute_PaginationKeyPromotion(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{
		Route:   RouteDBSearch,
		Filters: map[string]interface{}{"anzahl": float64(5), "category": "Transport"},
		Limit:   20,
	})
	assert.Equal(t, 5, decision.Limit)
	assert.NotContains(t, decision.Filters, "anzahl")
	assert.Equal(t, "Transport", decision.Filters["category"])
}

func TestNormalizeRoute_NonNumericPaginationKeyDropped(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{
		Route:   RouteDBSearch,
		Filters: map[string]interface{}{"limit": "alle"},
		Limit:   20,
	})
	assert.Equal(t, 20, decision.Limit)
	assert.NotContains(t, decision.Filters, "limit")
}

func TestNormalizeRoute_ClampsPagination(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{Route: RouteDBSearch, Limit: 0, Offset: -9})
	assert.Equal(t, 1, decision.Limit)
	assert.Equal(t, 0, decision.Offset)

	decision = NormalizeRoute(&RouteDecision{Route: RouteDBSearch, Limit: 9999, Offset: 4})
	assert.Equal(t, 100, decision.Limit)
	assert.Equal(t, 4, decision.Offset)
}

func TestNormalizeRoute_ClearsFiltersOnNonSearchRoutes(t *testing.T) {
	decision := NormalizeRoute(&RouteDecision{
		Route:   RouteReject,
		Filters: map[string]interface{}{"category": "stale"},
		Limit:   20,
	})
	assert.Empty(t, decision.Filters)
	assert.NotNil(t, decision.Filters)
}

func TestNormalizeRoute_Idempotent(t *testing.T) {
	first := NormalizeRoute(&RouteDecision{
		Route:   "lookup",
		Filters: map[string]interface{}{"top": float64(7), "konto": "Privat"},
		Limit:   0,
		Offset:  -1,
	})

	copied := *first
	copied.Filters = make(map[string]interface{}, len(first.Filters))
	for k, v := range first.Filters {
		copied.Filters[k] = v
	}

	second := NormalizeRoute(&copied)
	assert.Equal(t, first.Route, second.Route)
	assert.Equal(t, first.Limit, second.Limit)
	assert.Equal(t, first.Offset, second.Offset)
	assert.Equal(t, first.Filters, second.Filters)
	assert.Equal(t, first.Reason, second.Reason)
}
