package assistant

import (
	"strings"
)

// Default texts used when the orchestrator agent leaves fields blank.
const (
	fallbackClarification = "Ups, magst du mir ein bisschen genauer erklären, worum es geht?"
	defaultReason         = "Ich habe den nächsten Schritt freundlich für dich vorbereitet."
)

// Route labels agents emit instead of the canonical four, mapped by intent.
var (
	searchLikeRoutes  = map[string]bool{"transaction_search": true, "search": true, "fetch": true, "db": true, "data": true, "lookup": true}
	advisorLikeRoutes = map[string]bool{"advisor": true, "analysis": true, "insight": true, "recommendation": true}
	clarifyLikeRoutes = map[string]bool{"clarification_required": true, "question": true, "follow_up": true, "greeting": true, "smalltalk": true}
)

// paginationFilterKeys are filter keys agents use to smuggle a page size.
// Checked in order; the first numeric hit wins.
var paginationFilterKeys = []string{"limit", "anzahl", "top", "count"}

// NormalizeRoute makes an untrusted RouteDecision safe to act on. It is a
// total function: whatever the orchestrator agent produced, the result has
// one of the four canonical routes, limit in [1,100], offset >= 0, and
// filters only on the db_search route. Unrecognized routes degrade toward
// asking the user, never toward rejecting them. Normalizing an already
// normalized decision changes nothing.
func NormalizeRoute(decision *RouteDecision) *RouteDecision {
	route := strings.ToLower(strings.TrimSpace(decision.Route))

	switch route {
	case RouteDBSearch, RouteFinancialAdvisor, RouteClarify, RouteReject:
		decision.Route = route
	default:
		switch {
		case searchLikeRoutes[route] || len(decision.Filters) > 0:
			decision.Route = RouteDBSearch
		case advisorLikeRoutes[route]:
			decision.Route = RouteFinancialAdvisor
		case clarifyLikeRoutes[route]:
			decision.Route = RouteClarify
		default:
			fallback := decision.Reason
			if fallback == "" {
				fallback = decision.ClarificationQuestion
			}
			if fallback == "" {
				fallback = fallbackClarification
			}
			decision.Route = RouteClarify
			decision.Reason = fallback
			decision.ClarificationQuestion = fallback
			decision.Filters = map[string]interface{}{}
		}
	}

	// Agents sometimes encode pagination intent as a filter. Promote it into
	// limit so a stray "limit" key never reaches the query executor.
	if decision.Route == RouteDBSearch {
		for _, key := range paginationFilterKeys {
			value, present := decision.Filters[key]
			if !present {
				continue
			}
			if n, ok := asInt(value); ok {
				decision.Limit = n
				delete(decision.Filters, key)
				break
			}
			delete(decision.Filters, key)
		}
	}

	if decision.Limit < 1 {
		decision.Limit = 1
	}
	if decision.Limit > 100 {
		decision.Limit = 100
	}
	if decision.Offset < 0 {
		decision.Offset = 0
	}

	// Non-search routes must never carry stale filter state downstream.
	if decision.Route != RouteDBSearch {
		decision.Filters = map[string]interface{}{}
	}
	if decision.Filters == nil {
		decision.Filters = map[string]interface{}{}
	}

	if decision.Reason == "" {
		decision.Reason = defaultReason
	}
	if decision.Route == RouteClarify && decision.ClarificationQuestion == "" {
		decision.ClarificationQuestion = decision.Reason
	}

	return decision
}
