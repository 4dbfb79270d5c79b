// Package finance implements the data side of the assistant: filter
// sanitization, the transaction query executor, recurring payment detection,
// and aggregate helpers.
package finance

import (
	"encoding/json"
	"strconv"
	"strings"
)

// allowedFilters is the fixed allow-list of canonical filter keys. Keys
// outside this set never reach the store, no matter what an agent emits.
var allowedFilters = map[string]bool{
	"start_date":                 true,
	"end_date":                   true,
	"payment_method":             true,
	"min_amount":                 true,
	"max_amount":                 true,
	"country":                    true,
	"direction":                  true,
	"produkt":                    true,
	"account_name":               true,
	"customer_name":              true,
	"buchungs_art_name":          true,
	"trx_type_name":              true,
	"text_short_creditor":        true,
	"text_creditor":              true,
	"text_debitor":               true,
	"point_of_sale_and_location": true,
	"acquirer_country_name":      true,
	"cred_iban":                  true,
	"cred_addr_text":             true,
	"cred_ref_nr":                true,
	"cred_info":                  true,
	"category":                   true,
}

// filterSynonyms rewrites vernacular keys the agents like to invent onto
// canonical column keys before allow-listing.
var filterSynonyms = map[string]string{
	"transaktionstyp":  "trx_type_name",
	"transactionstype": "trx_type_name",
	"transaction_type": "trx_type_name",
	"konto":            "account_name",
	"konto_name":       "account_name",
}

// SanitizeFilters reduces an arbitrary string-keyed map to a typed,
// allow-listed filter set. Invalid values are dropped, never reported:
// the caller must be able to pass agent output through unchecked.
func SanitizeFilters(raw map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		if canonical, ok := filterSynonyms[key]; ok {
			key = canonical
		}
		normalized[key] = value
	}

	sanitized := make(map[string]interface{})
	for key, value := range normalized {
		if !allowedFilters[key] {
			continue
		}
		if value == nil || value == "" {
			continue
		}
		switch key {
		case "start_date", "end_date":
			if s, ok := value.(string); ok {
				sanitized[key] = s
			}
		case "min_amount", "max_amount":
			if f, ok := toFloat(value); ok {
				sanitized[key] = f
			}
		case "direction":
			if n, ok := toInt(value); ok {
				sanitized[key] = n
			}
		default:
			if s, ok := value.(string); ok {
				sanitized[key] = s
			}
		}
	}
	return sanitized
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
