package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Vibebros/sgkb-clanky/internal/finance"
)

// DBSearcher exposes the transaction query executor to the advisor agent.
// Filters arrive as a JSON string because models handle nested objects in
// tool arguments unreliably; a bad filters_json yields an error payload
// with an empty result, not a failed tool call.
type DBSearcher struct {
	executor *finance.Executor
}

// NewDBSearcher creates the db_searcher tool over the given executor.
func NewDBSearcher(executor *finance.Executor) *DBSearcher {
	return &DBSearcher{executor: executor}
}

func (t *DBSearcher) Name() string { return "db_searcher" }

func (t *DBSearcher) Description() string {
	return "Durchsucht die Banktransaktionen. filters_json ist ein JSON-Objekt mit einfachen Filtern " +
		"(z.B. start_date, end_date, min_amount, text_creditor); limit/offset paginieren das Ergebnis."
}

func (t *DBSearcher) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filters_json": map[string]interface{}{
				"type":        "string",
				"description": "JSON object of transaction filters",
			},
			"limit":  map[string]interface{}{"type": "integer", "default": 20},
			"offset": map[string]interface{}{"type": "integer", "default": 0},
			"fields": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	}
}

type dbSearcherArgs struct {
	FiltersJSON string   `json:"filters_json"`
	Limit       int      `json:"limit"`
	Offset      int      `json:"offset"`
	Fields      []string `json:"fields"`
}

type dbSearcherError struct {
	Error  string                   `json:"error"`
	Total  int                      `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
	Rows   []map[string]interface{} `json:"rows"`
}

// Execute parses arguments, sanitizes the filters, and runs the query.
func (t *DBSearcher) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	args := dbSearcherArgs{Limit: 20}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("parsing db_searcher arguments: %w", err)
		}
	}

	rawFilters := map[string]interface{}{}
	if args.FiltersJSON != "" {
		if err := json.Unmarshal([]byte(args.FiltersJSON), &rawFilters); err != nil {
			return json.Marshal(dbSearcherError{
				Error:  "filters_json must be a valid JSON object",
				Limit:  args.Limit,
				Offset: args.Offset,
				Rows:   []map[string]interface{}{},
			})
		}
	}

	result, err := t.executor.Execute(ctx, finance.SanitizeFilters(rawFilters), args.Limit, args.Offset, args.Fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}
