// Package logo enriches transactions with counterparty logos via the
// logo.dev search API. Enrichment is a slow side job; it runs in batches
// on a cron schedule (see internal/trigger), never inline with a chat
// request.
package logo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vibebros/sgkb-clanky/internal/store"
)

const searchTimeout = 10 * time.Second

// Client queries logo.dev for company logos.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a logo.dev client. baseURL is overridable for tests;
// empty means the production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.logo.dev"
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: searchTimeout},
	}
}

type searchResult struct {
	LogoURL string `json:"logo_url"`
}

// Search looks up a logo for the given company name. When the full query
// finds nothing it retries with progressively shortened queries (dropping
// trailing tokens), because bank counterparty texts carry address tails
// that confuse the search.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	logoURL, err := c.search(ctx, query)
	if err != nil {
		return "", err
	}
	if logoURL != "" {
		return logoURL, nil
	}

	parts := strings.Fields(query)
	for len(parts) > 1 {
		parts = parts[:len(parts)-1]
		shorter := strings.Join(parts, " ")
		logoURL, err = c.search(ctx, shorter)
		if err != nil {
			return "", err
		}
		if logoURL != "" {
			log.Debug().Str("query", query).Str("matched", shorter).Msg("logo_found_for_shortened_query")
			return logoURL, nil
		}
	}
	return "", nil
}

func (c *Client) search(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+url.Values{"q": {query}}.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating logo search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("logo search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", nil // treat upstream refusals as "not found"
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("decoding logo search response: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].LogoURL, nil
}

// Enricher batches logo lookups over transactions that don't have one yet.
type Enricher struct {
	client *Client
	store  *store.Store
	batch  int
}

// NewEnricher creates an enricher processing up to batch transactions per run.
func NewEnricher(client *Client, s *store.Store, batch int) *Enricher {
	if batch <= 0 {
		batch = 50
	}
	return &Enricher{client: client, store: s, batch: batch}
}

// RunOnce enriches one batch. Lookup misses are not errors; only transport
// failures abort the batch. Returns how many transactions were updated.
func (e *Enricher) RunOnce(ctx context.Context) (int, error) {
	transactions, err := e.store.MissingLogo(ctx, e.batch)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range transactions {
		t := &transactions[i]
		name := t.Counterparty()
		if name == "" {
			continue
		}
		logoURL, err := e.client.Search(ctx, name)
		if err != nil {
			return updated, fmt.Errorf("searching logo for %q: %w", name, err)
		}
		if logoURL == "" {
			continue
		}
		if err := e.store.SetLogoURL(ctx, t.ID, logoURL); err != nil {
			return updated, err
		}
		updated++
	}

	log.Info().Int("scanned", len(transactions)).Int("updated", updated).Msg("logo_enrichment_batch_done")
	return updated, nil
}
