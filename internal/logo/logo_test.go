package logo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vibebros/sgkb-clanky/internal/store"
)

func logoServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		q := r.URL.Query().Get("q")
		logoURL, ok := results[q]
		if !ok {
			_ = json.NewEncoder(w).Encode([]searchResult{})
			return
		}
		_ = json.NewEncoder(w).Encode([]searchResult{{LogoURL: logoURL}})
	}))
}

func TestSearch_DirectHit(t *testing.T) {
	srv := logoServer(t, map[string]string{"Migros": "https://img.logo.dev/migros.ch"})
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	logoURL, err := c.Search(context.Background(), "Migros")
	require.NoError(t, err)
	assert.Equal(t, "https://img.logo.dev/migros.ch", logoURL)
}

func TestSearch_ShortensQueryUntilMatch(t *testing.T) {
	srv := logoServer(t, map[string]string{"Galaxus AG": "https://img.logo.dev/galaxus.ch"})
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	logoURL, err := c.Search(context.Background(), "Galaxus AG Zürich Schweiz")
	require.NoError(t, err)
	assert.Equal(t, "https://img.logo.dev/galaxus.ch", logoURL)
}

func TestSearch_NoMatchReturnsEmpty(t *testing.T) {
	srv := logoServer(t, nil)
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	logoURL, err := c.Search(context.Background(), "Unbekannte Bude GmbH")
	require.NoError(t, err)
	assert.Empty(t, logoURL)
}

func TestSearch_UpstreamErrorTreatedAsMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	logoURL, err := c.Search(context.Background(), "Migros")
	require.NoError(t, err)
	assert.Empty(t, logoURL)
}

func TestEnricher_RunOnce(t *testing.T) {
	srv := logoServer(t, map[string]string{"Coop": "https://img.logo.dev/coop.ch"})
	defer srv.Close()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "transactions.db"))
	require.NoError(t, err)
	defer st.Close()

	known := &store.Transaction{
		TextCreditor: "Coop, Basel",
		Direction:    store.DirectionOutflow,
		Amount:       decimal.NewNullDecimal(decimal.NewFromInt(-20)),
	}
	require.NoError(t, st.Insert(context.Background(), known))

	unknown := &store.Transaction{
		TextCreditor: "Quartierbeiz",
		Direction:    store.DirectionOutflow,
		Amount:       decimal.NewNullDecimal(decimal.NewFromInt(-35)),
	}
	require.NoError(t, st.Insert(context.Background(), unknown))

	enricher := NewEnricher(NewClient("test-key", srv.URL), st, 10)
	updated, err := enricher.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	// The miss stays queued for a later batch; only the hit is resolved.
	missing, err := st.MissingLogo(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, unknown.ID, missing[0].ID)
}
