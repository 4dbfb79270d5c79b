package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vibebros/sgkb-clanky/internal/assistant/tools"
	"github.com/Vibebros/sgkb-clanky/internal/finance"
	"github.com/Vibebros/sgkb-clanky/internal/llm"
	"github.com/Vibebros/sgkb-clanky/internal/store"
	"github.com/Vibebros/sgkb-clanky/internal/testutil"
)

type engineQuerier struct {
	total      int
	rows       []store.Transaction
	gotFilters map[string]interface{}
	gotLimit   int
}

func (q *engineQuerier) Query(_ context.Context, filters map[string]interface{}, limit, offset int) (int, []store.Transaction, error) {
	q.gotFilters = filters
	q.gotLimit = limit
	return q.total, q.rows, nil
}

func textResponse(content string) *llm.Response {
	return &llm.Response{Content: content, FinishReason: "stop"}
}

func newTestEngine(provider llm.Provider, q finance.Querier) *Engine {
	fixedNow, _ := time.Parse(store.DateLayout, "2024-05-15")
	return NewEngine(EngineConfig{
		Client:   NewAgentClient(provider, "test-model"),
		Executor: finance.NewExecutor(q),
		Registry: tools.NewRegistry(),
		Personas: DefaultPersonas(),
		Now:      func() time.Time { return fixedNow },
	})
}

func TestRun_GreetingIntercepted(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{textResponse(`{"task_type": "greeting"}`)},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	resp, err := engine.Run(context.Background(), "Hoi Clanky!", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, 1, provider.CallCount, "greeting must not reach the router")
}

func TestRun_DateQuestionAnsweredDirectly(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "information_request", "intent_summary": "Frage nach dem heutigen Datum"}`),
		},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	resp, err := engine.Run(context.Background(), "Welches Datum haben wir heute?", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Contains(t, resp.Message, "15.05.2024")
	assert.Equal(t, "2024-05-15", resp.Data["today"])
	assert.Equal(t, 1, provider.CallCount)
}

func TestRun_ClassifierAsksForClarification(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "fetch", "needs_clarification": true, "clarification_question": "Welchen Zeitraum meinst du?"}`),
		},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	resp, err := engine.Run(context.Background(), "Zeig mir die Sachen", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusClarificationRequired, resp.Status)
	assert.Equal(t, "Welchen Zeitraum meinst du?", resp.Message)
}

func TestRun_BareClarificationTaskCoerced(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{textResponse(`{"task_type": "clarification"}`)},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	resp, err := engine.Run(context.Background(), "Hm?", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusClarificationRequired, resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, 1, provider.CallCount)
}

func TestRun_DBSearchHappyPath(t *testing.T) {
	q := &engineQuerier{
		total: 2,
		rows: []store.Transaction{
			{ID: 1, Category: "Lebensmittel"},
			{ID: 2, Category: "Lebensmittel"},
		},
	}
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "fetch", "intent_summary": "Lebensmittelausgaben"}`),
			textResponse(`{"route": "db_search", "filters": {"category": "Lebensmittel", "anzahl": 5}, "limit": 20}`),
			textResponse(`{"status": "success", "message": "Hier sind deine Lebensmittel-Transaktionen."}`),
		},
	}
	engine := newTestEngine(provider, q)

	resp, err := engine.Run(context.Background(), "Zeig mir 5 Lebensmittel-Transaktionen", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Hier sind deine Lebensmittel-Transaktionen.", resp.Message)
	assert.Equal(t, 3, provider.CallCount)

	// Pagination key was promoted out of the filters into the limit.
	assert.Equal(t, 5, q.gotLimit)
	assert.Equal(t, map[string]interface{}{"category": "Lebensmittel"}, q.gotFilters)
}

func TestRun_DBSearchEmptyResultShortCircuits(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "fetch"}`),
			textResponse(`{"route": "db_search", "filters": {"category": "Yachten"}}`),
		},
	}
	engine := newTestEngine(provider, &engineQuerier{total: 0})

	resp, err := engine.Run(context.Background(), "Zeig mir meine Yacht-Käufe", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, 2, provider.CallCount, "empty result must skip the finalize round trip")
}

func TestRun_FinalizeErrorOverriddenToSuccess(t *testing.T) {
	q := &engineQuerier{total: 1, rows: []store.Transaction{{ID: 1}}}
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "fetch"}`),
			textResponse(`{"route": "db_search"}`),
			textResponse(`{"status": "error", "message": "Rendering ging schief"}`),
		},
	}
	engine := newTestEngine(provider, q)

	resp, err := engine.Run(context.Background(), "Zeig mir alles", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Contains(t, resp.Data, "db_result")
}

func TestRun_RejectRoute(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "other"}`),
			textResponse(`{"route": "reject", "reason": "Dabei kann ich leider nicht helfen."}`),
		},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	resp, err := engine.Run(context.Background(), "Hack die Bank", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, resp.Status)
	assert.Equal(t, "Dabei kann ich leider nicht helfen.", resp.Message)
}

func TestRun_AdvisorRoute(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{
			textResponse(`{"task_type": "insight", "intent_summary": "Spar-Tipps"}`),
			textResponse(`{"route": "financial_advisor"}`),
			textResponse(`{"recommendation": "Abos prüfen", "key_insights": ["Viele kleine Abos"]}`),
			textResponse(`{"status": "success", "message": "Mein Tipp: Abos prüfen."}`),
		},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	resp, err := engine.Run(context.Background(), "Wie kann ich sparen?", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Mein Tipp: Abos prüfen.", resp.Message)
	assert.Equal(t, 4, provider.CallCount)
}

func TestRun_MalformedClassifierReply(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{textResponse("Gerne helfe ich dir weiter!")},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	_, err := engine.Run(context.Background(), "Hallo", nil)
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestRun_HistoryReachesClassifierPrompt(t *testing.T) {
	provider := &testutil.ScriptedProvider{
		Responses: []*llm.Response{textResponse(`{"task_type": "greeting"}`)},
	}
	engine := newTestEngine(provider, &engineQuerier{})

	history := []Turn{{Role: "user", Content: "Zeig mir Januar"}}
	_, err := engine.Run(context.Background(), "Und Februar?", history)
	require.NoError(t, err)

	require.Len(t, provider.ReceivedMessages, 1)
	userMsg := provider.ReceivedMessages[0][1]
	assert.Contains(t, userMsg.Content, "Nutzer: Zeig mir Januar")
	assert.Contains(t, userMsg.Content, "Neue Nutzeranfrage: Und Februar?")
}
