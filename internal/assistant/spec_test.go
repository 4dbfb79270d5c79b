package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskSpec_Defaults(t *testing.T) {
	spec, err := ParseTaskSpec(`{}`)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeOther, spec.TaskType)
	assert.NotNil(t, spec.Filters)
	assert.False(t, spec.NeedsClarification)
}

func TestParseTaskSpec_UnknownTaskTypeBecomesOther(t *testing.T) {
	spec, err := ParseTaskSpec(`{"task_type": "world_domination"}`)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeOther, spec.TaskType)
}

func TestParseTaskSpec_NormalizesCase(t *testing.T) {
	spec, err := ParseTaskSpec(`{"task_type": " FETCH "}`)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeFetch, spec.TaskType)
}

func TestParseTaskSpec_WrongFieldTypesDropped(t *testing.T) {
	spec, err := ParseTaskSpec(`{
		"task_type": "fetch",
		"intent_summary": 42,
		"filters": "not a map",
		"entities": ["Migros", 7, "Coop"],
		"needs_clarification": "yes"
	}`)
	require.NoError(t, err)
	assert.Empty(t, spec.IntentSummary)
	assert.Empty(t, spec.Filters)
	assert.Equal(t, []string{"Migros", "Coop"}, spec.Entities)
	assert.False(t, spec.NeedsClarification)
}

func TestParseTaskSpec_NonJSONIsMalformed(t *testing.T) {
	_, err := ParseTaskSpec("Sure! Here is your answer:")
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestParseRouteDecision_Defaults(t *testing.T) {
	decision, err := ParseRouteDecision(`{}`)
	require.NoError(t, err)
	assert.Equal(t, RouteReject, decision.Route)
	assert.Equal(t, 20, decision.Limit)
	assert.Equal(t, 0, decision.Offset)
	assert.NotNil(t, decision.Filters)
}

func TestParseRouteDecision_NumericStrings(t *testing.T) {
	decision, err := ParseRouteDecision(`{"route": "db_search", "limit": "15", "offset": 3}`)
	require.NoError(t, err)
	assert.Equal(t, 15, decision.Limit)
	assert.Equal(t, 3, decision.Offset)
}

func TestParseRouteDecision_NonJSONIsMalformed(t *testing.T) {
	_, err := ParseRouteDecision("db_search")
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestParseAdvisorOutput(t *testing.T) {
	out, err := ParseAdvisorOutput(`{
		"recommendation": "Reduce subscriptions",
		"key_insights": ["Spending up 12%"],
		"caveats": ["Only 3 months of data"]
	}`)
	require.NoError(t, err)
	assert.Equal(t, "Reduce subscriptions", out.Recommendation)
	assert.Equal(t, []string{"Spending up 12%"}, out.KeyInsights)
	assert.Empty(t, out.Evidence)
	assert.Equal(t, []string{"Only 3 months of data"}, out.Caveats)
}

func TestParseNormalizedResponse_EmptyStatusDefaultsToError(t *testing.T) {
	resp, err := ParseNormalizedResponse(`{"message": "hm"}`)
	require.NoError(t, err)
	assert.Equal(t, StatusError, resp.Status)
}
