// Package assistant implements the multi-agent orchestration pipeline:
// classify an utterance into a TaskSpec, decide a route, execute it against
// the transaction store or the advisor agent, and finalize a structured
// response. Agent replies are untrusted structured text; every parser here
// applies field-level defaults, and only a reply that is not JSON at all is
// a hard failure.
package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedReply is returned when an agent reply cannot be parsed as
// JSON. This is terminal: a non-JSON reply means the agent abandoned its
// contract, and repairing it field by field would just guess.
var ErrMalformedReply = errors.New("agent reply is not valid JSON")

// Task types a classifier reply may carry. Anything else is coerced to
// TaskTypeOther at parse time, never propagated.
const (
	TaskTypeFetch              = "fetch"
	TaskTypeInsight            = "insight"
	TaskTypeClarification      = "clarification"
	TaskTypeInformationRequest = "information_request"
	TaskTypeGreeting           = "greeting"
	TaskTypeSmalltalk          = "smalltalk"
	TaskTypeOther              = "other"
)

// Fulfillment routes. After normalization a RouteDecision always carries
// one of these four.
const (
	RouteDBSearch         = "db_search"
	RouteFinancialAdvisor = "financial_advisor"
	RouteClarify          = "clarify"
	RouteReject           = "reject"
)

// Terminal response statuses.
const (
	StatusSuccess               = "success"
	StatusClarificationRequired = "clarification_required"
	StatusRejected              = "rejected"
	StatusError                 = "error"
)

var knownTaskTypes = map[string]bool{
	TaskTypeFetch:              true,
	TaskTypeInsight:            true,
	TaskTypeClarification:      true,
	TaskTypeInformationRequest: true,
	TaskTypeGreeting:           true,
	TaskTypeSmalltalk:          true,
	TaskTypeOther:              true,
}

// TaskSpec is the classifier's structured interpretation of an utterance.
// Created once per utterance and treated as immutable afterwards.
type TaskSpec struct {
	TaskType              string                 `json:"task_type"`
	IntentSummary         string                 `json:"intent_summary"`
	Filters               map[string]interface{} `json:"filters"`
	Timeframe             string                 `json:"timeframe,omitempty"`
	Entities              []string               `json:"entities"`
	NeedsClarification    bool                   `json:"needs_clarification"`
	ClarificationQuestion string                 `json:"clarification_question,omitempty"`
	Raw                   string                 `json:"raw,omitempty"`
}

// ParseTaskSpec parses a classifier reply. Missing fields get defaults;
// an unknown task_type becomes "other". Only non-JSON input errors.
func ParseTaskSpec(payload string) (*TaskSpec, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("%w: parsing task spec: %v", ErrMalformedReply, err)
	}

	spec := &TaskSpec{
		TaskType:              strings.ToLower(strings.TrimSpace(asString(data["task_type"]))),
		IntentSummary:         asString(data["intent_summary"]),
		Filters:               asMap(data["filters"]),
		Timeframe:             asString(data["timeframe"]),
		Entities:              asStringSlice(data["entities"]),
		NeedsClarification:    asBool(data["needs_clarification"]),
		ClarificationQuestion: asString(data["clarification_question"]),
		Raw:                   asString(data["raw"]),
	}
	if !knownTaskTypes[spec.TaskType] {
		spec.TaskType = TaskTypeOther
	}
	return spec, nil
}

// RouteDecision is the orchestrator agent's fulfillment plan. It is mutated
// in place by NormalizeRoute and treated as immutable afterwards.
type RouteDecision struct {
	Route                 string                 `json:"route"`
	Reason                string                 `json:"reason"`
	Filters               map[string]interface{} `json:"filters"`
	Limit                 int                    `json:"limit"`
	Offset                int                    `json:"offset"`
	ClarificationQuestion string                 `json:"clarification_question,omitempty"`
}

// ParseRouteDecision parses an orchestrator routing reply with defaults
// (route "reject", limit 20, offset 0). NormalizeRoute makes the result
// safe; this only guards against non-JSON.
func ParseRouteDecision(payload string) (*RouteDecision, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("%w: parsing route decision: %v", ErrMalformedReply, err)
	}

	decision := &RouteDecision{
		Route:                 asString(data["route"]),
		Reason:                asString(data["reason"]),
		Filters:               asMap(data["filters"]),
		Limit:                 20,
		Offset:                0,
		ClarificationQuestion: asString(data["clarification_question"]),
	}
	if n, ok := asInt(data["limit"]); ok {
		decision.Limit = n
	}
	if n, ok := asInt(data["offset"]); ok {
		decision.Offset = n
	}
	if decision.Route == "" {
		decision.Route = RouteReject
	}
	return decision, nil
}

// AdvisorOutput is the financial advisor agent's analysis.
type AdvisorOutput struct {
	Recommendation string   `json:"recommendation"`
	KeyInsights    []string `json:"key_insights"`
	Evidence       []string `json:"evidence"`
	Caveats        []string `json:"caveats"`
}

// ParseAdvisorOutput parses an advisor reply with field defaults.
func ParseAdvisorOutput(payload string) (*AdvisorOutput, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("%w: parsing advisor output: %v", ErrMalformedReply, err)
	}
	return &AdvisorOutput{
		Recommendation: asString(data["recommendation"]),
		KeyInsights:    asStringSlice(data["key_insights"]),
		Evidence:       asStringSlice(data["evidence"]),
		Caveats:        asStringSlice(data["caveats"]),
	}, nil
}

// NormalizedResponse is the pipeline's terminal artifact and the only value
// returned to the engine's caller.
type NormalizedResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ParseNormalizedResponse parses a finalize reply. Status defaults to
// "error" so a vague reply triggers the engine's finalize override.
func ParseNormalizedResponse(payload string) (*NormalizedResponse, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("%w: parsing finalize response: %v", ErrMalformedReply, err)
	}
	resp := &NormalizedResponse{
		Status:  asString(data["status"]),
		Message: asString(data["message"]),
		Data:    asMap(data["data"]),
	}
	if resp.Status == "" {
		resp.Status = StatusError
	}
	return resp, nil
}

// JSON value coercion helpers. Agents frequently emit the right idea in the
// wrong type; these pick out what is usable and drop the rest.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func asStringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		var i int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &i); err == nil {
			return i, true
		}
	}
	return 0, false
}
