package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Vibebros/sgkb-clanky/internal/assistant/tools"
	"github.com/Vibebros/sgkb-clanky/internal/finance"
	clankyotel "github.com/Vibebros/sgkb-clanky/internal/otel"
)

var tracer = clankyotel.Tracer("github.com/Vibebros/sgkb-clanky/internal/assistant")

// Canned user-facing texts. The engine answers in German like its agents.
const (
	msgGreeting = "Immer wieder schön von dir zu hören! Sag mir einfach, wobei ich dir helfen darf."
	msgEmptyResult = "Ich habe in den verfügbaren Daten keine passenden Transaktionen gefunden – " +
		"vielleicht war dein Konto in diesem Zeitraum besonders brav? Probier gern einen anderen Filter!"
	msgBareClarification = "Magst du mir noch ein bisschen Kontext geben, damit ich die richtige Clanky-Toolbox aufklappen kann?"
	msgFinalizeFallback  = "Hier sind die angefragten Daten – sag Bescheid, wenn ich sie hübscher aufbereiten soll!"
	msgUnknownRoute      = "Unbekannte Routing-Entscheidung"
)

// Engine is the top-level orchestration state machine. It is stateless
// apart from its injected, immutable dependencies; one Run per inbound
// request, with concurrent runs sharing the same Engine.
type Engine struct {
	client       *AgentClient
	executor     *finance.Executor
	registry     *tools.Registry
	personas     Personas
	historyLimit int
	now          func() time.Time
}

// EngineConfig holds the dependencies for constructing an Engine.
type EngineConfig struct {
	Client       *AgentClient
	Executor     *finance.Executor
	Registry     *tools.Registry // tools offered to the advisor agent
	Personas     Personas
	HistoryLimit int              // max history turns in the classifier prompt; 0 = default 10
	Now          func() time.Time // test hook; nil = time.Now
}

// NewEngine creates an orchestration engine with the given dependencies.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		client:       cfg.Client,
		executor:     cfg.Executor,
		registry:     cfg.Registry,
		personas:     cfg.Personas,
		historyLimit: cfg.HistoryLimit,
		now:          cfg.Now,
	}
	if e.historyLimit <= 0 {
		e.historyLimit = 10
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Run executes one full orchestration: classify, intercept special cases,
// route, execute, finalize. The only error it returns is a malformed agent
// reply (or a failed external call); every policy-level oddity degrades
// into a NormalizedResponse instead. The engine has no partial-failure
// recovery beyond the finalize override; unhandled errors are the chat
// boundary's problem.
func (e *Engine) Run(ctx context.Context, message string, history []Turn) (*NormalizedResponse, error) {
	correlationID := "chat_" + uuid.New().String()[:12]

	ctx, span := tracer.Start(ctx, "assistant.run",
		trace.WithAttributes(attribute.String("correlation_id", correlationID)))
	defer span.End()

	log.Info().
		Str("correlation_id", correlationID).
		Int("history_turns", len(history)).
		Func(clankyotel.LogTraceFields(ctx)).
		Msg("chat_run_started")

	prompt := BuildConversationPrompt(message, history, e.historyLimit)
	reply, err := e.client.Invoke(ctx, e.personas.Conversational, prompt)
	if err != nil {
		return nil, err
	}
	spec, err := ParseTaskSpec(reply)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("task.type", spec.TaskType))

	if resp := e.interceptSpecialTask(spec); resp != nil {
		log.Info().
			Str("correlation_id", correlationID).
			Str("task_type", spec.TaskType).
			Str("status", resp.Status).
			Msg("chat_run_intercepted")
		return resp, nil
	}

	if spec.NeedsClarification && spec.ClarificationQuestion != "" {
		return &NormalizedResponse{
			Status:  StatusClarificationRequired,
			Message: spec.ClarificationQuestion,
			Data:    map[string]interface{}{"task_spec": spec},
		}, nil
	}

	decision, err := e.routeTask(ctx, spec)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("route", decision.Route))
	log.Info().
		Str("correlation_id", correlationID).
		Str("route", decision.Route).
		Int("limit", decision.Limit).
		Msg("route_normalized")

	switch decision.Route {
	case RouteClarify:
		question := decision.ClarificationQuestion
		if question == "" {
			question = decision.Reason
		}
		return &NormalizedResponse{
			Status:  StatusClarificationRequired,
			Message: question,
			Data:    map[string]interface{}{"task_spec": spec},
		}, nil

	case RouteReject:
		return &NormalizedResponse{
			Status:  StatusRejected,
			Message: decision.Reason,
			Data:    map[string]interface{}{"task_spec": spec},
		}, nil

	case RouteDBSearch:
		result, err := e.executor.Execute(ctx, finance.SanitizeFilters(decision.Filters), decision.Limit, decision.Offset, nil)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if result.Total == 0 {
			// Nothing to render; skip the finalize round trip.
			return &NormalizedResponse{
				Status:  StatusSuccess,
				Message: msgEmptyResult,
				Data: map[string]interface{}{
					"db_result": result,
					"task_spec": spec,
				},
			}, nil
		}
		return e.finalize(ctx, spec, decision, map[string]interface{}{"db_result": result})

	case RouteFinancialAdvisor:
		advisorOutput, err := e.runAdvisor(ctx, spec)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return e.finalize(ctx, spec, decision, map[string]interface{}{"advisor_output": advisorOutput})
	}

	// Unreachable after normalization; kept as a guard.
	return &NormalizedResponse{
		Status:  StatusError,
		Message: msgUnknownRoute,
		Data:    map[string]interface{}{"route": decision.Route, "task_spec": spec},
	}, nil
}

// interceptSpecialTask short-circuits task types that need no routing:
// greetings and smalltalk get a canned reply, a question about today's date
// gets answered directly, and a bare "clarification" task type (no flag, no
// question) is coerced into a clarification request. The last case may mask
// a classifier bug — it claimed ambiguity but gave nothing to ask — so the
// coercion is an explicit policy here, not an accident.
func (e *Engine) interceptSpecialTask(spec *TaskSpec) *NormalizedResponse {
	switch spec.TaskType {
	case TaskTypeGreeting, TaskTypeSmalltalk:
		return &NormalizedResponse{
			Status:  StatusSuccess,
			Message: msgGreeting,
			Data:    map[string]interface{}{"task_spec": spec},
		}

	case TaskTypeInformationRequest:
		summary := strings.ToLower(spec.IntentSummary)
		if strings.Contains(summary, "datum") || strings.Contains(summary, "date") || spec.Timeframe == "heute" {
			today := e.now()
			return &NormalizedResponse{
				Status:  StatusSuccess,
				Message: fmt.Sprintf("Heute ist der %s – notier dir das ruhig.", today.Format("02.01.2006")),
				Data: map[string]interface{}{
					"today":     today.Format("2006-01-02"),
					"task_spec": spec,
				},
			}
		}

	case TaskTypeClarification:
		if !spec.NeedsClarification && spec.ClarificationQuestion == "" {
			return &NormalizedResponse{
				Status:  StatusClarificationRequired,
				Message: msgBareClarification,
				Data:    map[string]interface{}{"task_spec": spec},
			}
		}
	}
	return nil
}

// routeTask asks the orchestrator agent for a fulfillment plan and
// normalizes it into a guaranteed-valid RouteDecision.
func (e *Engine) routeTask(ctx context.Context, spec *TaskSpec) (*RouteDecision, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"phase":     "routing",
		"task_spec": spec,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling routing payload: %w", err)
	}
	reply, err := e.client.Invoke(ctx, e.personas.Orchestrator, string(payload))
	if err != nil {
		return nil, err
	}
	decision, err := ParseRouteDecision(reply)
	if err != nil {
		return nil, err
	}
	return NormalizeRoute(decision), nil
}

// runAdvisor delegates to the financial advisor agent, which may call the
// registered tools (query executor, recurring detection) during its run.
func (e *Engine) runAdvisor(ctx context.Context, spec *TaskSpec) (*AdvisorOutput, error) {
	payload, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("marshalling advisor payload: %w", err)
	}
	reply, err := e.client.InvokeWithTools(ctx, e.personas.Advisor, string(payload), e.registry)
	if err != nil {
		return nil, err
	}
	return ParseAdvisorOutput(reply)
}

// finalize asks the orchestrator agent to render the result payload into a
// user-facing response. A finalize reply with status "error" is overridden
// with a generic success wrapping the raw payload: the data operation
// already succeeded, and a rendering hiccup must not surface as a failure.
func (e *Engine) finalize(ctx context.Context, spec *TaskSpec, decision *RouteDecision, resultData map[string]interface{}) (*NormalizedResponse, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"phase":       "finalize",
		"route":       decision.Route,
		"task_spec":   spec,
		"result_data": resultData,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling finalize payload: %w", err)
	}
	reply, err := e.client.Invoke(ctx, e.personas.Orchestrator, string(payload))
	if err != nil {
		return nil, err
	}
	response, err := ParseNormalizedResponse(reply)
	if err != nil {
		return nil, err
	}
	if response.Status == StatusError {
		log.Warn().Str("route", decision.Route).Msg("finalize_degraded_to_success")
		return &NormalizedResponse{
			Status:  StatusSuccess,
			Message: msgFinalizeFallback,
			Data:    resultData,
		}, nil
	}
	return response, nil
}
