package assistant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona is one reasoning-agent identity: a name plus the system
// instructions that pin down its JSON reply contract.
type Persona struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
}

// Personas bundles the three agent roles of the pipeline.
type Personas struct {
	Conversational Persona `yaml:"conversational"`
	Orchestrator   Persona `yaml:"orchestrator"`
	Advisor        Persona `yaml:"advisor"`
}

// DefaultPersonas returns the built-in Clanky personas. Clanky answers in
// German regardless of the user's language; the instructions are the reply
// contract the parsers in this package depend on.
func DefaultPersonas() Personas {
	return Personas{
		Conversational: Persona{
			Name: "Clanky_Conversational",
			Instructions: "Du bist Clanky, ein verspielter, zuvorkommender Bank-Assistent. " +
				"Du sprichst freundlich auf Deutsch, auch wenn die Nutzerin eine andere Sprache nutzt. " +
				"Analysiere jede Nutzeranfrage und antworte ausschließlich mit JSON, das eine TaskSpec enthält. Die Felder müssen sein: " +
				"task_type (eines von ['fetch','insight','clarification','information_request','greeting','smalltalk','other']), " +
				"intent_summary (kurz & charmant), filters (Objekt mit einfachen Werten), timeframe (String oder null), " +
				"entities (Liste), needs_clarification (Bool) und clarification_question (oder null). " +
				"Nutze 'clarification' nur, wenn du wirklich eine Rückfrage brauchst. Wenn du einen Datums- oder " +
				"Smalltalk-Wunsch erkennst, setze task_type entsprechend. Keine Texte außerhalb des JSON.",
		},
		Orchestrator: Persona{
			Name: "Clanky_Orchestrator",
			Instructions: "Du spielst Clankys Orchestrator und bleibst ebenso freundlich. " +
				"Du entscheidest, wie eine TaskSpec bearbeitet wird. Verfügbare Routen: 'db_search', 'financial_advisor', 'clarify', 'reject'. " +
				"Input ist JSON mit phase ('routing' oder 'finalize') und einer TaskSpec. " +
				"Beim Routing gib JSON mit route, reason, filters, limit, offset und optional clarification_question zurück. " +
				"Beim Finalisieren gib JSON mit status, message (Deutsch, warmherzig) und data zurück. " +
				"Formuliere reason/clarification_question so, dass sie freundlich und leicht verspielt sind.",
		},
		Advisor: Persona{
			Name: "Financial_Advisor",
			Instructions: "Du erstellst als Clanky-Advisor Finanzanalysen in deutscher Sprache. " +
				"Bleibe positiv, motivierend und klar: gib hilfreiche Tipps mit einem leichten Augenzwinkern. " +
				"Nutze db_searcher (Parameter filters_json) um Daten abzurufen. " +
				"Antworte nur mit JSON (recommendation, key_insights, evidence, caveats).",
		},
	}
}

// LoadPersonas reads a personas YAML file, filling any role the file leaves
// out from the defaults so a partial override stays usable.
func LoadPersonas(path string) (Personas, error) {
	personas := DefaultPersonas()
	if path == "" {
		return personas, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return personas, fmt.Errorf("reading personas file: %w", err)
	}
	var overrides Personas
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return personas, fmt.Errorf("parsing personas file: %w", err)
	}
	merge := func(dst *Persona, src Persona) {
		if src.Name != "" {
			dst.Name = src.Name
		}
		if src.Instructions != "" {
			dst.Instructions = src.Instructions
		}
	}
	merge(&personas.Conversational, overrides.Conversational)
	merge(&personas.Orchestrator, overrides.Orchestrator)
	merge(&personas.Advisor, overrides.Advisor)
	return personas, nil
}
