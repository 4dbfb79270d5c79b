package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPersonas_EmptyPathReturnsDefaults(t *testing.T) {
	personas, err := LoadPersonas("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPersonas(), personas)
}

func TestLoadPersonas_PartialOverrideKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := "advisor:\n  name: Mein_Advisor\n  instructions: Antworte knapp.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	personas, err := LoadPersonas(path)
	require.NoError(t, err)
	assert.Equal(t, "Mein_Advisor", personas.Advisor.Name)
	assert.Equal(t, "Antworte knapp.", personas.Advisor.Instructions)
	assert.Equal(t, DefaultPersonas().Conversational, personas.Conversational)
	assert.Equal(t, DefaultPersonas().Orchestrator, personas.Orchestrator)
}

func TestLoadPersonas_MissingFile(t *testing.T) {
	_, err := LoadPersonas(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadPersonas_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

	_, err := LoadPersonas(path)
	assert.Error(t, err)
}
