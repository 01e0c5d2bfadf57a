package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesignCommand_Flags(t *testing.T) {
	cmd := newDesignCmd()

	providerFlag := cmd.Flags().Lookup("provider")
	require.NotNil(t, providerFlag, "provider flag should exist")
	assert.Equal(t, "gemini", providerFlag.DefValue, "default provider should be gemini")

	engineFlag := cmd.Flags().Lookup("engine")
	require.NotNil(t, engineFlag, "engine flag should exist")
	assert.Equal(t, "diagram", engineFlag.DefValue)

	cyclesFlag := cmd.Flags().Lookup("max-lint-cycles")
	require.NotNil(t, cyclesFlag, "max-lint-cycles flag should exist")
	assert.Equal(t, "3", cyclesFlag.DefValue)
}

func TestDesignCommand_RequiresDescription(t *testing.T) {
	cmd := newDesignCmd()
	cmd.SetArgs([]string{"-o", t.TempDir()})

	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "description or --template is required")
}

func TestDesignCommand_UnknownTemplate(t *testing.T) {
	cmd := newDesignCmd()
	cmd.SetArgs([]string{"--template", "nope", "-o", t.TempDir()})

	err := cmd.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown template")
}

func TestDesignCommand_UnknownEngine(t *testing.T) {
	cmd := newDesignCmd()
	cmd.SetArgs([]string{"--engine", "quantum", "-o", t.TempDir(), "some architecture"})

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestDesignCommand_UnknownProvider(t *testing.T) {
	cmd := newDesignCmd()
	cmd.SetArgs([]string{"--provider", "unknown", "-o", t.TempDir(), "some architecture"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
