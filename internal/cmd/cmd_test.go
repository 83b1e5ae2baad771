package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	expected := []string{
		"version",
		"serve",
		"config",
	}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "subcommand %q should be registered", name)
	}
}

func TestResolvedVersion_PrefersLdflagsValue(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3"
	assert.Equal(t, "1.2.3", resolvedVersion())
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "(not set)", redact(""))
	assert.Equal(t, "****", redact("short"))
	assert.Equal(t, "sk-a...****", redact("sk-abcdef123456"))
}
