package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "nexscan", rootCmd.Use)

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["scan"], "scan command must be registered")
	assert.True(t, names["config"], "config command must be registered")
}

func TestScanCommandFlags(t *testing.T) {
	flags := []string{
		"ports", "top-ports", "type", "timeout", "concurrency",
		"rate-limit", "banner", "output", "format", "all",
		"no-color", "dns-server", "reverse",
	}
	for _, name := range flags {
		assert.NotNil(t, scanCmd.Flags().Lookup(name), "missing flag --%s", name)
	}
}

func TestScanCommandRequiresTarget(t *testing.T) {
	err := scanCmd.Args(scanCmd, []string{})
	require.Error(t, err)

	err = scanCmd.Args(scanCmd, []string{"127.0.0.1"})
	assert.NoError(t, err)

	err = scanCmd.Args(scanCmd, []string{"a", "b"})
	assert.Error(t, err)
}

func TestVersionString(t *testing.T) {
	SetVersion("1.2.3", "abc1234", "2026-08-24")
	assert.Contains(t, rootCmd.Version, "1.2.3")
	assert.Contains(t, rootCmd.Version, "abc1234")
}
