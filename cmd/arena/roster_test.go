package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRosterYAML = `models:
  - id: vanguard
    name: Vanguard
    attributes:
      offense: 80
      defense: 60
      agility: 70
      strategy: 50
      endurance: 90
  - id: bulwark
    name: Bulwark
    attributes:
      offense: 55
      defense: 95
      agility: 40
      strategy: 75
      endurance: 85
`

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRoster(t *testing.T) {
	roster, err := LoadRoster(writeRoster(t, testRosterYAML))
	require.NoError(t, err)

	require.Len(t, roster.Models, 2)
	assert.Equal(t, "vanguard", roster.Models[0].ID)
	assert.Equal(t, 95.0, roster.Models[1].Attributes.Defense)
}

func TestLoadRoster_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "empty file",
			content: "",
			errMsg:  "invalid roster",
		},
		{
			name:    "malformed yaml",
			content: "models: [",
			errMsg:  "parsing roster",
		},
		{
			name: "missing name",
			content: `models:
  - id: vanguard
`,
			errMsg: "invalid roster",
		},
		{
			name: "attribute out of range",
			content: `models:
  - id: vanguard
    name: Vanguard
    attributes:
      offense: 150
`,
			errMsg: "invalid roster",
		},
		{
			name: "duplicate id",
			content: `models:
  - id: vanguard
    name: Vanguard
  - id: vanguard
    name: Vanguard II
`,
			errMsg: `duplicate model id "vanguard"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoster(writeRoster(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadRoster_MissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading roster")
}

func TestRoster_Resolve(t *testing.T) {
	roster, err := LoadRoster(writeRoster(t, testRosterYAML))
	require.NoError(t, err)

	byID, err := roster.Resolve("vanguard")
	require.NoError(t, err)
	assert.Equal(t, "Vanguard", byID.Name)

	byName, err := roster.Resolve("BULWARK")
	require.NoError(t, err)
	assert.Equal(t, "bulwark", byName.ID)
}

func TestRoster_Resolve_Suggestion(t *testing.T) {
	roster, err := LoadRoster(writeRoster(t, testRosterYAML))
	require.NoError(t, err)

	_, err = roster.Resolve("vangard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "vanguard"`)

	// Nothing close enough to suggest.
	_, err = roster.Resolve("zzzzzzzzzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model "zzzzzzzzzz"`)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestRoster_Names(t *testing.T) {
	roster, err := LoadRoster(writeRoster(t, testRosterYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"bulwark", "vanguard"}, roster.Names())
}
