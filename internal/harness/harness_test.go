package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_VaultOpens(t *testing.T) {
	scenario := loadScenario(t, "vault_opens")

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, "open", result.Trace[0].Step)
	assert.Len(t, result.Trace[0].Changes, 5)
	assert.Equal(t, "item bombs primary", result.Trace[1].Step)
	assert.Equal(t, int64(3), result.Trace[2].Seq)

	AssertGolden(t, scenario.Name, result)
}

func TestRun_ScriptsAndHandlers(t *testing.T) {
	scenario := loadScenario(t, "scripts_and_handlers")

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 4)
	assert.Equal(t, "lua Tracker:AddLocations(\"extra.json\")", result.Trace[1].Step)
	assert.Equal(t, "notify item (4 args)", result.Trace[2].Step)
}

func TestRun_ReportsFailures(t *testing.T) {
	scenario := loadScenario(t, "vault_opens")
	scenario.Steps = append(scenario.Steps,
		Step{Item: "hammer", Action: "primary"},
		Step{Lua: `error("boom")`},
	)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `no item provides code "hammer"`)
	assert.Contains(t, result.Errors[1], "boom")
	assert.Contains(t, result.Errors[2], "history Castle/Vault")
	assert.NotEmpty(t, result.Trace[3].Error)
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario := loadScenario(t, "vault_opens")
	one := 1
	scenario.Steps = nil
	scenario.Assertions = []Assertion{
		{Type: AssertLevel, Path: "Castle/Vault", Expect: "Inspect"},
		{Type: AssertLevel, Path: "Nowhere", Expect: "Normal"},
		{Type: AssertSummary, Path: "Castle", Expect: "cleared"},
		{Type: AssertRule, Rule: "{bombs}", Expect: "Normal"},
		{Type: AssertProviderCount, Code: "lamp", Count: &one},
		{Type: AssertHandlers, Handler: "clear", Count: &one},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Equal(t, "assertions[0]: level Castle/Vault: expected Inspect, got Normal", result.Errors[0])
	assert.Contains(t, result.Errors[1], "no such location or section")
	assert.Contains(t, result.Errors[2], "got accessible")
	assert.Contains(t, result.Errors[3], "got None")
	assert.Contains(t, result.Errors[4], "expected 1, got 0")
	assert.Contains(t, result.Errors[5], "expected 1, got 0")
}

func TestRun_SectionPolicy(t *testing.T) {
	scenario := loadScenario(t, "vault_opens")
	scenario.SectionPolicy = "parent"

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "parent", result.SectionPolicy)

	golden, err := Golden(scenario.Name, result)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"section_policy":"parent"`)
	assert.Contains(t, result.Errors[0], "level Castle/Vault: expected Inspect, got Normal")
}

func TestRun_MissingPack(t *testing.T) {
	scenario := loadScenario(t, "vault_opens")
	scenario.Pack = filepath.Join(t.TempDir(), "missing")

	_, err := Run(context.Background(), scenario)
	assert.Error(t, err)
}
