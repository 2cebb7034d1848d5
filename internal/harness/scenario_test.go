package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesPack(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "vault_opens.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "vault_opens", s.Name)
	assert.Equal(t, filepath.Join("testdata", "packs", "castle"), s.Pack)
	require.Len(t, s.Steps, 2)
	require.NotNil(t, s.Steps[1].Active)
	assert.True(t, *s.Steps[1].Active)
	assert.Len(t, s.Assertions, 5)
}

func TestLoadScenario_MissingPackDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: x
description: y
pack: nowhere
variant: standard
assertions:
  - {type: level, path: A, expect: Normal}
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pack directory not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	const head = "name: x\ndescription: y\npack: p\nvariant: v\n"
	const assertion = "assertions:\n  - {type: level, path: A, expect: Normal}\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", head + assertion + "flow: []\n", "field flow not found"},
		{"no name", "description: y\npack: p\nvariant: v\n" + assertion, "name is required"},
		{"no variant", "name: x\ndescription: y\npack: p\n" + assertion, "variant is required"},
		{"no assertions", head, "assertions list is required"},
		{"bad policy", head + "section_policy: sibling\n" + assertion, "section_policy"},
		{"two step kinds", head + "steps:\n  - {item: a, action: primary, lua: x}\n" + assertion, "exactly one of item, lua or notify"},
		{"no mutation", head + "steps:\n  - {item: a}\n" + assertion, "exactly one of action, stage"},
		{"two mutations", head + "steps:\n  - {item: a, stage: 1, quantity: 2}\n" + assertion, "exactly one of action, stage"},
		{"bad action", head + "steps:\n  - {item: a, action: middle}\n" + assertion, "unknown item action"},
		{"orphan mutation", head + "steps:\n  - {lua: x, stage: 1}\n" + assertion, "require item"},
		{"args without notify", head + "steps:\n  - {lua: x, args: [1]}\n" + assertion, "args only apply"},
		{"bad handler", head + "steps:\n  - {notify: chat}\n" + assertion, "chat"},
		{"bad level", head + "assertions:\n  - {type: level, path: A, expect: Open}\n", "unknown accessibility level"},
		{"bad status", head + "assertions:\n  - {type: summary, path: A, expect: open}\n", "unknown summary status"},
		{"bad rule", head + "assertions:\n  - {type: rule, rule: \"{a\", expect: Normal}\n", "assertions[0]"},
		{"count missing", head + "assertions:\n  - {type: provider_count, code: a}\n", "count is required"},
		{"history levels", head + "assertions:\n  - {type: history, path: A}\n", "levels list is required"},
		{"unknown type", head + "assertions:\n  - {type: trace_order}\n", "unknown assertion type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStep_Describe(t *testing.T) {
	two, yes := 2, true
	tests := []struct {
		step Step
		want string
	}{
		{Step{Item: "bombs", Action: "secondary"}, "item bombs secondary"},
		{Step{Item: "sword", Stage: &two}, "item sword stage 2"},
		{Step{Item: "arrows", Quantity: &two}, "item arrows quantity 2"},
		{Step{Item: "medallion", Left: &yes}, "item medallion left true"},
		{Step{Lua: "\n  x = 1\n  y = 2\n"}, "lua x = 1"},
		{Step{Notify: "clear"}, "notify clear (0 args)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.step.Describe())
	}
}
