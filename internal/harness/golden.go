package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/packtrack/internal/ir"
)

// Golden renders the trace and final levels of a result as canonical JSON.
func Golden(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		changes := make([]any, len(event.Changes))
		for j, c := range event.Changes {
			change := map[string]any{"kind": c.Kind, "path": c.Path}
			if c.From != "" {
				change["from"] = c.From
			}
			if c.To != "" {
				change["to"] = c.To
			}
			changes[j] = change
		}
		e := map[string]any{
			"seq":     event.Seq,
			"step":    event.Step,
			"changes": changes,
		}
		if event.Error != "" {
			e["error"] = event.Error
		}
		trace[i] = e
	}

	final := make([]any, len(result.Final))
	for i, e := range result.Final {
		final[i] = map[string]any{"kind": e.Kind, "path": e.Path, "level": e.Level}
	}

	data, err := ir.MarshalCanonical(map[string]any{
		"scenario_name":  scenarioName,
		"section_policy": result.SectionPolicy,
		"trace":          trace,
		"final":          final,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal golden %s: %w", scenarioName, err)
	}
	return data, nil
}

// AssertGolden compares a result against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	data, err := Golden(scenarioName, result)
	if err != nil {
		t.Fatal(err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}

// GoldenPath returns the golden file next to a scenario file:
// <dir>/golden/<base>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes the result's golden file for scenarioFile.
func UpdateGolden(scenarioFile string, scenario *Scenario, result *Result) error {
	data, err := Golden(scenario.Name, result)
	if err != nil {
		return err
	}

	path := GoldenPath(scenarioFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the result matches the golden file of
// scenarioFile. A missing golden file is reported as os.ErrNotExist.
func CompareGolden(scenarioFile string, scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(scenarioFile))
	if err != nil {
		return false, err
	}
	got, err := Golden(scenario.Name, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}
