package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/la5asni/internal/planner"
)

func runPlan(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var jsonOutput bool
	var stdout, stderr bytes.Buffer

	root := &cobra.Command{Use: "planctl", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "")
	root.AddCommand(NewPlanCmd(func() *Output {
		return NewOutput(jsonOutput, &stdout, &stderr)
	}))
	root.SetArgs(append([]string{"plan"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const analysisJSON = `{
  "id": "3f0c",
  "summary": "Safety handbook",
  "training_modules": [
    {"title": "Intro", "estimated_minutes": 30},
    {"title": "Equipment", "estimated_minutes": 45},
    {"title": "Incidents", "estimated_minutes": 200},
    {"title": "Quiz", "estimated_minutes": 10}
  ]
}`

func TestPlanCommandJSON(t *testing.T) {
	stdout, _, err := runPlan(t, "", "--json", writeFile(t, "analysis.json", analysisJSON))
	require.NoError(t, err)

	var out planOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Plan, 2)
	assert.Equal(t, 75, out.Plan[0].TotalMinutes)
	assert.Equal(t, 210, out.Plan[1].TotalMinutes)
	assert.Equal(t, 240, out.MinutesPerDay)
	assert.Equal(t, 2, out.EstimatedDays)
}

func TestPlanCommandTable(t *testing.T) {
	yamlInput := `training_modules:
  - title: Reading
    estimated_minutes: 70
  - title: Practice
    estimated_minutes: 50
`
	stdout, stderr, err := runPlan(t, "", "--mode", "manual", "--days", "1", "--hours", "1", writeFile(t, "modules.yaml", yamlInput))
	require.NoError(t, err)

	assert.Contains(t, stdout, "DAY")
	assert.Contains(t, stdout, "Reading")
	assert.Contains(t, stdout, "Practice")
	assert.Equal(t, 2, strings.Count(stdout, "total"))
	assert.Contains(t, stderr, "plan needs 2 days")
}

func TestPlanCommandStdinSequence(t *testing.T) {
	stdout, _, err := runPlan(t, `[{"title":"Only","estimated_minutes":1}]`, "--json", "-")
	require.NoError(t, err)

	var out planOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Plan, 1)
	assert.Equal(t, 1, out.EstimatedDays)
}

func TestPlanCommandErrors(t *testing.T) {
	t.Run("manual without hours", func(t *testing.T) {
		_, _, err := runPlan(t, "", "--mode", "manual", "--days", "2", writeFile(t, "a.json", analysisJSON))
		assert.True(t, errors.Is(err, planner.ErrMissingManualParameters))
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, _, err := runPlan(t, "", "--mode", "weekly", writeFile(t, "a.json", analysisJSON))
		assert.True(t, errors.Is(err, planner.ErrInvalidMode))
	})

	t.Run("no modules", func(t *testing.T) {
		_, _, err := runPlan(t, "", writeFile(t, "a.json", `{"summary":"nothing"}`))
		assert.True(t, errors.Is(err, planner.ErrEmptyInput))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := runPlan(t, "", filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := runPlan(t, "", "-")
		assert.Error(t, err)
	})
}
