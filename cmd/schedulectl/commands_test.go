package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"plan", "routing"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestPlanCommand(t *testing.T) {
	orders := writeFile(t, "orders.json", `[
		{"orderId": "A", "customerName": "Acme", "cabinetType": "Shelves", "quantity": 7,
		 "startDate": "2025-03-03", "completionDate": "2025-03-20"},
		{"orderId": "B", "customerName": "Bolt", "cabinetType": "Tall Cabinet", "quantity": 10,
		 "startDate": "2025-03-03", "completionDate": "2025-03-07",
		 "completedStages": ["CNC Cutting", "CNC Edging"], "progress": 37.5},
		{"orderId": "C", "customerName": "Cask", "cabinetType": "Shelves", "quantity": 3,
		 "startDate": "2025-02-03", "completionDate": "2025-02-28", "progress": 100, "status": "Completed"},
		{"orderId": "D", "customerName": "Dune", "cabinetType": "Shelves", "quantity": 3,
		 "startDate": "2025-03-03", "completionDate": "2025-05-30", "progress": 60}
	]`)
	absences := writeFile(t, "absences.json", `[{"resourceId": "M01", "date": "2025-03-03"}]`)

	out, err := execute(t, "plan", "--orders", orders, "--absences", absences, "--date", "2025-03-03")
	require.NoError(t, err)

	var plan PlanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &plan))

	assert.Equal(t, "2025-03-03", plan.ReferenceDate)
	assert.Equal(t, []string{"B", "A", "C", "D"}, plan.Schedule.DispatchOrder)
	require.Len(t, plan.Orders, 4)

	legacy := plan.Orders[1]
	assert.Equal(t, "B", legacy.OrderID)
	assert.Equal(t, "HIGH", legacy.Priority)
	assert.InDelta(t, 50.0, legacy.ActiveStageProgress, 0.001)
	assert.InDelta(t, 37.5, legacy.Progress, 0.001)

	done := plan.Orders[2]
	assert.Equal(t, "Completed", done.Status)
	assert.Equal(t, "LOW", done.Priority)
	assert.InDelta(t, 100.0, done.Progress, 0.001)
	assert.Len(t, done.CompletedStages, 6)

	bare := plan.Orders[3]
	assert.Equal(t, []string{"CNC Cutting", "CNC Edging", "CNC Routing"}, bare.CompletedStages)
	assert.Equal(t, "Assembly", bare.NextStage)
	assert.InDelta(t, 37.5, bare.ActiveStageProgress, 0.001)
	assert.InDelta(t, 60.0, bare.Progress, 0.001)

	assert.Equal(t, "MEDIUM", plan.Orders[0].Priority)
	// M01 is absent on the reference date, so B cuts from the 4th and A waits for the machine
	assert.Equal(t, "2025-03-04", legacy.Schedule["CNC Cutting"].Start)
	assert.Equal(t, "2025-03-06", plan.Orders[0].Schedule["CNC Cutting"].Start)
	assert.Empty(t, plan.Schedule.Shortfalls)
}

func TestPlanCommand_Errors(t *testing.T) {
	orders := writeFile(t, "orders.json", `[{"orderId": "A", "quantity": 5, "startDate": "2025-03-03", "completionDate": "2025-03-30"}]`)

	tests := []struct {
		name string
		args []string
	}{
		{"Missing orders flag", []string{"plan"}},
		{"Bad date", []string{"plan", "--orders", orders, "--date", "March 3"}},
		{"Unknown resource", []string{"plan", "--orders", orders, "--absences", writeFile(t, "abs.json", `[{"resourceId": "W99", "date": "2025-03-03"}]`)}},
		{"Bad format", []string{"plan", "--orders", orders, "--format", "yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRoutingCommand_Text(t *testing.T) {
	out, err := execute(t, "routing", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Assembly")
	assert.Contains(t, out, "Carpenter x2, Helper x1")
}

func TestRoutingCommand_JSON(t *testing.T) {
	out, err := execute(t, "routing")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "routing", []byte(out))
}
