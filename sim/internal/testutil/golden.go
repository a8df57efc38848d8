// Package testutil provides shared test infrastructure for the co-simulation
// host. It holds the golden pipeline scenarios used by the sim/ and sim/host/
// test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/pipeline_golden.json.
type GoldenDataset struct {
	Scenarios []GoldenScenario `json:"scenarios"`
}

// GoldenScenario is a sequence of ticks run against the built-in units from
// a freshly initialized pipeline.
type GoldenScenario struct {
	Name  string       `json:"name"`
	Ticks []GoldenTick `json:"ticks"`
}

// GoldenTick holds the broker inputs present before a tick and the values
// expected once it completes.
type GoldenTick struct {
	In   GoldenInputs  `json:"in"`
	Want GoldenOutputs `json:"want"`
}

// GoldenInputs are the from-broker slot values.
type GoldenInputs struct {
	AirbagIsDisabled bool  `json:"airbag_is_disabled"`
	WarningState     int64 `json:"warning_state"`
	UserConfirm      int64 `json:"user_confirm"`
}

// GoldenOutputs are the to-broker slot values plus the feedback Zonal saw
// during the tick.
type GoldenOutputs struct {
	UserConfirm  int64 `json:"user_confirm"`
	DisableLamp  bool  `json:"disable_lamp"`
	WarningState int64 `json:"warning_state"`
	Feedback     int64 `json:"feedback"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "pipeline_golden.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Scenarios) == 0 {
		t.Fatal("Golden dataset has no scenarios")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
