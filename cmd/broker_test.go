package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/broker"
)

func TestPrintDatapoints_SortedWithUnset(t *testing.T) {
	// GIVEN one set and one unset path, listed out of order
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	values := map[string]broker.Datapoint{
		"Vehicle.B": {Value: sim.Int(3), Timestamp: ts},
	}

	// WHEN printing
	var buf bytes.Buffer
	printDatapoints(&buf, []string{"Vehicle.C", "Vehicle.B"}, values)

	// THEN paths are sorted and the unset one is marked
	want := "Vehicle.B = 3 (2026-01-02T03:04:05Z)\nVehicle.C = <unset>\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["broker"])
	assert.True(t, names["units"])
	assert.NotNil(t, runCmd.Flags().Lookup("step-size"))
	assert.NotNil(t, runCmd.Flags().Lookup("trace-out"))
}
