// Tracks run-wide pacing statistics of the step loop.

package sim

import (
	"fmt"
	"io"
	"time"
)

// Metrics aggregates statistics about the step loop for final reporting.
// It is written only by the orchestrator goroutine; read it after Run returns.
type Metrics struct {
	Ticks         int64         // Completed ticks
	SimTime       float64       // Simulated seconds at the last completed tick
	WallStart     time.Time     // Wall time of the first tick
	WallEnd       time.Time     // Wall time after the last tick
	BusyTime      time.Duration // Sum of tick compute time (excluding pacing sleep)
	MaxTickTime   time.Duration // Slowest single tick
	Overruns      int64         // Ticks whose compute time exceeded the step size
	StepSize      time.Duration
	FailureReason string
}

// NewMetrics returns zeroed metrics for a loop with the given step.
func NewMetrics(step time.Duration) *Metrics {
	return &Metrics{StepSize: step}
}

func (m *Metrics) observeTick(start, end time.Time, simTime float64) {
	if m.Ticks == 0 {
		m.WallStart = start
	}
	d := end.Sub(start)
	m.Ticks++
	m.SimTime = simTime
	m.WallEnd = end
	m.BusyTime += d
	if d > m.MaxTickTime {
		m.MaxTickTime = d
	}
	if m.StepSize > 0 && d > m.StepSize {
		m.Overruns++
	}
}

// RealTimeFactor is simulated time divided by elapsed wall time. Pacing
// without drift correction keeps it somewhat below 1.
func (m *Metrics) RealTimeFactor() float64 {
	wall := m.WallEnd.Sub(m.WallStart).Seconds()
	if wall <= 0 {
		return 0
	}
	return m.SimTime / wall
}

// Print writes the aggregated metrics at the end of the run.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Co-Simulation Metrics ===")
	fmt.Fprintf(w, "Completed Ticks      : %d\n", m.Ticks)
	fmt.Fprintf(w, "Simulated Time       : %.3f s\n", m.SimTime)
	if m.Ticks > 0 {
		fmt.Fprintf(w, "Wall Time            : %s\n", m.WallEnd.Sub(m.WallStart).Round(time.Millisecond))
		fmt.Fprintf(w, "Real-Time Factor     : %.3f\n", m.RealTimeFactor())
		fmt.Fprintf(w, "Average Tick Compute : %s\n", (m.BusyTime / time.Duration(m.Ticks)).Round(time.Microsecond))
		fmt.Fprintf(w, "Max Tick Compute     : %s\n", m.MaxTickTime.Round(time.Microsecond))
		fmt.Fprintf(w, "Step Overruns        : %d\n", m.Overruns)
	}
	if m.FailureReason != "" {
		fmt.Fprintf(w, "Failure              : %s\n", m.FailureReason)
	}
}
