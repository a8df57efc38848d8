package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTicks         int
	FirstTick          int64
	LastTick           int64
	DisableLampOnTicks int           // ticks where the cockpit lit the disable lamp
	FeedbackChanges    int           // ticks where the fed-back user-confirm differed from the previous tick
	WarningStates      map[int64]int // cockpit warning state → tick count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		WarningStates: make(map[int64]int),
	}
	ticks := st.Ticks()
	if len(ticks) == 0 {
		return summary
	}

	summary.TotalTicks = len(ticks)
	summary.FirstTick = ticks[0].Tick
	summary.LastTick = ticks[len(ticks)-1].Tick
	for i, r := range ticks {
		if r.CockpitDisableLamp {
			summary.DisableLampOnTicks++
		}
		summary.WarningStates[r.CockpitWarningState]++
		if i > 0 && r.Feedback != ticks[i-1].Feedback {
			summary.FeedbackChanges++
		}
	}
	return summary
}
