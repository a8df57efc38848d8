package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

var csvHeader = []string{
	"tick", "sim_time",
	"airbag_is_disabled", "warning_state_in", "feedback",
	"deactivation_switch", "zonal_warning_state",
	"disable_lamp", "enable_lamp",
	"user_confirm_in", "cockpit_disable_lamp", "cockpit_warning_state", "cockpit_user_confirm",
	"zonal_user_confirm",
}

// WriteCSV writes the retained tick records to w, oldest first.
func WriteCSV(w io.Writer, st *SimulationTrace) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("writing trace header: %w", err)
	}
	for _, r := range st.Ticks() {
		row := []string{
			strconv.FormatInt(r.Tick, 10),
			strconv.FormatFloat(r.SimTime, 'f', -1, 64),
			strconv.FormatBool(r.AirbagIsDisabled),
			strconv.FormatInt(r.WarningStateIn, 10),
			strconv.FormatInt(r.Feedback, 10),
			strconv.FormatBool(r.DeactivationSwitch),
			strconv.FormatInt(r.ZonalWarningState, 10),
			strconv.FormatInt(r.DisableLamp, 10),
			strconv.FormatInt(r.EnableLamp, 10),
			strconv.FormatInt(r.UserConfirmIn, 10),
			strconv.FormatBool(r.CockpitDisableLamp),
			strconv.FormatInt(r.CockpitWarningState, 10),
			strconv.FormatInt(r.CockpitUserConfirm, 10),
			strconv.FormatInt(r.ZonalUserConfirm, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing trace row %d: %w", r.Tick, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportCSV writes the trace to a file at path.
func ExportCSV(path string, st *SimulationTrace) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := WriteCSV(file, st); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
