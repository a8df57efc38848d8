package models

import (
	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/fmu"
)

// Cockpit echoes the warning state and user confirmation and shows the
// disable lamp only when the airbag asks for it and the enable lamp is off.
type Cockpit struct {
	inConfirm, inWarning, outConfirm, outWarning uint32
	inDisable, inEnable, outDisable              uint32
}

func (m *Cockpit) Bind(d *fmu.Descriptor) error {
	refs := []struct {
		name string
		kind sim.Kind
		ref  *uint32
	}{
		{sim.CockpitInUserConfirm, sim.KindInt, &m.inConfirm},
		{sim.CockpitInWarningState, sim.KindInt, &m.inWarning},
		{sim.CockpitOutUserConfirm, sim.KindInt, &m.outConfirm},
		{sim.CockpitOutWarningState, sim.KindInt, &m.outWarning},
		{sim.CockpitInDisableLamp, sim.KindBool, &m.inDisable},
		{sim.CockpitInEnableLamp, sim.KindBool, &m.inEnable},
		{sim.CockpitOutDisableLamp, sim.KindBool, &m.outDisable},
	}
	for _, r := range refs {
		ref, err := d.Ref(r.name, r.kind)
		if err != nil {
			return err
		}
		*r.ref = ref
	}
	return nil
}

func (m *Cockpit) Calculate(v fmu.Variables) {
	v.SetInt(m.outWarning, v.Int(m.inWarning))
	v.SetInt(m.outConfirm, v.Int(m.inConfirm))
	v.SetBool(m.outDisable, v.Bool(m.inDisable) && !v.Bool(m.inEnable))
}

func (m *Cockpit) DoStep(v fmu.Variables, _, _ float64) error {
	m.Calculate(v)
	return nil
}
