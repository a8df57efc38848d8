package models

import (
	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/fmu"
)

// Airbag lights the disable lamp (PADL) while the deactivation switch (PADS)
// is set and the enable lamp (PAEL) otherwise.
type Airbag struct {
	pads, padl, pael uint32
}

func (m *Airbag) Bind(d *fmu.Descriptor) error {
	var err error
	if m.pads, err = d.Ref(sim.AirbagInSwitch, sim.KindInt); err != nil {
		return err
	}
	if m.padl, err = d.Ref(sim.AirbagOutDisableLamp, sim.KindInt); err != nil {
		return err
	}
	m.pael, err = d.Ref(sim.AirbagOutEnableLamp, sim.KindInt)
	return err
}

func (m *Airbag) Calculate(v fmu.Variables) {
	if v.Int(m.pads) != 0 {
		v.SetInt(m.padl, 1)
		v.SetInt(m.pael, 0)
		return
	}
	v.SetInt(m.padl, 0)
	v.SetInt(m.pael, 1)
}

func (m *Airbag) DoStep(v fmu.Variables, _, _ float64) error {
	m.Calculate(v)
	return nil
}
