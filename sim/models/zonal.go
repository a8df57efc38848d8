package models

import (
	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/fmu"
)

// Zonal forwards the broker-side airbag state: the disabled flag becomes the
// deactivation switch and the warning state and user confirmation pass
// through unchanged.
type Zonal struct {
	inDisabled, outSwitch                        uint32
	inWarning, inConfirm, outWarning, outConfirm uint32
}

func (m *Zonal) Bind(d *fmu.Descriptor) error {
	bools := []struct {
		name string
		ref  *uint32
	}{
		{sim.ZonalInAirbagIsDisabled, &m.inDisabled},
		{sim.ZonalOutDeactivationSwitch, &m.outSwitch},
	}
	for _, b := range bools {
		ref, err := d.Ref(b.name, sim.KindBool)
		if err != nil {
			return err
		}
		*b.ref = ref
	}
	ints := []struct {
		name string
		ref  *uint32
	}{
		{sim.ZonalInWarningState, &m.inWarning},
		{sim.ZonalInUserConfirm, &m.inConfirm},
		{sim.ZonalOutWarningState, &m.outWarning},
		{sim.ZonalOutUserConfirm, &m.outConfirm},
	}
	for _, i := range ints {
		ref, err := d.Ref(i.name, sim.KindInt)
		if err != nil {
			return err
		}
		*i.ref = ref
	}
	return nil
}

func (m *Zonal) Calculate(v fmu.Variables) {
	v.SetBool(m.outSwitch, v.Bool(m.inDisabled))
	v.SetInt(m.outWarning, v.Int(m.inWarning))
	v.SetInt(m.outConfirm, v.Int(m.inConfirm))
}

func (m *Zonal) DoStep(v fmu.Variables, _, _ float64) error {
	m.Calculate(v)
	return nil
}
