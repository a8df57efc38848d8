// register.go wires the built-in reference models and their embedded
// descriptors into sim/fmu. Importing this package for side effects makes
// "builtin:zonal", "builtin:airbag" and "builtin:cockpit" resolvable.
package models

import (
	"embed"

	"github.com/vecu-cosim/cosim-host/sim/fmu"
)

//go:embed descriptors
var descriptorFS embed.FS

// Builtin unit identifiers, one per pipeline role.
const (
	ZonalID   = fmu.BuiltinPrefix + "zonal"
	AirbagID  = fmu.BuiltinPrefix + "airbag"
	CockpitID = fmu.BuiltinPrefix + "cockpit"
)

func init() {
	fmu.RegisterModel("vecu_zonal", func() fmu.Model { return &Zonal{} })
	fmu.RegisterModel("vECU_Airbag", func() fmu.Model { return &Airbag{} })
	fmu.RegisterModel("cockpit_test", func() fmu.Model { return &Cockpit{} })

	registerDescriptor("zonal", "descriptors/zonal.yaml")
	registerDescriptor("airbag", "descriptors/airbag.yaml")
	registerDescriptor("cockpit", "descriptors/cockpit.xml")
}

func registerDescriptor(name, path string) {
	data, err := descriptorFS.ReadFile(path)
	if err != nil {
		panic("models: missing embedded descriptor " + path)
	}
	fmu.RegisterBuiltin(name, path, data)
}
