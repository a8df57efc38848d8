package fmu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/vecu-cosim/cosim-host/sim"
)

const echoIdentifier = "test_echo"

// echoModel copies In_Flag to Out_Flag and In_Level to Out_Level. A level
// of -1 makes DoStep fail.
type echoModel struct {
	inFlag, outFlag, inLevel, outLevel uint32
	steps                              int
}

func (m *echoModel) Bind(d *Descriptor) error {
	var err error
	if m.inFlag, err = d.Ref("In_Flag", sim.KindBool); err != nil {
		return err
	}
	if m.outFlag, err = d.Ref("Out_Flag", sim.KindBool); err != nil {
		return err
	}
	if m.inLevel, err = d.Ref("In_Level", sim.KindInt); err != nil {
		return err
	}
	m.outLevel, err = d.Ref("Out_Level", sim.KindInt)
	return err
}

func (m *echoModel) Calculate(v Variables) {
	v.SetBool(m.outFlag, v.Bool(m.inFlag))
	v.SetInt(m.outLevel, v.Int(m.inLevel))
}

func (m *echoModel) DoStep(v Variables, _, _ float64) error {
	m.steps++
	if v.Int(m.inLevel) == -1 {
		return errors.New("level out of range")
	}
	m.Calculate(v)
	return nil
}

const echoYAML = `fmi_version: "2.0"
model_name: echo
guid: "{00000000-0000-0000-0000-000000000001}"
model_identifier: test_echo
variables:
  - name: In_Flag
    value_reference: 0
    type: bool
    causality: input
    start: "true"
  - name: Out_Flag
    value_reference: 1
    type: bool
    causality: output
  - name: In_Level
    value_reference: 0
    type: int
    causality: input
    start: "7"
  - name: Out_Level
    value_reference: 1
    type: int
    causality: output
`

const echoXML = `<?xml version="1.0" encoding="UTF-8"?>
<fmiModelDescription fmiVersion="2.0" modelName="echo" guid="{00000000-0000-0000-0000-000000000001}">
  <CoSimulation modelIdentifier="test_echo"/>
  <ModelVariables>
    <ScalarVariable name="In_Flag" valueReference="0" causality="input"><Boolean start="true"/></ScalarVariable>
    <ScalarVariable name="Out_Flag" valueReference="1" causality="output"><Boolean/></ScalarVariable>
    <ScalarVariable name="In_Level" valueReference="0" causality="input"><Integer start="7"/></ScalarVariable>
    <ScalarVariable name="Out_Level" valueReference="1" causality="output"><Enumeration/></ScalarVariable>
    <ScalarVariable name="Temperature" valueReference="0" causality="local"><Real start="21.5"/></ScalarVariable>
  </ModelVariables>
</fmiModelDescription>
`

const echoJSONC = `{
  // comments and trailing commas are accepted
  "fmi_version": "2.0",
  "model_name": "echo",
  "guid": "{00000000-0000-0000-0000-000000000001}",
  "model_identifier": "test_echo",
  "variables": [
    {"name": "In_Flag", "value_reference": 0, "type": "bool", "causality": "input", "start": "true"},
    {"name": "Out_Flag", "value_reference": 1, "type": "bool", "causality": "output"},
    {"name": "In_Level", "value_reference": 0, "type": "int", "causality": "input", "start": "7"},
    {"name": "Out_Level", "value_reference": 1, "type": "int", "causality": "output"},
  ],
}
`

func init() {
	RegisterModel(echoIdentifier, func() Model { return &echoModel{} })
	RegisterBuiltin("test-echo", "echo.yaml", []byte(echoYAML))
}

func echoDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	d, err := Parse("echo.yaml", []byte(echoYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

// newSteppingEcho returns an echo instance that has completed initialization.
func newSteppingEcho(t *testing.T) *Instance {
	t.Helper()
	u, err := Instantiate("echo", echoDescriptor(t))
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	for _, step := range []func() error{
		func() error { return u.Configure(0, 0) },
		u.EnterInit,
		u.ExitInit,
	} {
		if err := step(); err != nil {
			t.Fatalf("initialization: %v", err)
		}
	}
	return u
}

// writeZip creates a zip archive at path holding files.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
