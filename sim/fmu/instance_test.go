package fmu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecu-cosim/cosim-host/sim"
)

func TestInstantiate_StartValues(t *testing.T) {
	u, err := Instantiate("echo", echoDescriptor(t))
	require.NoError(t, err)
	assert.Equal(t, sim.UnitInstantiated, u.State())
	assert.Equal(t, "echo", u.Name())
	assert.Equal(t, echoIdentifier, u.Descriptor().ModelIdentifier)
	assert.Equal(t, sim.Bool(true), u.vars.get(u.handles["In_Flag"]))
	assert.Equal(t, sim.Int(7), u.vars.get(u.handles["In_Level"]))
	assert.Equal(t, sim.Int(0), u.vars.get(u.handles["Out_Level"]))
}

func TestInstantiate_Failures(t *testing.T) {
	t.Run("unregistered model", func(t *testing.T) {
		d := echoDescriptor(t)
		d.ModelIdentifier = "no_such_model"
		_, err := Instantiate("x", d)
		assert.ErrorIs(t, err, sim.ErrInstantiation)
	})
	t.Run("model cannot bind", func(t *testing.T) {
		d := echoDescriptor(t)
		d.Variables = d.Variables[:3]
		_, err := Instantiate("x", d)
		assert.ErrorIs(t, err, sim.ErrInstantiation)
		assert.ErrorContains(t, err, "Out_Level")
	})
	t.Run("nil descriptor", func(t *testing.T) {
		_, err := Instantiate("x", nil)
		assert.ErrorIs(t, err, sim.ErrInstantiation)
	})
	t.Run("load failure names the unit", func(t *testing.T) {
		_, err := Load(NewLoader(t.TempDir()), "cockpit", "builtin:nope")
		assert.ErrorIs(t, err, sim.ErrInstantiation)
		var ue *sim.UnitError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "cockpit", ue.Unit)
	})
}

func TestInstance_Lifecycle_OutOfOrder(t *testing.T) {
	tests := []struct {
		name string
		call func(u *Instance) error
	}{
		{"enter-init before configure", func(u *Instance) error { return u.EnterInit() }},
		{"exit-init before configure", func(u *Instance) error { return u.ExitInit() }},
		{"advance before init", func(u *Instance) error { return u.Advance(0, 0.01) }},
		{"configure twice", func(u *Instance) error {
			_ = u.Configure(0, 1)
			return u.Configure(0, 1)
		}},
		{"exit-init without enter-init", func(u *Instance) error {
			_ = u.Configure(0, 1)
			return u.ExitInit()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Instantiate("echo", echoDescriptor(t))
			require.NoError(t, err)
			err = tt.call(u)
			assert.ErrorIs(t, err, sim.ErrProtocol)
			assert.True(t, sim.IsFatal(err))
		})
	}
}

func TestInstance_OutputsRecomputedOnRead(t *testing.T) {
	u := newSteppingEcho(t)

	// Outputs reflect start values after initialization
	got, err := u.GetSignal("Out_Level")
	require.NoError(t, err)
	assert.Equal(t, sim.Int(7), got)

	// And follow a new input without an Advance
	require.NoError(t, u.SetSignal("In_Level", sim.Int(3)))
	got, err = u.GetSignal("Out_Level")
	require.NoError(t, err)
	assert.Equal(t, sim.Int(3), got)

	require.NoError(t, u.SetSignal("In_Flag", sim.Bool(false)))
	require.NoError(t, u.Advance(0, 0.01))
	flag, err := u.GetSignal("Out_Flag")
	require.NoError(t, err)
	assert.Equal(t, sim.Bool(false), flag)
}

func TestInstance_UnknownSignal_LeavesOthersUnchanged(t *testing.T) {
	// GIVEN a stepping unit with known input values
	u := newSteppingEcho(t)
	require.NoError(t, u.SetSignal("In_Level", sim.Int(11)))
	before := map[string]sim.Value{}
	for name, v := range u.handles {
		before[name] = u.vars.get(v)
	}

	// WHEN an undeclared signal is set and read
	setErr := u.SetSignal("In_Nonexistent", sim.Int(1))
	_, getErr := u.GetSignal("Out_Nonexistent")

	// THEN both fail as UnknownSignal and no declared signal changed
	assert.ErrorIs(t, setErr, sim.ErrUnknownSignal)
	assert.ErrorIs(t, getErr, sim.ErrUnknownSignal)
	for name, v := range u.handles {
		assert.Equal(t, before[name], u.vars.get(v), "signal %s", name)
	}
}

func TestInstance_TypeMismatch(t *testing.T) {
	u := newSteppingEcho(t)

	err := u.SetSignal("In_Level", sim.Bool(true))
	assert.ErrorIs(t, err, sim.ErrTypeMismatch)

	err = u.SetSignal("In_Flag", sim.Int(1))
	assert.ErrorIs(t, err, sim.ErrTypeMismatch)

	got, _ := u.GetSignal("In_Level")
	assert.Equal(t, sim.Int(7), got, "rejected write must not change the signal")
}

func TestInstance_StepError_IsTerminal(t *testing.T) {
	// GIVEN an input that the model rejects
	u := newSteppingEcho(t)
	require.NoError(t, u.SetSignal("In_Level", sim.Int(-1)))

	// WHEN it advances
	err := u.Advance(0.5, 0.01)

	// THEN the unit fails and refuses further use
	assert.ErrorIs(t, err, sim.ErrStep)
	assert.Equal(t, sim.UnitFailed, u.State())
	assert.ErrorIs(t, u.Advance(0.51, 0.01), sim.ErrProtocol)
	_, err = u.GetSignal("Out_Level")
	assert.ErrorIs(t, err, sim.ErrProtocol)
}

func TestInstance_Advance_NonPositiveStep(t *testing.T) {
	u := newSteppingEcho(t)
	assert.ErrorIs(t, u.Advance(0, 0), sim.ErrStep)
	assert.Equal(t, sim.UnitFailed, u.State())
}

func TestInstance_Terminate_Idempotent(t *testing.T) {
	u := newSteppingEcho(t)
	assert.NoError(t, u.Terminate())
	assert.NoError(t, u.Terminate())
	assert.Equal(t, sim.UnitTerminated, u.State())
	assert.ErrorIs(t, u.SetSignal("In_Level", sim.Int(1)), sim.ErrProtocol)
}
