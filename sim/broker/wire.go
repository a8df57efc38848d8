package broker

import (
	"time"

	"github.com/vecu-cosim/cosim-host/sim"
)

// Wire operations.
const (
	opGet = "get"
	opSet = "set"
)

// request is one client call. Requests and responses alternate on a
// connection; ID lets the client detect a desynchronized stream.
type request struct {
	ID     uint64               `cbor:"1,keyasint"`
	Op     string               `cbor:"2,keyasint"`
	Paths  []string             `cbor:"3,keyasint,omitempty"`
	Values map[string]wireValue `cbor:"4,keyasint,omitempty"`
}

type response struct {
	ID     uint64                   `cbor:"1,keyasint"`
	Error  string                   `cbor:"2,keyasint,omitempty"`
	Values map[string]wireDatapoint `cbor:"3,keyasint,omitempty"`
}

type wireValue struct {
	Kind uint8 `cbor:"1,keyasint"`
	Raw  int64 `cbor:"2,keyasint"`
}

type wireDatapoint struct {
	Value     wireValue `cbor:"1,keyasint"`
	Timestamp int64     `cbor:"2,keyasint"` // Unix nanoseconds
}

func toWire(v sim.Value) wireValue {
	return wireValue{Kind: uint8(v.Kind()), Raw: v.AsInt()}
}

func fromWire(w wireValue) (sim.Value, bool) {
	switch sim.Kind(w.Kind) {
	case sim.KindBool:
		return sim.Bool(w.Raw != 0), true
	case sim.KindInt:
		return sim.Int(w.Raw), true
	default:
		return sim.Value{}, false
	}
}

func datapointToWire(dp Datapoint) wireDatapoint {
	return wireDatapoint{Value: toWire(dp.Value), Timestamp: dp.Timestamp.UnixNano()}
}

func datapointFromWire(w wireDatapoint) (Datapoint, bool) {
	v, ok := fromWire(w.Value)
	if !ok {
		return Datapoint{}, false
	}
	return Datapoint{Value: v, Timestamp: time.Unix(0, w.Timestamp)}, true
}
