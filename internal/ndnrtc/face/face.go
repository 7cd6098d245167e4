// Package face defines the receiver's only transport boundary: Interest
// expression and Data/Timeout delivery (spec.md §6, §9). Face has no
// Nack callback; NackReason values reach the segment controller only
// through a direct segctrl.Controller.OnNack call. No
// transport is implemented here — NDN face/signing/verification
// primitives are out of scope per spec.md §1; this package exists so the
// rest of the receiver core can depend on an interface instead of a
// concrete client.
package face

import (
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
)

// NackReason mirrors the handful of network-layer negative
// acknowledgement reasons a face can surface to the receiver.
type NackReason int

const (
	NackNone NackReason = iota
	NackCongestion
	NackDuplicate
	NackNoRoute
)

// Interest is an outstanding request for a named piece of Data.
type Interest struct {
	Name        name.Name
	Nonce       int32
	LifetimeMs  int64
	MustBeFresh bool
}

// Data is a named content object delivered in response to an Interest.
type Data struct {
	Name    name.Name
	Content []byte
}

// Face expresses Interests and delivers exactly one of onData or
// onTimeout per expressed Interest, on the dispatcher goroutine that
// owns it.
type Face interface {
	Express(interest Interest, onData func(Interest, Data), onTimeout func(Interest)) error
}
