package nfcsession

import (
	"context"

	"github.com/dotside-studios/davi-card-agent/nfc"
)

// Technology names an NFC technology a reader session can be asked for.
type Technology string

// TechNdef selects tags that carry an NDEF message.
const TechNdef Technology = nfc.TechNdef

// EventKind identifies which hardware event a listener is attached to.
type EventKind int

const (
	EventDiscoverTag EventKind = iota
	EventSessionClosed
)

func (k EventKind) String() string {
	switch k {
	case EventDiscoverTag:
		return "DiscoverTag"
	case EventSessionClosed:
		return "SessionClosed"
	default:
		return "Unknown"
	}
}

// Event is delivered to listeners. Tag is set for EventDiscoverTag only.
type Event struct {
	Kind EventKind
	Tag  *TagDescriptor
}

// Listener receives hardware events. It may be called from any goroutine
// and must not block.
type Listener func(Event)

// Hardware is the NFC reader abstraction a Session drives.
//
// IsRequestPending must report true from the moment RequestTechnology is
// called until the request is released by UnregisterTagEvent or
// CancelTechnologyRequest, including after a failed RequestTechnology.
// CancelTechnologyRequest must be safe to call at any time.
type Hardware interface {
	Start() error
	// SetEventListener replaces the listener for kind; nil clears it.
	SetEventListener(kind EventKind, listener Listener)
	IsRequestPending() bool
	RequestTechnology(ctx context.Context, tech Technology) error
	RegisterTagEvent(ctx context.Context) error
	UnregisterTagEvent() error
	CancelTechnologyRequest() error
	// SetAlertMessage sets the status text the reader shows while a tag is
	// in the field.
	SetAlertMessage(msg string) error
}
