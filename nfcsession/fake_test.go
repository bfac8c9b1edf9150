package nfcsession

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeHardware records every call in CallLog, in the style of the nfc mocks.
type fakeHardware struct {
	StartError      error
	RequestError    error
	RegisterError   error
	UnregisterError error
	CancelError     error

	CallLog []string

	pending   bool
	listeners map[EventKind]Listener
	alert     string
	mu        sync.Mutex
}

func newFakeHardware() *fakeHardware {
	return &fakeHardware{listeners: make(map[EventKind]Listener)}
}

func (f *fakeHardware) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CallLog = append(f.CallLog, call)
}

func (f *fakeHardware) Start() error {
	f.record("Start")
	return f.StartError
}

func (f *fakeHardware) SetEventListener(kind EventKind, listener Listener) {
	if listener == nil {
		f.record(fmt.Sprintf("SetEventListener(%s, nil)", kind))
	} else {
		f.record(fmt.Sprintf("SetEventListener(%s)", kind))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[kind] = listener
}

func (f *fakeHardware) IsRequestPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *fakeHardware) SetPending(pending bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = pending
}

func (f *fakeHardware) RequestTechnology(ctx context.Context, tech Technology) error {
	f.record(fmt.Sprintf("RequestTechnology(%s)", tech))
	f.SetPending(true)
	return f.RequestError
}

func (f *fakeHardware) RegisterTagEvent(ctx context.Context) error {
	f.record("RegisterTagEvent")
	return f.RegisterError
}

func (f *fakeHardware) UnregisterTagEvent() error {
	f.record("UnregisterTagEvent")
	f.SetPending(false)
	return f.UnregisterError
}

func (f *fakeHardware) CancelTechnologyRequest() error {
	f.record("CancelTechnologyRequest")
	f.SetPending(false)
	return f.CancelError
}

func (f *fakeHardware) SetAlertMessage(msg string) error {
	f.record("SetAlertMessage")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alert = msg
	return nil
}

// Fire invokes the listener for ev.Kind and reports whether one was set.
func (f *fakeHardware) Fire(ev Event) bool {
	f.mu.Lock()
	listener := f.listeners[ev.Kind]
	f.mu.Unlock()
	if listener == nil {
		return false
	}
	listener(ev)
	return true
}

func (f *fakeHardware) GetCallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	logCopy := make([]string, len(f.CallLog))
	copy(logCopy, f.CallLog)
	return logCopy
}

func (f *fakeHardware) Count(call string) int {
	n := 0
	for _, c := range f.GetCallLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeHardware) Alert() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alert
}

// recordingNotifier collects everything a session surfaces.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
	tags    []TagDescriptor
	states  []State
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) TagDiscovered(tag TagDescriptor) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tags = append(n.tags, tag)
}

func (n *recordingNotifier) StateChanged(state State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *recordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

func (n *recordingNotifier) Tags() []TagDescriptor {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]TagDescriptor(nil), n.tags...)
}

func (n *recordingNotifier) States() []State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]State(nil), n.states...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
