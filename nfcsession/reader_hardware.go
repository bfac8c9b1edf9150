package nfcsession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dotside-studios/davi-card-agent/nfc"
)

// ReaderConfig configures a ReaderHardware.
type ReaderConfig struct {
	// PollInterval is how often the reader is polled for tags.
	PollInterval time.Duration
	// RequestTimeout bounds RequestTechnology. Zero waits until cancelled.
	RequestTimeout time.Duration
	// ReconnectDelay is the base backoff between reconnect attempts.
	ReconnectDelay time.Duration
}

// ReaderStatus is a snapshot of the reader for status endpoints.
type ReaderStatus struct {
	Connected    bool   `json:"connected"`
	Device       string `json:"device,omitempty"`
	Pending      bool   `json:"pending"`
	Registered   bool   `json:"registered"`
	CardPresent  bool   `json:"cardPresent"`
	AlertMessage string `json:"alertMessage,omitempty"`
}

// ReaderHardware implements Hardware on top of a libnfc reader managed by
// an nfc.DeviceManager.
type ReaderHardware struct {
	dm    *nfc.DeviceManager
	cache *nfc.TagCache
	cfg   ReaderConfig

	mu        sync.Mutex
	started   bool
	listeners map[EventKind]Listener
	pending   bool
	tech      Technology
	cancelCh  chan struct{}
	worker    *tagWorker
	alert     string
}

type tagWorker struct {
	stop chan struct{}
	done chan struct{}
}

// NewReaderHardware creates a ReaderHardware for dm.
func NewReaderHardware(dm *nfc.DeviceManager, cfg ReaderConfig) *ReaderHardware {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = nfc.DefaultPollInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = nfc.ReconnectDelay
	}
	return &ReaderHardware{
		dm:        dm,
		cache:     nfc.NewTagCache(nfc.TagPresenceTimeout),
		cfg:       cfg,
		listeners: make(map[EventKind]Listener),
	}
}

// Start connects to the reader.
func (r *ReaderHardware) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if err := r.dm.TryConnect(); err != nil {
		return err
	}

	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	return nil
}

func (r *ReaderHardware) SetEventListener(kind EventKind, listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if listener == nil {
		delete(r.listeners, kind)
		return
	}
	r.listeners[kind] = listener
}

func (r *ReaderHardware) IsRequestPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// RequestTechnology marks a request pending and waits until a tag
// supporting tech is in the field. The request stays pending when it
// fails; release it with CancelTechnologyRequest.
func (r *ReaderHardware) RequestTechnology(ctx context.Context, tech Technology) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nfc.ErrNotStarted
	}
	if r.pending {
		r.mu.Unlock()
		return nfc.ErrRequestPending
	}
	r.pending = true
	r.tech = tech
	cancelCh := make(chan struct{})
	r.cancelCh = cancelCh
	r.mu.Unlock()

	log.Printf("[reader] Waiting for a %s tag", tech)

	var timeout <-chan time.Time
	if r.cfg.RequestTimeout > 0 {
		timer := time.NewTimer(r.cfg.RequestTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		found, err := r.pollFor(tech)
		if err != nil {
			log.Printf("[reader] Poll failed: %v", err)
			if nfc.IsDeviceError(err) {
				if cerr := r.dm.TryConnect(); cerr != nil {
					log.Printf("[reader] Reconnect failed: %v", cerr)
				}
			}
		} else if found {
			return nil
		}

		select {
		case <-ctx.Done():
			return nfc.NewCancelledError("RequestTechnology", ctx.Err())
		case <-cancelCh:
			return nfc.NewCancelledError("RequestTechnology", nil)
		case <-timeout:
			return nfc.NewTimeoutError("RequestTechnology", fmt.Errorf("no %s tag within %s", tech, r.cfg.RequestTimeout))
		case <-ticker.C:
		}
	}
}

func (r *ReaderHardware) pollFor(tech Technology) (bool, error) {
	tags, err := r.dm.GetTags()
	if err != nil {
		return false, err
	}
	for _, tag := range tags {
		if nfc.SupportsTechnology(tag, string(tech)) {
			return true, nil
		}
	}
	return false, nil
}

// RegisterTagEvent starts delivering EventDiscoverTag for each tag that
// enters the field and supports the requested technology. It fails with a
// cancelled error once the request has been released.
func (r *ReaderHardware) RegisterTagEvent(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return nfc.NewCancelledError("RegisterTagEvent", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nfc.ErrNotStarted
	}
	if !r.pending {
		return nfc.NewCancelledError("RegisterTagEvent", errors.New("no technology request pending"))
	}
	if r.worker != nil {
		return nfc.Errorf(nfc.ErrCodeRequestPending, "RegisterTagEvent", "tag event already registered")
	}

	w := &tagWorker{stop: make(chan struct{}), done: make(chan struct{})}
	r.worker = w
	r.cache.Clear()
	go r.run(w, r.tech)
	return nil
}

// UnregisterTagEvent stops tag delivery, releases the pending request and
// emits EventSessionClosed. It does not wait for the worker to exit.
func (r *ReaderHardware) UnregisterTagEvent() error {
	r.mu.Lock()
	w := r.worker
	if w == nil {
		r.mu.Unlock()
		return nfc.ErrNotRegistered
	}
	r.releaseLocked()
	r.mu.Unlock()

	r.emit(Event{Kind: EventSessionClosed})
	return nil
}

// CancelTechnologyRequest aborts a waiting RequestTechnology, stops tag
// delivery and releases the pending request. It is a no-op when idle.
func (r *ReaderHardware) CancelTechnologyRequest() error {
	r.mu.Lock()
	registered := r.worker != nil
	if !r.pending && !registered {
		r.mu.Unlock()
		return nil
	}
	r.releaseLocked()
	r.mu.Unlock()

	log.Printf("[reader] Technology request cancelled")
	if registered {
		r.emit(Event{Kind: EventSessionClosed})
	}
	return nil
}

func (r *ReaderHardware) releaseLocked() {
	if r.cancelCh != nil {
		close(r.cancelCh)
		r.cancelCh = nil
	}
	if r.worker != nil {
		close(r.worker.stop)
		r.worker = nil
	}
	r.pending = false
	r.tech = ""
}

func (r *ReaderHardware) SetAlertMessage(msg string) error {
	r.mu.Lock()
	r.alert = msg
	r.mu.Unlock()
	log.Printf("[reader] Status: %s", msg)
	return nil
}

// Status returns a snapshot of the reader.
func (r *ReaderHardware) Status() ReaderStatus {
	r.mu.Lock()
	status := ReaderStatus{
		Pending:      r.pending,
		Registered:   r.worker != nil,
		AlertMessage: r.alert,
	}
	r.mu.Unlock()

	if dev := r.dm.Device(); dev != nil {
		status.Connected = true
		status.Device = dev.String()
	}
	status.CardPresent = r.cache.IsCardPresent()
	return status
}

// Close cancels any request, waits for the tag worker and disconnects the
// reader.
func (r *ReaderHardware) Close() error {
	r.mu.Lock()
	w := r.worker
	r.mu.Unlock()

	err := r.CancelTechnologyRequest()
	if w != nil {
		<-w.done
	}

	r.mu.Lock()
	r.started = false
	r.mu.Unlock()

	r.dm.Close()
	return err
}

func (r *ReaderHardware) run(w *tagWorker, tech Technology) {
	defer close(w.done)
	log.Printf("[reader] Tag worker started")
	defer log.Printf("[reader] Tag worker stopped")

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		r.poll(w, tech)

		select {
		case <-w.stop:
			return
		case <-ticker.C:
		}
	}
}

func (r *ReaderHardware) poll(w *tagWorker, tech Technology) {
	tags, err := r.dm.GetTags()
	if err != nil {
		if !nfc.IsDeviceError(err) {
			log.Printf("[reader] Error polling tags: %v", err)
			return
		}
		log.Printf("[reader] Device error, reconnecting: %v", err)
		if rerr := r.dm.Reconnect(w.stop, r.cfg.ReconnectDelay); rerr != nil && !nfc.IsCancelledError(rerr) {
			log.Printf("[reader] %v", rerr)
		}
		return
	}

	for _, tag := range tags {
		if tech != "" && !nfc.SupportsTechnology(tag, string(tech)) {
			continue
		}
		if !r.cache.Observe(tag.UID()) {
			continue
		}

		// The tag is observed once per field entry, so a failed read still
		// reports its identity rather than being dropped for good.
		desc, err := DescribeTag(tag)
		if err != nil {
			log.Printf("[reader] %v", err)
		}
		if !r.emitFrom(w, Event{Kind: EventDiscoverTag, Tag: &desc}) {
			return
		}
	}
	for _, uid := range r.cache.Sweep() {
		log.Printf("[reader] Tag %s left the field", uid)
	}
}

// emitFrom delivers ev only while w is the registered worker.
func (r *ReaderHardware) emitFrom(w *tagWorker, ev Event) bool {
	r.mu.Lock()
	if r.worker != w {
		r.mu.Unlock()
		return false
	}
	listener := r.listeners[ev.Kind]
	r.mu.Unlock()

	if listener != nil {
		listener(ev)
	}
	return true
}

func (r *ReaderHardware) emit(ev Event) {
	r.mu.Lock()
	listener := r.listeners[ev.Kind]
	r.mu.Unlock()

	if listener != nil {
		listener(ev)
	}
}
