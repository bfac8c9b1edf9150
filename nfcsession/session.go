package nfcsession

import (
	"context"
	"log"
	"sync"
)

// AlertTagDetected is the reader status message set when a tag is handled.
const AlertTagDetected = "NFC tag detected"

// Session owns one reader session for the lifetime of a screen.
//
// Start registers the tag-discovered and session-closed listeners,
// RequestRead asks the hardware for an NDEF tag and Stop clears the
// listeners. Hardware callbacks are queued on a Subscription and handled
// one at a time on a dispatcher goroutine.
type Session struct {
	hw       Hardware
	notifier Notifier

	mu    sync.Mutex
	state State
	sub   *Subscription
	done  chan struct{}
}

// New creates a session driving hw and reporting to notifier.
func New(hw Hardware, notifier Notifier) *Session {
	return &Session{
		hw:       hw,
		notifier: notifier,
		state:    StateUninitialized,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start initializes the hardware and subscribes both listeners. If the
// hardware fails to start the error is logged, the session goes inert and
// an *InitError is returned; the caller may continue without NFC.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateUninitialized:
	case StateTerminated:
		s.mu.Unlock()
		return ErrStopped
	default:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.hw.Start(); err != nil {
		log.Printf("[session] NFC hardware failed to start, NFC features disabled: %v", err)
		s.transition(StateInert)
		return &InitError{Err: err}
	}

	sub := NewSubscription(DefaultSubscriptionBuffer)
	done := make(chan struct{})

	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return ErrStopped
	}
	s.sub = sub
	s.done = done
	s.mu.Unlock()

	s.hw.SetEventListener(EventDiscoverTag, func(ev Event) { sub.Publish(ev) })
	s.hw.SetEventListener(EventSessionClosed, func(ev Event) { sub.Publish(ev) })

	go s.dispatch(sub, done)

	s.transition(StateIdle)
	log.Printf("[session] NFC session started")
	return nil
}

func (s *Session) dispatch(sub *Subscription, done chan struct{}) {
	defer close(done)
	for {
		ev, ok := sub.Next()
		if !ok {
			return
		}
		switch ev.Kind {
		case EventDiscoverTag:
			s.onTagDiscovered(ev.Tag)
		case EventSessionClosed:
			s.onSessionClosed()
		}
	}
}

// onTagDiscovered surfaces tag and releases the tag event. A nil tag is
// logged but still releases the registration.
func (s *Session) onTagDiscovered(tag *TagDescriptor) {
	if tag != nil {
		log.Printf("[session] Tag found: %s", tag.ID)
		s.notifier.Notify(TagFoundNotice(*tag))
		s.notifier.TagDiscovered(*tag)
	} else {
		log.Printf("[session] Tag event without a tag descriptor")
	}

	if err := s.hw.SetAlertMessage(AlertTagDetected); err != nil {
		log.Printf("[session] Failed to set reader status message: %v", err)
	}

	// Unregistration is best-effort; a failure here leaves nothing for the
	// user to act on and the next request starts a fresh registration.
	_ = s.hw.UnregisterTagEvent()

	s.transitionFrom(StatePending, StateIdle)
}

func (s *Session) onSessionClosed() {
	log.Printf("[session] NFC session closed")
	if s.hw.IsRequestPending() {
		return
	}
	s.transitionFrom(StatePending, StateIdle)
}

// RequestRead asks the hardware for an NDEF tag and registers for tag
// events. A second call while a request is outstanding shows the
// in-progress notice and returns ErrAlreadyPending without touching the
// hardware. On failure the request is cancelled and a *RequestError is
// returned.
func (s *Session) RequestRead(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateUninitialized:
		s.mu.Unlock()
		return ErrNotStarted
	case StateTerminated:
		s.mu.Unlock()
		return ErrStopped
	case StateInert:
		s.mu.Unlock()
		s.notifier.Notify(NoticeUnavailable)
		return ErrInert
	}

	if s.state == StatePending || s.hw.IsRequestPending() {
		s.mu.Unlock()
		log.Printf("[session] Read requested while another request is pending")
		s.notifier.Notify(NoticeInProgress)
		return ErrAlreadyPending
	}
	s.state = StatePending
	s.mu.Unlock()
	s.notifier.StateChanged(StatePending)

	if err := s.hw.RequestTechnology(ctx, TechNdef); err != nil {
		return s.fail(ctx, StepRequestTechnology, err)
	}
	if err := s.hw.RegisterTagEvent(ctx); err != nil {
		return s.fail(ctx, StepRegisterTagEvent, err)
	}
	return nil
}

// fail cancels the request once. The error notice is skipped when the
// session has been stopped or the caller's context has ended, since the
// caller abandoned the read.
func (s *Session) fail(ctx context.Context, step string, err error) error {
	log.Printf("[session] NFC %s failed: %v", step, err)

	abandoned := s.State() == StateTerminated || ctx.Err() != nil
	if !abandoned {
		s.notifier.Notify(NoticeReadError)
	}

	if cerr := s.hw.CancelTechnologyRequest(); cerr != nil {
		log.Printf("[session] Failed to cancel technology request: %v", cerr)
	}

	s.transitionFrom(StatePending, StateIdle)
	return &RequestError{Step: step, Err: err}
}

// Stop clears both listeners and closes the subscription; no handler runs
// once Stop returns. Any outstanding request is then cancelled. Stop does
// not stop the hardware and is safe to call more than once. It must not be
// called from a Notifier callback.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = StateTerminated
	sub, done := s.sub, s.done
	s.mu.Unlock()

	if sub != nil {
		s.hw.SetEventListener(EventDiscoverTag, nil)
		s.hw.SetEventListener(EventSessionClosed, nil)
		sub.Close()
		<-done
	}

	if prev == StateIdle || prev == StatePending {
		if err := s.hw.CancelTechnologyRequest(); err != nil {
			log.Printf("[session] Failed to cancel technology request on stop: %v", err)
		}
	}

	s.notifier.StateChanged(StateTerminated)
	log.Printf("[session] NFC session stopped")
}

// transition moves to state unless the session is terminated.
func (s *Session) transition(state State) {
	s.mu.Lock()
	if s.state == StateTerminated || s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.notifier.StateChanged(state)
}

// transitionFrom moves from one state to another and is a no-op otherwise.
func (s *Session) transitionFrom(from, to State) {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.mu.Unlock()
	s.notifier.StateChanged(to)
}
