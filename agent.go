package main

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"

	"github.com/dotside-studios/davi-card-agent/card"
	"github.com/dotside-studios/davi-card-agent/nfc"
	"github.com/dotside-studios/davi-card-agent/nfcsession"
	"github.com/dotside-studios/davi-card-agent/protocol"
	"github.com/dotside-studios/davi-card-agent/server"
)

// Agent hosts the card screen: it mounts the NFC session when started and
// unmounts it when stopped. Views attach to Views.
type Agent struct {
	Logger  *log.Logger
	Config  Config
	Manager nfc.Manager
	Views   *nfcsession.Broadcaster

	mu       sync.Mutex
	hardware *nfcsession.ReaderHardware
	session  *nfcsession.Session
	server   *server.Server
}

func NewAgent(cfg Config, nfcManager nfc.Manager) *Agent {
	return &Agent{
		Logger:  log.New(os.Stderr, "[agent] ", log.LstdFlags),
		Config:  cfg,
		Manager: nfcManager,
		Views:   nfcsession.NewBroadcaster(),
	}
}

// Profile returns the card shown by the agent.
func (a *Agent) Profile() card.Profile {
	return a.Config.Profile()
}

// Start mounts the card screen. A reader that fails to start leaves the
// NFC features inert; only a server failure is returned.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return errors.New("agent is already running")
	}

	dm := nfc.NewDeviceManager(a.Manager, a.Config.DevicePath)
	hw := nfcsession.NewReaderHardware(dm, nfcsession.ReaderConfig{
		PollInterval:   a.Config.PollInterval,
		RequestTimeout: a.Config.RequestTimeout,
	})
	session := nfcsession.New(hw, a.Views)

	var initErr *nfcsession.InitError
	if err := session.Start(ctx); err != nil {
		if !errors.As(err, &initErr) {
			return err
		}
		a.Logger.Printf("Continuing without NFC: %v", err)
	}

	srv := server.New(server.Config{
		Session:     session,
		Broadcaster: a.Views,
		Profile:     a.Profile(),
		Port:        a.Config.Port,
		APISecret:   a.Config.APISecret,
		MaxClients:  a.Config.MaxViews,
		EnableMDNS:  !a.Config.NoMDNS,
		ReaderStatus: func() protocol.ReaderStatus {
			return readerStatus(hw.Status())
		},
	})
	if err := srv.Start(); err != nil {
		session.Stop()
		hw.Close()
		return err
	}

	a.hardware, a.session, a.server = hw, session, srv
	a.Logger.Printf("Card agent running on port %d", srv.Port())
	return nil
}

// Stop unmounts the card screen and releases the reader.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		a.Logger.Println("Agent is not running")
		return
	}

	a.Logger.Println("Stopping agent...")

	// The session is terminated first so a read cut short by shutdown is
	// not reported to views as a failure.
	a.session.Stop()
	a.server.Stop()
	if err := a.hardware.Close(); err != nil {
		a.Logger.Printf("Error closing reader: %v", err)
	}

	a.hardware, a.session, a.server = nil, nil, nil
	a.Logger.Println("Agent stopped successfully")
}

// RequestRead starts an NFC read on behalf of a local view.
func (a *Agent) RequestRead(ctx context.Context) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	if session == nil {
		return nfcsession.ErrNotStarted
	}
	return session.RequestRead(ctx)
}

// State returns the NFC session state, or uninitialized when stopped.
func (a *Agent) State() nfcsession.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nfcsession.StateUninitialized
	}
	return a.session.State()
}

// Port returns the port views connect to, or 0 when stopped.
func (a *Agent) Port() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return 0
	}
	return a.server.Port()
}

func readerStatus(s nfcsession.ReaderStatus) protocol.ReaderStatus {
	return protocol.ReaderStatus{
		Connected:    s.Connected,
		Device:       s.Device,
		Pending:      s.Pending,
		CardPresent:  s.CardPresent,
		AlertMessage: s.AlertMessage,
	}
}
