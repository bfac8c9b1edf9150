package main

import (
	"context"
	"fmt"
	"log"
	"net"

	"fyne.io/systray"

	"github.com/dotside-studios/davi-card-agent/buildinfo"
	"github.com/dotside-studios/davi-card-agent/card"
	"github.com/dotside-studios/davi-card-agent/nfcsession"
)

const trayViewID = "tray"

// getLocalIPs returns a list of local IP addresses (excluding loopback)
func getLocalIPs() []string {
	var ips []string
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ips
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ipNet.IP.To4() != nil {
				ips = append(ips, ipNet.IP.String())
			}
		}
	}
	return ips
}

// SystrayApp shows the card screen in the system tray. It is a view of the
// NFC session: notices, tags and state changes are reflected in the menu.
type SystrayApp struct {
	agent  *Agent
	opener card.LinkOpener

	ctx    context.Context
	cancel context.CancelFunc

	// Menu items
	mStatus  *systray.MenuItem
	mState   *systray.MenuItem
	mNotice  *systray.MenuItem
	mTag     *systray.MenuItem
	mViewURL *systray.MenuItem
}

// NewSystrayApp creates a new systray application
func NewSystrayApp(agent *Agent, opener card.LinkOpener) *SystrayApp {
	ctx, cancel := context.WithCancel(context.Background())
	return &SystrayApp{
		agent:  agent,
		opener: opener,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run starts the systray application
func (s *SystrayApp) Run() {
	systray.Run(s.onReady, s.onExit)
}

func (s *SystrayApp) onReady() {
	s.setupUI()
	s.agent.Views.Attach(trayViewID, s)

	go func() {
		if err := s.agent.Start(s.ctx); err != nil {
			log.Printf("[tray] Failed to start agent: %v", err)
			s.mStatus.SetTitle("Failed to Start")
			return
		}
		s.mStatus.SetTitle("Running")
		s.mViewURL.SetTitle("View: " + s.viewURL())
		s.StateChanged(s.agent.State())
	}()
}

func (s *SystrayApp) onExit() {
	s.cancel()
	s.agent.Views.Detach(trayViewID)
	s.agent.Stop()
}

// setupUI builds the menu from the card profile
func (s *SystrayApp) setupUI() {
	profile := s.agent.Profile()

	if icon, err := card.QRCode(profile.ShareURL, card.MinQRSize); err == nil {
		systray.SetIcon(icon)
	} else {
		log.Printf("[tray] Failed to render tray icon: %v", err)
	}
	systray.SetTitle(buildinfo.DisplayName)
	systray.SetTooltip(buildinfo.Description)

	s.mStatus = systray.AddMenuItem("Starting...", "Agent status")
	s.mStatus.Disable()
	s.mState = systray.AddMenuItem("NFC: "+nfcsession.StateUninitialized.String(), "NFC session state")
	s.mState.Disable()
	s.mNotice = systray.AddMenuItem("No notices", "Last notice")
	s.mNotice.Disable()
	s.mTag = systray.AddMenuItem("Tag: None", "Last discovered tag")
	s.mTag.Disable()

	systray.AddSeparator()

	for _, action := range profile.Actions {
		item := systray.AddMenuItem(action.Label, string(action.Kind)+" action")
		go s.watchAction(item, action)
	}

	systray.AddSeparator()

	mOpen := systray.AddMenuItem("Open website", profile.ShareURL)
	mCopy := systray.AddMenuItem("Copy share link", "Copy the card link to the clipboard")
	s.mViewURL = systray.AddMenuItem("View: Not running", "WebSocket URL for card views")
	s.mViewURL.Disable()
	mCopyView := systray.AddMenuItem("Copy view URL", "Copy the WebSocket URL to the clipboard")

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go s.handleMenuEvents(mOpen, mCopy, mCopyView, mQuit)
}

func (s *SystrayApp) handleMenuEvents(mOpen, mCopy, mCopyView, mQuit *systray.MenuItem) {
	for {
		select {
		case <-mOpen.ClickedCh:
			s.openShareLink()
		case <-mCopy.ClickedCh:
			s.copy("share link", s.agent.Profile().ShareURL)
		case <-mCopyView.ClickedCh:
			if s.agent.Port() != 0 {
				s.copy("view URL", s.viewURL())
			}
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *SystrayApp) watchAction(item *systray.MenuItem, action card.Action) {
	for {
		select {
		case <-item.ClickedCh:
			s.runAction(action)
		case <-s.ctx.Done():
			return
		}
	}
}

// runAction performs a card action. NFC reads block until a tag is
// presented so they run in the background.
func (s *SystrayApp) runAction(action card.Action) {
	log.Printf("[tray] Card action %q", action.ID)
	switch action.Kind {
	case card.ActionLink:
		s.openShareLink()
	case card.ActionNFC:
		go func() {
			if err := s.agent.RequestRead(s.ctx); err != nil {
				log.Printf("[tray] NFC read request: %v", err)
			}
		}()
	}
}

func (s *SystrayApp) openShareLink() {
	if err := s.opener.Open(s.agent.Profile().ShareURL); err != nil {
		log.Printf("[tray] Failed to open link: %v", err)
	}
}

func (s *SystrayApp) copy(what, text string) {
	if err := card.CopyToClipboard(text); err != nil {
		log.Printf("[tray] Failed to copy to clipboard: %v", err)
		return
	}
	log.Printf("[tray] Copied %s to clipboard", what)
}

func (s *SystrayApp) viewURL() string {
	ip := "localhost"
	if ips := getLocalIPs(); len(ips) > 0 {
		ip = ips[0]
	}
	return fmt.Sprintf("ws://%s:%d/ws", ip, s.agent.Port())
}

func (s *SystrayApp) Notify(n nfcsession.Notice) {
	s.mNotice.SetTitle(n.Title + ": " + n.Message)
}

func (s *SystrayApp) TagDiscovered(tag nfcsession.TagDescriptor) {
	title := "Tag: " + tag.ID
	if tag.Type != "" {
		title += " (" + tag.Type + ")"
	}
	s.mTag.SetTitle(title)
}

func (s *SystrayApp) StateChanged(state nfcsession.State) {
	s.mState.SetTitle("NFC: " + state.String())
}
