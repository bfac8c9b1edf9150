package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dotside-studios/davi-card-agent/card"
	"github.com/dotside-studios/davi-card-agent/nfcsession"
	"github.com/dotside-studios/davi-card-agent/protocol"
)

// Reader is the part of the NFC session the server drives.
type Reader interface {
	RequestRead(ctx context.Context) error
	State() nfcsession.State
}

// CardHandler handles card actions sent by views. Link actions are answered
// with an openLink message; NFC actions start a read on the session.
type CardHandler struct {
	profile card.Profile
	reader  Reader

	mu      sync.RWMutex
	baseCtx context.Context
	reads   sync.WaitGroup
}

// NewCardHandler creates a handler for profile's actions.
func NewCardHandler(profile card.Profile, reader Reader) *CardHandler {
	return &CardHandler{
		profile: profile,
		reader:  reader,
		baseCtx: context.Background(),
	}
}

// Register implements ServerHandler.
func (h *CardHandler) Register(server HandlerServer) {
	server.Handle(protocol.WSTypeCardAction, h.handleCardAction)

	server.StartLifecycle(func(ctx context.Context) {
		h.mu.Lock()
		h.baseCtx = ctx
		h.mu.Unlock()
	})
}

func (h *CardHandler) handleCardAction(ctx context.Context, client *Client, req protocol.WebSocketRequest) error {
	actionID, _ := req.Payload["actionID"].(string)
	if actionID == "" {
		client.SendError(req.ID, protocol.ErrCodeInvalidRequest, "actionID is required")
		return errors.New("cardAction without actionID")
	}

	action, ok := h.profile.Action(actionID)
	if !ok {
		client.SendError(req.ID, protocol.ErrCodeUnknownAction, fmt.Sprintf("Unknown card action: %s", actionID))
		return fmt.Errorf("unknown card action %q", actionID)
	}

	log.Printf("[server] Card action %q from %s", action.ID, client.ID)
	client.SendResponse(req.ID, protocol.WSTypeCardActionResponse, protocol.CardActionResult{
		ActionID: action.ID,
		Kind:     string(action.Kind),
	})

	switch action.Kind {
	case card.ActionLink:
		client.Send(protocol.WebSocketMessage{
			Type:    protocol.WSTypeOpenLink,
			Payload: protocol.OpenLinkPayload{ActionID: action.ID, URL: h.profile.ShareURL},
		})
	case card.ActionNFC:
		h.startRead()
	}
	return nil
}

// startRead runs RequestRead in the background; it blocks until a tag is in
// the field. Outcomes reach the views as notices.
func (h *CardHandler) startRead() {
	h.mu.RLock()
	ctx := h.baseCtx
	h.mu.RUnlock()

	h.reads.Add(1)
	go func() {
		defer h.reads.Done()
		if err := h.reader.RequestRead(ctx); err != nil {
			log.Printf("[server] NFC read request: %v", err)
		}
	}()
}

// Wait blocks until background reads have returned.
func (h *CardHandler) Wait() {
	h.reads.Wait()
}
