// Package card describes the shareable card screen: its actions, the share
// link and the QR code rendered for it.
package card

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultShareURL is the link the card shares.
const DefaultShareURL = "https://nextlinkinternet.com/fiber-internet-to-the-home/"

// ActionKind says what activating an action does.
type ActionKind string

const (
	// ActionNFC starts an NFC tag read.
	ActionNFC ActionKind = "nfc"
	// ActionLink opens the share URL.
	ActionLink ActionKind = "link"
)

// Placement is where an action sits on the screen.
type Placement string

const (
	PlacementHeader Placement = "header"
	PlacementBody   Placement = "body"
	PlacementFooter Placement = "footer"
)

// Action is one control on the card screen.
type Action struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Icon      string     `json:"icon,omitempty"`
	Kind      ActionKind `json:"kind"`
	Placement Placement  `json:"placement"`
}

// Profile is the content of the card screen.
type Profile struct {
	ShareURL string   `json:"shareUrl"`
	Actions  []Action `json:"actions"`
}

// DefaultProfile returns the card screen with its standard actions. An empty
// shareURL uses DefaultShareURL.
func DefaultProfile(shareURL string) Profile {
	if shareURL == "" {
		shareURL = DefaultShareURL
	}
	return Profile{
		ShareURL: shareURL,
		Actions: []Action{
			{ID: "header-share", Label: "Share my card", Icon: "down", Kind: ActionLink, Placement: PlacementHeader},
			{ID: "share", Label: "Share my card", Icon: "share", Kind: ActionNFC, Placement: PlacementBody},
			{ID: "wallet", Label: "Add card to wallet", Icon: "wallet", Kind: ActionNFC, Placement: PlacementBody},
			{ID: "homescreen", Label: "Add card to homescreen", Icon: "home", Kind: ActionNFC, Placement: PlacementBody},
			{ID: "email-signature", Label: "Create Email signature", Icon: "write", Kind: ActionNFC, Placement: PlacementBody},
			{ID: "virtual-background", Label: "Create virtual background", Icon: "virtual", Kind: ActionNFC, Placement: PlacementBody},
			{ID: "airdrop", Label: "Share with AirDrop", Icon: "wifi", Kind: ActionLink, Placement: PlacementFooter},
		},
	}
}

// Action returns the action with the given id.
func (p Profile) Action(id string) (Action, bool) {
	for _, a := range p.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// ActionsOf returns the actions of the given kind in screen order.
func (p Profile) ActionsOf(kind ActionKind) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Validate checks that the share URL is an absolute http(s) URL and that
// every action has a unique id, a label and a known kind.
func (p Profile) Validate() error {
	u, err := url.Parse(p.ShareURL)
	if err != nil {
		return fmt.Errorf("invalid share URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("share URL must be an absolute http(s) URL, got %q", p.ShareURL)
	}

	if len(p.Actions) == 0 {
		return errors.New("card has no actions")
	}
	seen := make(map[string]bool, len(p.Actions))
	for i, a := range p.Actions {
		if a.ID == "" || a.Label == "" {
			return fmt.Errorf("action %d: id and label are required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("action %q: duplicate id", a.ID)
		}
		seen[a.ID] = true
		if a.Kind != ActionNFC && a.Kind != ActionLink {
			return fmt.Errorf("action %q: unknown kind %q", a.ID, a.Kind)
		}
	}
	return nil
}
