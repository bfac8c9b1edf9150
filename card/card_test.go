package card

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile("")
	if p.ShareURL != DefaultShareURL {
		t.Errorf("ShareURL = %q, want %q", p.ShareURL, DefaultShareURL)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	nfcActions := p.ActionsOf(ActionNFC)
	wantLabels := []string{
		"Share my card",
		"Add card to wallet",
		"Add card to homescreen",
		"Create Email signature",
		"Create virtual background",
	}
	if len(nfcActions) != len(wantLabels) {
		t.Fatalf("got %d NFC actions, want %d", len(nfcActions), len(wantLabels))
	}
	for i, a := range nfcActions {
		if a.Label != wantLabels[i] || a.Placement != PlacementBody {
			t.Errorf("action %d = %+v, want label %q in body", i, a, wantLabels[i])
		}
	}

	links := p.ActionsOf(ActionLink)
	if len(links) != 2 || links[0].Placement != PlacementHeader || links[1].Label != "Share with AirDrop" {
		t.Errorf("link actions = %+v", links)
	}
}

func TestProfile_Action(t *testing.T) {
	p := DefaultProfile("https://example.com/card")

	a, ok := p.Action("wallet")
	if !ok || a.Kind != ActionNFC || a.Label != "Add card to wallet" {
		t.Errorf("Action(wallet) = %+v, %v", a, ok)
	}
	if _, ok := p.Action("missing"); ok {
		t.Error("Action(missing) should not be found")
	}
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"relative URL", func(p *Profile) { p.ShareURL = "/card" }},
		{"ftp URL", func(p *Profile) { p.ShareURL = "ftp://example.com" }},
		{"no actions", func(p *Profile) { p.Actions = nil }},
		{"duplicate id", func(p *Profile) { p.Actions[1].ID = p.Actions[0].ID }},
		{"missing label", func(p *Profile) { p.Actions[2].Label = "" }},
		{"unknown kind", func(p *Profile) { p.Actions[3].Kind = "email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile("")
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestQRCode(t *testing.T) {
	png, err := QRCode(DefaultShareURL, DefaultQRSize)
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("QRCode() did not return a PNG")
	}

	for _, size := range []int{0, MinQRSize - 1, MaxQRSize + 1} {
		if _, err := QRCode(DefaultShareURL, size); err == nil {
			t.Errorf("QRCode(size=%d) should fail", size)
		}
	}
}

func TestQRText(t *testing.T) {
	text, err := QRText(DefaultShareURL)
	if err != nil {
		t.Fatalf("QRText() error = %v", err)
	}
	if strings.Count(text, "\n") < 10 {
		t.Errorf("QRText() looks too small:\n%s", text)
	}
}

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		cmd, err := openCommand(tt.goos, DefaultShareURL)
		if err != nil {
			t.Fatalf("openCommand(%s) error = %v", tt.goos, err)
		}
		if !strings.HasSuffix(cmd.Path, tt.want) && cmd.Args[0] != tt.want {
			t.Errorf("openCommand(%s) = %v, want %s", tt.goos, cmd.Args, tt.want)
		}
		if cmd.Args[len(cmd.Args)-1] != DefaultShareURL {
			t.Errorf("openCommand(%s) should pass the URL last, got %v", tt.goos, cmd.Args)
		}
	}

	if _, err := openCommand("plan9", DefaultShareURL); err == nil {
		t.Error("openCommand(plan9) should fail")
	}
}

func TestLinkOpenerFunc(t *testing.T) {
	var opened string
	var opener LinkOpener = LinkOpenerFunc(func(url string) error {
		opened = url
		return errors.New("no browser")
	})
	if err := opener.Open(DefaultShareURL); err == nil {
		t.Error("expected the function's error")
	}
	if opened != DefaultShareURL {
		t.Errorf("opened = %q", opened)
	}
}
