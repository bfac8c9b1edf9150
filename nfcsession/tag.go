package nfcsession

import (
	"encoding/json"
	"fmt"

	"github.com/dotside-studios/davi-card-agent/nfc"
)

// TagDescriptor is the key/value record of a discovered tag as it is shown
// to the user and sent to views.
type TagDescriptor struct {
	ID          string       `json:"id"`
	Type        string       `json:"type,omitempty"`
	TechTypes   []string     `json:"techTypes,omitempty"`
	NdefMessage []NDEFRecord `json:"ndefMessage,omitempty"`
}

// NDEFRecord is one record of a tag's NDEF message. Text and URI are filled
// in for well-known text and URI records.
type NDEFRecord struct {
	TNF     byte   `json:"tnf"`
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload []byte `json:"payload"`
	Text    string `json:"text,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// DescribeTag builds a descriptor for tag, reading its NDEF message when the
// tag reports one.
func DescribeTag(tag nfc.Tag) (TagDescriptor, error) {
	desc := TagDescriptor{
		ID:        tag.UID(),
		Type:      tag.Type(),
		TechTypes: tag.Technologies(),
	}
	if !nfc.SupportsTechnology(tag, nfc.TechNdef) {
		return desc, nil
	}

	data, err := tag.ReadData()
	if err != nil {
		return desc, fmt.Errorf("read NDEF from %s: %w", desc.ID, err)
	}
	if len(data) == 0 {
		return desc, nil
	}
	records, err := nfc.ParseNDEF(data)
	if err != nil {
		return desc, fmt.Errorf("parse NDEF from %s: %w", desc.ID, err)
	}
	for _, rec := range records {
		out := NDEFRecord{
			TNF:     rec.TNF,
			Type:    string(rec.Type),
			ID:      string(rec.ID),
			Payload: rec.Payload,
		}
		if text, ok := rec.GetText(); ok {
			out.Text = text
		}
		if uri, ok := rec.GetURI(); ok {
			out.URI = uri
		}
		desc.NdefMessage = append(desc.NdefMessage, out)
	}
	return desc, nil
}

// JSON returns the descriptor encoded as JSON.
func (d TagDescriptor) JSON() string {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf(`{"id":%q}`, d.ID)
	}
	return string(b)
}
