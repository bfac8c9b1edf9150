package nfc

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Type Name Format values
const (
	TNFEmpty     = 0x00
	TNFWellKnown = 0x01
	TNFMIME      = 0x02
	TNFURI       = 0x03
	TNFExternal  = 0x04
)

// NDEFRecord represents a single NDEF record within a message.
type NDEFRecord struct {
	TNF     byte   // Type Name Format (0x00-0x07)
	Type    []byte // Record type (e.g., "T" for text, "U" for URI)
	ID      []byte // Optional record ID
	Payload []byte // Record payload data
}

// IsTextRecord returns true if this is a Text Record.
func (r *NDEFRecord) IsTextRecord() bool {
	return r.TNF == TNFWellKnown && len(r.Type) == 1 && r.Type[0] == 'T'
}

// IsURIRecord returns true if this is a URI Record.
func (r *NDEFRecord) IsURIRecord() bool {
	return r.TNF == TNFWellKnown && len(r.Type) == 1 && r.Type[0] == 'U'
}

// GetText extracts text from a Text Record.
// Returns (text, true) if this is a text record, or ("", false) otherwise.
func (r *NDEFRecord) GetText() (string, bool) {
	if !r.IsTextRecord() {
		return "", false
	}
	text, err := parseTextPayload(r.Payload)
	if err != nil {
		return "", false
	}
	return text, true
}

// GetURI extracts the URI from a URI Record, expanding the prefix code.
func (r *NDEFRecord) GetURI() (string, bool) {
	if !r.IsURIRecord() || len(r.Payload) < 1 {
		return "", false
	}
	code := int(r.Payload[0])
	prefix := ""
	if code < len(uriPrefixes) {
		prefix = uriPrefixes[code]
	}
	return prefix + string(r.Payload[1:]), true
}

// NewTextRecord builds a well-known Text record (UTF-8).
func NewTextRecord(text, lang string) NDEFRecord {
	if lang == "" {
		lang = "en"
	}
	if len(lang) > 0x3F {
		lang = lang[:0x3F]
	}
	payload := make([]byte, 0, 1+len(lang)+len(text))
	payload = append(payload, byte(len(lang)))
	payload = append(payload, lang...)
	payload = append(payload, text...)
	return NDEFRecord{TNF: TNFWellKnown, Type: []byte("T"), Payload: payload}
}

// NewURIRecord builds a well-known URI record, abbreviating a known prefix.
func NewURIRecord(uri string) NDEFRecord {
	code := byte(0)
	rest := uri
	for i := 1; i < len(uriPrefixes); i++ {
		p := uriPrefixes[i]
		if len(uri) >= len(p) && uri[:len(p)] == p && len(p) > len(uriPrefixes[code]) {
			code = byte(i)
			rest = uri[len(p):]
		}
	}
	payload := append([]byte{code}, rest...)
	return NDEFRecord{TNF: TNFWellKnown, Type: []byte("U"), Payload: payload}
}

// uriPrefixes is the NFC Forum URI identifier code table (first entries).
var uriPrefixes = []string{
	"",
	"http://www.",
	"https://www.",
	"http://",
	"https://",
	"tel:",
	"mailto:",
}

func parseTextPayload(payload []byte) (string, error) {
	if len(payload) < 1 {
		return "", fmt.Errorf("text record payload too short (status byte missing)")
	}
	status := payload[0]
	start := 1 + int(status&0x3F)
	if start > len(payload) {
		return "", fmt.Errorf("text record payload too short (language code missing)")
	}
	body := payload[start:]
	if status&0x80 == 0 {
		return string(body), nil
	}
	if len(body)%2 != 0 {
		return "", fmt.Errorf("invalid UTF-16 text length: %d", len(body))
	}
	u16s := make([]uint16, len(body)/2)
	for i := range u16s {
		u16s[i] = binary.BigEndian.Uint16(body[i*2:])
	}
	return string(utf16.Decode(u16s)), nil
}

// ParseNDEF parses raw NDEF message bytes into its records.
func ParseNDEF(msg []byte) ([]NDEFRecord, error) {
	if len(msg) == 0 {
		return nil, fmt.Errorf("empty NDEF message")
	}

	var records []NDEFRecord
	offset := 0
	for offset < len(msg) {
		header := msg[offset]
		me := header&0x40 != 0
		sr := header&0x10 != 0
		il := header&0x08 != 0
		pos := offset + 1

		if pos >= len(msg) {
			return nil, fmt.Errorf("invalid NDEF message: truncated type length at offset %d", offset)
		}
		typeLen := int(msg[pos])
		pos++

		var payloadLen int
		if sr {
			if pos >= len(msg) {
				return nil, fmt.Errorf("invalid NDEF message: truncated payload length at offset %d", offset)
			}
			payloadLen = int(msg[pos])
			pos++
		} else {
			if pos+4 > len(msg) {
				return nil, fmt.Errorf("invalid NDEF message: truncated payload length at offset %d", offset)
			}
			payloadLen = int(binary.BigEndian.Uint32(msg[pos : pos+4]))
			pos += 4
		}

		idLen := 0
		if il {
			if pos >= len(msg) {
				return nil, fmt.Errorf("invalid NDEF message: truncated ID length at offset %d", offset)
			}
			idLen = int(msg[pos])
			pos++
		}

		if pos+typeLen+idLen+payloadLen > len(msg) {
			return nil, fmt.Errorf("invalid NDEF message: record at offset %d exceeds message bounds", offset)
		}
		rec := NDEFRecord{TNF: header & 0x07}
		rec.Type = append([]byte(nil), msg[pos:pos+typeLen]...)
		pos += typeLen
		if idLen > 0 {
			rec.ID = append([]byte(nil), msg[pos:pos+idLen]...)
			pos += idLen
		}
		rec.Payload = append([]byte(nil), msg[pos:pos+payloadLen]...)
		pos += payloadLen

		records = append(records, rec)
		offset = pos
		if me {
			break
		}
	}
	return records, nil
}

// EncodeNDEF encodes records into raw NDEF message bytes.
func EncodeNDEF(records []NDEFRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("cannot encode empty record list")
	}

	var out []byte
	for i, rec := range records {
		if len(rec.Type) > 0xFF || len(rec.ID) > 0xFF {
			return nil, fmt.Errorf("record %d: type or ID longer than 255 bytes", i)
		}
		header := rec.TNF & 0x07
		if i == 0 {
			header |= 0x80
		}
		if i == len(records)-1 {
			header |= 0x40
		}
		short := len(rec.Payload) <= 0xFF
		if short {
			header |= 0x10
		}
		if len(rec.ID) > 0 {
			header |= 0x08
		}

		out = append(out, header, byte(len(rec.Type)))
		if short {
			out = append(out, byte(len(rec.Payload)))
		} else {
			out = binary.BigEndian.AppendUint32(out, uint32(len(rec.Payload)))
		}
		if len(rec.ID) > 0 {
			out = append(out, byte(len(rec.ID)))
		}
		out = append(out, rec.Type...)
		out = append(out, rec.ID...)
		out = append(out, rec.Payload...)
	}
	return out, nil
}
