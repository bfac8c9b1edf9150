package nfc

import "sync"

// MockTag is a test implementation of Tag that simulates NFC tag behavior.
//
// Example:
//
//	tag := NewMockTag("04AABBCC")
//	tag.SetNDEF(NewTextRecord("hello", "en"))
//	data, _ := tag.ReadData()
type MockTag struct {
	// TagUID is the UID returned by UID()
	TagUID string

	// TagType is the type string returned by Type()
	TagType string

	// Techs is returned by Technologies(); TechNdef is appended when Data is non-nil
	Techs []string

	// Data is the raw NDEF message returned by ReadData(). Nil means the tag
	// is not NDEF-formatted; an empty slice is a formatted tag with no message.
	Data []byte

	// ReadDataError, if set, will be returned by ReadData()
	ReadDataError error

	// CallLog tracks all method calls for verification in tests
	CallLog []string

	mu sync.Mutex
}

// NewMockTag creates a new MockTag with default values.
func NewMockTag(uid string) *MockTag {
	return &MockTag{
		TagUID:  uid,
		TagType: CardTypeMifareUltralight,
		Techs:   []string{TechNfcA, TechMifareUltralight},
		CallLog: make([]string, 0),
	}
}

// SetNDEF stores records as the tag's NDEF message.
func (m *MockTag) SetNDEF(records ...NDEFRecord) error {
	data, err := EncodeNDEF(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = data
	return nil
}

// FormatNDEF makes the tag NDEF-formatted with an empty message.
func (m *MockTag) FormatNDEF() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = []byte{}
}

// UID returns the tag's UID.
func (m *MockTag) UID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TagUID
}

// Type returns the tag's type string.
func (m *MockTag) Type() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TagType
}

// Technologies returns Techs, plus TechNdef when the tag is NDEF-formatted.
func (m *MockTag) Technologies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	techs := append([]string(nil), m.Techs...)
	if m.Data != nil && m.ReadDataError == nil {
		techs = append(techs, TechNdef)
	}
	return techs
}

// ReadData returns Data or ReadDataError.
func (m *MockTag) ReadData() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "ReadData")
	if m.ReadDataError != nil {
		return nil, m.ReadDataError
	}
	return m.Data, nil
}

// GetCallLog returns a copy of the call log for verification.
func (m *MockTag) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	logCopy := make([]string, len(m.CallLog))
	copy(logCopy, m.CallLog)
	return logCopy
}
