package nfc

// Tag represents an NFC tag at the hardware protocol level.
//
// Tag exposes just enough for a reader session to describe what entered
// the field: identity, family and the raw NDEF message bytes.
//
// Example:
//
//	tags, _ := device.GetTags()
//	for _, tag := range tags {
//	    data, _ := tag.ReadData()
//	}
type Tag interface {
	UID() string
	Type() string
	// Technologies lists the technologies the tag supports (TechNfcA, ...).
	// TechNdef is reported only when ReadData can succeed.
	Technologies() []string
	// ReadData returns the raw NDEF message (without TLV framing), or nil
	// if the tag carries no NDEF message.
	ReadData() ([]byte, error)
}

// SupportsTechnology reports whether tag lists tech among its technologies.
func SupportsTechnology(tag Tag, tech string) bool {
	for _, t := range tag.Technologies() {
		if t == tech {
			return true
		}
	}
	return false
}
