package nfc

import "time"

// Device timing constants
const (
	DefaultPollInterval = 250 * time.Millisecond
	DeviceEnumRetries   = 3
	DeviceEnumDelay     = 100 * time.Millisecond
	MaxReconnectTries   = 5
	ReconnectDelay      = 2 * time.Second
	TagPresenceTimeout  = time.Second
)

// Card type constants reported by the tag adapters
const (
	CardTypeMifareClassic1K  = "MIFARE Classic 1K"
	CardTypeMifareClassic4K  = "MIFARE Classic 4K"
	CardTypeMifareUltralight = "MIFARE Ultralight"
	CardTypeUltralightC      = "MIFARE Ultralight C"
	CardTypeDesfire          = "DESFire"
	CardTypeType4            = "Type4"
	CardTypeUnknown          = "Unknown"
)

// Technology identifiers a tag can report. They mirror the names mobile
// NFC stacks use so tag descriptors read the same on every platform.
const (
	TechNdef             = "Ndef"
	TechNfcA             = "NfcA"
	TechIsoDep           = "IsoDep"
	TechMifareClassic    = "MifareClassic"
	TechMifareUltralight = "MifareUltralight"
)
