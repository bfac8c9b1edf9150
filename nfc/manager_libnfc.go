package nfc

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/clausecker/freefare"
	"github.com/clausecker/nfc/v2"
)

// libnfcManager implements Manager using libnfc and freefare.
type libnfcManager struct{}

func (m *libnfcManager) OpenDevice(deviceStr string) (Device, error) {
	dev, err := nfc.Open(deviceStr)
	if err != nil {
		return nil, err
	}
	return &libnfcDevice{device: dev}, nil
}

func (m *libnfcManager) ListDevices() ([]string, error) {
	var devices []string
	var err error
	for i := 0; i < DeviceEnumRetries; i++ {
		devices, err = nfc.ListDevices()
		if err == nil {
			return devices, nil
		}
		time.Sleep(DeviceEnumDelay)
	}
	return nil, fmt.Errorf("failed to list NFC devices after %d retries: %w", DeviceEnumRetries, err)
}

// libnfcDevice implements Device using an actual nfc.Device from libnfc.
type libnfcDevice struct {
	device nfc.Device
}

func (d *libnfcDevice) Close() error {
	return d.device.Close()
}

func (d *libnfcDevice) InitiatorInit() error {
	return d.device.InitiatorInit()
}

func (d *libnfcDevice) String() string {
	return d.device.String()
}

func (d *libnfcDevice) Connection() string {
	return d.device.Connection()
}

// GetTags polls for tags on the device.
// Freefare-supported tags are collected first; remaining ISO14443-4A targets
// are then picked up from a passive target listing.
func (d *libnfcDevice) GetTags() ([]Tag, error) {
	var found []Tag
	seen := make(map[string]bool)

	ffTags, ffErr := freefare.GetTags(d.device)
	if ffErr != nil {
		log.Printf("[nfc] freefare.GetTags: %v", ffErr)
	}
	for _, ffTag := range ffTags {
		uid := strings.ToUpper(ffTag.UID())
		if seen[uid] {
			continue
		}
		seen[uid] = true

		switch t := ffTag.(type) {
		case freefare.UltralightTag:
			found = append(found, &ultralightTag{tag: t})
		case freefare.ClassicTag:
			found = append(found, &classicTag{tag: t})
		case freefare.DESFireTag:
			found = append(found, &identityTag{uid: uid, tagType: CardTypeDesfire, techs: []string{TechNfcA, TechIsoDep}})
		default:
			log.Printf("[nfc] Found other freefare tag: UID %s, Type %T", uid, t)
		}
	}

	modulation := nfc.Modulation{Type: nfc.ISO14443a, BaudRate: nfc.Nbr106}
	targets, listErr := d.device.InitiatorListPassiveTargets(modulation)
	if listErr != nil {
		if ffErr != nil && len(found) == 0 {
			return nil, fmt.Errorf("error from freefare (%v) AND passive targets (%w)", ffErr, listErr)
		}
		log.Printf("[nfc] Error listing passive targets: %v", listErr)
		return found, nil
	}

	for _, target := range targets {
		isoA, ok := target.(*nfc.ISO14443aTarget)
		if !ok || isoA.UIDLen == 0 || int(isoA.UIDLen) > len(isoA.UID) {
			continue
		}
		uid := strings.ToUpper(hex.EncodeToString(isoA.UID[:isoA.UIDLen]))
		if seen[uid] {
			continue
		}
		seen[uid] = true

		// SAK bit 5 marks ISO14443-4 compliance (Type 4A)
		if isoA.Sak&0x20 != 0 {
			found = append(found, &identityTag{uid: uid, tagType: CardTypeType4, techs: []string{TechNfcA, TechIsoDep}})
		}
	}

	return found, nil
}

func classicTypeName(t int) string {
	if t == freefare.Classic4k {
		return CardTypeMifareClassic4K
	}
	return CardTypeMifareClassic1K
}
