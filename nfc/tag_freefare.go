package nfc

import (
	"fmt"
	"log"
	"strings"

	"github.com/clausecker/freefare"
)

// ultralightTag reads NDEF data from MIFARE Ultralight / NTAG tags through
// freefare page reads.
type ultralightTag struct {
	tag freefare.UltralightTag
}

func (u *ultralightTag) UID() string {
	return strings.ToUpper(u.tag.UID())
}

func (u *ultralightTag) Type() string {
	if u.tag.Type() == freefare.UltralightC {
		return CardTypeUltralightC
	}
	return CardTypeMifareUltralight
}

func (u *ultralightTag) Technologies() []string {
	techs := []string{TechNfcA, TechMifareUltralight}
	if data, err := u.ReadData(); err == nil && data != nil {
		techs = append(techs, TechNdef)
	}
	return techs
}

// ReadData reads the user memory starting at page 4 and extracts the NDEF TLV.
func (u *ultralightTag) ReadData() ([]byte, error) {
	if err := u.tag.Connect(); err != nil {
		return nil, NewReadError("ReadData", u.UID(), err)
	}
	defer u.tag.Disconnect()

	maxPages := byte(16)
	if u.tag.Type() == freefare.UltralightC {
		maxPages = 48
	}

	var memory []byte
	for page := byte(4); page < maxPages; page++ {
		pageData, err := u.tag.ReadPage(page)
		if err != nil {
			if page == 4 {
				return nil, NewReadError("ReadData", u.UID(), fmt.Errorf("page %d: %w", page, err))
			}
			// NTAG variants end earlier than the Ultralight C map
			log.Printf("[nfc] ultralight %s: stopping at page %d: %v", u.UID(), page, err)
			break
		}
		memory = append(memory, pageData[:]...)
	}

	msg, err := FindNDEFTLV(memory)
	if err != nil {
		return nil, WrapError(ErrCodeInvalidData, "ReadData", "malformed TLV", err)
	}
	return msg, nil
}

// NFC Forum public key A for the NDEF application sectors, and the factory key.
var (
	classicPublicKey  = [6]byte{0xd3, 0xf7, 0xd3, 0xf7, 0xd3, 0xf7}
	classicFactoryKey = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// classicTag reads the NFC Forum application of a MIFARE Classic tag
// through its MAD.
type classicTag struct {
	tag freefare.ClassicTag
}

func (c *classicTag) UID() string {
	return strings.ToUpper(c.tag.UID())
}

func (c *classicTag) Type() string {
	return classicTypeName(c.tag.Type())
}

func (c *classicTag) Technologies() []string {
	techs := []string{TechNfcA, TechMifareClassic}
	if data, err := c.ReadData(); err == nil && data != nil {
		techs = append(techs, TechNdef)
	}
	return techs
}

// ReadData returns the NDEF message, nil for a blank (factory) tag and an
// empty slice for a formatted tag without a message.
func (c *classicTag) ReadData() ([]byte, error) {
	if err := c.tag.Connect(); err != nil {
		return nil, NewReadError("ReadData", c.UID(), err)
	}
	defer c.tag.Disconnect()

	mad, errMad := c.tag.ReadMad()
	if errMad != nil {
		madSector := byte(0x00)
		if c.tag.Type() == freefare.Classic4k {
			madSector = 0x10
		}
		trailer := freefare.ClassicSectorLastBlock(madSector)
		if errAuth := c.tag.Authenticate(trailer, classicFactoryKey, int(freefare.KeyA)); errAuth == nil {
			return nil, nil
		}
		return nil, NewReadError("ReadData", c.UID(), fmt.Errorf("read MAD: %w", errMad))
	}

	buffer := make([]byte, 4096)
	n, err := c.tag.ReadApplication(mad, freefare.MadNFCForumAid, buffer, classicPublicKey, int(freefare.KeyA))
	if err != nil {
		return nil, NewReadError("ReadData", c.UID(), fmt.Errorf("read NDEF application: %w", err))
	}
	if n == 0 {
		return nil, nil
	}

	msg, err := FindNDEFTLV(buffer[:n])
	if err != nil {
		return nil, WrapError(ErrCodeInvalidData, "ReadData", "malformed TLV", err)
	}
	return msg, nil
}

// identityTag describes a tag we can identify but whose NDEF storage is not
// read by this agent.
type identityTag struct {
	uid     string
	tagType string
	techs   []string
}

func (t *identityTag) UID() string            { return t.uid }
func (t *identityTag) Type() string           { return t.tagType }
func (t *identityTag) Technologies() []string { return t.techs }

func (t *identityTag) ReadData() ([]byte, error) {
	return nil, nil
}
