package nfc

import "fmt"

// TLV types for NFC Forum Type 2 tag memory
const (
	TLVNull       = 0x00 // Null TLV
	TLVLockCtrl   = 0x01 // Lock Control TLV
	TLVMemCtrl    = 0x02 // Memory Control TLV
	TLVNDEF       = 0x03 // NDEF Message TLV
	TLVTerminator = 0xFE // Terminator TLV
)

// TLVEncode wraps data into a TLV block followed by a Terminator TLV.
// Lengths of 0xFF and above use the three byte format.
func TLVEncode(data []byte, tlvType byte) []byte {
	length := len(data)
	result := []byte{tlvType}
	if length < 0xFF {
		result = append(result, byte(length))
	} else {
		result = append(result, 0xFF, byte(length>>8), byte(length&0xFF))
	}
	result = append(result, data...)
	return append(result, TLVTerminator)
}

// FindNDEFTLV scans tag memory for the first NDEF Message TLV and returns
// its value. It returns (nil, nil) when the memory holds no NDEF TLV and an
// empty, non-nil slice for an NDEF-formatted tag with an empty message.
func FindNDEFTLV(data []byte) ([]byte, error) {
	offset := 0
	for offset < len(data) {
		tlvType := data[offset]
		switch tlvType {
		case TLVNull:
			offset++
			continue
		case TLVTerminator:
			return nil, nil
		}

		lenStart := offset + 1
		if lenStart >= len(data) {
			return nil, fmt.Errorf("TLV type 0x%02X at offset %d: length field missing", tlvType, offset)
		}

		length, lengthSize := int(data[lenStart]), 1
		if data[lenStart] == 0xFF {
			if lenStart+2 >= len(data) {
				return nil, fmt.Errorf("TLV type 0x%02X at offset %d: long length truncated", tlvType, offset)
			}
			length = int(data[lenStart+1])<<8 | int(data[lenStart+2])
			lengthSize = 3
		}

		valueStart := lenStart + lengthSize
		if valueStart+length > len(data) {
			return nil, fmt.Errorf("TLV type 0x%02X at offset %d: value (len %d) exceeds buffer", tlvType, offset, length)
		}
		if tlvType == TLVNDEF {
			value := make([]byte, length)
			copy(value, data[valueStart:valueStart+length])
			return value, nil
		}
		offset = valueStart + length
	}
	return nil, nil
}
