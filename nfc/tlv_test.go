package nfc

import (
	"bytes"
	"testing"
)

func TestTLVEncode_ShortMessage(t *testing.T) {
	result := TLVEncode([]byte{0x01, 0x02, 0x03, 0x04}, TLVNDEF)

	// Type (0x03) + Length (0x04) + Data + Terminator (0xFE)
	expected := []byte{0x03, 0x04, 0x01, 0x02, 0x03, 0x04, 0xFE}
	if !bytes.Equal(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestTLVEncode_LongMessage(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i % 256)
	}

	result := TLVEncode(data, TLVNDEF)

	if result[0] != 0x03 || result[1] != 0xFF {
		t.Fatalf("Expected long format header, got % X", result[:2])
	}
	// 300 = 0x012C
	if result[2] != 0x01 || result[3] != 0x2C {
		t.Errorf("Expected length bytes 0x01 0x2C, got 0x%02X 0x%02X", result[2], result[3])
	}
	if !bytes.Equal(result[4:4+len(data)], data) {
		t.Error("Data mismatch in long format TLV")
	}
	if result[len(result)-1] != TLVTerminator {
		t.Errorf("Expected terminator 0xFE, got 0x%02X", result[len(result)-1])
	}
}

func TestFindNDEFTLV(t *testing.T) {
	long := make([]byte, 512)
	for i := range long {
		long[i] = byte(i % 256)
	}

	tests := []struct {
		name    string
		data    []byte
		want    []byte
		wantErr bool
	}{
		{
			name: "short NDEF",
			data: []byte{0x03, 0x04, 0x01, 0x02, 0x03, 0x04, 0xFE},
			want: []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name: "null TLVs first",
			data: []byte{0x00, 0x00, 0x03, 0x02, 0xAA, 0xBB, 0xFE},
			want: []byte{0xAA, 0xBB},
		},
		{
			name: "lock control TLV skipped",
			data: []byte{0x01, 0x03, 0xA0, 0x0C, 0x34, 0x03, 0x01, 0x42, 0xFE},
			want: []byte{0x42},
		},
		{
			name: "long format round trip",
			data: TLVEncode(long, TLVNDEF),
			want: long,
		},
		{
			name: "empty NDEF message",
			data: []byte{0x03, 0x00, 0xFE},
			want: []byte{},
		},
		{
			name: "terminator only",
			data: []byte{0x00, 0x00, 0xFE},
			want: nil,
		},
		{
			name: "empty memory",
			data: nil,
			want: nil,
		},
		{
			name:    "missing length",
			data:    []byte{0x03},
			wantErr: true,
		},
		{
			name:    "value exceeds buffer",
			data:    []byte{0x03, 0x10, 0x01},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindNDEFTLV(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindNDEFTLV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("FindNDEFTLV() = %v, want %v", got, tt.want)
			}
			if (got == nil) != (tt.want == nil) {
				t.Errorf("FindNDEFTLV() nil = %v, want nil = %v", got == nil, tt.want == nil)
			}
		})
	}
}
