package nfc

import (
	"errors"
	"testing"
	"time"
)

func TestDeviceManager_TryConnectFirstDevice(t *testing.T) {
	manager := NewMockManager()
	dm := NewDeviceManager(manager, "")

	if err := dm.TryConnect(); err != nil {
		t.Fatalf("TryConnect() error = %v", err)
	}
	if !dm.HasDevice() {
		t.Fatal("expected a connected device")
	}
	if got := dm.DevicePath(); got != "mock:usb:001" {
		t.Errorf("DevicePath() = %q, want %q", got, "mock:usb:001")
	}

	calls := manager.GetCallLog()
	if len(calls) != 2 || calls[0] != "ListDevices" || calls[1] != "OpenDevice(mock:usb:001)" {
		t.Errorf("manager calls = %v", calls)
	}
}

func TestDeviceManager_TryConnectReusesHealthyDevice(t *testing.T) {
	manager := NewMockManager()
	dm := NewDeviceManager(manager, "mock:usb:002")

	if err := dm.TryConnect(); err != nil {
		t.Fatalf("first TryConnect() error = %v", err)
	}
	if err := dm.TryConnect(); err != nil {
		t.Fatalf("second TryConnect() error = %v", err)
	}

	opens := 0
	for _, call := range manager.GetCallLog() {
		if call == "OpenDevice(mock:usb:002)" {
			opens++
		}
	}
	if opens != 1 {
		t.Errorf("OpenDevice called %d times, want 1", opens)
	}
}

func TestDeviceManager_TryConnectErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*MockManager)
	}{
		{"no devices", func(m *MockManager) { m.DevicesList = nil }},
		{"list fails", func(m *MockManager) { m.ListDevicesError = errors.New("usb busy") }},
		{"open fails", func(m *MockManager) { m.OpenDeviceError = errors.New("permission denied") }},
		{"init fails", func(m *MockManager) { m.MockDevice.InitError = errors.New("init failed") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewMockManager()
			tt.setup(manager)
			dm := NewDeviceManager(manager, "")

			err := dm.TryConnect()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrNoDevice) {
				t.Errorf("error %v should match ErrNoDevice", err)
			}
			if dm.HasDevice() {
				t.Error("no device should be held after a failed connect")
			}
		})
	}
}

func TestDeviceManager_GetTags(t *testing.T) {
	manager := NewMockManager()
	dm := NewDeviceManager(manager, "")

	if _, err := dm.GetTags(); !errors.Is(err, ErrNoDevice) {
		t.Errorf("GetTags() without device error = %v, want ErrNoDevice", err)
	}

	manager.MockDevice.AddTag(NewMockTag("04AABBCC"))
	if err := dm.TryConnect(); err != nil {
		t.Fatal(err)
	}
	tags, err := dm.GetTags()
	if err != nil {
		t.Fatalf("GetTags() error = %v", err)
	}
	if len(tags) != 1 || tags[0].UID() != "04AABBCC" {
		t.Errorf("GetTags() = %v", tags)
	}
}

func TestDeviceManager_Close(t *testing.T) {
	manager := NewMockManager()
	dm := NewDeviceManager(manager, "")
	if err := dm.TryConnect(); err != nil {
		t.Fatal(err)
	}

	dm.Close()
	if dm.HasDevice() {
		t.Error("device should be released after Close")
	}
	if manager.MockDevice.IsOpen {
		t.Error("underlying device should be closed")
	}
	// Close without a device is a no-op
	dm.Close()
}

func TestDeviceManager_ReconnectSucceeds(t *testing.T) {
	manager := NewMockManager()
	dm := NewDeviceManager(manager, "")
	if err := dm.TryConnect(); err != nil {
		t.Fatal(err)
	}

	if err := dm.Reconnect(make(chan struct{}), time.Millisecond); err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if !dm.HasDevice() {
		t.Error("expected device after reconnect")
	}
}

func TestDeviceManager_ReconnectStopped(t *testing.T) {
	manager := NewMockManager()
	manager.OpenDeviceError = errors.New("unplugged")
	dm := NewDeviceManager(manager, "mock:usb:001")

	stop := make(chan struct{})
	close(stop)

	err := dm.Reconnect(stop, time.Hour)
	if !IsCancelledError(err) {
		t.Errorf("Reconnect() error = %v, want cancelled", err)
	}
}

func TestMockTag_Technologies(t *testing.T) {
	tag := NewMockTag("04AABBCC")
	if SupportsTechnology(tag, TechNdef) {
		t.Error("blank tag should not report Ndef")
	}

	tag.FormatNDEF()
	if !SupportsTechnology(tag, TechNdef) {
		t.Error("formatted tag with an empty message should report Ndef")
	}

	if err := tag.SetNDEF(NewURIRecord("https://example.com")); err != nil {
		t.Fatal(err)
	}
	if !SupportsTechnology(tag, TechNdef) {
		t.Error("tag with a message should report Ndef")
	}

	tag.ReadDataError = NewReadError("ReadData", "04AABBCC", nil)
	if SupportsTechnology(tag, TechNdef) {
		t.Error("unreadable tag should not report Ndef")
	}
}
