package nfc

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// DeviceManager handles device lifecycle and connection management.
// It maintains a connection to a single NFC device and recovers from
// reader errors by reconnecting.
type DeviceManager struct {
	manager    Manager
	device     Device
	devicePath string
	mu         sync.RWMutex
}

// NewDeviceManager creates a new DeviceManager for managing an NFC device connection.
// An empty devicePath selects the first device the manager lists.
func NewDeviceManager(manager Manager, devicePath string) *DeviceManager {
	return &DeviceManager{
		manager:    manager,
		devicePath: devicePath,
	}
}

// Device returns the current active device, or nil if not connected.
func (dm *DeviceManager) Device() Device {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.device
}

// HasDevice returns true if a device is currently connected.
func (dm *DeviceManager) HasDevice() bool {
	return dm.Device() != nil
}

// DevicePath returns the path of the device being managed.
func (dm *DeviceManager) DevicePath() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.devicePath
}

// TryConnect attempts to connect to the device. If the device is already connected
// and responsive, it returns nil. Otherwise, it attempts to open and initialize the device.
func (dm *DeviceManager) TryConnect() error {
	if current := dm.Device(); current != nil {
		initErr := current.InitiatorInit()
		if initErr == nil {
			return nil
		}
		log.Printf("[nfc] Device was marked connected, but init failed: %v. Reconnecting.", initErr)
		dm.Close()
	}

	path := dm.DevicePath()
	if path == "" {
		devices, err := dm.manager.ListDevices()
		if err != nil {
			return WrapError(ErrCodeNoDevice, "TryConnect", "error listing NFC devices", err)
		}
		if len(devices) == 0 {
			return Errorf(ErrCodeNoDevice, "TryConnect", "no NFC devices found")
		}
		path = devices[0]
		log.Printf("[nfc] No specific device path, trying first available: %s", path)
	}

	dev, err := dm.manager.OpenDevice(path)
	if err != nil {
		return WrapError(ErrCodeNoDevice, "TryConnect", fmt.Sprintf("failed to open device %s", path), err)
	}
	if err := dev.InitiatorInit(); err != nil {
		dev.Close()
		return WrapError(ErrCodeNoDevice, "TryConnect", fmt.Sprintf("failed to initialize device %s", path), err)
	}

	dm.mu.Lock()
	dm.device = dev
	dm.devicePath = path
	dm.mu.Unlock()

	log.Printf("[nfc] Connected NFC device: %s (Connection: %s)", dev.String(), dev.Connection())
	return nil
}

// Reconnect closes the current device and retries TryConnect with a linear
// backoff until it succeeds, MaxReconnectTries is reached or stop is closed.
func (dm *DeviceManager) Reconnect(stop <-chan struct{}, delay time.Duration) error {
	dm.Close()

	var lastErr error
	for attempt := 1; attempt <= MaxReconnectTries; attempt++ {
		if lastErr = dm.TryConnect(); lastErr == nil {
			log.Printf("[nfc] Reconnect attempt %d successful.", attempt)
			return nil
		}
		log.Printf("[nfc] Reconnect attempt %d failed: %v", attempt, lastErr)

		select {
		case <-stop:
			return NewCancelledError("Reconnect", lastErr)
		case <-time.After(delay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("reconnect failed after %d attempts: %w", MaxReconnectTries, lastErr)
}

// Close closes the current device connection.
func (dm *DeviceManager) Close() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.device != nil {
		if err := dm.device.Close(); err != nil {
			log.Printf("[nfc] Error closing device: %v", err)
		}
		dm.device = nil
	}
}

// GetTags retrieves available tags from the connected NFC device.
func (dm *DeviceManager) GetTags() ([]Tag, error) {
	dev := dm.Device()
	if dev == nil {
		return nil, ErrNoDevice
	}
	tags, err := dev.GetTags()
	if err != nil {
		return nil, fmt.Errorf("getTags: %w", err)
	}
	return tags, nil
}
