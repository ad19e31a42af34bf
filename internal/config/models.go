package config

import "time"

// Registry represents the entire user configuration file.
// This stores configured BIOCAT devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents one configured BIOCAT device.
// This is keyed by the user-chosen device name in the Registry.
//
// The API key is stored here because the cloud API has no other
// credential; the config file is written with user-only permissions
// (0600). Tooling must only ever display the key in masked form.
type Device struct {
	APIKey      string    `yaml:"api_key"`
	BaseURL     string    `yaml:"base_url,omitempty"`     // Override for on-premise gateways; empty = vendor cloud
	AddedAt     time.Time `yaml:"added_at,omitempty"`     // When the device was set up
	LastChecked time.Time `yaml:"last_checked,omitempty"` // Last successful validation or state read
	Unconfirmed bool      `yaml:"unconfirmed,omitempty"`  // Setup soft-passed: no device data confirmed yet
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultDevice string `yaml:"default_device,omitempty"` // Device used when --device is not given
	PollInterval  int    `yaml:"poll_interval,omitempty"`  // Watch refresh cadence in seconds
}

// DefaultPollInterval is the watch refresh cadence when the user has not
// set one. It stays comfortably below the 200 requests/15 minutes ceiling.
const DefaultPollInterval = 60

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			PollInterval: DefaultPollInterval,
		},
	}
}

// GetDevice retrieves a device entry by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// SetDevice adds or replaces a device entry. The first device added
// becomes the default device.
func (r *Registry) SetDevice(name string, device *Device) {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if len(r.Devices) == 0 && r.Preferences != nil && r.Preferences.DefaultDevice == "" {
		r.Preferences.DefaultDevice = name
	}
	r.Devices[name] = device
}

// RemoveDevice deletes a device entry. The default-device preference is
// cleared if it pointed at the removed entry.
func (r *Registry) RemoveDevice(name string) {
	delete(r.Devices, name)
	if r.Preferences != nil && r.Preferences.DefaultDevice == name {
		r.Preferences.DefaultDevice = ""
	}
}

// ResolveDevice returns the device entry for name, falling back to the
// default device when name is empty, or to the only configured device.
// The second return is the resolved name.
func (r *Registry) ResolveDevice(name string) (*Device, string) {
	if name == "" && r.Preferences != nil {
		name = r.Preferences.DefaultDevice
	}
	if name == "" && len(r.Devices) == 1 {
		for only := range r.Devices {
			name = only
		}
	}
	return r.Devices[name], name
}

// MarkChecked records a successful validation or state read for a device.
func (r *Registry) MarkChecked(name string) {
	if device, ok := r.Devices[name]; ok {
		device.LastChecked = time.Now()
		device.Unconfirmed = false
	}
}
