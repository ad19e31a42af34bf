// Package config provides user configuration management for the biocat tools.
//
// This package manages a YAML-based configuration file that stores configured
// Watercryst BIOCAT devices (API keys, base URL overrides) and application
// preferences. The configuration follows OS-specific conventions for storage
// location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/biocat/config.yaml or $HOME/.config/biocat/config.yaml
//   - macOS: $HOME/.config/biocat/config.yaml
//   - Windows: %LOCALAPPDATA%\biocat\config.yaml
//
// # Security
//
// The cloud API authenticates with a static key and nothing else, so the key
// is stored here. The file and its directory are created with user-only
// permissions (0600/0700). Keys must only ever be displayed in masked form;
// use api.MaskKey.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Add a device after successful validation
//	registry.SetDevice("kitchen", &config.Device{
//	    APIKey:  key,
//	    AddedAt: time.Now(),
//	})
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
