// Package ui provides terminal UI components for the biocat CLI.
//
// This package uses Lipgloss to render polished terminal output for
// one-shot commands. Unlike the interactive watch dashboard, these
// components follow a "render once and exit" pattern and require no
// user interaction beyond the occasional confirmation prompt.
//
// # Architecture
//
// The package provides a handful of component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Result: Success/failure/warning boxes with styled details
//   - State/Measurements/Snapshot renderers for device readings
//   - RenderValidation: the verdict box for connectivity validation
//
// # Logging Integration
//
// This package expects logging to be controlled via the BIOCAT_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent,
// allowing the curated UI output to be displayed cleanly.
//
// # Credentials
//
// API keys must only ever reach these renderers in masked form; callers
// pass api.MaskKey output, never the raw key.
package ui
