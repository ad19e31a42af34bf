package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/biocat/internal/api"
	"github.com/muurk/biocat/internal/config"
	"github.com/muurk/biocat/internal/ui"
)

var (
	setupKey     string
	setupBaseURL string
)

// setupCmd registers a device API key after validating it
var setupCmd = &cobra.Command{
	Use:   "setup [name]",
	Short: "Register a device API key",
	Long: `Register a BIOCAT device by its API key.

The key is obtained from the Watercryst app under Settings > API. Setup
validates the key against the cloud API before storing it; a rejected
key is never saved. The key is stored in the local config file with
user-only permissions and is only ever displayed in masked form.

The optional name argument labels the device when you have more than
one; the first device registered becomes the default.`,
	Example: `  # Register the default device, key prompted without echo
  biocat setup

  # Register a named device
  biocat setup basement

  # Non-interactive (the key ends up in shell history; prefer the prompt)
  biocat setup basement --key <api-key>`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupKey, "key", "", "API key (omit to be prompted without echo)")
	setupCmd.Flags().StringVar(&setupBaseURL, "base-url", "", "API root override (default: the vendor cloud)")

	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	name := "biocat"
	if len(args) == 1 {
		name = args[0]
	}

	key := strings.TrimSpace(setupKey)
	if key == "" {
		var err error
		key, err = promptAPIKey()
		if err != nil {
			return err
		}
	}
	if key == "" {
		return fmt.Errorf("no API key given")
	}

	var client *api.Client
	if setupBaseURL != "" {
		client = api.NewClientWithBaseURL(key, setupBaseURL)
	} else {
		client = api.NewClient(key)
	}
	if httpTimeout > 0 {
		client.SetTimeout(time.Duration(httpTimeout) * time.Second)
	}

	header := ui.NewHeader("Device Setup", "biocat setup").
		AddParam("Device", name).
		AddParam("API Key", client.MaskedKey())
	fmt.Println(header.Render())
	fmt.Println()

	result := client.Validate(cmd.Context())
	fmt.Println(ui.RenderValidation(result, client.MaskedKey()))

	if !result.Success {
		return fmt.Errorf("setup aborted, key not saved")
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	device := &config.Device{
		APIKey:      key,
		BaseURL:     setupBaseURL,
		AddedAt:     time.Now(),
		Unconfirmed: result.Unconfirmed,
	}
	if !result.Unconfirmed {
		device.LastChecked = time.Now()
	}
	registry.SetDevice(name, device)

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	path, _ := config.GetConfigPath()
	fmt.Printf("✓ Device %q saved to %s\n", name, path)
	fmt.Println("  Try 'biocat state' next.")
	return nil
}

// promptAPIKey reads the key from stdin. On a terminal the input is not
// echoed; piped input is read as a single line.
func promptAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("API key (input hidden): ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
