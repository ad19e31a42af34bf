package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/biocat/internal/api"
	"github.com/muurk/biocat/internal/config"
	"github.com/muurk/biocat/internal/ui"
	"github.com/muurk/biocat/internal/watch"
)

// Command flags
var (
	deviceName    string
	outputFormat  string
	httpTimeout   int
	skipConfirm   bool
	watchInterval int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", "", "Configured device name (default: the default device)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
	rootCmd.PersistentFlags().IntVar(&httpTimeout, "timeout", 0, "HTTP timeout in seconds (0 = default)")

	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(measurementsCmd)
	rootCmd.AddCommand(consumptionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(supplyCmd)
	rootCmd.AddCommand(absenceCmd)
	rootCmd.AddCommand(protectionCmd)
	rootCmd.AddCommand(selftestCmd)
	rootCmd.AddCommand(microleakCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(watchCmd)
}

// deviceClient resolves the target device from the registry and builds
// a client for it.
func deviceClient() (*api.Client, string, *config.Registry, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	device, name := registry.ResolveDevice(deviceName)
	if device == nil {
		if deviceName != "" {
			return nil, "", nil, fmt.Errorf("device %q is not configured. Run 'biocat setup %s' first", deviceName, deviceName)
		}
		return nil, "", nil, fmt.Errorf("no device configured. Run 'biocat setup' first")
	}

	var client *api.Client
	if device.BaseURL != "" {
		client = api.NewClientWithBaseURL(device.APIKey, device.BaseURL)
	} else {
		client = api.NewClient(device.APIKey)
	}
	if httpTimeout > 0 {
		client.SetTimeout(time.Duration(httpTimeout) * time.Second)
	}

	return client, name, registry, nil
}

// markChecked records a successful device read. Persisting is
// best-effort; a read-only config dir must not fail the command.
func markChecked(registry *config.Registry, name string) {
	registry.MarkChecked(name)
	_ = registry.Save()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// stateCmd shows the current device state
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show device state",
	Long: `Display the current state of the device: operating mode, water
protection flags, the active event if any, and the water consumption
counters when the device reports them.`,
	Example: `  # Show the default device
  biocat state

  # Show a specific device
  biocat state --device basement

  # JSON output for scripting
  biocat state --format json`,
	RunE: runState,
}

func runState(cmd *cobra.Command, args []string) error {
	client, name, registry, err := deviceClient()
	if err != nil {
		return err
	}

	snapshot, err := client.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	markChecked(registry, name)

	if outputFormat == "json" {
		return printJSON(snapshot)
	}
	fmt.Println(ui.RenderSnapshot(snapshot))
	return nil
}

// measurementsCmd shows current sensor readings
var measurementsCmd = &cobra.Command{
	Use:   "measurements",
	Short: "Show current sensor readings",
	Long: `Display the current sensor readings: water temperature, pressure,
flow rate, and the volume and duration of the last water tap.`,
	RunE: runMeasurements,
}

func runMeasurements(cmd *cobra.Command, args []string) error {
	client, name, registry, err := deviceClient()
	if err != nil {
		return err
	}

	measurements, err := client.Measurements(cmd.Context())
	if err != nil {
		return err
	}
	markChecked(registry, name)

	if outputFormat == "json" {
		return printJSON(measurements)
	}
	fmt.Println(ui.RenderMeasurements(measurements))
	return nil
}

// consumptionCmd shows the cumulative water consumption counters
var consumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "Show water consumption counters",
	Long: `Display cumulative water consumption: liters used since midnight
and liters used since the device was installed.`,
	RunE: runConsumption,
}

func runConsumption(cmd *cobra.Command, args []string) error {
	client, name, registry, err := deviceClient()
	if err != nil {
		return err
	}

	daily, err := client.DailyConsumption(cmd.Context())
	if err != nil {
		return err
	}
	total, err := client.TotalConsumption(cmd.Context())
	if err != nil {
		return err
	}
	markChecked(registry, name)

	if outputFormat == "json" {
		return printJSON(map[string]float64{
			"dailyLiters": daily,
			"totalLiters": total,
		})
	}

	fmt.Printf("  Water today: %.1f L\n", daily)
	fmt.Printf("  Water total: %.1f L\n", total)
	return nil
}

// validateCmd re-runs connectivity validation for a configured device
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate connectivity for a configured device",
	Long: `Probe the cloud API with the stored key to confirm the device is
reachable. Walks the read endpoints in order and stops at the first
one that returns usable data. A rejected key fails immediately.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	client, name, registry, err := deviceClient()
	if err != nil {
		return err
	}

	header := ui.NewHeader("Connectivity Validation", "biocat validate").
		AddParam("Device", name).
		AddParam("API Key", client.MaskedKey())
	fmt.Println(header.Render())
	fmt.Println()

	result := client.Validate(cmd.Context())
	fmt.Println(ui.RenderValidation(result, client.MaskedKey()))

	if !result.Success {
		return fmt.Errorf("validation failed")
	}

	if result.Unconfirmed {
		if device := registry.GetDevice(name); device != nil {
			device.Unconfirmed = true
			_ = registry.Save()
		}
	} else {
		markChecked(registry, name)
	}
	return nil
}

// supplyCmd controls the water supply valve
var supplyCmd = &cobra.Command{
	Use:   "supply <open|close>",
	Short: "Open or close the water supply",
	Long: `Open or close the water supply valve.

Closing the supply shuts off water for the whole installation, so the
close command asks for confirmation unless --yes is given.`,
	Example: `  biocat supply open
  biocat supply close
  biocat supply close --yes`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"open", "close"},
	RunE:      runSupply,
}

func init() {
	supplyCmd.Flags().BoolVar(&skipConfirm, "yes", false, "Skip the confirmation prompt")
}

func runSupply(cmd *cobra.Command, args []string) error {
	client, _, _, err := deviceClient()
	if err != nil {
		return err
	}

	switch args[0] {
	case "open":
		if err := client.OpenWaterSupply(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Water supply opening")
	case "close":
		if !skipConfirm && !ui.SupplyCloseConfirmation() {
			return nil
		}
		if err := client.CloseWaterSupply(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Water supply closing")
	default:
		return fmt.Errorf("unknown argument %q (use open or close)", args[0])
	}
	return nil
}

// absenceCmd toggles absence mode
var absenceCmd = &cobra.Command{
	Use:   "absence <on|off>",
	Short: "Enable or disable absence mode",
	Long: `Enable or disable absence mode. With absence mode on, the device
applies stricter leakage detection thresholds while nobody is home.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runAbsence,
}

func runAbsence(cmd *cobra.Command, args []string) error {
	client, _, _, err := deviceClient()
	if err != nil {
		return err
	}

	switch args[0] {
	case "on":
		if err := client.EnableAbsenceMode(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Absence mode enabled")
	case "off":
		if err := client.DisableAbsenceMode(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Absence mode disabled")
	default:
		return fmt.Errorf("unknown argument %q (use on or off)", args[0])
	}
	return nil
}

// protectionCmd pauses and resumes leakage protection
var protectionCmd = &cobra.Command{
	Use:   "protection <pause|resume> [minutes]",
	Short: "Pause or resume leakage protection",
	Long: fmt.Sprintf(`Pause leakage protection for a number of minutes, or resume it.

Pausing suppresses automatic shutoff, for example while filling a pool.
The pause duration must be between %d and %d minutes (3 days). The
device resumes protection automatically when the pause expires.`,
		api.MinPauseMinutes, api.MaxPauseMinutes),
	Example: `  # Pause for two hours
  biocat protection pause 120

  # Resume immediately
  biocat protection resume`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runProtection,
}

func runProtection(cmd *cobra.Command, args []string) error {
	client, _, _, err := deviceClient()
	if err != nil {
		return err
	}

	switch args[0] {
	case "pause":
		if len(args) < 2 {
			return fmt.Errorf("pause requires a duration in minutes")
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid minutes value %q", args[1])
		}
		if err := client.PauseLeakageProtection(cmd.Context(), minutes); err != nil {
			return err
		}
		fmt.Printf("✓ Leakage protection paused for %d minute(s)\n", minutes)
	case "resume":
		if err := client.UnpauseLeakageProtection(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Leakage protection resumed")
	default:
		return fmt.Errorf("unknown argument %q (use pause or resume)", args[0])
	}
	return nil
}

// selftestCmd starts a device self-test
var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Start a device self-test",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := deviceClient()
		if err != nil {
			return err
		}
		if err := client.StartSelfTest(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Self-test started. Check progress with 'biocat state'.")
		return nil
	},
}

// microleakCmd starts a microleakage measurement
var microleakCmd = &cobra.Command{
	Use:   "microleak",
	Short: "Start a microleakage measurement",
	Long: `Start a microleakage measurement. The device closes the valve and
watches for a pressure drop; open taps during the measurement abort it.
Check the result with 'biocat state'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := deviceClient()
		if err != nil {
			return err
		}
		if err := client.StartMicroleakageMeasurement(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Microleakage measurement started. Avoid using water until it finishes.")
		return nil
	},
}

// ackCmd acknowledges the current device event
var ackCmd = &cobra.Command{
	Use:   "ack",
	Short: "Acknowledge the current device event",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, err := deviceClient()
		if err != nil {
			return err
		}
		if err := client.AcknowledgeEvent(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Event acknowledged")
		return nil
	},
}

// devicesCmd lists and removes configured devices
var devicesCmd = &cobra.Command{
	Use:   "devices [remove <name>]",
	Short: "List or remove configured devices",
	Long: `List the configured devices with their masked API keys, or remove
one with 'biocat devices remove <name>'.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(args) > 0 {
		if args[0] != "remove" || len(args) != 2 {
			return fmt.Errorf("usage: biocat devices [remove <name>]")
		}
		name := args[1]
		if registry.GetDevice(name) == nil {
			return fmt.Errorf("device %q is not configured", name)
		}
		registry.RemoveDevice(name)
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Printf("✓ Removed device %q\n", name)
		return nil
	}

	if len(registry.Devices) == 0 {
		fmt.Println("No devices configured. Run 'biocat setup' to add one.")
		return nil
	}

	defaultName := ""
	if registry.Preferences != nil {
		defaultName = registry.Preferences.DefaultDevice
	}

	for name, device := range registry.Devices {
		marker := " "
		if name == defaultName {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
		fmt.Printf("    API Key: %s\n", api.MaskKey(device.APIKey))
		if device.BaseURL != "" {
			fmt.Printf("    API Root: %s\n", device.BaseURL)
		}
		if !device.LastChecked.IsZero() {
			fmt.Printf("    Last Checked: %s\n", device.LastChecked.Format(time.RFC3339))
		}
		if device.Unconfirmed {
			fmt.Println("    Status: key accepted, no device data confirmed yet")
		}
	}
	return nil
}

// watchCmd launches the live dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of device state and readings",
	Long: `Launch an interactive dashboard that polls the device on a fixed
interval and shows state, sensor readings and water consumption.

The refresh interval defaults to the poll_interval preference in the
config file. Intervals below 10 seconds are rejected to stay within
the API's request budget.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0, "Refresh interval in seconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, _, registry, err := deviceClient()
	if err != nil {
		return err
	}

	interval := watchInterval
	if interval == 0 && registry.Preferences != nil {
		interval = registry.Preferences.PollInterval
	}
	if interval == 0 {
		interval = config.DefaultPollInterval
	}
	if interval < 10 {
		return fmt.Errorf("interval must be at least 10 seconds")
	}

	return watch.Run(client, time.Duration(interval)*time.Second)
}
