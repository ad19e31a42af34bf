package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/biocat/internal/api"
)

// RenderState renders a device state box for terminal output.
func RenderState(state *api.DeviceState) string {
	width := GetTerminalWidth()

	var lines []string
	lines = append(lines, row("Online", onlineValue(state.Online)))
	lines = append(lines, row("Mode", fmt.Sprintf("%s (%s)", state.Mode.DisplayName(), state.Mode.ID)))

	if state.WaterTreatmentActive() {
		lines = append(lines, row("Water Supply", OnlineStyle.Render("open")))
	} else {
		lines = append(lines, row("Water Supply", OfflineStyle.Render("closed")))
	}

	lines = append(lines, row("Microleakage Test", api.MicroleakageStateName(state.MLState)))
	lines = append(lines, row("Absence Mode", enabledValue(state.WaterProtection.AbsenceModeEnabled)))

	if state.WaterProtection.Paused() {
		until := state.WaterProtection.PauseLeakageProtectionUntilUTC
		lines = append(lines, row("Leakage Protection", UnconfirmedStyle.Render("paused until "+until)))
	} else {
		lines = append(lines, row("Leakage Protection", "active"))
	}

	if state.Event.EventID != "" {
		lines = append(lines, "")
		lines = append(lines, row("Event", state.Event.Title))
		lines = append(lines, row("Category", state.Event.Category))
		if state.Event.Description != "" {
			lines = append(lines, row("Description", state.Event.Description))
		}
		if state.Event.Acknowledgeable() {
			lines = append(lines, TroubleshootingItemStyle.Render("  Acknowledge with \"biocat ack\"."))
		}
	}

	return InfoBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderMeasurements renders a sensor readings box.
func RenderMeasurements(m *api.Measurements) string {
	width := GetTerminalWidth()

	lines := []string{
		row("Water Temperature", fmt.Sprintf("%.1f °C", m.WaterTemp)),
		row("Pressure", fmt.Sprintf("%.2f bar", m.Pressure)),
		row("Flow Rate", fmt.Sprintf("%.2f L/min", m.FlowRate)),
		row("Last Tap Volume", fmt.Sprintf("%.1f L", m.LastWaterTapVolume)),
		row("Last Tap Duration", fmt.Sprintf("%.0f s", m.LastWaterTapDuration)),
	}

	return InfoBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderSnapshot renders a state box followed by the consumption counters
// when they are available.
func RenderSnapshot(snap *api.Snapshot) string {
	out := RenderState(&snap.State)

	if snap.DailyConsumption == nil && snap.TotalConsumption == nil {
		return out
	}

	var lines []string
	if snap.DailyConsumption != nil {
		lines = append(lines, row("Water Today", fmt.Sprintf("%.1f L", *snap.DailyConsumption)))
	}
	if snap.TotalConsumption != nil {
		lines = append(lines, row("Water Total", fmt.Sprintf("%.1f L", *snap.TotalConsumption)))
	}

	return out + "\n" + InfoBoxStyle(GetTerminalWidth()).Render(strings.Join(lines, "\n"))
}

func row(key, value string) string {
	return LabelStyle.Render(" "+key+":") + " " + ValueStyle.Render(value)
}

func onlineValue(online bool) string {
	if online {
		return OnlineStyle.Render("yes")
	}
	return OfflineStyle.Render("no")
}

func enabledValue(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
