// Package watch implements the interactive live dashboard behind
// "biocat watch".
//
// The dashboard is a Bubble Tea program that polls the cloud API on a
// fixed interval and renders the latest device snapshot and sensor
// readings. Polling goes through the shared api.Client, so the rate
// limiter and retry behavior apply to the dashboard exactly as they do
// to one-shot commands. A failed poll keeps the previous reading on
// screen with the error shown alongside it.
package watch
