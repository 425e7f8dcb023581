// Package ui implements an interactive terminal player using bubbletea's Elm architecture.
//
// The TUI shows the playback session on a single screen: the filtered
// playlist catalog, the currently playing playlist, the bound device, and
// the volume. The [Model] implements bubbletea/Elm's standard
// Init/Update/View pattern; session state is polled from the controller on
// a fixed tick rather than pushed, so the view converges on whatever the
// engine last reported.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, space, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
