// Package ui implements an interactive terminal editor for track overrides
// using bubbletea's Elm architecture.
//
// The editor is a two-view workflow:
//  1. [TrackListView] : Browse the track database with resolved fields
//  2. [EditView] : Edit the title, artist, and album overrides of one track
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Overrides are held in memory while editing and written back through the
// injected save function, so the database file on disk always reflects a
// complete save, never a half-edited session.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
