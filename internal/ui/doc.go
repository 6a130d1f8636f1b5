// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for building a playlist:
//  1. [InputView] : Enter a location, pick a language and toggle AI hints or dry run
//  2. [ContextView] : Fetch weather, mood and song hints from the context API
//  3. [ConfirmView] : Review the request before any Spotify call
//  4. [AssembleView] : Monitor real-time progress of the assembly session
//  5. [ResultView] : Browse the ranked tracks and the created playlist link
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during assembly.
//
// Logs must go to a file while the TUI runs; see shared.NewFileLogger.
package ui
