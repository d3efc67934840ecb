// Package ui implements the interactive sync view using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [PreviewView] : Browse the normalized song list and confirm the target playlist
//  2. [SyncView] : Follow progress updates while the engine runs
//  3. [ResultView] : Show the run summary and the songs that missed or failed
//
// Progress updates flow through a channel from the engine. Esc during a sync cancels the run context;
// songs not yet processed are reported as failed.
package ui
