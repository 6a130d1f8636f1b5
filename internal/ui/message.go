package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/weathertunes/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgContextResolved MsgKind = iota
	MsgProgressUpdate
	MsgAssemblyComplete
)

type contextResolved struct {
	request tasks.AssemblyRequest
	err     error
}

type assemblyComplete struct {
	result *tasks.SessionResult
	err    error
}

// contextResolvedMsg is the constructor for [MsgContextResolved]
func contextResolvedMsg(req tasks.AssemblyRequest, err error) Msg {
	return Msg{kind: MsgContextResolved, data: contextResolved{req, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// assemblyCompleteMsg is the constructor for [MsgAssemblyComplete]
func assemblyCompleteMsg(result *tasks.SessionResult, err error) Msg {
	return Msg{kind: MsgAssemblyComplete, data: assemblyComplete{result, err}}
}
