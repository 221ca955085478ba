// Package editor connects the decision engine to the host editor.
//
// The host side (an editor plugin) speaks a newline-delimited JSON
// protocol over a pipe: it streams document-model notifications in
// (opened, closed, changed, saved, active-editor changes) and accepts
// open-document requests out. The bridge mirrors the host's visibility
// state so the engine can query it synchronously, and forwards
// document change/save notifications into the engine's event funnel.
package editor

import (
	"context"
	"time"
)

// Editor is the engine's view of the host editor.
type Editor interface {
	// IsVisible reports whether the document at path is currently
	// shown to the user.
	IsVisible(path string) bool

	// IsOpen reports whether the document at path is loaded in the
	// host's document model, visible or not.
	IsOpen(path string) bool

	// Open asks the host to open and reveal the document at path.
	// It must succeed whether or not the document is already loaded,
	// and must not assume the document wasn't already visible.
	Open(ctx context.Context, path string) error
}

// NotificationKind identifies a host document-model notification.
type NotificationKind string

// Host notification kinds.
const (
	DocumentOpened      NotificationKind = "documentOpened"
	DocumentClosed      NotificationKind = "documentClosed"
	DocumentChanged     NotificationKind = "documentChanged"
	DocumentSaved       NotificationKind = "documentSaved"
	ActiveEditorChanged NotificationKind = "activeEditorChanged"
)

// Notification is a host document-model event relayed to consumers.
// Only change and save notifications are relayed; the rest mutate the
// bridge's visibility state silently.
type Notification struct {
	// Kind is the notification kind.
	Kind NotificationKind

	// Path is the absolute document path.
	Path string

	// At is when the bridge received the notification.
	At time.Time
}

// Error codes the host may attach to an open-document response.
const (
	codeNotFound  = "notFound"
	codeNotReady  = "notReady"
	codeSizeLimit = "sizeLimit"
)
