package editor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"agentreveal/pkg/logger"
)

// message is the wire format, both directions. Requests carry id and
// method; responses echo the id with a result or error code; inbound
// notifications carry event and path.
type message struct {
	ID     int64    `json:"id,omitempty"`
	Method string   `json:"method,omitempty"`
	Result string   `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
	Event  string   `json:"event,omitempty"`
	Path   string   `json:"path,omitempty"`
	Paths  []string `json:"paths,omitempty"`
}

// Bridge implements Editor over a newline-delimited JSON pipe.
type Bridge struct {
	logger logger.Logger

	writeMu sync.Mutex
	out     io.Writer

	mu      sync.Mutex
	closed  bool
	nextID  int64
	pending map[int64]chan message
	visible map[string]struct{}
	open    map[string]struct{}

	notifications chan Notification
	done          chan struct{}
}

// NewBridge creates a bridge reading host messages from in and writing
// requests to out, and starts its read loop.
func NewBridge(in io.Reader, out io.Writer, log logger.Logger) *Bridge {
	b := &Bridge{
		logger:        log,
		out:           out,
		pending:       make(map[int64]chan message),
		visible:       make(map[string]struct{}),
		open:          make(map[string]struct{}),
		notifications: make(chan Notification, 64),
		done:          make(chan struct{}),
	}

	go b.readLoop(in)

	return b
}

// Notifications returns the channel of relayed document change/save
// notifications. The channel is closed when the bridge shuts down.
func (b *Bridge) Notifications() <-chan Notification {
	return b.notifications
}

// IsVisible implements Editor.IsVisible.
func (b *Bridge) IsVisible(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.visible[path]
	return ok
}

// IsOpen implements Editor.IsOpen.
func (b *Bridge) IsOpen(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.open[path]
	return ok
}

// Open implements Editor.Open. It sends an openDocument request and
// waits for the host's response or context cancellation.
func (b *Bridge) Open(ctx context.Context, path string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBridgeClosed
	}
	b.nextID++
	id := b.nextID
	reply := make(chan message, 1)
	b.pending[id] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	if err := b.send(message{ID: id, Method: "openDocument", Path: path}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrBridgeClosed
	case resp := <-reply:
		return responseError(resp)
	}
}

// Close shuts the bridge down: pending opens fail with
// ErrBridgeClosed and the notification channel is closed. It does not
// close the underlying pipe; the host owns it.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.visible = make(map[string]struct{})
	b.open = make(map[string]struct{})
	b.mu.Unlock()

	close(b.done)
	close(b.notifications)

	b.logger.Info("editor bridge closed")
	return nil
}

// send writes one message as a JSON line.
func (b *Bridge) send(msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if _, err := b.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// readLoop consumes host messages until the pipe closes or the bridge
// shuts down.
func (b *Bridge) readLoop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-b.done:
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			b.logger.Warn("dropping malformed host message", "error", err)
			continue
		}

		b.dispatch(msg)
	}

	if err := scanner.Err(); err != nil {
		b.logger.Warn("host pipe read failed", "error", err)
	}
}

// dispatch routes one host message: responses to their waiters,
// notifications to state updates and the relay channel.
func (b *Bridge) dispatch(msg message) {
	if msg.ID != 0 {
		b.mu.Lock()
		reply, ok := b.pending[msg.ID]
		b.mu.Unlock()

		if !ok {
			b.logger.Debug("response for unknown request", "id", msg.ID)
			return
		}
		reply <- msg
		return
	}

	now := time.Now()

	switch NotificationKind(msg.Event) {
	case DocumentOpened:
		b.mu.Lock()
		b.open[msg.Path] = struct{}{}
		b.visible[msg.Path] = struct{}{}
		b.mu.Unlock()

	case DocumentClosed:
		b.mu.Lock()
		delete(b.open, msg.Path)
		delete(b.visible, msg.Path)
		b.mu.Unlock()

	case ActiveEditorChanged:
		// The host sends the full visible set; a bare path means a
		// single visible editor.
		paths := msg.Paths
		if len(paths) == 0 && msg.Path != "" {
			paths = []string{msg.Path}
		}
		b.mu.Lock()
		b.visible = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			b.visible[p] = struct{}{}
			b.open[p] = struct{}{}
		}
		b.mu.Unlock()

	case DocumentChanged, DocumentSaved:
		b.relay(Notification{Kind: NotificationKind(msg.Event), Path: msg.Path, At: now})

	default:
		b.logger.Debug("unknown host event", "event", msg.Event)
	}
}

// relay forwards a notification without blocking the read loop. The
// lock is held across the send so Close cannot close the channel
// between the closed check and the send.
func (b *Bridge) relay(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	select {
	case b.notifications <- n:
	default:
		b.logger.Warn("notification channel full, dropping event",
			"kind", n.Kind,
			"path", n.Path)
	}
}

// Visible returns a snapshot of the currently visible paths.
// Primarily for the stats command and tests.
func (b *Bridge) Visible() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := make([]string, 0, len(b.visible))
	for p := range b.visible {
		paths = append(paths, p)
	}
	return paths
}

// responseError maps a host response to the bridge error taxonomy.
func responseError(resp message) error {
	switch resp.Error {
	case "":
		return nil
	case codeNotFound:
		return ErrNotFound
	case codeNotReady:
		return ErrNotReady
	case codeSizeLimit:
		return ErrSizeLimit
	default:
		return fmt.Errorf("host rejected open: %s", resp.Error)
	}
}
