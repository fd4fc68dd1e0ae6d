package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livepaste/internal/adapter/metrics"
	"github.com/pscheid92/livepaste/internal/domain"
)

const (
	commandTimeout   = 5 * time.Second
	stopTimeout      = 10 * time.Second
	commandQueueSize = 256
	shutdownReason   = "server shutting down"
)

const (
	resultAccepted       = "accepted"
	resultUnknownEvent   = "unknown_event"
	resultInvalidPayload = "invalid_payload"
)

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection *websocket.Conn
	reply      chan string
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type inputCmd struct {
	baseHubCmd
	ctx     context.Context
	sender  *websocket.Conn
	message domain.Message
	frame   []byte
	event   string
}

type clientCountCmd struct {
	baseHubCmd
	reply chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub relays edits between websocket clients and writes them to the paste store.
//
// A single goroutine owns the client map and applies edits, so the order in
// which edits reach the store is the order in which they are fanned out.
type Hub struct {
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	store       domain.PasteStore
	metrics     *metrics.WebSocketMetrics
	clients     map[*websocket.Conn]*clientWriter
	done        chan struct{}
	stopTimeout time.Duration
}

// NewHub starts the hub goroutine. m may be nil.
func NewHub(store domain.PasteStore, clock clockwork.Clock, m *metrics.WebSocketMetrics) *Hub {
	h := &Hub{
		cmdCh:       make(chan hubCmd, commandQueueSize),
		clock:       clock,
		store:       store,
		metrics:     m,
		clients:     make(map[*websocket.Conn]*clientWriter),
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go h.run()
	return h
}

// Register adds a connection and returns its client id.
func (h *Hub) Register(conn *websocket.Conn) (string, error) {
	reply := make(chan string, 1)
	if err := h.send(registerCmd{connection: conn, reply: reply}); err != nil {
		return "", err
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case id := <-reply:
		return id, nil
	case <-h.done:
		return "", domain.ErrHubStopped
	case <-timer.Chan():
		return "", fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	_ = h.send(unregisterCmd{connection: conn})
}

// Receive decodes one inbound frame from sender. A valid TEXT_INPUT is applied
// to the store and relayed to every other client; anything else is rejected
// with an error and the connection stays open.
func (h *Hub) Receive(ctx context.Context, sender *websocket.Conn, frame []byte) error {
	var in domain.Envelope
	if err := json.Unmarshal(frame, &in); err != nil {
		h.recordReceived(resultInvalidPayload)
		return fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}
	if in.Event != domain.EventTextInput {
		h.recordReceived(resultUnknownEvent)
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, in.Event)
	}

	msg, err := domain.DecodeMessage(in.Data)
	if err != nil {
		h.recordReceived(resultInvalidPayload)
		return err
	}

	out := domain.Envelope{Event: domain.BroadcastEvent(msg), Data: in.Data}
	encoded, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast: %w", err)
	}

	h.recordReceived(resultAccepted)
	return h.send(inputCmd{ctx: ctx, sender: sender, message: msg, frame: encoded, event: out.Event})
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.send(clientCountCmd{reply: reply}); err != nil {
		return 0, err
	}

	select {
	case n := <-reply:
		return n, nil
	case <-h.done:
		return 0, domain.ErrHubStopped
	case <-ctx.Done():
		return 0, fmt.Errorf("client count: %w", ctx.Err())
	}
}

// Check is a readiness probe: the hub goroutine must answer.
func (h *Hub) Check(ctx context.Context) error {
	_, err := h.ClientCount(ctx)
	return err
}

// Stop closes every client with a close frame and waits for the hub goroutine.
func (h *Hub) Stop() {
	if err := h.send(stopCmd{}); err != nil {
		return
	}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", h.stopTimeout)
	}
}

func (h *Hub) send(cmd hubCmd) error {
	select {
	case <-h.done:
		return domain.ErrHubStopped
	default:
	}

	select {
	case h.cmdCh <- cmd:
		return nil
	case <-h.done:
		return domain.ErrHubStopped
	}
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("internal error")
		}
	}()

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.connection)
		case inputCmd:
			h.handleInput(c)
		case clientCountCmd:
			c.reply <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	id := uuid.NewString()
	h.clients[c.connection] = newClientWriter(id, c.connection, h.clock, h.metrics)

	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(float64(len(h.clients)))
	}

	slog.Debug("Client registered", "client_id", id, "total_clients", len(h.clients))
	c.reply <- id
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, ok := h.clients[conn]
	if !ok {
		return
	}

	cw.stop()
	delete(h.clients, conn)

	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(float64(len(h.clients)))
	}
	slog.Debug("Client unregistered", "client_id", cw.id, "remaining_clients", len(h.clients))
}

func (h *Hub) handleInput(c inputCmd) {
	h.store.Apply(c.message)

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		if conn == c.sender {
			cw.recordActivity()
			continue
		}
		if !cw.enqueue(c.frame) {
			slow = append(slow, conn)
			continue
		}
		if h.metrics != nil {
			h.metrics.MessagesBroadcast.WithLabelValues(c.event).Inc()
		}
	}

	for _, conn := range slow {
		slog.WarnContext(c.ctx, "Disconnecting slow client", "client_id", h.clients[conn].id)
		if h.metrics != nil {
			h.metrics.SlowClientsEvicted.Inc()
		}
		h.handleUnregister(conn)
	}

	slog.DebugContext(c.ctx, "Relayed edit",
		"event", c.event,
		"bytes", len(c.message.Content),
		"recipients", len(h.clients)-1,
	)
}

func (h *Hub) handleStop() {
	total := len(h.clients)
	slog.Info("Hub shutting down", "clients", total)
	h.closeAllClients(shutdownReason)
	slog.Info("Hub shutdown complete", "disconnected_clients", total)
}

func (h *Hub) closeAllClients(reason string) {
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(0)
	}
}

func (h *Hub) recordReceived(result string) {
	if h.metrics != nil {
		h.metrics.MessagesReceived.WithLabelValues(result).Inc()
	}
}
