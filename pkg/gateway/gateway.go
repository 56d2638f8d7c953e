package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/crewsync/crewsync/pkg/events"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/registry"
	"github.com/crewsync/crewsync/pkg/types"
)

// SessionHandler is the consumer lifecycle surface the gateway drives.
// The sync engine implements it.
type SessionHandler interface {
	RegisterClient(id string, clientType types.ClientType, scope, principal string) types.ClientConnection
	UpdateClientActivity(id string)
	UnregisterClient(id string)
}

// Envelope is one notification frame pushed to a consumer
type Envelope struct {
	Name    string    `json:"name"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// clientMessage is an inbound frame from a consumer
type clientMessage struct {
	Action string `json:"action"` // ping
}

// Options wires the gateway's collaborators
type Options struct {
	Sessions  SessionHandler
	Transport events.Transport
	Registry  *registry.Registry
	// Channel is the broadcast channel consumers are attached to
	Channel string
	// Admin, when set, mounts the operational HTTP endpoints
	Admin AdminAPI
}

// Gateway bridges the in-process broker to remote consumers over
// WebSocket. Every connected consumer receives every broadcast on the
// configured channel and filters by its own scope locally.
type Gateway struct {
	opts   Options
	logger zerolog.Logger
	http   *http.Server
}

// New creates a consumer gateway
func New(opts Options) (*Gateway, error) {
	if opts.Sessions == nil || opts.Transport == nil || opts.Registry == nil {
		return nil, fmt.Errorf("gateway: sessions, transport, and registry are required")
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("gateway: channel is required")
	}
	return &Gateway{
		opts:   opts,
		logger: log.WithComponent("gateway"),
	}, nil
}

// Start listens on addr. Blocks until the server stops.
func (g *Gateway) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWS)
	g.registerAdmin(mux)

	g.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.logger.Info().Str("addr", addr).Msg("consumer gateway listening")
	if err := g.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the gateway down gracefully
func (g *Gateway) Stop(ctx context.Context) error {
	if g.http == nil {
		return nil
	}
	return g.http.Shutdown(ctx)
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	clientType := types.ClientType(r.URL.Query().Get("type"))
	switch clientType {
	case types.ClientSummaryView, types.ClientScopedView, types.ClientMobileApp:
	default:
		http.Error(w, "unknown client type", http.StatusBadRequest)
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.New().String()
	}
	scope := r.URL.Query().Get("scope")
	principal := r.URL.Query().Get("principal")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket accept failed")
		return
	}

	sub, err := g.opts.Transport.Subscribe(g.opts.Channel)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "broker unavailable")
		return
	}

	g.opts.Sessions.RegisterClient(clientID, clientType, scope, principal)
	defer func() {
		sub.Unsubscribe()
		g.opts.Sessions.UnregisterClient(clientID)
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	readErr := make(chan error, 1)
	go g.readLoop(ctx, conn, clientID, readErr)

	for {
		select {
		case msg := <-sub.C():
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(writeCtx, conn, Envelope{
				Name:    msg.Name,
				Payload: msg.Payload,
				SentAt:  msg.SentAt,
			})
			cancel()
			if err != nil {
				lgr := log.WithClientID(clientID)
				lgr.Debug().Err(err).Msg("push failed, dropping connection")
				return
			}
			g.opts.Registry.BumpSyncVersion(clientID)
		case <-sub.Done():
			return
		case err := <-readErr:
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				lgr := log.WithClientID(clientID)
				lgr.Debug().Err(err).Msg("consumer read ended")
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

// readLoop drains inbound frames; any well-formed frame counts as an
// activity ping
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, clientID string, readErr chan<- error) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			readErr <- err
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			lgr := log.WithClientID(clientID)
			lgr.Debug().Msg("ignored malformed client frame")
			continue
		}
		g.opts.Sessions.UpdateClientActivity(clientID)
	}
}
