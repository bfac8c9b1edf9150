// Package server serves the card screen to views over HTTP and WebSocket and
// advertises it on the local network.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"

	"github.com/dotside-studios/davi-card-agent/buildinfo"
	"github.com/dotside-studios/davi-card-agent/card"
	"github.com/dotside-studios/davi-card-agent/nfcsession"
	"github.com/dotside-studios/davi-card-agent/protocol"
)

// Config holds the server configuration
type Config struct {
	Session     Reader
	Broadcaster *nfcsession.Broadcaster
	Profile     card.Profile
	Port        int
	APISecret   string // Optional API secret for WebSocket connections
	MaxClients  int    // Zero allows any number of views
	EnableMDNS  bool

	// ReaderStatus, if set, is reported by the health endpoint.
	ReaderStatus func() protocol.ReaderStatus
}

// Server manages the HTTP and WebSocket server
type Server struct {
	config   Config
	registry *HandlerRegistry
	cards    *CardHandler
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer *http.Server
	listener   net.Listener
	ctx        context.Context
	cancel     context.CancelFunc

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// mDNS service for auto-discovery
	mdnsServer *zeroconf.Server
}

// New creates a new server instance
func New(config Config) *Server {
	if config.Broadcaster == nil {
		config.Broadcaster = nfcsession.NewBroadcaster()
	}

	s := &Server{
		config:   config,
		registry: NewHandlerRegistry(),
		clients:  make(map[string]*Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}

	s.cards = NewCardHandler(config.Profile, config.Session)
	s.cards.Register(s)

	s.mux = s.routes()
	return s
}

// Handle implements HandlerServer interface.
func (s *Server) Handle(messageType string, handler HandlerFunc) error {
	return s.registry.Handle(messageType, handler)
}

// StartLifecycle implements HandlerServer interface.
func (s *Server) StartLifecycle(start func(ctx context.Context)) {
	s.registry.RegisterLifecycle(start)
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	apiV1 := "/api/v1"

	mux.HandleFunc(apiV1+"/health", enableCORS(getOnly(s.handleHealthCheck)))
	mux.HandleFunc(apiV1+"/card", enableCORS(getOnly(s.handleCard)))
	mux.HandleFunc(apiV1+"/card/qr.png", enableCORS(getOnly(s.handleQRCode)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", enableCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(buildinfo.DisplayName + " Running"))
	}))
	return mux
}

// enableCORS is a middleware that adds CORS headers to responses
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", CORSAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", CORSAllowHeaders)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// Start listens on the configured port and serves in the background.
// Use port 0 to pick a free port; Addr reports the bound address.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.config.Port, err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[server] Listening on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[server] HTTP server error: %v", err)
		}
	}()

	if s.config.EnableMDNS {
		if err := s.startMDNS(); err != nil {
			log.Printf("[server] Warning: Failed to start mDNS service: %v", err)
			log.Printf("[server] Auto-discovery will not be available, but server will continue normally")
		}
	}

	s.registry.StartLifecycleHandlers(s.ctx)
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound TCP port, falling back to the configured one.
func (s *Server) Port() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}

// Stop shuts down mDNS, disconnects views and stops the HTTP server.
func (s *Server) Stop() {
	if s.mdnsServer != nil {
		s.mdnsServer.Shutdown()
		s.mdnsServer = nil
		log.Printf("[server] mDNS service stopped")
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.clientsMu.Lock()
	for id, c := range s.clients {
		s.config.Broadcaster.Detach(id)
		c.Close()
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("[server] Server shutdown error: %v", err)
		}
		s.httpServer = nil
	}
	s.cards.Wait()
}

// Clients returns the number of connected views.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// startMDNS registers the card agent as an mDNS service for auto-discovery
func (s *Server) startMDNS() error {
	txtRecords := []string{
		"version=" + buildinfo.Version,
		"protocol=websocket",
		"path=/ws",
		"card=/api/v1/card",
	}

	server, err := zeroconf.Register(MDNSServiceName, MDNSServiceType, MDNSDomain, s.Port(), txtRecords, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	s.mdnsServer = server
	log.Printf("[server] mDNS service registered: %s (%s) on port %d", MDNSServiceName, MDNSServiceType, s.Port())
	return nil
}

// handleHealthCheck provides a health check endpoint (GET /api/v1/health)
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := protocol.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   buildinfo.FullVersion(),
		Session:   s.config.Session.State().String(),
		Views:     s.Clients(),
		Messages:  s.registry.MessageTypes(),
	}
	if s.config.ReaderStatus != nil {
		status := s.config.ReaderStatus()
		resp.Reader = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

type cardResponse struct {
	card.Profile
	QRCodeURL string `json:"qrCodeUrl"`
}

// handleCard returns the card profile (GET /api/v1/card)
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cardResponse{
		Profile:   s.config.Profile,
		QRCodeURL: "/api/v1/card/qr.png",
	})
}

// handleQRCode renders the share URL as a PNG (GET /api/v1/card/qr.png?size=N)
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	size := card.DefaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse{
				Error:     "size must be an integer",
				ErrorCode: protocol.ErrCodeInvalidRequest,
			})
			return
		}
		size = n
	}

	png, err := card.QRCode(s.config.Profile.ShareURL, size)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse{
			Error:     err.Error(),
			ErrorCode: protocol.ErrCodeInvalidRequest,
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// handleWebSocket upgrades a view connection and runs its read loop
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
	w.Header().Set("Access-Control-Allow-Credentials", "true")

	if s.config.APISecret != "" && r.URL.Query().Get("secret") != s.config.APISecret {
		log.Printf("[server] WebSocket connection rejected: invalid API secret")
		http.Error(w, "Unauthorized: Invalid API secret", http.StatusUnauthorized)
		return
	}

	if s.config.MaxClients > 0 && s.Clients() >= s.config.MaxClients {
		log.Printf("[server] WebSocket connection rejected: %d views already connected", s.config.MaxClients)
		http.Error(w, "Too many views connected", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[server] WebSocket upgrade error: %v", err)
		return
	}

	client := newClient(uuid.NewString(), r.RemoteAddr, conn)
	s.clientsMu.Lock()
	s.clients[client.ID] = client
	s.clientsMu.Unlock()
	log.Printf("[server] View %s connected from %s", client.ID, r.RemoteAddr)

	defer func() {
		s.config.Broadcaster.Detach(client.ID)
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		client.Close()
		log.Printf("[server] View %s disconnected", client.ID)
	}()

	go client.writePump()

	// Current state and the last notice go out before live updates.
	client.StateChanged(s.config.Session.State())
	if n, ok := s.config.Broadcaster.LastNotice(); ok {
		client.Notify(n)
	}
	s.config.Broadcaster.Attach(client.ID, client)

	s.readLoop(r.Context(), client)
}

func (s *Server) readLoop(ctx context.Context, client *Client) {
	conn := client.conn
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[server] WebSocket read error for %s: %v", client.ID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req protocol.WebSocketRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("[server] Failed to parse WebSocket message: %v", err)
			client.SendError("", protocol.ErrCodeParseError, "Invalid message format")
			continue
		}

		handler, ok := s.registry.Get(req.Type)
		if !ok {
			log.Printf("[server] Unknown message type: %s", req.Type)
			client.SendError(req.ID, protocol.ErrCodeUnknownType, fmt.Sprintf("Unknown message type: %s", req.Type))
			continue
		}

		if err := handler(ctx, client, req); err != nil {
			// Error already sent by handler, just log it
			log.Printf("[server] Handler error for message type '%s': %v", req.Type, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] Failed to encode response: %v", err)
	}
}
