package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// sessionHeader carries the MCP session identifier between requests.
	sessionHeader = "X-MCP-Session-ID"
	// defaultHTTPAddr binds to localhost only unless configured otherwise.
	defaultHTTPAddr      = "localhost:8081"
	httpShutdownTimeout  = 5 * time.Second
	connectionBufferSize = 10
	// requestTimeout bounds how long a POST waits for its JSON-RPC response.
	requestTimeout = 30 * time.Second
	// sessionCleanupInterval is how often idle sessions are swept.
	sessionCleanupInterval = 5 * time.Minute
	// sessionIdleTimeout is how long a session may sit unused before the
	// sweep closes it.
	sessionIdleTimeout = 1 * time.Hour
	// sseHeartbeatInterval keeps quiet SSE streams counted as active.
	sseHeartbeatInterval = 30 * time.Second
)

// HTTPTransport serves MCP over HTTP. JSON-RPC requests arrive as POST
// requests and are answered on the same round-trip; server-originated
// notifications stream out over a Server-Sent Events connection.
type HTTPTransport struct {
	addr       string
	server     *mcp.Server
	httpServer *http.Server

	sessionsMu sync.RWMutex
	sessions   map[string]*httpSession

	serverCtx    context.Context
	serverCancel context.CancelFunc
}

// httpSession pins one MCP connection to one client session id.
type httpSession struct {
	id       string
	conn     *httpConnection
	lastUsed time.Time
	runOnce  sync.Once
}

// httpConnection implements mcp.Connection over in-memory channels.
// Responses are routed by JSON-RPC id to the POST handler that issued the
// request; everything else goes to the notification channel for SSE.
type httpConnection struct {
	sessionID string
	reqChan   chan jsonrpc.Message
	// notifyChan carries notifications and unmatched responses only.
	notifyChan chan jsonrpc.Message
	closed     chan struct{}
	closeOnce  sync.Once

	pendingMu sync.Mutex
	pending   map[jsonrpc.ID]chan jsonrpc.Message
}

// NewHTTPTransport creates an HTTP transport serving the given MCP server.
func NewHTTPTransport(addr string, server *mcp.Server) *HTTPTransport {
	if addr == "" {
		addr = defaultHTTPAddr
	}
	return &HTTPTransport{
		addr:     addr,
		server:   server,
		sessions: make(map[string]*httpSession),
	}
}

// Start starts the HTTP listener and blocks until the context ends or the
// listener fails.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.serverCtx, t.serverCancel = context.WithCancel(ctx)
	defer t.serverCancel()

	go t.cleanupSessions(ctx)

	t.httpServer = &http.Server{Addr: t.addr, Handler: t.routes()}

	log.Printf("starting MCP HTTP server on %s", t.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := t.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("MCP HTTP server: %w", err)
	}
}

func (t *HTTPTransport) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp/messages", t.handleMessages)
	mux.HandleFunc("GET /mcp/sse", t.handleSSE)
	mux.HandleFunc("GET /mcp/health", t.handleHealth)
	return mux
}

// session returns the session named by id, creating a fresh one when the id
// is unknown or empty.
func (t *HTTPTransport) session(id string) *httpSession {
	t.sessionsMu.Lock()
	defer t.sessionsMu.Unlock()

	if id != "" {
		if session, ok := t.sessions[id]; ok {
			session.lastUsed = time.Now()
			return session
		}
	}

	session := &httpSession{
		id: uuid.NewString(),
		conn: &httpConnection{
			reqChan:    make(chan jsonrpc.Message, connectionBufferSize),
			notifyChan: make(chan jsonrpc.Message, connectionBufferSize),
			closed:     make(chan struct{}),
			pending:    make(map[jsonrpc.ID]chan jsonrpc.Message),
		},
		lastUsed: time.Now(),
	}
	session.conn.sessionID = session.id
	t.sessions[session.id] = session
	return session
}

// touch marks the session as recently used.
func (t *HTTPTransport) touch(id string) {
	t.sessionsMu.Lock()
	if session, ok := t.sessions[id]; ok {
		session.lastUsed = time.Now()
	}
	t.sessionsMu.Unlock()
}

// cleanupSessions sweeps idle sessions until the context ends.
func (t *HTTPTransport) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.evictIdleSessions(time.Now())
		}
	}
}

// evictIdleSessions closes and removes sessions idle past the timeout.
// Closing the connection also ends the session's serve goroutine.
func (t *HTTPTransport) evictIdleSessions(now time.Time) {
	cutoff := now.Add(-sessionIdleTimeout)
	t.sessionsMu.Lock()
	defer t.sessionsMu.Unlock()

	for id, session := range t.sessions {
		if session.lastUsed.Before(cutoff) {
			session.conn.Close()
			delete(t.sessions, id)
		}
	}
}

// ensureServerRunning starts one MCP serve loop per session. The loop reads
// from the session's request channel and answers through the connection.
func (t *HTTPTransport) ensureServerRunning(session *httpSession) {
	if t.server == nil {
		return
	}
	session.runOnce.Do(func() {
		transport := &connTransport{conn: session.conn}
		go func() {
			_ = t.server.Run(t.serverCtx, transport)
		}()
	})
}

// handleMessages accepts one JSON-RPC message and, for requests, waits for
// the response carrying the same id.
func (t *HTTPTransport) handleMessages(w http.ResponseWriter, r *http.Request) {
	session := t.session(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, session.id)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("read request: %v", err), http.StatusBadRequest)
		return
	}

	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON-RPC message: %v", err), http.StatusBadRequest)
		return
	}

	t.ensureServerRunning(session)

	request, isRequest := msg.(*jsonrpc.Request)
	if !isRequest || request.ID == (jsonrpc.ID{}) {
		select {
		case session.conn.reqChan <- msg:
		case <-r.Context().Done():
			http.Error(w, "request cancelled", http.StatusRequestTimeout)
			return
		}
		// Notifications get no response body.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Register the waiter before handing the request to the serve loop so a
	// fast response cannot slip past it.
	waiter, ok := session.conn.await(request.ID)
	if !ok {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	defer session.conn.forget(request.ID)

	select {
	case session.conn.reqChan <- msg:
	case <-r.Context().Done():
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	select {
	case resp, ok := <-waiter:
		if !ok {
			http.Error(w, "session closed", http.StatusGone)
			return
		}
		data, err := jsonrpc.EncodeMessage(resp)
		if err != nil {
			http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			log.Printf("write MCP response: %v", err)
		}
	case <-r.Context().Done():
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
	case <-time.After(requestTimeout):
		http.Error(w, "request timeout", http.StatusRequestTimeout)
	}
}

// handleSSE streams server-originated notifications for one session.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	session := t.session(r.URL.Query().Get("session"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(sessionHeader, session.id)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.conn.closed:
			return
		case <-heartbeat.C:
			t.touch(session.id)
		case msg := <-session.conn.notifyChan:
			t.touch(session.id)
			data, err := jsonrpc.EncodeMessage(msg)
			if err != nil {
				log.Printf("encode SSE message: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// handleHealth reports listener liveness only; EOS reachability is covered
// by the eos_health_check tool.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// await registers a response channel for the given request id. It reports
// false when the connection is already closed.
func (c *httpConnection) await(id jsonrpc.ID) (chan jsonrpc.Message, bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.pending == nil {
		return nil, false
	}
	ch := make(chan jsonrpc.Message, 1)
	c.pending[id] = ch
	return ch, true
}

// forget drops the response channel registered for id.
func (c *httpConnection) forget(id jsonrpc.ID) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// Read implements mcp.Connection.
func (c *httpConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-c.reqChan:
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements mcp.Connection. Responses carrying a pending request id
// go to that request's waiter; everything else is a notification for SSE.
func (c *httpConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	if resp, ok := msg.(*jsonrpc.Response); ok && resp.ID != (jsonrpc.ID{}) {
		c.pendingMu.Lock()
		if waiter, pending := c.pending[resp.ID]; pending {
			// The waiter is buffered for exactly one response, so this
			// send cannot block while the lock is held.
			select {
			case waiter <- msg:
			default:
			}
			c.pendingMu.Unlock()
			return nil
		}
		c.pendingMu.Unlock()
	}

	select {
	case c.notifyChan <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements mcp.Connection. Pending waiters are released with a
// closed channel so blocked POST handlers return.
func (c *httpConnection) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.pendingMu.Lock()
		for _, waiter := range c.pending {
			close(waiter)
		}
		c.pending = nil
		c.pendingMu.Unlock()
	})
	return nil
}

// SessionID implements mcp.Connection.
func (c *httpConnection) SessionID() string {
	return c.sessionID
}

// connTransport hands a pre-existing connection to mcp.Server.Run.
type connTransport struct {
	conn mcp.Connection
}

// Connect implements mcp.Transport.
func (t *connTransport) Connect(context.Context) (mcp.Connection, error) {
	return t.conn, nil
}
