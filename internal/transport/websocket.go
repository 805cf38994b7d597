package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// broadcastDepth bounds the queue between Send and the writer goroutine.
// When full, new results are dropped so the analysis loop never waits on
// socket writes.
const broadcastDepth = 256

// WebSocketTransport broadcasts analysis results as JSON to every
// connected client. Clients connect to ws://<addr>/ws; a slow client is
// disconnected on its first failed write.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan analysis.Result
	server    *http.Server
}

// NewWebSocketTransport creates the transport and starts its HTTP server
// and broadcast goroutine.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // visualization clients connect from anywhere
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan analysis.Result, broadcastDepth),
	}
	wst.start()
	return wst
}

func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{
		Addr:    wst.addr,
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocketTransport: listening on %s", wst.addr)
		if err := wst.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocketTransport: server error: %v", err)
		}
	}()

	go wst.handleBroadcasts()
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: client connected, total: %d", total)

	// Detect disconnects; clients never send payload we care about.
	go func() {
		if _, _, err := conn.ReadMessage(); err != nil {
			wst.clientsMu.Lock()
			delete(wst.clients, conn)
			total := len(wst.clients)
			wst.clientsMu.Unlock()
			conn.Close()
			applog.Infof("WebSocketTransport: client disconnected, total: %d", total)
		}
	}()
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for result := range wst.broadcast {
		wst.clientsMu.Lock()
		for client := range wst.clients {
			if err := client.WriteJSON(result); err != nil {
				applog.Warnf("WebSocketTransport: dropping client: %v", err)
				client.Close()
				delete(wst.clients, client)
			}
		}
		wst.clientsMu.Unlock()
	}
}

// Send queues a result for broadcast. When the queue is full the result is
// dropped; Send never blocks.
func (wst *WebSocketTransport) Send(result analysis.Result) error {
	select {
	case wst.broadcast <- result:
	default:
		// Queue full; this result is skipped for websocket consumers.
	}
	return nil
}

// Close disconnects all clients and shuts down the server.
func (wst *WebSocketTransport) Close() error {
	applog.Infof("WebSocketTransport: closing")

	wst.clientsMu.Lock()
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	wst.clientsMu.Unlock()

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
