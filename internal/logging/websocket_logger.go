package logging

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// WebSocketLogger keeps a ring of recent log lines and streams new ones to
// connected admin log viewers.
type WebSocketLogger struct {
	clients         map[*websocket.Conn]*clientInfo
	broadcast       chan LogMessage
	mu              sync.RWMutex
	stopCh          chan struct{}
	stopOnce        sync.Once
	history         []LogMessage
	historyMu       sync.RWMutex
	seq             uint64
	historyCap      int
	maxConnections  int
	idleTimeout     time.Duration
	cleanupInterval time.Duration
}

type clientInfo struct {
	writeMu      sync.Mutex
	lastActivity atomic.Int64
	connected    time.Time
}

// LogMessage represents a log message
type LogMessage struct {
	ID        uint64                 `json:"id,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

var (
	globalWSLogger *WebSocketLogger
	wsLoggerOnce   sync.Once
)

// ErrMaxConnectionsReached is returned by AddClient when the viewer limit is hit.
var ErrMaxConnectionsReached = errors.New("maximum WebSocket connections reached")

// GetWSLogger returns the global WebSocket logger instance
func GetWSLogger() *WebSocketLogger {
	wsLoggerOnce.Do(func() {
		globalWSLogger = NewWebSocketLogger(500, 20)
		globalWSLogger.Start()
	})
	return globalWSLogger
}

// NewWebSocketLogger creates a logger keeping historyCap lines and accepting
// at most maxConnections viewers.
func NewWebSocketLogger(historyCap, maxConnections int) *WebSocketLogger {
	return &WebSocketLogger{
		clients:         make(map[*websocket.Conn]*clientInfo),
		broadcast:       make(chan LogMessage, 100),
		stopCh:          make(chan struct{}),
		history:         make([]LogMessage, 0, historyCap),
		historyCap:      historyCap,
		maxConnections:  maxConnections,
		idleTimeout:     30 * time.Minute,
		cleanupInterval: 2 * time.Minute,
	}
}

// Start starts the broadcast and idle cleanup loops.
func (wsl *WebSocketLogger) Start() {
	go func() {
		for {
			select {
			case message := <-wsl.broadcast:
				wsl.mu.RLock()
				for conn, info := range wsl.clients {
					go wsl.send(conn, info, message)
				}
				wsl.mu.RUnlock()
			case <-wsl.stopCh:
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(wsl.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				wsl.cleanupDeadConnections()
			case <-wsl.stopCh:
				return
			}
		}
	}()
}

func (wsl *WebSocketLogger) send(conn *websocket.Conn, info *clientInfo, msg LogMessage) {
	info.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err := conn.WriteJSON(msg)
	info.writeMu.Unlock()
	if err != nil {
		wsl.RemoveClient(conn)
		return
	}
	info.lastActivity.Store(time.Now().UnixNano())
}

// Stop stops the loops and closes every client.
func (wsl *WebSocketLogger) Stop() {
	wsl.stopOnce.Do(func() { close(wsl.stopCh) })

	wsl.mu.Lock()
	defer wsl.mu.Unlock()
	for conn := range wsl.clients {
		conn.Close()
	}
	wsl.clients = make(map[*websocket.Conn]*clientInfo)
}

// AddClient registers a viewer and replays the recent history to it.
func (wsl *WebSocketLogger) AddClient(conn *websocket.Conn) error {
	wsl.mu.Lock()
	if len(wsl.clients) >= wsl.maxConnections {
		wsl.mu.Unlock()
		log.Warnf("log viewer limit reached (%d), rejecting new connection", wsl.maxConnections)
		return ErrMaxConnectionsReached
	}
	info := &clientInfo{connected: time.Now()}
	info.lastActivity.Store(time.Now().UnixNano())
	wsl.clients[conn] = info
	total := len(wsl.clients)
	wsl.mu.Unlock()

	recent, _, _ := wsl.FetchSince(0, 0)
	for _, msg := range recent {
		wsl.send(conn, info, msg)
	}
	log.Debugf("log viewer connected (total: %d)", total)
	return nil
}

// RemoveClient removes a WebSocket client
func (wsl *WebSocketLogger) RemoveClient(conn *websocket.Conn) {
	wsl.mu.Lock()
	_, exists := wsl.clients[conn]
	if exists {
		delete(wsl.clients, conn)
		conn.Close()
	}
	remaining := len(wsl.clients)
	wsl.mu.Unlock()
	if exists {
		log.Debugf("log viewer disconnected (remaining: %d)", remaining)
	}
}

func (wsl *WebSocketLogger) cleanupDeadConnections() {
	wsl.mu.Lock()
	defer wsl.mu.Unlock()

	now := time.Now()
	for conn, info := range wsl.clients {
		if now.Sub(time.Unix(0, info.lastActivity.Load())) > wsl.idleTimeout {
			delete(wsl.clients, conn)
			conn.Close()
		}
	}
}

// GetConnectionCount returns the current number of connected clients
func (wsl *WebSocketLogger) GetConnectionCount() int {
	wsl.mu.RLock()
	defer wsl.mu.RUnlock()
	return len(wsl.clients)
}

// BroadcastLog records a line and queues it for connected viewers. Lines are
// dropped for viewers when the queue is full; history always keeps them.
func (wsl *WebSocketLogger) BroadcastLog(level, message string, fields map[string]interface{}) {
	id := atomic.AddUint64(&wsl.seq, 1)
	logMsg := LogMessage{
		ID:        id,
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}

	wsl.appendHistory(logMsg)

	select {
	case wsl.broadcast <- logMsg:
	default:
	}
}

func (wsl *WebSocketLogger) appendHistory(msg LogMessage) {
	if wsl.historyCap <= 0 {
		return
	}
	wsl.historyMu.Lock()
	defer wsl.historyMu.Unlock()
	wsl.history = append(wsl.history, msg)
	if len(wsl.history) > wsl.historyCap {
		excess := len(wsl.history) - wsl.historyCap
		wsl.history = append([]LogMessage(nil), wsl.history[excess:]...)
	}
}

// FetchSince returns log messages newer than the provided cursor ID.
func (wsl *WebSocketLogger) FetchSince(cursor uint64, limit int) ([]LogMessage, uint64, bool) {
	wsl.historyMu.RLock()
	defer wsl.historyMu.RUnlock()

	if limit <= 0 || limit > wsl.historyCap {
		limit = wsl.historyCap
	}

	total := len(wsl.history)
	if total == 0 {
		return []LogMessage{}, cursor, false
	}

	start := 0
	if cursor == 0 {
		if total > limit {
			start = total - limit
		}
	} else {
		start = total
		for i, msg := range wsl.history {
			if msg.ID > cursor {
				start = i
				break
			}
		}
		if start >= total {
			return []LogMessage{}, cursor, false
		}
	}

	end := start + limit
	if end > total {
		end = total
	}

	out := make([]LogMessage, end-start)
	copy(out, wsl.history[start:end])

	nextCursor := cursor
	if len(out) > 0 {
		nextCursor = out[len(out)-1].ID
	}
	return out, nextCursor, end < total
}

// LogrusHook forwards logrus entries to a WebSocketLogger.
type LogrusHook struct {
	wsLogger *WebSocketLogger
}

func NewLogrusHook(wsl *WebSocketLogger) *LogrusHook {
	return &LogrusHook{wsLogger: wsl}
}

func (hook *LogrusHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel, log.InfoLevel}
}

// Fire is called when a log event occurs
func (hook *LogrusHook) Fire(entry *log.Entry) error {
	fields := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[k] = v
	}
	hook.wsLogger.BroadcastLog(entry.Level.String(), entry.Message, fields)
	return nil
}

// InstallWebSocketLogging hooks the global logger into the admin log stream.
func InstallWebSocketLogging() *WebSocketLogger {
	wsl := GetWSLogger()
	log.AddHook(NewLogrusHook(wsl))
	return wsl
}
