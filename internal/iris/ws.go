package iris

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var (
	ErrWSNotConnected = errors.New("ws not connected")
	ErrWSClosed       = errors.New("ws closed")
)

type MessageCallback func(msg *Message)

type StateCallback func(state WebSocketState)

// WebSocket receives Iris events and can write reply frames. It reconnects
// with backoff after read or ping failures.
type WebSocket struct {
	wsURL   string
	headers HeaderProvider
	logger  *zap.Logger

	mu    sync.RWMutex
	conn  *websocket.Conn
	state WebSocketState

	writeMu sync.Mutex

	cbMu     sync.RWMutex
	nextCbID int
	msgCbs   map[int]MessageCallback
	stateCbs map[int]StateCallback

	maxReconnect int
	pingInterval time.Duration
	dialTimeout  time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	rootCtx      context.Context
	rootCancel   context.CancelFunc
}

func NewWebSocket(wsURL string, maxReconnect int, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		wsURL:        wsURL,
		logger:       logger,
		state:        WSStateDisconnected,
		msgCbs:       make(map[int]MessageCallback),
		stateCbs:     make(map[int]StateCallback),
		maxReconnect: maxReconnect,
		pingInterval: 30 * time.Second,
		dialTimeout:  10 * time.Second,
		stopCh:       make(chan struct{}),
		rootCtx:      ctx,
		rootCancel:   cancel,
	}
}

// SetHeaderProvider injects headers into the WS handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headers = h }

func (ws *WebSocket) State() WebSocketState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

func (ws *WebSocket) Connected() bool { return ws.State() == WSStateConnected }

func (ws *WebSocket) Connect(ctx context.Context) error {
	switch ws.State() {
	case WSStateConnected, WSStateConnecting:
		return nil
	}
	ws.setState(WSStateConnecting)

	dctx, cancel := context.WithTimeout(ctx, ws.dialTimeout)
	defer cancel()
	conn, err := ws.dial(dctx)
	if err != nil {
		ws.setState(WSStateFailed)
		ws.scheduleReconnect()
		return err
	}
	if !ws.attach(conn) {
		ws.setState(WSStateDisconnected)
		return ErrWSClosed
	}
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.handshakeHeaders(),
	})
	return conn, err
}

// attach installs conn and starts its loops. Close 가 이미 시작됐으면 conn 을 닫고 false.
// stopCh 는 ws.mu 아래에서만 닫히므로 wg.Add 는 항상 Close 의 Wait 보다 먼저 일어난다.
func (ws *WebSocket) attach(conn *websocket.Conn) bool {
	ws.mu.Lock()
	if ws.stopping() {
		ws.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "shutting down")
		return false
	}
	ws.conn = conn
	ws.wg.Add(2)
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	go ws.readLoop(conn)
	go ws.pingLoop(conn)
	return true
}

func (ws *WebSocket) readLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var msg Message
		if err := wsjson.Read(ws.rootCtx, conn, &msg); err != nil {
			if ws.stopping() {
				return
			}
			ws.logger.Warn("ws_read_error", zap.Error(err))
			ws.drop(conn, "read failure")
			return
		}

		ws.cbMu.RLock()
		cbs := make([]MessageCallback, 0, len(ws.msgCbs))
		for _, cb := range ws.msgCbs {
			cbs = append(cbs, cb)
		}
		ws.cbMu.RUnlock()
		for _, cb := range cbs {
			cb(&msg)
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-t.C:
			if ws.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				ws.logger.Warn("ws_ping_failed", zap.Error(err))
				ws.drop(conn, "ping failure")
				return
			}
		}
	}
}

// drop 은 conn 이 아직 현재 연결일 때만 닫고 재연결을 시작한다.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.mu.Lock()
	if ws.conn != conn {
		ws.mu.Unlock()
		return
	}
	ws.conn = nil
	ws.mu.Unlock()

	_ = conn.Close(websocket.StatusGoingAway, reason)
	if ws.stopping() {
		return
	}
	ws.setState(WSStateDisconnected)
	ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnect <= 0 || ws.stopping() {
		return
	}
	ws.setState(WSStateReconnecting)

	go func() {
		for attempt := 1; attempt <= ws.maxReconnect; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(backoff(attempt)):
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, ws.dialTimeout)
			conn, err := ws.dial(ctx)
			cancel()
			if err != nil {
				ws.logger.Debug("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.attach(conn) {
				ws.logger.Info("ws_reconnected", zap.Int("attempt", attempt))
			}
			return
		}
		ws.setState(WSStateFailed)
	}()
}

// WriteJSON 은 프레임 하나를 보낸다. wsjson.Write 는 동시 호출에 안전하지 않아 직렬화한다.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
	conn := ws.current()
	if conn == nil || !ws.Connected() {
		return ErrWSNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	ws.nextCbID++
	ws.msgCbs[ws.nextCbID] = cb
	return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbMu.Lock()
	delete(ws.msgCbs, id)
	ws.cbMu.Unlock()
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	ws.nextCbID++
	ws.stateCbs[ws.nextCbID] = cb
	return ws.nextCbID
}

func (ws *WebSocket) setState(s WebSocketState) {
	ws.mu.Lock()
	changed := ws.state != s
	ws.state = s
	ws.mu.Unlock()
	if !changed {
		return
	}

	ws.cbMu.RLock()
	cbs := make([]StateCallback, 0, len(ws.stateCbs))
	for _, cb := range ws.stateCbs {
		cbs = append(cbs, cb)
	}
	ws.cbMu.RUnlock()
	for _, cb := range cbs {
		cb(s)
	}
}

func (ws *WebSocket) Close(ctx context.Context) error {
	ws.mu.Lock()
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	ws.rootCancel()

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(WSStateDisconnected)
		return nil
	}
}

func (ws *WebSocket) current() *websocket.Conn {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn
}

func (ws *WebSocket) stopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) handshakeHeaders() http.Header {
	hdr := http.Header{}
	if ws.headers == nil {
		return hdr
	}
	for k, v := range ws.headers() {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			hdr.Set(k, v)
		}
	}
	return hdr
}
