package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/gousse"
	gerrors "github.com/vango-dev/gousse/internal/errors"
	"github.com/vango-dev/gousse/pkg/dom"
	"github.com/vango-dev/gousse/pkg/emit"
	"github.com/vango-dev/gousse/pkg/router"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

// SessionConfig holds the timeouts and limits of live sessions.
type SessionConfig struct {
	// ReadTimeout is the maximum time to wait for a message or pong.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between pings. It must be shorter
	// than ReadTimeout.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming message.
	// Default: 64KB.
	MaxMessageSize int64

	// SendQueue is the number of outbound frames buffered per session.
	// A session whose queue is full is closed.
	// Default: 32.
	SendQueue int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendQueue:         32,
	}
}

// Session is one live connection driving its own App. The App is only
// touched from the goroutine running its loop.
type Session struct {
	ID string

	app    *gousse.App
	conn   *websocket.Conn
	codec  Codec
	config *SessionConfig
	logger *slog.Logger
	tel    *telemetry.Telemetry

	send      chan Frame
	done      chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once
	onClose   func(*Session)

	// Last state sent, owned by the loop goroutine.
	lastHTML string
	lastURL  string
}

func newSession(conn *websocket.Conn, codec Codec, config *SessionConfig, logger *slog.Logger, tel *telemetry.Telemetry) *Session {
	if config == nil {
		config = DefaultSessionConfig()
	}
	id := uuid.NewString()
	return &Session{
		ID:     id,
		conn:   conn,
		codec:  codec,
		config: config,
		logger: logger.With("session", id),
		tel:    tel,
		send:   make(chan Frame, config.SendQueue),
		done:   make(chan struct{}),
	}
}

// App returns the session's App.
func (s *Session) App() *gousse.App {
	return s.app
}

// Done is closed once the session has closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start runs the App loop and the connection loops. It returns at once.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.tel.SessionOpened()
	s.Send(Frame{Type: FrameHello, Session: s.ID})

	go func() {
		_ = s.app.Loop().Run(ctx)
	}()
	go s.ReadLoop()
	go s.WriteLoop()
}

// ReadLoop reads frames from the connection and queues them on the App
// loop. It blocks until the connection fails or the session closes.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		frame, err := s.codec.Decode(msg)
		if err == nil {
			err = frame.Validate()
		}
		if err != nil {
			s.logger.Warn("frame rejected", "error", err)
			s.sendError(err)
			continue
		}
		s.tel.Frame("in", frame.Type)

		s.app.Loop().Post(func() {
			if err := s.handle(frame); err != nil {
				s.logger.Warn("frame failed", "type", frame.Type, "error", err)
				s.sendError(err)
			}
		})
	}
}

// WriteLoop sends queued frames and heartbeat pings until the session
// closes.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case f := <-s.send:
			data, err := s.codec.Encode(f)
			if err != nil {
				s.logger.Error("frame encode error", "type", f.Type, "error", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(s.codec.MessageType(), data); err != nil {
				s.logger.Debug("write error", "error", err)
				return
			}
			s.tel.Frame("out", f.Type)

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping error", "error", err)
				return
			}

		case <-s.done:
			return
		}
	}
}

// Send queues f for the client. A session that cannot keep up is closed.
func (s *Session) Send(f Frame) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- f:
	default:
		s.logger.Warn("send queue full, closing session")
		go s.Close()
	}
}

func (s *Session) sendError(err error) {
	s.Send(Frame{Type: FrameError, Error: err.Error()})
}

// Close stops the loop and closes the connection. Safe to call more than
// once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = s.conn.Close()
		s.tel.SessionClosed()
		if s.onClose != nil {
			s.onClose(s)
		}
		s.logger.Debug("session closed")
	})
}

// handle applies an inbound frame to the App. It runs on the loop.
func (s *Session) handle(f Frame) error {
	if f.Type == FrameNavigate {
		s.app.Router().Go(f.URL, nil, nil)
		return nil
	}

	target, err := s.resolve(f)
	if err != nil {
		return err
	}
	switch f.Type {
	case FrameDispatch:
		target.DispatchEvent(dom.NewEvent(f.Event, f.Data, true))
	case FrameEmit:
		emit.Emit(s.app.Bus(), target, f.Event, f.Value)
	case FrameInput:
		value := ""
		if f.Value != nil {
			value = fmt.Sprint(f.Value)
		}
		target.SetValue(value)
		target.DispatchEvent(dom.NewEvent("input", f.Data, true))
		target.DispatchEvent(dom.NewEvent("change", f.Data, true))
	}
	return nil
}

func (s *Session) resolve(f Frame) (*dom.Node, error) {
	body := s.app.Document().Body()
	if f.Target != "" {
		n, err := s.app.Document().QuerySelector(f.Target)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, gerrors.New("G002").WithDetail(f.Target)
		}
		return n, nil
	}
	n := body
	for _, i := range f.Path {
		kids := n.Elements()
		if i < 0 || i >= len(kids) {
			return nil, gerrors.New("G002").WithDetailf("path %v", f.Path)
		}
		n = kids[i]
	}
	return n, nil
}

// flush sends the body markup and location when either changed since the
// last flush. It runs on the loop once a batch of work has drained.
func (s *Session) flush() {
	html := s.app.Document().Body().InnerHTML()
	url := location(s.app.Router())
	if html == s.lastHTML && url == s.lastURL {
		return
	}
	s.lastHTML, s.lastURL = html, url
	s.Send(Frame{Type: FrameHTML, HTML: html, URL: url})
}

// location returns the URL the browser should show for the current route.
func location(r *router.Router) string {
	if r.Mode() == router.ModePushState {
		return r.History().Current().URL
	}
	return "#" + r.Hash()
}
