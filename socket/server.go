package socket

import (
	"context"
	"net/http"
	"time"

	"loopr_server/apperrors"
	"loopr_server/logger"
	"loopr_server/metrics"
	"loopr_server/models"

	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

const (
	namespace           = "/"
	profileUpdatedEvent = "profileUpdated"
	joinTimeout         = 5 * time.Second
)

// SessionVerifier checks the access token a client joins with
type SessionVerifier interface {
	CurrentSession(ctx context.Context, creds models.Credentials) (*models.Session, error)
}

type joinRequest struct {
	AccessToken string `json:"accessToken"`
}

type joinAck struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server pushes profile changes to the signed in user's devices
type Server struct {
	io       *socketio.Server
	sessions SessionVerifier
}

func userRoom(userID string) string {
	return "user:" + userID
}

// NewServer initializes the socket.io server and its event handlers
func NewServer(sessions SessionVerifier) *Server {
	s := &Server{io: socketio.NewServer(nil), sessions: sessions}
	m := metrics.Get()

	s.io.OnConnect(namespace, func(c socketio.Conn) error {
		m.SocketConnections.Inc()
		logger.Log.Debug("Socket connected", zap.String("socket_id", c.ID()))
		return nil
	})

	// Clients join their own room by proving who they are
	s.io.OnEvent(namespace, "join", func(c socketio.Conn, req joinRequest) joinAck {
		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()

		room, err := s.authorizeJoin(ctx, req.AccessToken)
		if err != nil {
			logger.Log.Info("Socket join rejected", zap.String("socket_id", c.ID()), zap.Error(err))
			return joinAck{Code: string(apperrors.KindOf(err)), Error: apperrors.KindOf(err).UserMessage()}
		}
		c.Join(room)
		logger.Log.Debug("Socket joined room", zap.String("socket_id", c.ID()), zap.String("room", room))
		return joinAck{OK: true}
	})

	s.io.OnError(namespace, func(c socketio.Conn, err error) {
		logger.Log.Warn("Socket error", zap.Error(err))
	})

	s.io.OnDisconnect(namespace, func(c socketio.Conn, reason string) {
		m.SocketConnections.Dec()
		logger.Log.Debug("Socket disconnected", zap.String("socket_id", c.ID()), zap.String("reason", reason))
	})

	return s
}

func (s *Server) authorizeJoin(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", apperrors.NotAuthenticated("no access token", nil)
	}
	session, err := s.sessions.CurrentSession(ctx, models.Credentials{AccessToken: accessToken})
	if err != nil {
		return "", err
	}
	if session == nil || session.UserID == "" {
		return "", apperrors.NotAuthenticated("no active session", nil)
	}
	return userRoom(session.UserID), nil
}

// ProfileUpdated sends the saved profile to every device of the user
func (s *Server) ProfileUpdated(userID string, profile *models.ProfileRecord) {
	if !s.io.BroadcastToRoom(namespace, userRoom(userID), profileUpdatedEvent, profile) {
		logger.Log.Debug("No socket listeners for profile update", logger.WithUserID(userID))
	}
}

// Handler serves the socket.io endpoint
func (s *Server) Handler() http.Handler {
	return s.io
}

// Serve runs the socket.io event loop until Close is called
func (s *Server) Serve() {
	if err := s.io.Serve(); err != nil {
		logger.Log.Error("Socket server stopped", zap.Error(err))
	}
}

func (s *Server) Close() error {
	return s.io.Close()
}
