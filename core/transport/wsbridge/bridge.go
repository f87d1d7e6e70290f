// Package wsbridge serves the call-bridge websocket endpoint. Each
// connection is one phone call: the telephony side streams transcript
// frames in, the session's sanitized speech and call-control frames flow
// back out on the same connection.
package wsbridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	dialogue "github.com/odiadev/ruthie-core/core"
	"github.com/odiadev/ruthie-core/core/events"
	"github.com/odiadev/ruthie-core/core/recognize"
	"github.com/odiadev/ruthie-core/core/transport"
)

const (
	defaultHandshakeTimeout = 5 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultMaxMessageBytes  = 64 * 1024
)

// RecognizerFactory builds one transcription stream per call.
type RecognizerFactory func() recognize.Recognizer

type Server struct {
	manager     *dialogue.Manager
	recognizers RecognizerFactory

	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	maxMessageBytes  int64

	upgrader websocket.Upgrader
}

type Option func(*Server)

// WithHandshakeTimeout bounds the wait for the start frame.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.handshakeTimeout = timeout }
}

// WithWriteTimeout bounds each outbound frame write.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.writeTimeout = timeout }
}

// WithMaxMessageBytes limits inbound frame size.
func WithMaxMessageBytes(limit int64) Option {
	return func(s *Server) { s.maxMessageBytes = limit }
}

// WithRecognizerFactory enables audio mode: every call gets its own live
// transcription stream, and inbound media frames become transcript events.
// Without a factory, media frames are dropped and the telephony side must
// send transcripts itself.
func WithRecognizerFactory(factory RecognizerFactory) Option {
	return func(s *Server) { s.recognizers = factory }
}

func NewServer(manager *dialogue.Manager, opts ...Option) *Server {
	server := &Server{
		manager:          manager,
		handshakeTimeout: defaultHandshakeTimeout,
		writeTimeout:     defaultWriteTimeout,
		maxMessageBytes:  defaultMaxMessageBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(server)
	}
	return server
}

// Handler returns the bridge's HTTP surface: the websocket call endpoint
// plus the health and live-call status endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/call", s.handleCall)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/calls", s.handleCalls)
	return otelhttp.NewHandler(mux, "wsbridge")
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.maxMessageBytes > 0 {
		conn.SetReadLimit(s.maxMessageBytes)
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))
	_, first, err := conn.ReadMessage()
	if err != nil {
		logger.WarnContext(r.Context(), "Failed to read start frame", "error", err)
		return
	}
	start, err := transport.Decode(first)
	if err != nil || start.Event != transport.EventStart {
		logger.WarnContext(r.Context(), "First frame was not a start frame", "error", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	voice := &connVoice{conn: conn, writeTimeout: s.writeTimeout}
	session, err := s.manager.StartSession(r.Context(), start.Caller, voice)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to start session", "error", err)
		return
	}
	session.Push(events.NewSessionStarted(start.Caller))

	recognizer := s.startRecognizer(r.Context(), session)
	if recognizer != nil {
		defer func() {
			if err := recognizer.Close(context.Background()); err != nil {
				logger.Warn("Failed to close transcription stream",
					"session_id", session.ID, "error", err)
			}
		}()
	}

	s.readLoop(conn, session, recognizer)
	<-session.Done()
}

// startRecognizer opens the call's transcription stream when the bridge runs
// in audio mode. A stream that fails to open ends the call; without
// transcripts the session can never hear the caller.
func (s *Server) startRecognizer(ctx context.Context, session *dialogue.Session) recognize.Recognizer {
	if s.recognizers == nil {
		return nil
	}

	recognizer := s.recognizers()
	err := recognizer.Start(ctx, recognize.Callbacks{
		OnSpeechStarted: func() { session.Push(events.NewUserSpeechStarted()) },
		OnPartial:       func(text string) { session.Push(events.NewTranscriptPartial(text)) },
		OnFinal:         func(text string) { session.Push(events.NewTranscriptFinal(text)) },
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start transcription stream",
			"session_id", session.ID, "error", err)
		session.Close("recognition unavailable")
		return nil
	}
	return recognizer
}

func (s *Server) readLoop(conn *websocket.Conn, session *dialogue.Session, recognizer recognize.Recognizer) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// A transport failure is fatal to this call only.
			session.Close("transport error")
			return
		}

		frame, err := transport.Decode(data)
		if err != nil {
			logger.Warn("Dropped malformed frame", "session_id", session.ID, "error", err)
			continue
		}

		switch frame.Event {
		case transport.EventSpeechStarted:
			session.Push(events.NewUserSpeechStarted())
		case transport.EventMedia:
			if recognizer == nil {
				logger.Warn("Dropped media frame, no transcription stream", "session_id", session.ID)
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				logger.Warn("Dropped media frame with an invalid audio payload",
					"session_id", session.ID, "error", err)
				continue
			}
			if err := recognizer.SendAudio(audio); err != nil {
				logger.Warn("Failed to forward caller audio",
					"session_id", session.ID, "error", err)
			}
		case transport.EventTranscript:
			if frame.Final {
				session.Push(events.NewTranscriptFinal(frame.Text))
			} else {
				session.Push(events.NewTranscriptPartial(frame.Text))
			}
		case transport.EventStop:
			reason := frame.Reason
			if reason == "" {
				reason = "hangup"
			}
			session.Close(reason)
			return
		default:
			logger.Warn("Dropped unexpected frame", "session_id", session.ID, "event", frame.Event)
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":       "ok",
		"active_calls": s.manager.ActiveCalls(),
	})
}

func (s *Server) handleCalls(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.manager.Status())
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to write status response", "error", err)
	}
}

// connVoice is the per-connection outbound side handed to the session.
// Writes are serialized; gorilla connections allow one writer at a time.
type connVoice struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (v *connVoice) Speak(_ context.Context, text string) error {
	return v.write(transport.Frame{Event: transport.EventSpeak, Text: text})
}

func (v *connVoice) ClearSpeech(context.Context) error {
	return v.write(transport.Frame{Event: transport.EventClear})
}

func (v *connVoice) Transfer(context.Context) error {
	return v.write(transport.Frame{Event: transport.EventTransfer})
}

func (v *connVoice) End(context.Context) error {
	return v.write(transport.Frame{Event: transport.EventHangup})
}

func (v *connVoice) write(frame transport.Frame) error {
	data, err := transport.Encode(frame)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.conn.SetWriteDeadline(time.Now().Add(v.writeTimeout))
	return v.conn.WriteMessage(websocket.TextMessage, data)
}
