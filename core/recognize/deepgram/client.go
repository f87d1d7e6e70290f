// Package deepgram streams caller audio to Deepgram's live listen endpoint
// and surfaces speech-started, partial and final transcript callbacks.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/odiadev/ruthie-core/core/recognize"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en-US"

	keepAliveInterval = 5 * time.Second
)

// Client is a live transcription stream for one call. It implements
// recognize.Recognizer.
type Client struct {
	apiKey     string
	listenURL  string
	model      string
	language   string
	encoding   string
	sampleRate int

	connMu sync.Mutex
	conn   *websocket.Conn

	callbacks recognize.Callbacks

	// accumulated joins is_final segments until the utterance ends.
	accumulated    string
	unendedSegment bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

// WithEncoding sets the raw audio format of the inbound stream, e.g.
// "linear16" at 8000 for a phone line.
func WithEncoding(encoding string, sampleRate int) Option {
	return func(c *Client) {
		c.encoding = encoding
		c.sampleRate = sampleRate
	}
}

// WithListenURL overrides the listen endpoint.
func WithListenURL(listenURL string) Option {
	return func(c *Client) { c.listenURL = listenURL }
}

func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     apiKey,
		listenURL:  defaultListenURL,
		model:      defaultModel,
		language:   defaultLanguage,
		encoding:   "linear16",
		sampleRate: 8000,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Start opens the websocket stream and begins delivering callbacks.
func (c *Client) Start(ctx context.Context, callbacks recognize.Callbacks) error {
	if c.apiKey == "" {
		return fmt.Errorf("deepgram api key not found")
	}
	c.callbacks = callbacks

	listenURL, err := url.Parse(c.listenURL)
	if err != nil {
		return fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", c.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(c.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	if callbacks.OnSpeechStarted != nil {
		queryParams.Set("vad_events", "true")
	}
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.keepAlive(ctx)
	go c.readAndProcessMessages(ctx, conn)
	return nil
}

// SendAudio forwards one chunk of caller audio to the stream.
func (c *Client) SendAudio(audio []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("deepgram stream is not open")
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Close asks the engine to flush, then tears the connection down.
func (c *Client) Close(context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		c.connMu.Lock()
		defer c.connMu.Unlock()
		if c.conn == nil {
			return
		}
		if writeErr := c.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); writeErr != nil {
			err = fmt.Errorf("failed to close deepgram stream: %w", writeErr)
		}
	})
	return err
}

func (c *Client) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				if err := c.conn.WriteJSON(struct {
					Type string `json:"type"`
				}{Type: "KeepAlive"}); err != nil {
					logger.Warn("Failed to send keepalive", "error", err)
				}
			}
			c.connMu.Unlock()
		}
	}
}

func (c *Client) readAndProcessMessages(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.WarnContext(ctx, "Failed to read deepgram websocket message", "error", err)
			}

			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()
			conn.Close()
			return
		}
		if msgType != websocket.BinaryMessage {
			c.processMessage(msg)
		}
	}
}

func (c *Client) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("Failed to unmarshal deepgram message", "error", err)
			return
		}
		c.processTranscript(msgResp)

	case api.TypeUtteranceEndResponse:
		if c.unendedSegment {
			c.flushUtterance()
		}

	case api.TypeSpeechStartedResponse:
		c.unendedSegment = true
		if c.callbacks.OnSpeechStarted != nil {
			c.callbacks.OnSpeechStarted()
		}
	}
}

func (c *Client) processTranscript(msgResp api.MessageResponse) {
	if len(msgResp.Channel.Alternatives) == 0 {
		return
	}
	transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	if transcript == "" {
		return
	}

	if msgResp.IsFinal {
		c.accumulated = strings.TrimSpace(c.accumulated + " " + transcript)
		if msgResp.SpeechFinal {
			c.flushUtterance()
		}
		return
	}

	if c.callbacks.OnPartial != nil {
		c.callbacks.OnPartial(strings.TrimSpace(c.accumulated + " " + transcript))
	}
}

func (c *Client) flushUtterance() {
	c.unendedSegment = false
	fullTranscript := strings.TrimSpace(c.accumulated)
	c.accumulated = ""
	if fullTranscript != "" && c.callbacks.OnFinal != nil {
		c.callbacks.OnFinal(fullTranscript)
	}
}
