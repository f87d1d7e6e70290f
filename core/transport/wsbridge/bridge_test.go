package wsbridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	dialogue "github.com/odiadev/ruthie-core/core"
	"github.com/odiadev/ruthie-core/core/generate"
	"github.com/odiadev/ruthie-core/core/recognize"
	"github.com/odiadev/ruthie-core/core/transport"
)

func dialBridge(t *testing.T, manager *dialogue.Manager, opts ...Option) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(NewServer(manager, opts...).Handler())

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/call"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to dial bridge: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame transport.Frame) {
	t.Helper()
	data, err := transport.Encode(frame)
	if err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) transport.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	frame, err := transport.Decode(data)
	if err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	return frame
}

func TestBridgeRunsACallEndToEnd(t *testing.T) {
	generator := generate.GeneratorFunc(func(_ context.Context, _ []generate.Turn, utterance string) (*generate.Reply, error) {
		return &generate.Reply{Text: "We open at nine."}, nil
	})
	manager := dialogue.NewManager(dialogue.WithSessionDefaults(dialogue.WithGenerator(generator)))
	defer manager.Close("test done")

	conn, cleanup := dialBridge(t, manager)
	defer cleanup()

	sendFrame(t, conn, transport.Frame{Event: transport.EventStart, CallSID: "CA123", Caller: "+2348128772405"})

	greeting := readFrame(t, conn)
	if greeting.Event != transport.EventSpeak || !strings.Contains(greeting.Text, "Ruthie") {
		t.Fatalf("expected the greeting first, got %+v", greeting)
	}

	sendFrame(t, conn, transport.Frame{Event: transport.EventTranscript, Text: "When do you open?", Final: true})
	reply := readFrame(t, conn)
	if reply.Event != transport.EventSpeak || !strings.Contains(reply.Text, "nine") {
		t.Fatalf("expected the generated reply, got %+v", reply)
	}

	sendFrame(t, conn, transport.Frame{Event: transport.EventTranscript, Text: "goodbye", Final: true})
	farewell := readFrame(t, conn)
	if farewell.Event != transport.EventSpeak {
		t.Fatalf("expected a farewell, got %+v", farewell)
	}
	hangup := readFrame(t, conn)
	if hangup.Event != transport.EventHangup {
		t.Fatalf("expected a hangup, got %+v", hangup)
	}
}

func TestBridgeClearsSpeechOnBargeIn(t *testing.T) {
	manager := dialogue.NewManager()
	defer manager.Close("test done")

	conn, cleanup := dialBridge(t, manager)
	defer cleanup()

	sendFrame(t, conn, transport.Frame{Event: transport.EventStart, Caller: "+2348128772405"})
	readFrame(t, conn) // greeting

	sendFrame(t, conn, transport.Frame{Event: transport.EventSpeechStarted})
	if frame := readFrame(t, conn); frame.Event != transport.EventClear {
		t.Fatalf("expected a clear frame on barge-in, got %+v", frame)
	}
}

type stubRecognizer struct {
	mu        sync.Mutex
	callbacks recognize.Callbacks
	audio     [][]byte
	closed    int
}

func (r *stubRecognizer) Start(_ context.Context, callbacks recognize.Callbacks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = callbacks
	return nil
}

func (r *stubRecognizer) SendAudio(audio []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = append(r.audio, audio)
	return nil
}

func (r *stubRecognizer) Close(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *stubRecognizer) received() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	chunks := make([][]byte, len(r.audio))
	copy(chunks, r.audio)
	return chunks
}

func (r *stubRecognizer) cb() recognize.Callbacks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callbacks
}

func TestBridgeTranscribesMediaFramesInAudioMode(t *testing.T) {
	recognizer := &stubRecognizer{}
	manager := dialogue.NewManager()
	defer manager.Close("test done")

	conn, cleanup := dialBridge(t, manager, WithRecognizerFactory(func() recognize.Recognizer {
		return recognizer
	}))
	defer cleanup()

	sendFrame(t, conn, transport.Frame{Event: transport.EventStart, Caller: "+2348128772405"})
	readFrame(t, conn) // greeting

	audio := []byte{0x01, 0x02, 0x03, 0x04}
	sendFrame(t, conn, transport.Frame{Event: transport.EventMedia, Audio: base64.StdEncoding.EncodeToString(audio)})

	deadline := time.Now().Add(2 * time.Second)
	for len(recognizer.received()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the audio chunk to reach the recognizer")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := recognizer.received()[0]; !bytes.Equal(got, audio) {
		t.Fatalf("recognizer received %v, want %v", got, audio)
	}

	// The recognizer's final transcript drives the dialogue like any other.
	recognizer.cb().OnFinal("goodbye")
	farewell := readFrame(t, conn)
	if farewell.Event != transport.EventSpeak {
		t.Fatalf("expected a farewell, got %+v", farewell)
	}
	if hangup := readFrame(t, conn); hangup.Event != transport.EventHangup {
		t.Fatalf("expected a hangup, got %+v", hangup)
	}
}

func TestBridgeRejectsCallsWithoutStartFrame(t *testing.T) {
	manager := dialogue.NewManager()
	defer manager.Close("test done")

	conn, cleanup := dialBridge(t, manager)
	defer cleanup()

	sendFrame(t, conn, transport.Frame{Event: transport.EventTranscript, Text: "hello", Final: true})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed without a start frame")
	}
	if got := manager.ActiveCalls(); got != 0 {
		t.Fatalf("expected no session to be registered, got %d", got)
	}
}

func TestBridgeStatusEndpoints(t *testing.T) {
	manager := dialogue.NewManager()
	defer manager.Close("test done")

	server := httptest.NewServer(NewServer(manager).Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/call"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial bridge: %v", err)
	}
	defer conn.Close()
	sendFrame(t, conn, transport.Frame{Event: transport.EventStart, Caller: "+2348128772405"})
	readFrame(t, conn) // greeting

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	defer resp.Body.Close()
	var health struct {
		Status      string `json:"status"`
		ActiveCalls int    `json:"active_calls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode healthz: %v", err)
	}
	if health.Status != "ok" || health.ActiveCalls != 1 {
		t.Fatalf("unexpected health payload: %+v", health)
	}

	callsResp, err := http.Get(server.URL + "/calls")
	if err != nil {
		t.Fatalf("calls request failed: %v", err)
	}
	defer callsResp.Body.Close()
	var report dialogue.Report
	if err := json.NewDecoder(callsResp.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode calls: %v", err)
	}
	if report.ActiveCalls != 1 || len(report.Sessions) != 1 {
		t.Fatalf("unexpected calls payload: %+v", report)
	}
	if strings.Contains(report.Sessions[0].Caller, "2348128772") {
		t.Fatalf("caller identity leaked: %q", report.Sessions[0].Caller)
	}
}
