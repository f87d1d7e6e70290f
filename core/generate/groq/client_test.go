package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/odiadev/ruthie-core/core/generate"
)

func completionResponse(t *testing.T, payload string) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": payload}},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal response fixture: %v", err)
	}
	return string(body)
}

func TestGenerateParsesStructuredReply(t *testing.T) {
	var gotRequest schemaRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer test-key", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write([]byte(completionResponse(t, `{"reply": "Sure, I can help with that.", "action": "book_appointment"}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL), WithModel("test-model"))
	reply, err := client.Generate(context.Background(),
		[]generate.Turn{{Role: generate.RoleAssistant, Text: "Hello, this is Ruthie."}},
		"I'd like to book an appointment",
	)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if reply.Text != "Sure, I can help with that." {
		t.Fatalf("unexpected reply text: %q", reply.Text)
	}
	if reply.Suggestion == nil || reply.Suggestion.Action != "book_appointment" {
		t.Fatalf("expected book_appointment suggestion, got %+v", reply.Suggestion)
	}

	if gotRequest.Model != "test-model" {
		t.Fatalf("request model = %q, want test-model", gotRequest.Model)
	}
	if gotRequest.ResponseFormat == nil || gotRequest.ResponseFormat.Type != "json_schema" {
		t.Fatalf("expected json_schema response format, got %+v", gotRequest.ResponseFormat)
	}
	if len(gotRequest.Messages) != 3 {
		t.Fatalf("expected system, history and user messages, got %d", len(gotRequest.Messages))
	}
	if gotRequest.Messages[0].Role != messageRoleSystem {
		t.Fatalf("first message role = %q, want system", gotRequest.Messages[0].Role)
	}
	if gotRequest.Messages[2].Content != "I'd like to book an appointment" {
		t.Fatalf("last message = %q, want the utterance", gotRequest.Messages[2].Content)
	}
}

func TestGenerateWithoutActionHasNoSuggestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(t, `{"reply": "We open at nine.", "action": ""}`)))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))
	reply, err := client.Generate(context.Background(), nil, "When do you open?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply.Suggestion != nil {
		t.Fatalf("expected no suggestion, got %+v", reply.Suggestion)
	}
}

func TestGenerateUnwrapsFencedContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(t, "```{\"reply\": \"Done.\", \"action\": \"\"}```")))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))
	reply, err := client.Generate(context.Background(), nil, "thanks")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply.Text != "Done." {
		t.Fatalf("unexpected reply text: %q", reply.Text)
	}
}

func TestGenerateSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))
	if _, err := client.Generate(context.Background(), nil, "hello"); err == nil {
		t.Fatal("expected an error for a non-OK status")
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithURL(server.URL))
	if _, err := client.Generate(context.Background(), nil, "hello"); err == nil {
		t.Fatal("expected an error for an empty choices list")
	}
}
