// Package groq generates conversational replies through Groq's chat
// completion API, using a strict JSON schema response format so the model's
// action hints come back as structured data instead of free text.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/odiadev/ruthie-core/core/generate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultURL     = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel   = "llama-3.3-70b-versatile"
	defaultTimeout = 10 * time.Second
)

const defaultSystemPrompt = `You are Ruthie, a friendly and concise voice receptionist on a phone call.
Answer in one or two short spoken sentences. Never use markdown, lists, or
symbols. If the caller seems to be asking for an appointment, a message, or a
transfer, set the action field to the matching action name, otherwise leave it
empty.`

// replyPayload is the schema the model must fill. Action is advisory only.
type replyPayload struct {
	Reply  string `json:"reply" jsonschema:"title=Reply,description=The spoken reply to the caller"`
	Action string `json:"action" jsonschema:"title=Action,description=Requested action name or empty string"`
}

type Client struct {
	apiKey       string
	model        string
	url          string
	systemPrompt string
	timeout      time.Duration

	httpClient *http.Client
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithURL overrides the completion endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithTimeout bounds a single completion round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:       apiKey,
		model:        defaultModel,
		url:          defaultURL,
		systemPrompt: defaultSystemPrompt,
		timeout:      defaultTimeout,
		httpClient:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Generate implements generate.Generator with a schema-constrained
// completion. The payload's action hint is surfaced as a suggestion; the
// caller decides whether it means anything.
func (c *Client) Generate(ctx context.Context, history []generate.Turn, utterance string) (*generate.Reply, error) {
	ctx, span := tracer.Start(ctx, "prompt llm structured")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(replyPayload{})

	reqBody := schemaRequestBody{
		Model:    c.model,
		Messages: toMessages(c.systemPrompt, history, utterance),
		ResponseFormat: &ChatResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   "replyPayload",
				Schema: *schema,
				Strict: true,
			},
		},
	}

	span.SetAttributes(attribute.String("request.model", c.model))

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}

		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	var responseBody schemaResponseBody
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		err = fmt.Errorf("error unmarshalling response body: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}
	if len(responseBody.Choices) == 0 {
		err := fmt.Errorf("completion returned no choices")
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	content := responseBody.Choices[0].Message.Content
	if split := strings.Split(content, "```"); len(split) > 1 {
		content = split[1]
	}

	var payload replyPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		err = fmt.Errorf("error unmarshalling response: %w", err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	reply := &generate.Reply{Text: strings.TrimSpace(payload.Reply)}
	if action := strings.TrimSpace(payload.Action); action != "" {
		reply.Suggestion = &generate.ActionSuggestion{Action: action}
		logger.Debug("Completion suggested an action", "action", action)
	}
	return reply, nil
}

type schemaRequestBody struct {
	Model          string              `json:"model"`
	Messages       []message           `json:"messages"`
	ResponseFormat *ChatResponseFormat `json:"response_format,omitempty"`
}

type ChatResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	// Name identifies the schema in the completion response.
	Name string `json:"name"`
	// Description is an optional description of the schema.
	Description string `json:"description,omitempty"`
	// Schema constrains the generated content.
	Schema jsonschema.Schema `json:"schema"`
	// Strict determines whether to enforce the schema upon the
	// generated content.
	Strict bool `json:"strict"`
}

type schemaResponseBody struct {
	Choices []struct {
		Message struct {
			Role         string  `json:"role,omitempty"`
			Content      string  `json:"content,omitempty"`
			Reasoning    string  `json:"reasoning,omitempty"`
			FinishReason *string `json:"finish_reason,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		QueueTime        float64 `json:"queue_time"`
		PromptTokens     int     `json:"prompt_tokens"`
		PromptTime       float64 `json:"prompt_time"`
		CompletionTokens int     `json:"completion_tokens"`
		CompletionTime   float64 `json:"completion_time"`
		TotalTokens      int     `json:"total_tokens"`
		TotalTime        float64 `json:"total_time"`
	} `json:"usage"`
}
