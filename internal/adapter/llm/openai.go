// Package llm is the OpenAI-compatible chat client.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"testgen/config"
	"testgen/internal/port"
)

// ErrInvalidJSON is returned when the model reply cannot be decoded as the requested JSON.
var ErrInvalidJSON = errors.New("invalid JSON response")

// RetryError reports that every attempt failed. Err is the last failure.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("LLM request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Client is a chat model reached through the OpenAI API or a compatible endpoint.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	jsonMode    bool
	retry       RetryPolicy
	logger      *zap.Logger
}

// NewClient builds a client from LLM configuration. The API key is read from
// cfg.APIKeyEnv; an empty key is allowed for local endpoints that ignore it.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm model is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		logger: logger,
	}, nil
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) request(messages []port.Message) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	}
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Complete returns the reply text, retrying failed requests.
func (c *Client) Complete(ctx context.Context, messages []port.Message) (string, error) {
	req := c.request(messages)
	var text string
	err := c.retry.Do(ctx, c.logger, func() error {
		var err error
		text, err = c.complete(ctx, req)
		return err
	})
	return text, err
}

// CompleteJSON asks for a JSON object and decodes it into v. A reply that is
// not valid JSON counts as a failed attempt. v is only written by the attempt
// that succeeds.
func (c *Client) CompleteJSON(ctx context.Context, messages []port.Message, v any) error {
	req := c.request(messages)
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return c.retry.Do(ctx, c.logger, func() error {
		text, err := c.complete(ctx, req)
		if err != nil {
			return err
		}
		return decodeFresh(text, v)
	})
}

// decodeFresh decodes into a zero value of v's type and stores it in v only
// when decoding succeeds.
func decodeFresh(text string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return DecodeJSON(text, v)
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := DecodeJSON(text, fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// Stream writes reply deltas to w as they arrive. Once any delta has been
// written a failure is returned without retrying.
func (c *Client) Stream(ctx context.Context, messages []port.Message, w io.Writer) (string, error) {
	req := c.request(messages)
	req.Stream = true

	var full strings.Builder
	err := c.retry.Do(ctx, c.logger, func() error {
		stream, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return err
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if full.Len() > 0 {
					return Permanent(fmt.Errorf("stream interrupted: %w", err))
				}
				return err
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			full.WriteString(delta)
			if _, err := io.WriteString(w, delta); err != nil {
				return Permanent(fmt.Errorf("failed to write stream output: %w", err))
			}
		}
	})
	return full.String(), err
}

// DecodeJSON decodes a model reply into v, tolerating a surrounding markdown fence.
func DecodeJSON(text string, v any) error {
	body := StripFence(text)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// StripFence removes a leading ```lang line and a trailing ``` line if present.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
