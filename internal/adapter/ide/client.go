// Package ide talks to the IDE bridge over its JSON RPC endpoint.
package ide

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"testgen/internal/domain"
)

// Client calls the IDE bridge. Every method is a POST to <baseURL>/<method>
// with the named arguments as a JSON object; the reply is {"result": ...}.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Message string `json:"message"`
}

// NewClient creates a bridge client. A zero timeout means 30s.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) call(ctx context.Context, method string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	jsonData, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s arguments: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("IDE request %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("IDE %s returned status %d: %s", method, resp.StatusCode, preview(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse %s response (body: %s): %w", method, preview(body), err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("IDE %s error: %s", method, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// DocumentSymbols returns the symbol tree of a file. A malformed reply is
// logged and treated as no symbols.
func (c *Client) DocumentSymbols(ctx context.Context, absPath string) ([]domain.SymbolNode, error) {
	raw, err := c.call(ctx, "get_document_symbols", map[string]any{"abspath": absPath})
	if err != nil {
		return nil, err
	}
	var nodes []domain.SymbolNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		c.logger.Warn("Malformed document symbols",
			zap.String("path", absPath),
			zap.Error(err))
		return nil, nil
	}
	return nodes, nil
}

func (c *Client) FindTypeDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	return c.locations(ctx, "find_type_def_locations", absPath, line, character)
}

func (c *Client) FindDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	return c.locations(ctx, "find_def_locations", absPath, line, character)
}

func (c *Client) locations(ctx context.Context, method, absPath string, line, character int) ([]domain.Location, error) {
	raw, err := c.call(ctx, method, map[string]any{
		"abspath":   absPath,
		"line":      line,
		"character": character,
	})
	if err != nil {
		return nil, err
	}
	var locs []domain.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		c.logger.Warn("Malformed locations",
			zap.String("method", method),
			zap.String("path", absPath),
			zap.Int("line", line),
			zap.Error(err))
		return nil, nil
	}
	return locs, nil
}

func (c *Client) SelectedRange(ctx context.Context) (domain.LocationWithText, error) {
	return c.locationWithText(ctx, "get_selected_range")
}

func (c *Client) VisibleRange(ctx context.Context) (domain.LocationWithText, error) {
	return c.locationWithText(ctx, "get_visible_range")
}

func (c *Client) locationWithText(ctx context.Context, method string) (domain.LocationWithText, error) {
	var loc domain.LocationWithText
	raw, err := c.call(ctx, method, nil)
	if err != nil {
		return loc, err
	}
	if err := json.Unmarshal(raw, &loc); err != nil {
		return loc, fmt.Errorf("failed to decode %s: %w", method, err)
	}
	return loc, nil
}

// DiffApply shows content as a diff against filePath in the IDE.
func (c *Client) DiffApply(ctx context.Context, filePath, content string) (bool, error) {
	raw, err := c.call(ctx, "diff_apply", map[string]any{
		"filepath": filePath,
		"content":  content,
	})
	if err != nil {
		return false, err
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, fmt.Errorf("failed to decode diff_apply: %w", err)
	}
	return ok, nil
}

// Language returns the IDE UI language, "en" when the IDE does not say.
func (c *Client) Language(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "ide_language", nil)
	if err != nil {
		return "", err
	}
	var lang string
	if err := json.Unmarshal(raw, &lang); err != nil || lang == "" {
		return "en", nil
	}
	return lang, nil
}

func (c *Client) Log(ctx context.Context, level, message string) error {
	_, err := c.call(ctx, "ide_logging", map[string]any{
		"level":   level,
		"message": message,
	})
	return err
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
