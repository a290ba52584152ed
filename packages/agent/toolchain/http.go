package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arborly/reagent/packages/agent/types"
)

// HTTPClientConfig wraps the *http.Client an http-backed tool issues its
// requests with; nil means http.DefaultClient.
type HTTPClientConfig struct {
	Client *http.Client
}

// NewHTTPClientConfig wraps client for RegisterFromConfig. A nil client
// falls back to http.DefaultClient.
func NewHTTPClientConfig(client *http.Client) *HTTPClientConfig {
	return &HTTPClientConfig{Client: client}
}

// newHTTPTool builds a Func that calls cfg.Endpoint with the tool's parsed
// input as a JSON body, translating the HTTP response into a ToolResponse.
func newHTTPTool(cfg ToolConfig, clientCfg *HTTPClientConfig) (Func, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http tool requires an endpoint")
	}
	client := http.DefaultClient
	if clientCfg != nil && clientCfg.Client != nil {
		client = clientCfg.Client
	}
	method := cfg.Method
	if method == "" {
		method = "POST"
	}

	return func(ctx context.Context, input map[string]any) (ToolResponse, error) {
		body, err := json.Marshal(input)
		if err != nil {
			return ToolResponse{}, err
		}
		req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint, strings.NewReader(string(body)))
		if err != nil {
			return ToolResponse{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		applyAuth(req, cfg.Auth)

		resp, err := client.Do(req)
		if err != nil {
			return ToolResponse{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(resp.Body)
			return ToolResponse{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
		}

		var out any
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return ToolResponse{}, err
		}
		if cfg.ResponsePath != "" {
			out = extractPath(out, cfg.ResponsePath)
		}
		if len(cfg.ResponseMap) > 0 {
			out = applyResponseMap(out, cfg.ResponseMap)
		}

		encoded, err := json.Marshal(out)
		if err != nil {
			return ToolResponse{}, err
		}
		return ToolResponse{
			Content: []types.ContentBlock{types.TextContent{Text: string(encoded)}},
			IsLast:  true,
		}, nil
	}, nil
}

func applyAuth(req *http.Request, auth *HTTPAuthConfig) {
	if auth == nil {
		return
	}
	switch auth.Type {
	case "bearer", "apikey":
		header := "Authorization"
		if auth.Header != "" {
			header = auth.Header
		}
		req.Header.Set(header, "Bearer "+auth.APIKey)
	}
}

// extractPath walks a dotted/bracketed path like "results[0].name" into a
// decoded JSON value, the same minimal resolver biome's http tool uses.
func extractPath(v any, path string) any {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '[' || r == ']' })
	for _, p := range parts {
		if p == "" {
			continue
		}
		switch m := v.(type) {
		case map[string]any:
			v = m[p]
		case []any:
			var i int
			if _, err := fmt.Sscanf(p, "%d", &i); err == nil && i >= 0 && i < len(m) {
				v = m[i]
			} else {
				return nil
			}
		default:
			return v
		}
	}
	return v
}

func applyResponseMap(v any, m map[string]string) any {
	vm, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for outKey, inKey := range m {
		if val, ok := vm[inKey]; ok {
			out[outKey] = val
		}
	}
	return out
}
