package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
)

const maxErrorBodyRunes = 200

type InvokerConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"http://127.0.0.1:3001" validate:"required,url"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s" validate:"gt=0"`
}

var _ contractx.ToolInvoker = (*RESTInvoker)(nil)

// RESTInvoker posts tool calls to a tool server at {base}/tools/{name}.
// It never returns an error: every failure becomes an error-shaped result.
type RESTInvoker struct {
	client  *resty.Client
	baseURL string
}

type InvokerOption func(*RESTInvoker)

func WithRestyClient(client *resty.Client) InvokerOption {
	return func(i *RESTInvoker) {
		if client != nil {
			i.client = client
		}
	}
}

func NewRESTInvoker(cfg InvokerConfig, opts ...InvokerOption) (*RESTInvoker, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("tool server base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid tool server url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	inv := &RESTInvoker{
		baseURL: baseURL,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetRetryCount(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(inv)
		}
	}
	return inv, nil
}

func (i *RESTInvoker) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	if !IsAvailable(call.Tool) {
		return contractx.ErrorResult(
			"Unknown tool: "+call.Tool,
			"Available tools: "+strings.Join(Available(), ", "),
		)
	}

	params := call.Params
	if params == nil {
		params = contractx.Params{}
	}

	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(params).
		Post("/tools/" + call.Tool)
	if err != nil {
		return i.transportError(call.Tool, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return contractx.ErrorResult(
			fmt.Sprintf("HTTP %d", resp.StatusCode()),
			truncateRunes(resp.String(), maxErrorBodyRunes),
		)
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return contractx.ErrorResult("Invalid response", err.Error())
	}
	if out == nil {
		return contractx.ErrorResult("Invalid response", "tool server returned an empty body")
	}
	return contractx.ToolResult(out)
}

// Ping reports whether the tool server root answers 200.
func (i *RESTInvoker) Ping(ctx context.Context) error {
	resp, err := i.client.R().SetContext(ctx).Get("/")
	if err != nil {
		return fmt.Errorf("ping tool server: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ping tool server: status=%d", resp.StatusCode())
	}
	return nil
}

func (i *RESTInvoker) BaseURL() string {
	return i.baseURL
}

func (i *RESTInvoker) transportError(toolName string, err error) contractx.ToolResult {
	if isTimeout(err) {
		return contractx.ErrorResult("Request timeout", fmt.Sprintf("Tool %s took too long to respond", toolName))
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return contractx.ErrorResult(
			"MCP server not reachable",
			fmt.Sprintf("Could not connect to %s/tools. Ensure the tool server is running.", i.baseURL),
		)
	}
	if errors.Is(err, context.Canceled) {
		return contractx.ErrorResult("Request canceled", err.Error())
	}
	return contractx.ErrorResult("Request failed", err.Error())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
