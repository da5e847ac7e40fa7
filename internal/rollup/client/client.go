// Package client implements the rollup HTTP client: a thin JSON wrapper
// around the rollup substrate's /finish, /voucher, /notice, and /report
// endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// DefaultBaseURL is the rollup substrate's conventional local address.
const DefaultBaseURL = "http://127.0.0.1:5004"

// HTTPError is returned for any non-2xx response from the rollup.
type HTTPError struct {
	StatusCode int
	Route      string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("client: %s returned status %d: %s", e.Route, e.StatusCode, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the default *http.Client (e.g. to set a custom
// transport or timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client is a thin HTTP JSON wrapper around the rollup substrate's input
// and output API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a Client against DefaultBaseURL, customizable via opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, route string, body interface{}, out interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: marshal request to %s: %w", route, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+route, reqBody)
	if err != nil {
		return nil, fmt.Errorf("client: build request to %s: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: POST %s: %w", route, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, fmt.Errorf("client: read response from %s: %w", route, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &HTTPError{StatusCode: resp.StatusCode, Route: route, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp, fmt.Errorf("client: unmarshal response from %s: %w", route, err)
		}
	}
	return resp, nil
}

func hexEncode(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

type finishRequest struct {
	Status string `json:"status"`
}

type finishResponse struct {
	RequestType string          `json:"request_type"`
	Data        json.RawMessage `json:"data"`
}

type metadataWire struct {
	InputIndex  uint64 `json:"input_index"`
	Sender      string `json:"sender"`
	MsgSender   string `json:"msg_sender"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
}

func (m metadataWire) senderHex() string {
	if m.Sender != "" {
		return m.Sender
	}
	return m.MsgSender
}

type advanceWire struct {
	Metadata metadataWire `json:"metadata"`
	Payload  string       `json:"payload"`
}

type inspectWire struct {
	Payload string `json:"payload"`
}

// Finish polls the rollup's /finish endpoint, reporting the previous
// input's status. It returns the next Input and true, or a zero Input and
// false if the rollup responded 202 (no input currently available).
func (c *Client) Finish(ctx context.Context, status types.FinishStatus) (types.Input, bool, error) {
	var resp finishResponse
	httpResp, err := c.do(ctx, "finish", finishRequest{Status: status.String()}, &resp)
	if err != nil {
		var httpErr *HTTPError
		if isHTTPError(err, &httpErr) && httpErr.StatusCode == http.StatusAccepted {
			return types.Input{}, false, nil
		}
		return types.Input{}, false, err
	}
	if httpResp.StatusCode == http.StatusAccepted {
		return types.Input{}, false, nil
	}

	switch resp.RequestType {
	case "advance_state":
		var advance advanceWire
		if err := json.Unmarshal(resp.Data, &advance); err != nil {
			return types.Input{}, false, fmt.Errorf("client: unmarshal advance_state data: %w", err)
		}
		sender, err := types.ParseAddress(advance.Metadata.senderHex())
		if err != nil {
			return types.Input{}, false, fmt.Errorf("client: parse advance sender: %w", err)
		}
		payload, err := hexDecode(advance.Payload)
		if err != nil {
			return types.Input{}, false, fmt.Errorf("client: decode advance payload: %w", err)
		}
		return types.Input{
			Kind: types.InputAdvance,
			Metadata: types.Metadata{
				InputIndex:  advance.Metadata.InputIndex,
				Sender:      sender,
				BlockNumber: advance.Metadata.BlockNumber,
				Timestamp:   advance.Metadata.Timestamp,
			},
			Payload: payload,
		}, true, nil

	case "inspect_state":
		var inspect inspectWire
		if err := json.Unmarshal(resp.Data, &inspect); err != nil {
			return types.Input{}, false, fmt.Errorf("client: unmarshal inspect_state data: %w", err)
		}
		payload, err := hexDecode(inspect.Payload)
		if err != nil {
			return types.Input{}, false, fmt.Errorf("client: decode inspect payload: %w", err)
		}
		return types.Input{Kind: types.InputInspect, Payload: payload}, true, nil

	default:
		return types.Input{}, false, fmt.Errorf("client: unknown request_type %q", resp.RequestType)
	}
}

type voucherRequest struct {
	Destination string `json:"destination"`
	Payload     string `json:"payload"`
}

type noticeOrReportRequest struct {
	Payload string `json:"payload"`
}

type indexResponse struct {
	Index int `json:"index"`
}

// SendVoucher emits a Voucher output, returning its rollup-assigned index.
func (c *Client) SendVoucher(ctx context.Context, destination types.Address, payload []byte) (int, error) {
	var resp indexResponse
	if _, err := c.do(ctx, "voucher", voucherRequest{Destination: destination.String(), Payload: hexEncode(payload)}, &resp); err != nil {
		return 0, err
	}
	c.logger.Debug("sent voucher", slog.String("destination", destination.String()), slog.Int("index", resp.Index))
	return resp.Index, nil
}

// SendNotice emits a Notice output, returning its rollup-assigned index.
func (c *Client) SendNotice(ctx context.Context, payload []byte) (int, error) {
	var resp indexResponse
	if _, err := c.do(ctx, "notice", noticeOrReportRequest{Payload: hexEncode(payload)}, &resp); err != nil {
		return 0, err
	}
	c.logger.Debug("sent notice", slog.Int("index", resp.Index))
	return resp.Index, nil
}

// SendReport emits a diagnostic Report output.
func (c *Client) SendReport(ctx context.Context, payload []byte) error {
	if _, err := c.do(ctx, "report", noticeOrReportRequest{Payload: hexEncode(payload)}, nil); err != nil {
		return err
	}
	c.logger.Debug("sent report")
	return nil
}

func isHTTPError(err error, target **HTTPError) bool {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		return false
	}
	*target = httpErr
	return true
}
