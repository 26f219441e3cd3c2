package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultBaseURL is used when the credential object carries no base URL.
	DefaultBaseURL = "https://api.alive5.com/public/1.1"

	APIKeyHeader = "X-A5-APIKEY"

	directoryPath = "/objects/channels-and-users/list"
	sendSMSPath   = "/conversations/sms/send"
	accountPath   = "/account"

	maxLoggedBodyLen = 200
)

// ErrCredentialsRejected is returned by TestCredentials when the API refuses the key.
var ErrCredentialsRejected = errors.New("alive5 rejected the API key")

// Alive5Client talks to the Alive5 public API. Credentials are supplied per call.
type Alive5Client struct {
	logger     *slog.Logger
	httpClient *http.Client
}

func NewAlive5Client(logger *slog.Logger, httpClient *http.Client) *Alive5Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Alive5Client{
		logger:     logger.With("provider", "alive5"),
		httpClient: httpClient,
	}
}

func (c *Alive5Client) GetName() string {
	return "alive5"
}

// FetchDirectory returns every channel with its agents. Failures wrap domain.ErrRemoteFetch.
func (c *Alive5Client) FetchDirectory(ctx context.Context, creds domain.Credentials) (domain.Directory, error) {
	const op = "fetch_directory"
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(op))
	defer timer.ObserveDuration()

	status, body, err := c.do(ctx, creds, http.MethodGet, directoryPath, nil)
	if err != nil {
		providerRequestsCounter.WithLabelValues(op, "transport_error").Inc()
		c.logger.ErrorContext(ctx, "Failed to fetch Alive5 channel directory", "error", err)
		return nil, &domain.RemoteFetchError{Err: err}
	}
	if status < 200 || status >= 300 {
		providerRequestsCounter.WithLabelValues(op, "http_error").Inc()
		c.logger.WarnContext(ctx, "Alive5 directory request failed", "status_code", status, "body", truncate(body))
		return nil, &domain.RemoteFetchError{Err: fmt.Errorf("status %d: %s", status, errorMessage(body))}
	}

	dir, err := decodeDirectory(body)
	if err != nil {
		providerRequestsCounter.WithLabelValues(op, "decode_error").Inc()
		c.logger.WarnContext(ctx, "Failed to decode Alive5 directory response", "error", err, "body", truncate(body))
		return nil, &domain.RemoteFetchError{Err: err}
	}
	providerRequestsCounter.WithLabelValues(op, "ok").Inc()
	c.logger.DebugContext(ctx, "Fetched Alive5 channel directory", "channels", len(dir))
	return dir, nil
}

// SendSMS posts req as JSON and returns the provider's response object verbatim.
func (c *Alive5Client) SendSMS(ctx context.Context, creds domain.Credentials, req domain.SendRequest) (*domain.SendResult, error) {
	const op = "send_sms"
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(op))
	defer timer.ObserveDuration()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	c.logger.InfoContext(ctx, "Sending SMS via Alive5", "channel_id", req.ChannelID, "user_id", req.UserID, "recipient", req.PhoneNumberTo)

	status, body, err := c.do(ctx, creds, http.MethodPost, sendSMSPath, payload)
	if err != nil {
		providerRequestsCounter.WithLabelValues(op, "transport_error").Inc()
		c.logger.ErrorContext(ctx, "Failed to send request to Alive5", "error", err, "channel_id", req.ChannelID)
		return nil, &domain.SendError{Err: err}
	}
	if status < 200 || status >= 300 {
		providerRequestsCounter.WithLabelValues(op, "http_error").Inc()
		msg := errorMessage(body)
		c.logger.WarnContext(ctx, "Alive5 send failed", "status_code", status, "message", msg, "channel_id", req.ChannelID)
		return nil, &domain.SendError{StatusCode: status, Message: msg}
	}

	resp, err := decodeJSONObject(body)
	if err != nil {
		providerRequestsCounter.WithLabelValues(op, "decode_error").Inc()
		c.logger.WarnContext(ctx, "Alive5 send returned a non-object body", "status_code", status, "error", err, "body", truncate(body))
		return nil, &domain.InvalidResponseError{Body: truncate(body), Err: err}
	}
	providerRequestsCounter.WithLabelValues(op, "ok").Inc()
	c.logger.InfoContext(ctx, "Successfully sent SMS via Alive5", "status_code", status, "channel_id", req.ChannelID)
	return &domain.SendResult{Response: resp}, nil
}

// TestCredentials probes the account endpoint to check the key and base URL.
func (c *Alive5Client) TestCredentials(ctx context.Context, creds domain.Credentials) error {
	const op = "test_credentials"
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(op))
	defer timer.ObserveDuration()

	status, body, err := c.do(ctx, creds, http.MethodGet, accountPath, nil)
	if err != nil {
		providerRequestsCounter.WithLabelValues(op, "transport_error").Inc()
		return fmt.Errorf("failed to reach Alive5: %w", err)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		providerRequestsCounter.WithLabelValues(op, "http_error").Inc()
		return fmt.Errorf("%w: status %d: %s", ErrCredentialsRejected, status, errorMessage(body))
	case status < 200 || status >= 300:
		providerRequestsCounter.WithLabelValues(op, "http_error").Inc()
		return fmt.Errorf("alive5 account check failed: status %d: %s", status, errorMessage(body))
	}
	providerRequestsCounter.WithLabelValues(op, "ok").Inc()
	return nil
}

func (c *Alive5Client) do(ctx context.Context, creds domain.Credentials, method, path string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	url := baseURL(creds) + path
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set(APIKeyHeader, creds.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "Sending HTTP request to Alive5", "method", method, "url", url)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResp.StatusCode, nil, fmt.Errorf("failed to read response body (status %d): %w", httpResp.StatusCode, err)
	}
	c.logger.DebugContext(ctx, "Received HTTP response from Alive5", "status_code", httpResp.StatusCode, "body", truncate(respBody))
	return httpResp.StatusCode, respBody, nil
}

func baseURL(creds domain.Credentials) string {
	u := strings.TrimSpace(creds.BaseURL)
	if u == "" {
		u = DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	if obj, err := decodeJSONObject(body); err == nil {
		for _, key := range []string{"message", "error", "msg"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if len(body) == 0 {
		return "empty response body"
	}
	return truncate(body)
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxLoggedBodyLen {
		return s
	}
	cut := maxLoggedBodyLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
