// Package client talks to the remote auth and records services over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/study-planner/pkg/errors"
	"github.com/noah-isme/study-planner/pkg/middleware/requestid"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBody    = 4 << 10
	serviceAuth     = "auth"
	serviceRecords  = "records"
	contentTypeJSON = "application/json"
)

// Credential supplies the bearer token. ClearIfToken drops it when a remote service rejects
// the token that was sent, provided it has not been replaced since.
type Credential interface {
	Token() string
	ClearIfToken(sent string) bool
}

// Observer records the outcome of each remote call. status is 0 when no response arrived.
type Observer interface {
	ObserveUpstreamCall(service, operation string, status int, duration time.Duration)
}

// Options configures a remote client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Credential Credential
	Observer   Observer
	Logger     *zap.Logger
}

type base struct {
	service    string
	baseURL    string
	http       *http.Client
	credential Credential
	observer   Observer
	logger     *zap.Logger
}

func newBase(service string, opts Options) base {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		service:    service,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       httpClient,
		credential: opts.Credential,
		observer:   opts.Observer,
		logger:     logger.With(zap.String("upstream", service)),
	}
}

type call struct {
	method    string
	path      string
	operation string
	body      interface{}
	out       interface{}
	// token overrides the credential. When empty and useCredential is set, the held token is
	// sent and cleared on a 401.
	token         string
	useCredential bool
	// enveloped responses carry the payload under "data".
	enveloped bool
	// sent is the held token attached to the request.
	sent string
}

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (b base) do(ctx context.Context, c call) error {
	var payload io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.operation, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, b.baseURL+c.path, payload)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.operation, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	token := c.token
	if token == "" && c.useCredential && b.credential != nil {
		token = b.credential.Token()
		c.sent = token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := b.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		b.observe(c.operation, 0, duration)
		b.logger.Warn("remote call failed", zap.String("operation", c.operation), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			fmt.Sprintf("%s service unavailable", b.service))
	}
	defer resp.Body.Close()
	b.observe(c.operation, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return b.statusError(c, resp.StatusCode, body)
	}

	if c.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decode(resp.Body, c.enveloped, c.out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
			fmt.Sprintf("invalid %s response from %s service", c.operation, b.service))
	}
	return nil
}

func decode(r io.Reader, enveloped bool, out interface{}) error {
	if !enveloped {
		return json.NewDecoder(r).Decode(out)
	}
	var env successEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (b base) statusError(c call, status int, body []byte) error {
	message := errorMessage(body)

	switch status {
	case http.StatusBadRequest:
		return appErrors.Clone(appErrors.ErrValidation, message)
	case http.StatusUnauthorized:
		if c.sent != "" && b.credential != nil {
			if b.credential.ClearIfToken(c.sent) {
				b.logger.Info("remote service rejected credential, clearing session", zap.String("operation", c.operation))
			} else {
				b.logger.Debug("ignoring rejection of a replaced credential", zap.String("operation", c.operation))
			}
		}
		return appErrors.Clone(appErrors.ErrUnauthorized, message)
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, message)
	case http.StatusConflict:
		return appErrors.Clone(appErrors.ErrConflict, message)
	default:
		b.logger.Warn("unexpected remote status", zap.String("operation", c.operation), zap.Int("status", status))
		return appErrors.Wrap(fmt.Errorf("%s %s returned %d: %s", c.method, c.path, status, message),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s service error", b.service))
	}
}

// errorMessage extracts a readable message from either the JSON error envelope or a plain
// text body.
func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func (b base) observe(operation string, status int, duration time.Duration) {
	if b.observer != nil {
		b.observer.ObserveUpstreamCall(b.service, operation, status, duration)
	}
}

// IsUnavailable reports whether err came from a transport failure rather than a remote verdict.
func IsUnavailable(err error) bool {
	return appErrors.Is(err, appErrors.ErrUpstreamUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
