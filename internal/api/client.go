// Package api is the client of the remote event/booking API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 4 << 20
)

// TokenSource hands out the bearer credential. It fails with
// entity.ErrUnauthorized when there is no usable session, in which case no
// request is sent.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	Retries        int
	RetryBaseDelay time.Duration
	UserAgent      string

	// HTTPClient overrides the default transport, tests pass httptest clients.
	HTTPClient *http.Client
}

func ConfigFrom(cfg config.APIConfig) ClientConfig {
	return ClientConfig{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		Retries:        cfg.Retries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		UserAgent:      cfg.UserAgent,
	}
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	retry     *RetryPolicy
	userAgent string
	log       logrus.FieldLogger
}

func NewClient(cfg ClientConfig, tokens TokenSource, log logrus.FieldLogger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	// relative paths resolve under the base only with a trailing slash
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		tokens:    tokens,
		retry:     NewRetryPolicy(cfg.Retries, cfg.RetryBaseDelay),
		userAgent: cfg.UserAgent,
		log:       log,
	}, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	public bool // register and login go out without a bearer token
}

// do sends req and decodes a 2xx body into out. Only GETs are retried.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var token string
	if !req.public {
		if c.tokens == nil {
			return fmt.Errorf("%w: no token source", entity.ErrUnauthorized)
		}
		t, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		payload = b
	}

	for attempt := 0; ; attempt++ {
		err := c.send(ctx, req, token, payload, out)
		if err == nil {
			return nil
		}
		if req.method != http.MethodGet {
			return err
		}

		retry, delay := c.retry.ShouldRetry(attempt, err)
		if !retry {
			return err
		}
		c.log.WithFields(logrus.Fields{
			"method":  req.method,
			"path":    req.path,
			"attempt": attempt + 1,
			"delay":   delay,
		}).WithError(err).Warn("Retrying request")

		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

func (c *Client) send(ctx context.Context, req request, token string, payload []byte, out any) error {
	target := c.baseURL.ResolveReference(&url.URL{
		Path:     strings.TrimPrefix(req.path, "/"),
		RawQuery: req.query.Encode(),
	})

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, requestID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", entity.ErrTransport, req.method, req.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", entity.ErrTransport, req.method, req.path, err)
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     req.method,
		"path":       req.path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start),
		"request_id": requestID,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(resp.StatusCode, data)
		log.WithError(err).Debug("Request rejected")
		return err
	}
	log.Debug("Request done")

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", entity.ErrTransport, req.method, req.path, err)
	}
	return nil
}

// statusError maps a non-2xx answer. 401 and 403 are authorization
// failures; everything else is a remote rejection carrying the server's text.
func statusError(status int, body []byte) error {
	remote := &entity.RemoteError{StatusCode: status, Message: remoteMessage(body)}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: %w", entity.ErrUnauthorized, remote)
	}
	return remote
}

// remoteMessage digs the human readable text out of an error body:
// {"errors":[{"msg":..}]} first, then {"message":..}, then {"error":..}.
func remoteMessage(body []byte) string {
	var payload struct {
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Errors) > 0 && payload.Errors[0].Msg != "" {
		return payload.Errors[0].Msg
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func pageQuery(page int) url.Values {
	return url.Values{"page": []string{fmt.Sprint(max(page, 1))}}
}
