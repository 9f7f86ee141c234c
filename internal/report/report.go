// Package report sends a run's tab count to the configured collection API.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Payload is the body posted to <api_url>/tabs.
type Payload struct {
	Time int64 `json:"time"`
	Tabs int16 `json:"tabs"`
}

type Options struct {
	APIURL       string
	AccessToken  string
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("report: server returned %d", e.Code)
	}
	return fmt.Sprintf("report: server returned %d: %s", e.Code, e.Body)
}

type Client struct {
	http     *resty.Client
	endpoint string
	now      func() time.Time
	log      *zap.Logger
}

// New builds a client. Retries are handled by the retryablehttp transport
// (connection errors, 429 and 5xx); the default of zero sends once.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryWaitMin == 0 {
		opts.RetryWaitMin = 500 * time.Millisecond
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = 5 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = leveledLogger{opts.Logger.Sugar()}
	// Hand the last response back so its status can be reported.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "tabtally/1.0")
	r.JSONMarshal = sonic.Marshal
	r.JSONUnmarshal = sonic.Unmarshal

	return &Client{
		http:     r,
		endpoint: Endpoint(opts.APIURL),
		now:      opts.Now,
		log:      opts.Logger,
	}
}

// Endpoint returns the tabs collection URL under apiURL.
func Endpoint(apiURL string) string {
	return strings.TrimSuffix(apiURL, "/") + "/tabs"
}

// Send posts the tab count stamped with the current time.
func (c *Client) Send(ctx context.Context, tabs int16) error {
	return c.SendAt(ctx, c.now(), tabs)
}

// SendAt posts a tab count observed at a past time.
func (c *Client) SendAt(ctx context.Context, at time.Time, tabs int16) error {
	body := Payload{Time: at.Unix(), Tabs: tabs}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("report: post %s: %w", c.endpoint, err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}

	c.log.Debug("reported", zap.String("endpoint", c.endpoint), zap.Int16("tabs", tabs), zap.Int("status", resp.StatusCode()))
	return nil
}

// leveledLogger routes retryablehttp's logging through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
