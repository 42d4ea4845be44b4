package lottie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultMaxBytes caps the size of an animation payload
const DefaultMaxBytes = 8 << 20

var errNotAnimation = errors.New("payload is not a JSON object")

// Animation is a fetched Lottie payload
type Animation struct {
	URL       string
	Payload   json.RawMessage
	Name      string
	Version   string
	FrameRate float64
	Width     int
	Height    int
}

// Maybe is an animation that may have failed to load
type Maybe struct {
	anim Animation
	ok   bool
}

// Some wraps a loaded animation
func Some(a Animation) Maybe {
	return Maybe{anim: a, ok: true}
}

// None is the absent animation
func None() Maybe {
	return Maybe{}
}

// Get returns the animation and whether it loaded
func (m Maybe) Get() (Animation, bool) {
	return m.anim, m.ok
}

// Present reports whether the animation loaded
func (m Maybe) Present() bool {
	return m.ok
}

// Recorder observes fetch results
type Recorder interface {
	AssetFetched(asset string, ok bool)
}

// Client fetches Lottie animations over HTTP
type Client struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *zap.Logger
	recorder   Recorder
}

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds each fetch. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxBytes caps the payload size
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRecorder reports every fetch result to r
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a new animation client
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		maxBytes:   DefaultMaxBytes,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads one animation. Any failure is reported as false; the
// cause is only logged.
func (c *Client) Fetch(ctx context.Context, url string) (Animation, bool) {
	anim, err := c.get(ctx, url)
	if err != nil {
		c.logger.Debug("animation unavailable", zap.String("url", url), zap.Error(err))
		return Animation{}, false
	}
	return anim, true
}

// Load fetches one named animation and records the result
func (c *Client) Load(ctx context.Context, name, url string) Maybe {
	anim, ok := c.Fetch(ctx, url)
	if c.recorder != nil {
		c.recorder.AssetFetched(name, ok)
	}
	if !ok {
		return None()
	}
	c.logger.Info("loaded animation",
		zap.String("asset", name),
		zap.String("url", anim.URL),
		zap.String("name", anim.Name),
		zap.String("version", anim.Version),
		zap.Float64("fr", anim.FrameRate),
		zap.Int("w", anim.Width),
		zap.Int("h", anim.Height),
		zap.Int("bytes", len(anim.Payload)))
	return Some(anim)
}

func (c *Client) get(ctx context.Context, url string) (Animation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Animation{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Animation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Animation{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return Animation{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return Animation{}, fmt.Errorf("payload exceeds %d bytes", c.maxBytes)
	}

	return parse(url, body)
}

func parse(url string, body []byte) (Animation, error) {
	if !gjson.ValidBytes(body) {
		return Animation{}, errNotAnimation
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return Animation{}, errNotAnimation
	}

	return Animation{
		URL:       url,
		Payload:   json.RawMessage(body),
		Name:      doc.Get("nm").String(),
		Version:   doc.Get("v").String(),
		FrameRate: doc.Get("fr").Float(),
		Width:     int(doc.Get("w").Int()),
		Height:    int(doc.Get("h").Int()),
	}, nil
}
