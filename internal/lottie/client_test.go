package lottie

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fireworksJSON = `{"v":"5.5.7","fr":30,"ip":0,"op":90,"w":500,"h":400,"nm":"fireworks","layers":[]}`

type recorded struct {
	mu      sync.Mutex
	results map[string]bool
}

func (r *recorded) AssetFetched(asset string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string]bool{}
	}
	r.results[asset] = ok
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fireworksJSON))
	})
	mux.HandleFunc("/malformed.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"v":"5.5.7","layers":[`))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>moved</body></html>"))
	})
	mux.HandleFunc("/array.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	})
	mux.HandleFunc("/large.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nm":"` + strings.Repeat("x", 256) + `"}`))
	})
	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	return NewClient(zap.NewNop(), opts...)
}

func TestFetchSuccess(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(srv)

	anim, ok := c.Fetch(context.Background(), srv.URL+"/ok.json")
	require.True(t, ok)
	assert.Equal(t, "fireworks", anim.Name)
	assert.Equal(t, "5.5.7", anim.Version)
	assert.Equal(t, 30.0, anim.FrameRate)
	assert.Equal(t, 500, anim.Width)
	assert.Equal(t, 400, anim.Height)
	assert.JSONEq(t, fireworksJSON, string(anim.Payload))
	assert.Equal(t, srv.URL+"/ok.json", anim.URL)
}

func TestFetchFailuresAreAbsent(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(srv, WithMaxBytes(128))

	tests := []struct {
		name string
		path string
	}{
		{"not found", "/missing.json"},
		{"server error", "/error"},
		{"malformed json", "/malformed.json"},
		{"html body", "/html"},
		{"json array", "/array.json"},
		{"too large", "/large.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anim, ok := c.Fetch(context.Background(), srv.URL+tt.path)
			assert.False(t, ok)
			assert.Equal(t, Animation{}, anim)
		})
	}
}

func TestFetchNetworkFailureIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(zap.NewNop())
	_, ok := c.Fetch(context.Background(), url+"/ok.json")
	assert.False(t, ok)

	_, ok = c.Fetch(context.Background(), "://not a url")
	assert.False(t, ok)
}

func TestFetchCanceledContextIsAbsent(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := c.Fetch(ctx, srv.URL+"/ok.json")
	assert.False(t, ok)
}

func TestLoadSet(t *testing.T) {
	srv := newServer(t)
	rec := &recorded{}
	c := newTestClient(srv, WithRecorder(rec))

	set := c.LoadSet(context.Background(), Sources{
		Gunfire:      srv.URL + "/ok.json",
		Satisfaction: srv.URL + "/missing.json",
		Chatbot:      srv.URL + "/malformed.json",
		Fireworks:    srv.URL + "/ok.json",
	})

	assert.True(t, set.Gunfire.Present())
	assert.False(t, set.Satisfaction.Present())
	assert.False(t, set.Chatbot.Present())

	fireworks, ok := set.Fireworks.Get()
	require.True(t, ok)
	assert.Equal(t, "fireworks", fireworks.Name)

	assert.Equal(t, map[string]bool{
		AssetGunfire:      true,
		AssetSatisfaction: false,
		AssetChatbot:      false,
		AssetFireworks:    true,
	}, rec.results)
}

func TestLoadLogsAnimationMetadata(t *testing.T) {
	srv := newServer(t)
	core, logs := observer.New(zapcore.InfoLevel)
	c := NewClient(zap.New(core), WithHTTPClient(srv.Client()))

	m := c.Load(context.Background(), AssetFireworks, srv.URL+"/ok.json")
	require.True(t, m.Present())

	entries := logs.FilterMessage("loaded animation").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, AssetFireworks, fields["asset"])
	assert.Equal(t, srv.URL+"/ok.json", fields["url"])
	assert.Equal(t, "5.5.7", fields["version"])
	assert.Equal(t, int64(500), fields["w"])
	assert.Equal(t, int64(400), fields["h"])

	c.Load(context.Background(), AssetChatbot, srv.URL+"/missing.json")
	assert.Equal(t, 1, logs.FilterMessage("loaded animation").Len())
}

func TestMaybe(t *testing.T) {
	_, ok := None().Get()
	assert.False(t, ok)
	assert.False(t, Maybe{}.Present())

	m := Some(Animation{Name: "chatbot"})
	a, ok := m.Get()
	assert.True(t, ok)
	assert.Equal(t, "chatbot", a.Name)
}
