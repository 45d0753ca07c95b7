// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/retry"
	"github.com/gogama/gsclient/transient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// gameServer is a minimal stand-in for the game-services backend.
type gameServer struct {
	*httptest.Server

	lock     sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

func newGameServer(t *testing.T) *gameServer {
	s := &gameServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/gamer/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"gamer_id":"g1","profile":{"displayName":"Ada"}}`)
	})
	mux.HandleFunc("/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, string(b))
	})
	mux.HandleFunc("/v1/list", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[1,2]`)
	})
	mux.HandleFunc("/v1/legacy", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(obsoleteHeader, "use /v2/legacy")
		writeJSON(w, http.StatusOK, `{}`)
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0, 1, 2, 0xff})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/v1/gamer/me", http.StatusFound)
	})
	mux.HandleFunc("/v1/missing", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"name":"NotFound","message":"no such thing"}`)
	})
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.lock.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   b,
		})
		s.lock.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(b))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *gameServer) last() recordedRequest {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requests[len(s.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newServerClient(t *testing.T, s *gameServer) *Client {
	doer, err := NewHTTPDoer()
	require.NoError(t, err)
	c := &Client{
		BaseURL:       s.URL,
		LoadBalancers: 1,
		HTTPDoer:      doer,
		Backoff:       retry.NewTable(time.Millisecond),
		Logger:        zaptest.NewLogger(t),
	}
	t.Cleanup(c.Shutdown)
	return c
}

func TestServer_Credentials(t *testing.T) {
	s := newGameServer(t)
	c := newServerClient(t, s)
	c.Credentials = &Credentials{APIKey: "key", APISecret: "secret"}

	res := c.Perform(newRequest(t, "", "/v1/gamer/me", nil))
	require.True(t, res.Success())
	h := s.last().Header
	assert.Equal(t, "key", h.Get("x-apikey"))
	assert.Equal(t, "secret", h.Get("x-apisecret"))
	assert.Equal(t, DefaultSDKVersion, h.Get("x-sdkversion"))
	assert.Equal(t, "gsclient", h.Get("User-Agent"))
	assert.Empty(t, h.Get("Authorization"))

	c.Credentials.SetSession("g1", "pw")
	res = c.Perform(newRequest(t, "", "/v1/gamer/me", nil))
	require.True(t, res.Success())
	assert.Equal(t, request.BasicAuth("g1", "pw"), s.last().Header.Get("Authorization"))
	assert.Equal(t, "Ada", res.Payload["profile"].(map[string]interface{})["displayName"])
}

func TestServer_JSON(t *testing.T) {
	s := newGameServer(t)
	c := newServerClient(t, s)

	t.Run("post", func(t *testing.T) {
		res := c.Perform(newRequest(t, "", "/v1/echo", map[string]interface{}{"score": 42}))
		require.True(t, res.Success())
		last := s.last()
		assert.Equal(t, http.MethodPost, last.Method)
		assert.Equal(t, "application/json", last.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"score":42}`, string(last.Body))
		assert.Equal(t, float64(42), res.Payload["score"])
	})
	t.Run("non-object", func(t *testing.T) {
		res := c.Perform(newRequest(t, "", "/v1/list", nil))
		require.True(t, res.Success())
		assert.Equal(t, request.JSON{"value": []interface{}{float64(1), float64(2)}}, res.Payload)
	})
	t.Run("permanent error", func(t *testing.T) {
		res := c.Perform(newRequest(t, "", "/v1/missing", nil))
		assert.Equal(t, request.PermanentError, res.Kind)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "no such thing", res.GetString("message"))
	})
	t.Run("redirect", func(t *testing.T) {
		res := c.Perform(newRequest(t, "", "/moved", nil))
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.False(t, res.Success())
	})
}

func TestServer_Obsolete(t *testing.T) {
	s := newGameServer(t)
	c := newServerClient(t, s)
	core, logs := observer.New(zapcore.WarnLevel)
	c.Logger = zap.New(core)

	res := c.Perform(newRequest(t, "", "/v1/legacy", nil))
	assert.True(t, res.Success())
	assert.True(t, res.Obsolete)
	require.Equal(t, 1, logs.FilterMessageSnippet("obsolete").Len())
	assert.Equal(t, "use /v2/legacy", logs.All()[0].ContextMap()["detail"])
}

func TestServer_Binary(t *testing.T) {
	s := newGameServer(t)
	c := newServerClient(t, s)
	rr := &resultRecorder{}

	require.NoError(t, Download(c, s.URL+"/blob", rr.callback()))
	require.NoError(t, Upload(c, s.URL+"/upload", "raw bytes", rr.callback()))
	drainUntil(t, c, func() bool { return rr.len() == 2 })

	down := rr.get(0)
	assert.True(t, down.Success())
	assert.Equal(t, []byte{0, 1, 2, 0xff}, down.Binary)
	assert.Equal(t, request.JSON{"url": s.URL + "/blob"}, down.Payload)

	up := rr.get(1)
	assert.True(t, up.Success())
	assert.Nil(t, up.Binary)
	assert.Equal(t, request.JSON{"url": s.URL + "/upload"}, up.Payload)
	last := s.last()
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "application/octet-stream", last.Header.Get("Content-Type"))
	assert.Equal(t, "raw bytes", string(last.Body))
}

func TestServer_Unreachable(t *testing.T) {
	s := newGameServer(t)
	c := newServerClient(t, s)
	s.Close()

	r := newRequest(t, "", "/v1/gamer/me", nil)
	r.RetryPolicy = request.Never
	res := c.Perform(r)
	assert.Equal(t, request.TransportError, res.Kind)
	assert.Equal(t, transient.CouldNotConnect, res.Transport)
	assert.Equal(t, 0, res.StatusCode)
	assert.Equal(t, request.JSON{}, res.Payload)
}

func TestServer_Events(t *testing.T) {
	var polls sync.WaitGroup
	polls.Add(1)
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ack") == "" {
			evt, _ := json.Marshal(map[string]interface{}{"id": "e1", "type": "match.join"})
			writeJSON(w, http.StatusOK, string(evt))
			return
		}
		once.Do(polls.Done)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)
	c := newServerClient(t, &gameServer{Server: srv})
	l := &recordingListener{}
	require.NoError(t, c.RegisterEventListener("match", l))

	drainUntil(t, c, func() bool {
		n, _ := l.counts()
		return n == 1
	})
	assert.Equal(t, "match.join", l.event(0).GetString("type"))
	polls.Wait()
	c.UnregisterEventListener("match", l)
	assert.Equal(t, 0, c.EventDomains())
}
