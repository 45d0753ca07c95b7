// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the HTTPDoer of a Client implements IdleCloser, Client.Shutdown
// closes its idle connections.
type IdleCloser interface {
	CloseIdleConnections()
}

// DefaultConnectTimeout bounds connection establishment when neither
// the request nor the client sets a connect timeout.
const DefaultConnectTimeout = 5 * time.Second

type connectTimeoutKey struct{}

func withConnectTimeout(ctx context.Context, d time.Duration) context.Context {
	if d <= 0 {
		return ctx
	}
	return context.WithValue(ctx, connectTimeoutKey{}, d)
}

func connectTimeout(ctx context.Context) time.Duration {
	if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok {
		return d
	}
	return DefaultConnectTimeout
}

// NewHTTPDoer returns the HTTPDoer a Client uses when none is set: an
// http.Client over an HTTP/2 capable transport whose dialer honours
// the per-request connect timeout. Redirects are not followed.
func NewHTTPDoer() (HTTPDoer, error) {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dctx, cancel := context.WithTimeout(ctx, connectTimeout(ctx))
			defer cancel()
			return dialer.DialContext(dctx, network, addr)
		},
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if err := http2.ConfigureTransport(t); err != nil {
		return nil, fmt.Errorf("gsclient: configuring HTTP/2: %w", err)
	}
	return &http.Client{
		Transport: t,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}
