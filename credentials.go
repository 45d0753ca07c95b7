// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"net/http"
	"sync"

	"github.com/gogama/gsclient/request"
)

// DefaultSDKVersion is sent in the x-sdkversion header when Credentials
// does not name a version.
const DefaultSDKVersion = "1"

// Credentials holds the values stamped into the headers of every
// attempt. The application key and secret are fixed for the lifetime of
// the client; the session is set once the gamer is logged in and may be
// replaced or cleared at any time from any goroutine.
type Credentials struct {
	APIKey     string
	APISecret  string
	SDKVersion string
	UserAgent  string

	lock          sync.RWMutex
	gamerID       string
	gamerSecret   string
	sessionActive bool
}

// SetSession records the gamer credentials used for Basic
// authentication on subsequent attempts.
func (c *Credentials) SetSession(gamerID, gamerSecret string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.gamerID = gamerID
	c.gamerSecret = gamerSecret
	c.sessionActive = true
}

// ClearSession removes the gamer credentials.
func (c *Credentials) ClearSession() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.gamerID = ""
	c.gamerSecret = ""
	c.sessionActive = false
}

// LoggedIn reports whether a session is set.
func (c *Credentials) LoggedIn() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.sessionActive
}

func (c *Credentials) stamp(h http.Header) {
	if c == nil {
		return
	}
	h.Set("x-apikey", c.APIKey)
	h.Set("x-apisecret", c.APISecret)
	v := c.SDKVersion
	if v == "" {
		v = DefaultSDKVersion
	}
	h.Set("x-sdkversion", v)
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}

	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.sessionActive {
		h.Set("Authorization", request.BasicAuth(c.gamerID, c.gamerSecret))
	}
}
