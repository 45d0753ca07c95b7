// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"net/http"

	"github.com/gogama/gsclient/request"
)

// Enqueuer is the interface that wraps the basic Enqueue method.
//
// Enqueue transfers ownership of a request and arranges for its
// callback to be invoked exactly once with the final result. Client and
// Dispatcher implement Enqueuer.
type Enqueuer interface {
	Enqueue(r *request.Request)
}

// Performer is the interface that wraps the basic Perform method.
//
// Perform executes a request on the calling goroutine and returns its
// final result. Client and Runner implement Performer.
type Performer interface {
	Perform(r *request.Request) *request.Result
}

// EventSource is the interface that groups the listener registration
// methods. Client implements EventSource.
type EventSource interface {
	RegisterEventListener(domain string, l EventListener) error
	UnregisterEventListener(domain string, l EventListener)
}

// Get uses the specified Enqueuer to issue a GET to the specified URL.
// The result is delivered to cb.
func Get(q Enqueuer, url string, cb request.Callback) error {
	r, err := request.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	r.Callback = cb
	q.Enqueue(r)
	return nil
}

// Post uses the specified Enqueuer to issue a POST of a JSON body to
// the specified URL. The result is delivered to cb.
func Post(q Enqueuer, url string, body interface{}, cb request.Callback) error {
	r, err := request.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return err
	}
	r.Callback = cb
	q.Enqueue(r)
	return nil
}

// Upload uses the specified Enqueuer to PUT binary data to the
// specified URL, typically a pre-signed storage URL.
//
// The data parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes, namely: string; []byte;
// io.Reader; and io.ReadCloser. On success the result payload is
// {"url": <url>}.
func Upload(q Enqueuer, url string, data interface{}, cb request.Callback) error {
	r, err := request.NewRequest(http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	if err = r.SetData(data); err != nil {
		return err
	}
	r.Callback = cb
	q.Enqueue(r)
	return nil
}

// Download uses the specified Enqueuer to GET binary data from the
// specified URL. On success the result carries the response body in
// its Binary field.
func Download(q Enqueuer, url string, cb request.Callback) error {
	r, err := request.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	r.BinaryDownload = true
	r.Callback = cb
	q.Enqueue(r)
	return nil
}
