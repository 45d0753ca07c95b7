// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"errors"
	"math/rand"
	"net/http"
	"reflect"
	"time"

	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/transient"
	"go.uber.org/zap"
)

// AdminDomain is the administrative event domain. Its loop is the
// primary loop: it tracks the network state for the whole client.
const AdminDomain = "private"

var (
	// ErrAlreadyRegistered is returned when a listener is registered
	// twice for the same domain.
	ErrAlreadyRegistered = errors.New("gsclient: event listener already registered")
	// ErrClosed is returned when registering after Shutdown.
	ErrClosed = errors.New("gsclient: client is shut down")
	// ErrEmptyDomain is returned when registering for the empty domain.
	ErrEmptyDomain = errors.New("gsclient: empty event domain")
	// ErrUncomparableListener is returned when registering a listener
	// whose value cannot be compared for identity, such as a struct
	// value holding a slice. Register a pointer to it instead.
	ErrUncomparableListener = errors.New("gsclient: event listener is not comparable")
)

// An EventListener receives the events of the domains it is registered
// for. Both methods are called on the goroutine draining the callback
// queue.
//
// Listeners are told apart by identity, so implement EventListener
// with a pointer type.
type EventListener interface {
	// OnEventReceived is called with each event. The event is the
	// result payload.
	OnEventReceived(domain string, r *request.Result)
	// OnEventError is called when polling the domain fails. If the
	// failure is permanent, the listener is no longer registered after
	// the call, and the domain is torn down unless it was pinned by
	// StartEventListening.
	OnEventError(domain string, r *request.Result)
}

// EventOptions configures the long-poll event loops. Zero fields take
// the documented defaults.
type EventOptions struct {
	// Path is the events endpoint. Default "/v1/gamer/event".
	Path string
	// Timeout is the server-side poll timeout. Default 590 seconds.
	Timeout time.Duration
	// Hold is the pause after a failed poll. Default 20 seconds.
	Hold time.Duration
	// AdminHold is the pause after a failed poll of AdminDomain.
	// Default 5 seconds.
	AdminHold time.Duration
	// RecoverTimeout is the poll timeout AdminDomain uses after a
	// failure, so that network recovery is noticed quickly. Default 2
	// seconds.
	RecoverTimeout time.Duration
	// ResumeJitter bounds the random delay before a loop other than
	// the primary one resumes after Resume. Default 5 seconds. A
	// negative value disables the delay.
	ResumeJitter time.Duration
}

// Default event loop settings.
const (
	DefaultEventPath           = "/v1/gamer/event"
	DefaultEventTimeout        = 590 * time.Second
	DefaultEventHold           = 20 * time.Second
	DefaultAdminEventHold      = 5 * time.Second
	DefaultEventRecoverTimeout = 2 * time.Second
	DefaultResumeJitter        = 5 * time.Second
)

// eventRequestSlack is added to the poll timeout to get the attempt
// timeout, leaving the server time to answer.
const eventRequestSlack = 30 * time.Second

const jitterStep = 100 * time.Millisecond

func (o EventOptions) withDefaults() EventOptions {
	if o.Path == "" {
		o.Path = DefaultEventPath
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultEventTimeout
	}
	if o.Hold <= 0 {
		o.Hold = DefaultEventHold
	}
	if o.AdminHold <= 0 {
		o.AdminHold = DefaultAdminEventHold
	}
	if o.RecoverTimeout <= 0 {
		o.RecoverTimeout = DefaultEventRecoverTimeout
	}
	if o.ResumeJitter < 0 {
		o.ResumeJitter = 0
	} else if o.ResumeJitter == 0 {
		o.ResumeJitter = DefaultResumeJitter
	}
	return o
}

type eventLoop struct {
	client  *Client
	domain  string
	primary bool
	opts    EventOptions
	stop    *request.Flag
	done    chan struct{}

	// Guarded by client.eventsLock.
	pinned    bool
	listeners []EventListener
}

// RegisterEventListener adds l to the listeners of domain, starting the
// domain's event loop if it is not running.
//
// RegisterEventListener panics if l is nil.
func (c *Client) RegisterEventListener(domain string, l EventListener) error {
	if l == nil {
		panic("gsclient: nil listener")
	}
	return c.register(domain, l, false)
}

// UnregisterEventListener removes l from the listeners of domain. When
// the last listener goes, the domain's loop is told to stop, aborting
// its poll in flight, and the domain is dropped. Unless the domain is
// AdminDomain started by StartEventListening, which keeps running.
//
// UnregisterEventListener does not wait for the loop to exit. No
// callback reaches l after it returns.
func (c *Client) UnregisterEventListener(domain string, l EventListener) {
	c.init()
	c.eventsLock.Lock()
	defer c.eventsLock.Unlock()

	loop := c.domains[domain]
	if loop == nil {
		return
	}
	for i, li := range loop.listeners {
		if sameListener(li, l) {
			loop.listeners = append(loop.listeners[:i:i], loop.listeners[i+1:]...)
			break
		}
	}
	if len(loop.listeners) == 0 && !loop.pinned {
		loop.stop.Set()
		delete(c.domains, domain)
		c.Metrics.setDomains(len(c.domains))
	}
}

// StartEventListening starts the loop of AdminDomain and keeps it
// running, with or without listeners, until StopEventListening or
// Shutdown.
func (c *Client) StartEventListening() error {
	return c.register(AdminDomain, nil, true)
}

// StopEventListening stops every event loop and waits for them to exit.
// Listeners must be registered again to restart them.
func (c *Client) StopEventListening() {
	c.init()
	c.eventsLock.Lock()
	var done []chan struct{}
	for domain, loop := range c.domains {
		loop.stop.Set()
		loop.listeners = nil
		done = append(done, loop.done)
		delete(c.domains, domain)
	}
	c.Metrics.setDomains(0)
	c.eventsLock.Unlock()

	for _, ch := range done {
		<-ch
	}
}

// EventDomains returns the number of running event domains.
func (c *Client) EventDomains() int {
	c.init()
	c.eventsLock.Lock()
	defer c.eventsLock.Unlock()
	return len(c.domains)
}

func (c *Client) register(domain string, l EventListener, pin bool) error {
	c.init()
	if domain == "" {
		return ErrEmptyDomain
	}
	if l != nil && !identifiable(l) {
		return ErrUncomparableListener
	}

	c.eventsLock.Lock()
	defer c.eventsLock.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}

	loop := c.domains[domain]
	if loop == nil {
		loop = &eventLoop{
			client:  c,
			domain:  domain,
			primary: domain == AdminDomain,
			opts:    c.Events.withDefaults(),
			stop:    request.NewFlag(),
			done:    make(chan struct{}),
			pinned:  pin,
		}
		if l != nil {
			loop.listeners = []EventListener{l}
		}
		c.domains[domain] = loop
		c.Metrics.setDomains(len(c.domains))
		c.logger.Debug("starting event loop", zap.String("domain", domain))
		go loop.run()
		return nil
	}

	if pin {
		loop.pinned = true
		return nil
	}
	for _, li := range loop.listeners {
		if sameListener(li, l) {
			return ErrAlreadyRegistered
		}
	}
	loop.listeners = append(loop.listeners, l)
	return nil
}

func (l *eventLoop) run() {
	c := l.client
	defer l.exit()

	var ack string
	var last *request.Result
	positive, networkError := true, false

	for !l.stop.IsSet() {
		pollTimeout := l.opts.Timeout

		if c.suspended.Load() {
			l.park()
			continue
		}

		if last != nil {
			status, kind := last.StatusCode, last.Kind
			if status == 499 {
				status, kind = http.StatusNoContent, request.OK
			}
			success := kind == request.OK && status < 300
			netErr := kind == request.TransportError

			if l.primary && netErr != networkError {
				up := !netErr
				c.queue.PushFunc(func() { c.SetNetworkState(up) })
			}

			switch {
			case success && status == http.StatusOK:
				ack = last.GetString("id")
				l.notifyReceived(last)
			case success:
			case kind == request.PermanentError && status != http.StatusTooManyRequests:
				c.logger.Warn("dropping event listeners after permanent error",
					zap.String("domain", l.domain),
					zap.Int("status", status))
				listeners, stopped := l.teardown()
				l.notifyError(last, listeners)
				if stopped {
					return
				}
			default:
				l.notifyError(last, nil)
			}
			positive = success
			networkError = netErr
			last = nil
		}

		if !positive {
			hold := l.opts.Hold
			if l.primary {
				hold = l.opts.AdminHold
				pollTimeout = l.opts.RecoverTimeout
			}
			c.logger.Debug("event loop on hold",
				zap.String("domain", l.domain),
				zap.Duration("hold", hold))
			l.wait(hold)
			if l.stop.IsSet() {
				break
			}
			if c.suspended.Load() {
				continue
			}
		}

		u := request.NewURL(l.opts.Path).Subpath(l.domain).
			QueryInt("timeout", pollTimeout.Milliseconds())
		if ack != "" {
			u.Query("ack", ack)
		}
		last = c.runner.Perform(&request.Request{
			Method:      http.MethodGet,
			URL:         u.String(),
			Header:      make(http.Header),
			Timeout:     pollTimeout + eventRequestSlack,
			RetryPolicy: request.NonpermanentErrors,
			Cancel:      l.stop,
		})
		if last.Transport == transient.Cancelled || last.Kind == request.LogicError {
			break
		}
	}
}

// park waits for Resume. Loops other than the primary one then sleep a
// random multiple of jitterStep so they do not all poll at once.
func (l *eventLoop) park() {
	c := l.client
	resumed := c.resume.wait()
	if !c.suspended.Load() {
		return
	}
	c.logger.Debug("event loop suspended", zap.String("domain", l.domain))
	select {
	case <-resumed:
	case <-l.stop.Done():
		return
	}
	if l.primary {
		return
	}
	if steps := int(l.opts.ResumeJitter / jitterStep); steps > 0 {
		l.sleep(time.Duration(rand.Intn(steps)) * jitterStep)
	}
}

// wait sleeps for d, returning early on Resume or stop.
func (l *eventLoop) wait(d time.Duration) {
	resumed := l.client.resume.wait()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-resumed:
	case <-l.stop.Done():
	}
}

// sleep sleeps for d, returning early on stop.
func (l *eventLoop) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-l.stop.Done():
	}
}

func (l *eventLoop) snapshot() []EventListener {
	c := l.client
	c.eventsLock.Lock()
	defer c.eventsLock.Unlock()
	return append([]EventListener(nil), l.listeners...)
}

// teardown unregisters the listeners of the domain and returns them. A
// pinned loop keeps polling without listeners; any other loop is dropped
// and stopped is true.
func (l *eventLoop) teardown() (listeners []EventListener, stopped bool) {
	c := l.client
	c.eventsLock.Lock()
	defer c.eventsLock.Unlock()
	listeners = l.listeners
	l.listeners = nil
	if l.pinned {
		return listeners, false
	}
	if c.domains[l.domain] == l {
		delete(c.domains, l.domain)
		c.Metrics.setDomains(len(c.domains))
	}
	l.stop.Set()
	return listeners, true
}

func (l *eventLoop) exit() {
	c := l.client
	c.eventsLock.Lock()
	if c.domains[l.domain] == l {
		delete(c.domains, l.domain)
		c.Metrics.setDomains(len(c.domains))
	}
	c.eventsLock.Unlock()
	c.logger.Debug("event loop exited", zap.String("domain", l.domain))
	close(l.done)
}

// notifyReceived queues the event for the listeners registered when the
// queue is drained.
func (l *eventLoop) notifyReceived(r *request.Result) {
	l.client.Metrics.eventReceived(l.domain)
	l.client.queue.PushFunc(func() {
		for _, li := range l.snapshot() {
			li.OnEventReceived(l.domain, r)
		}
	})
}

// notifyError queues the error for the given listeners or, if nil, for
// the listeners registered when the queue is drained.
func (l *eventLoop) notifyError(r *request.Result, listeners []EventListener) {
	l.client.Metrics.eventError(l.domain)
	fixed := listeners != nil
	l.client.queue.PushFunc(func() {
		ls := listeners
		if !fixed {
			ls = l.snapshot()
		}
		for _, li := range ls {
			li.OnEventError(l.domain, r)
		}
	})
}

// identifiable reports whether sameListener can tell l apart from other
// listeners.
func identifiable(l EventListener) bool {
	v := reflect.ValueOf(l)
	switch v.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return true
	default:
		return v.Comparable()
	}
}

func sameListener(a, b EventListener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
