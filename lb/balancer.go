// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package lb selects the load balancer that each request attempt is
// sent to.
//
// The game-services API is served by a numbered set of load balancers
// sharing one URL template, for example
// "https://sandbox-api[id].clanofthecloud.mobi". A Balancer keeps track
// of the current load balancer ID and replaces the "[id]" placeholder
// with the two-digit ID. After a failure the transport requests a
// rotation, and the next URL is built against a randomly chosen other
// load balancer.
package lb

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Placeholder is the marker in a base URL template that is replaced by
// the load balancer ID.
const Placeholder = "[id]"

// A Balancer holds the current load balancer selection. It is safe for
// concurrent use by multiple goroutines.
type Balancer struct {
	lock          sync.Mutex
	template      string
	count         int
	id            int
	needsRotation bool
	rand          *rand.Rand
}

// New returns a balancer over count load balancers, numbered from 1,
// for the given base URL template. The initial load balancer is chosen
// at random.
//
// New panics if count is less than 1.
func New(template string, count int) *Balancer {
	return NewWithSource(template, count, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource is like New but draws random load balancer IDs from
// src.
func NewWithSource(template string, count int, src rand.Source) *Balancer {
	if count < 1 {
		panic("gsclient/lb: count must be positive")
	}
	if src == nil {
		panic("gsclient/lb: nil source")
	}
	b := &Balancer{
		template: strings.TrimSuffix(template, "/"),
		count:    count,
		rand:     rand.New(src),
	}
	b.id = 1 + b.rand.Intn(count)
	return b
}

// Count returns the number of load balancers.
func (b *Balancer) Count() int {
	return b.count
}

// Current returns the current load balancer ID.
func (b *Balancer) Current() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.id
}

// RequestRotation marks the current load balancer as suspect. The next
// call to URL moves to another one.
func (b *Balancer) RequestRotation() {
	b.lock.Lock()
	b.needsRotation = true
	b.lock.Unlock()
}

// RotationPending reports whether a rotation has been requested but not
// yet carried out.
func (b *Balancer) RotationPending() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.needsRotation
}

// URL returns the absolute URL for path on the current load balancer,
// and that load balancer's ID. A pending rotation is carried out first.
//
// With a single load balancer, rotation is a no-op.
func (b *Balancer) URL(path string) (string, int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.needsRotation {
		b.needsRotation = false
		if b.count > 1 {
			id := b.id
			for id == b.id {
				id = 1 + b.rand.Intn(b.count)
			}
			b.id = id
		}
	}

	base := strings.Replace(b.template, Placeholder, fmt.Sprintf("%02d", b.id), -1)
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, b.id
}
