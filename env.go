// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"fmt"
	"strings"
)

// An Environment is a preset server deployment: a base URL template and
// the number of load balancers behind it.
type Environment struct {
	Name          string
	BaseURL       string
	LoadBalancers int
}

var (
	// Sandbox is the development environment.
	Sandbox = Environment{
		Name:          "sandbox",
		BaseURL:       "https://sandbox-api[id].clanofthecloud.mobi",
		LoadBalancers: 2,
	}
	// Prod is the production environment.
	Prod = Environment{
		Name:          "prod",
		BaseURL:       "https://prod-api[id].clanofthecloud.mobi",
		LoadBalancers: 16,
	}
)

// LookupEnvironment returns the preset environment with the given
// name, ignoring case.
func LookupEnvironment(name string) (Environment, error) {
	switch strings.ToLower(name) {
	case Sandbox.Name:
		return Sandbox, nil
	case Prod.Name:
		return Prod, nil
	default:
		return Environment{}, fmt.Errorf("gsclient: unknown environment %q", name)
	}
}
