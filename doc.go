// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package gsclient is the client-side transport runtime for the
game-services REST API.

Create a Client, hand it requests, and drain its callback queue once per
iteration of the application loop:

	client := &gsclient.Client{
		BaseURL:       gsclient.Prod.BaseURL,
		LoadBalancers: gsclient.Prod.LoadBalancers,
		Credentials:   &gsclient.Credentials{APIKey: key, APISecret: secret},
		Logger:        logger,
	}
	defer client.Shutdown()

	err := gsclient.Get(client, "/v1/gamer/profile", func(r *request.Result) {
		...
	})
	...
	for running {
		...
		client.Callbacks().Drain()
	}

Asynchronous requests go through the Dispatcher, which executes them one
at a time in submission order on its own goroutine. Failed attempts are
retried according to the request's retry policy, waiting between
attempts according to a backoff table and rotating between load
balancers so that each one is tried twice before moving on. A
FailureDelegate can take over the retry decision.

The Runner executes requests synchronously with the same rules. The
long-poll event loops use it: each subscribed domain has a loop which
polls the server for events and fans them out to the registered
EventListener values through the callback queue.

	err := client.RegisterEventListener("chat", listener)

To hook into the fine-grained details of request execution, install a
handler into the appropriate handler chain:

	handlers := &gsclient.HandlerGroup{}
	handlers.PushBack(gsclient.BeforeAttempt, gsclient.HandlerFunc(
		func(_ gsclient.Event, e *request.Execution) {
			logger.Debug("attempt", zap.String("url", e.URL))
		}),
	)
*/
package gsclient
