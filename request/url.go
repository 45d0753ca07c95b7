// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/url"
	"strconv"
	"strings"
)

// A URLBuilder assembles a request URL from path segments and query
// parameters. Add all path segments before the first query parameter.
type URLBuilder struct {
	path  strings.Builder
	query []string
}

// NewURL starts a URL with the given path.
func NewURL(path string) *URLBuilder {
	b := &URLBuilder{}
	return b.Subpath(path)
}

// Subpath appends a path segment, inserting a single slash between it
// and the current path.
func (b *URLBuilder) Subpath(path string) *URLBuilder {
	s := b.path.String()
	if len(s) == 0 || s[len(s)-1] != '/' {
		b.path.WriteByte('/')
	}
	b.path.WriteString(strings.TrimPrefix(path, "/"))
	return b
}

// Query appends a query parameter. The value is escaped.
func (b *URLBuilder) Query(name, value string) *URLBuilder {
	b.query = append(b.query, url.QueryEscape(name)+"="+url.QueryEscape(value))
	return b
}

// QueryInt appends an integer query parameter.
func (b *URLBuilder) QueryInt(name string, value int64) *URLBuilder {
	return b.Query(name, strconv.FormatInt(value, 10))
}

// String returns the built URL.
func (b *URLBuilder) String() string {
	if len(b.query) == 0 {
		return b.path.String()
	}
	return b.path.String() + "?" + strings.Join(b.query, "&")
}
