// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Run("invalid method", func(t *testing.T) {
		r, err := NewRequest("GE T", "/v1/ping", nil)
		assert.Nil(t, r)
		assert.EqualError(t, err, `gsclient/request: invalid method "GE T"`)
	})
	t.Run("empty URL", func(t *testing.T) {
		r, err := NewRequest("GET", "", nil)
		assert.Nil(t, r)
		assert.Error(t, err)
	})
	t.Run("defaults", func(t *testing.T) {
		r, err := NewRequest("", "/v1/ping", nil)
		require.NoError(t, err)
		assert.NotNil(t, r.Header)
		assert.Equal(t, NonpermanentErrors, r.RetryPolicy)
		assert.False(t, r.Cancelled())
		assert.False(t, r.BinaryUpload())
		assert.False(t, r.Absolute())
	})
}

func TestRequest_EffectiveMethod(t *testing.T) {
	testCases := []struct {
		name     string
		r        Request
		expected string
	}{
		{"explicit", Request{Method: "DELETE", Body: 1}, "DELETE"},
		{"no body", Request{}, "GET"},
		{"JSON body", Request{Body: map[string]interface{}{"a": 1}}, "POST"},
		{"binary", Request{Data: []byte{}}, "POST"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, testCase.r.EffectiveMethod())
		})
	}
}

func TestRequest_Absolute(t *testing.T) {
	assert.True(t, (&Request{URL: "https://cdn.example.com/x"}).Absolute())
	assert.True(t, (&Request{URL: "http://cdn.example.com/x"}).Absolute())
	assert.False(t, (&Request{URL: "/v1/gamer/profile"}).Absolute())
}

func TestRequest_Cancelled(t *testing.T) {
	f := NewFlag()
	r := &Request{Cancel: f}
	assert.False(t, r.Cancelled())
	f.Set()
	assert.True(t, r.Cancelled())
}

func TestRequest_EncodedBody(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		b, isJSON, err := (&Request{}).EncodedBody()
		assert.Nil(t, b)
		assert.False(t, isJSON)
		assert.NoError(t, err)
	})
	t.Run("JSON encoded once", func(t *testing.T) {
		body := map[string]interface{}{"name": "zorg"}
		r := &Request{Body: body}
		b, isJSON, err := r.EncodedBody()
		require.NoError(t, err)
		assert.True(t, isJSON)
		assert.JSONEq(t, `{"name":"zorg"}`, string(b))
		body["name"] = "changed"
		b, _, _ = r.EncodedBody()
		assert.JSONEq(t, `{"name":"zorg"}`, string(b))
	})
	t.Run("binary wins over JSON", func(t *testing.T) {
		r := &Request{Body: 1, Data: []byte("raw")}
		b, isJSON, err := r.EncodedBody()
		require.NoError(t, err)
		assert.False(t, isJSON)
		assert.Equal(t, []byte("raw"), b)
	})
	t.Run("unencodable", func(t *testing.T) {
		r := &Request{Body: make(chan int)}
		_, isJSON, err := r.EncodedBody()
		assert.True(t, isJSON)
		assert.Error(t, err)
	})
}

func TestRequest_SetBasicAuth(t *testing.T) {
	r := &Request{}
	r.SetBasicAuth("Aladdin", "open sesame")
	assert.Equal(t, "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==", r.Header.Get("Authorization"))
}

func TestRetryPolicy_String(t *testing.T) {
	assert.Equal(t, "NonpermanentErrors", NonpermanentErrors.String())
	assert.Equal(t, "AllErrors", AllErrors.String())
	assert.Equal(t, "Never", Never.String())
	assert.Equal(t, "RetryPolicy(7)", RetryPolicy(7).String())
}
