// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
)

const badBodyTypeMsg = "gsclient/request: invalid type (for binary data use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)"

// BodyBytes converts a generic binary data parameter to a byte slice
// for use as a binary upload.
//
// The data parameter may be nil, or it may be a string, []byte,
// io.Reader, or io.ReadCloser. A reader is read to the end, and closed
// if it is an io.ReadCloser. Any other type produces an error.
func BodyBytes(data interface{}) ([]byte, error) {
	switch x := data.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}
