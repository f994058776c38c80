// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0
package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrUnimplemented is returned by providers for operations they do not support.
var ErrUnimplemented = errors.New("unimplemented")

// HTTPError is a hard failure: the controller answered, but with an error
// status. The raw response body is kept so callers can surface the
// controller's own diagnostics.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("controller returned status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("controller returned status %d", e.StatusCode)
}

// Message extracts the most specific human-readable message from the error
// body. Redfish error payloads nest the useful text under extended info.
func (e *HTTPError) Message() string {
	body := gjson.ParseBytes(e.Body)
	if msg := body.Get(`error.@Message\.ExtendedInfo.0.Message`); msg.Exists() {
		return msg.String()
	}
	return body.Get("error.message").String()
}

// Info returns the decoded JSON error body, or nil when the body is not
// valid JSON.
func (e *HTTPError) Info() map[string]any {
	var info map[string]any
	if err := json.Unmarshal(e.Body, &info); err != nil {
		return nil
	}
	return info
}

// UnreachableError indicates the controller could not be reached at all:
// connection refused, timeout, DNS failure. It is a transient condition,
// not a configuration failure.
type UnreachableError struct {
	Endpoint string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("controller %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err wraps an [UnreachableError].
func IsUnreachable(err error) bool {
	var u *UnreachableError
	return errors.As(err, &u)
}
