// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package idrac

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"

	"github.com/stmcginnis/gofish/common"

	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

// translateError maps transport and Redfish errors onto the provider error
// taxonomy. Connectivity problems become [provider.UnreachableError], answered
// requests with an error status become [provider.HTTPError], anything else is
// passed through unchanged.
func translateError(endpoint string, err error) error {
	if err == nil {
		return nil
	}

	var redfishErr *common.Error
	if errors.As(err, &redfishErr) {
		// gofish decodes the inner error object and keeps the raw body
		// private, so the outer wrapper has to be restored to get the
		// Redfish error shape back.
		body, _ := json.Marshal(struct {
			Error *common.Error `json:"error"`
		}{redfishErr})
		return &provider.HTTPError{
			StatusCode: redfishErr.HTTPReturnedStatusCode,
			Body:       body,
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.As(err, &urlErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded):
		return &provider.UnreachableError{Endpoint: endpoint, Err: err}
	}
	return err
}
