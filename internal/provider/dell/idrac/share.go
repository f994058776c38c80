// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package idrac

import (
	"fmt"
	"strings"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

// ShareParameters is the share block of a Server Configuration Profile
// import or preview request.
type ShareParameters struct {
	// Target selects the configuration scope. "ALL" covers every component.
	Target string `json:"Target"`

	IPAddress string `json:"IPAddress,omitempty"`
	ShareName string `json:"ShareName,omitempty"`
	ShareType string `json:"ShareType,omitempty"`
	Username  string `json:"Username,omitempty"`
	Password  string `json:"Password,omitempty"`
}

// shareParametersFrom maps a resolved share onto the wire representation the
// controller expects. Network share paths are split into the exporting host
// and the share name.
func shareParametersFrom(share provider.Share) (*ShareParameters, error) {
	params := &ShareParameters{Target: "ALL"}

	switch share.Kind {
	case v1alpha1.ShareKindNFS:
		host, name, ok := strings.Cut(share.Path, ":/")
		if !ok || host == "" {
			return nil, fmt.Errorf("invalid NFS share path %q, expected 'host:/path'", share.Path)
		}
		params.IPAddress = host
		params.ShareName = "/" + name
		params.ShareType = "NFS"

	case v1alpha1.ShareKindCIFS:
		trimmed := strings.TrimPrefix(share.Path, `\\`)
		host, name, ok := strings.Cut(trimmed, `\`)
		if !ok || host == "" || name == "" {
			return nil, fmt.Errorf(`invalid CIFS share path %q, expected '\\host\share'`, share.Path)
		}
		params.IPAddress = host
		params.ShareName = name
		params.ShareType = "CIFS"
		if share.Username == "" {
			return nil, fmt.Errorf("CIFS share %q requires credentials", share.Path)
		}

	case v1alpha1.ShareKindLocal:
		// Controller-local staging, nothing to resolve.

	default:
		return nil, fmt.Errorf("unsupported share path %q", share.Path)
	}

	params.Username = share.Username
	params.Password = share.Password
	return params, nil
}
