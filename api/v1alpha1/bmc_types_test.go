// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	"testing"
)

func TestEndpoint_URL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		want     string
	}{
		{
			name:     "explicit port",
			endpoint: Endpoint{Address: "192.168.0.1", Port: 8443},
			want:     "https://192.168.0.1:8443",
		},
		{
			name:     "default port",
			endpoint: Endpoint{Address: "192.168.0.1"},
			want:     "https://192.168.0.1:443",
		},
		{
			name:     "hostname",
			endpoint: Endpoint{Address: "drac-r640-01.example.com", Port: 443},
			want:     "https://drac-r640-01.example.com:443",
		},
		{
			name:     "IPv6 address",
			endpoint: Endpoint{Address: "2001:db8::1", Port: 443},
			want:     "https://[2001:db8::1]:443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.endpoint.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}
