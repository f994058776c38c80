// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package idrac implements the provider interfaces for Dell iDRAC management
// controllers using the Redfish API.
package idrac

import (
	"context"
	"errors"
	"fmt"

	"github.com/stmcginnis/gofish"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/bmcutil"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

// API Object Annotations to set iDRAC specific attributes.
const (
	// This annotation can be set to true to preview the configuration changes
	// without applying them to the controller.
	DryRunAnnotation = "idrac.dell.bmc.ironcore.dev/dry-run"
)

var (
	_ provider.Provider       = &Provider{}
	_ provider.BMCProvider    = &Provider{}
	_ provider.SyslogProvider = &Provider{}
)

type Provider struct {
	client   *gofish.APIClient
	endpoint string
}

func NewProvider() provider.Provider {
	return &Provider{}
}

func (p *Provider) Connect(ctx context.Context, conn *bmcutil.Connection) error {
	client, err := gofish.ConnectContext(ctx, gofish.ClientConfig{
		Endpoint: conn.Endpoint,
		Username: conn.Username,
		Password: conn.Password,
		Insecure: conn.InsecureSkipVerify,
		// Session tokens are not worth the bookkeeping for the handful of
		// requests a single reconcile makes.
		BasicAuth: true,
	})
	if err != nil {
		return translateError(conn.Endpoint, fmt.Errorf("failed to connect: %w", err))
	}
	p.client = client
	p.endpoint = conn.Endpoint
	return nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	p.client.Logout()
	p.client = nil
	return nil
}

func (p *Provider) GetControllerInfo(ctx context.Context) (*provider.ControllerInfo, error) {
	if p.client == nil {
		return nil, errors.New("client is not connected")
	}

	managers, err := p.client.Service.Managers()
	if err != nil {
		return nil, translateError(p.endpoint, fmt.Errorf("failed to list managers: %w", err))
	}
	if len(managers) == 0 {
		return nil, errors.New("controller reports no managers")
	}

	m := managers[0]
	return &provider.ControllerInfo{
		Manufacturer:    m.Manufacturer,
		Model:           m.Model,
		FirmwareVersion: m.FirmwareVersion,
	}, nil
}

func (p *Provider) EnsureSyslogForwarding(ctx context.Context, req *provider.EnsureSyslogForwardingRequest) (*provider.ApplyResult, error) {
	if p.client == nil {
		return nil, errors.New("client is not connected")
	}

	cm := NewConfigManager(p.client)
	if err := cm.SetLiaisonShare(req.Share); err != nil {
		return nil, err
	}

	dryRun := req.DryRun
	if v, ok := req.Forwarding.Annotations[DryRunAnnotation]; ok && v == "true" {
		dryRun = true
	}

	// The desired state alone decides which toggle is issued; the current
	// controller configuration is not consulted.
	apply := !dryRun
	var result *provider.ApplyResult
	var err error
	if req.Forwarding.Spec.State == v1alpha1.SyslogStateDisabled {
		result, err = cm.DisableSyslog(ctx, apply)
	} else {
		result, err = cm.EnableSyslog(ctx, apply)
	}
	if err != nil {
		// A failed configuration job still carries the job reference and
		// its final message, keep them for the caller's status.
		return result, translateError(p.endpoint, err)
	}

	if dryRun {
		result, err = cm.IsChangeApplicable(ctx)
		if err != nil {
			return result, translateError(p.endpoint, err)
		}
	}
	return result, nil
}

func init() {
	provider.Register("dell-idrac-redfish", NewProvider)
}
