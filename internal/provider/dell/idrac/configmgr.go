// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package idrac

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"

	cp "github.com/felix-kaestner/copy"
	"github.com/go-logr/logr"
	"github.com/stmcginnis/gofish"
	"github.com/tidwall/gjson"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

const (
	managerURI    = "/redfish/v1/Managers/iDRAC.Embedded.1"
	importAction  = managerURI + "/Actions/Oem/EID_674_Manager.ImportSystemConfiguration"
	previewAction = managerURI + "/Actions/Oem/EID_674_Manager.ImportSystemConfigurationPreview"

	// componentFQDD addresses the controller itself in a configuration profile.
	componentFQDD = "iDRAC.Embedded.1"

	// attrSyslogEnable is the controller attribute toggling syslog forwarding.
	attrSyslogEnable = "SysLog.1#SysLogEnable"

	// noChangesMessage is the completion message a successful job reports when
	// the imported profile matched the running configuration. The firmware
	// phrasing is matched verbatim; there is no structured marker for this
	// outcome.
	noChangesMessage = "No changes found to commit!"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultWaitTimeout  = 10 * time.Minute
)

// SystemConfiguration is a Server Configuration Profile document.
type SystemConfiguration struct {
	XMLName    xml.Name    `xml:"SystemConfiguration"`
	Components []Component `xml:"Component"`
}

type Component struct {
	FQDD       string      `xml:"FQDD,attr"`
	Attributes []Attribute `xml:"Attribute"`
}

type Attribute struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// importRequest is the payload of the import and preview actions.
type importRequest struct {
	ImportBuffer    string           `json:"ImportBuffer"`
	ShareParameters *ShareParameters `json:"ShareParameters"`
	ShutdownType    string           `json:"ShutdownType,omitempty"`
}

// ConfigManager stages attribute changes and commits them through Server
// Configuration Profile imports. Changes accumulate until they are applied or
// previewed; neither operation reads the current controller configuration.
type ConfigManager struct {
	client *gofish.APIClient

	share    *ShareParameters
	pending  map[string]string
	interval time.Duration
	timeout  time.Duration
}

func NewConfigManager(client *gofish.APIClient) *ConfigManager {
	return &ConfigManager{
		client:   client,
		pending:  make(map[string]string),
		interval: defaultPollInterval,
		timeout:  defaultWaitTimeout,
	}
}

// SetLiaisonShare validates and records the staging share used for
// configuration profiles. It must be called before any change is committed.
func (m *ConfigManager) SetLiaisonShare(share provider.Share) error {
	if share.Kind == v1alpha1.ShareKindUnknown {
		return fmt.Errorf("unsupported share path %q", share.Path)
	}
	params, err := shareParametersFrom(share)
	if err != nil {
		return err
	}
	m.share = params
	return nil
}

// EnableSyslog stages the syslog forwarding attribute to Enabled. With apply
// set, the staged changes are committed to the controller.
func (m *ConfigManager) EnableSyslog(ctx context.Context, apply bool) (*provider.ApplyResult, error) {
	m.pending[attrSyslogEnable] = "Enabled"
	if !apply {
		return &provider.ApplyResult{Status: "Success", Message: "Changes staged"}, nil
	}
	return m.commit(ctx)
}

// DisableSyslog stages the syslog forwarding attribute to Disabled. With apply
// set, the staged changes are committed to the controller.
func (m *ConfigManager) DisableSyslog(ctx context.Context, apply bool) (*provider.ApplyResult, error) {
	m.pending[attrSyslogEnable] = "Disabled"
	if !apply {
		return &provider.ApplyResult{Status: "Success", Message: "Changes staged"}, nil
	}
	return m.commit(ctx)
}

// IsChangeApplicable previews the staged changes without applying them. The
// staged changes remain pending afterwards.
func (m *ConfigManager) IsChangeApplicable(ctx context.Context) (*provider.ApplyResult, error) {
	req, err := m.buildRequest()
	if err != nil {
		return nil, err
	}

	// The preview payload is the apply payload minus the shutdown directive.
	preview := cp.Deep(req)
	preview.ShutdownType = ""

	return m.runJob(ctx, previewAction, preview)
}

// commit imports the staged changes and clears them on success.
func (m *ConfigManager) commit(ctx context.Context) (*provider.ApplyResult, error) {
	req, err := m.buildRequest()
	if err != nil {
		return nil, err
	}
	result, err := m.runJob(ctx, importAction, req)
	if err != nil {
		return result, err
	}
	m.pending = make(map[string]string)
	return result, nil
}

func (m *ConfigManager) buildRequest() (*importRequest, error) {
	if m.share == nil {
		return nil, errors.New("no liaison share set")
	}
	if len(m.pending) == 0 {
		return nil, errors.New("no changes staged")
	}

	// Deterministic attribute ordering keeps the import buffer stable.
	component := Component{FQDD: componentFQDD}
	for _, name := range slices.Sorted(maps.Keys(m.pending)) {
		component.Attributes = append(component.Attributes, Attribute{
			Name:  name,
			Value: m.pending[name],
		})
	}
	buffer, err := xml.Marshal(SystemConfiguration{Components: []Component{component}})
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration profile: %w", err)
	}

	return &importRequest{
		ImportBuffer:    string(buffer),
		ShareParameters: m.share,
		// Attribute-only changes never need the host to cycle.
		ShutdownType: "NoReboot",
	}, nil
}

// runJob posts the given action and waits for the resulting job to reach a
// terminal state.
func (m *ConfigManager) runJob(ctx context.Context, action string, req *importRequest) (*provider.ApplyResult, error) {
	resp, err := m.client.Post(action, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("controller accepted %s without a job location", action)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.waitForJob(ctx, location)
}

// waitForJob polls the job monitor until the job is terminal or ctx expires.
func (m *ConfigManager) waitForJob(ctx context.Context, location string) (*provider.ApplyResult, error) {
	log := logr.FromContextOrDiscard(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		result, done, err := m.pollJob(location)
		if err != nil {
			return nil, err
		}
		if done {
			if result.Status != "Success" {
				return result, fmt.Errorf("configuration job %s failed: %s", result.JobID, result.Message)
			}
			log.V(1).Info("Configuration job finished", "Job", result.JobID, "Message", result.Message)
			return result, nil
		}
		log.V(1).Info("Waiting for configuration job", "Monitor", location)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for configuration job: %w", ctx.Err())
		}
	}
}

func (m *ConfigManager) pollJob(location string) (*provider.ApplyResult, bool, error) {
	resp, err := m.client.Get(location)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close() //nolint:errcheck

	// 202 means the job monitor itself is still pending.
	if resp.StatusCode == http.StatusAccepted {
		return nil, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read job monitor response: %w", err)
	}

	job := gjson.ParseBytes(body)
	state := job.Get(`Oem.Dell.JobState`).String()
	if state == "" {
		state = job.Get("TaskState").String()
	}

	switch state {
	case "Completed", "Failed", "CompletedWithErrors":
	default:
		return nil, false, nil
	}

	message := job.Get(`Oem.Dell.Message`).String()
	if message == "" {
		message = job.Get("Messages.0.Message").String()
	}

	status := "Failed"
	if state == "Completed" {
		status = "Success"
	}

	return &provider.ApplyResult{
		JobID:    job.Get("Id").String(),
		JobState: state,
		Status:   status,
		Message:  message,
		Changed:  status == "Success" && message != noChangesMessage,
	}, true, nil
}
