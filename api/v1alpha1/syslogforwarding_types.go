// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// SyslogState represents the desired state of the syslog forwarding feature.
// +kubebuilder:validation:Enum=Enabled;Disabled
type SyslogState string

const (
	SyslogStateEnabled  SyslogState = "Enabled"
	SyslogStateDisabled SyslogState = "Disabled"
)

// SyslogForwardingSpec defines the desired state of SyslogForwarding.
type SyslogForwardingSpec struct {
	// BMCRef is the name of the BMC this object belongs to. The BMC object must exist
	// in the same namespace.
	// Immutable.
	// +required
	// +kubebuilder:validation:XValidation:rule="self == oldSelf",message="BMCRef is immutable"
	BMCRef LocalObjectReference `json:"bmcRef"`

	// State enables or disables forwarding of the controller's logs to the configured
	// syslog servers.
	// +optional
	// +kubebuilder:default=Enabled
	State SyslogState `json:"state"`

	// Share is the staging location the management controller uses to read and write
	// configuration profiles while the change is applied.
	// +required
	Share NetworkShare `json:"share"`
}

// ShareKind classifies the form of a share path.
type ShareKind string

const (
	// ShareKindNFS is a network share in 'host:/path' form.
	ShareKindNFS ShareKind = "NFS"
	// ShareKindCIFS is a network share in '\\host\share' form.
	ShareKindCIFS ShareKind = "CIFS"
	// ShareKindLocal is a directory on the controller-local filesystem.
	ShareKindLocal ShareKind = "Local"
	// ShareKindUnknown marks a path that matches none of the supported forms.
	ShareKindUnknown ShareKind = "Unknown"
)

// NetworkShare describes a staging location for configuration profiles. It is either a
// network share (NFS or CIFS) or a local directory path.
type NetworkShare struct {
	// Path is the share location: 'host:/path' for NFS, '\\host\share' for CIFS, or an
	// absolute local directory path.
	// +required
	// +kubebuilder:validation:MinLength=1
	Path string `json:"path"`

	// MountPoint is the local mount path of the network share with read-write
	// permission. Required for network shares, ignored for local paths.
	// +optional
	MountPoint string `json:"mountPoint,omitempty"`

	// SecretRef is the name of the authentication secret for the share. The secret must
	// be of type kubernetes.io/basic-auth. Required for CIFS shares; the username uses
	// the 'user@domain' or 'domain\user' format if the user is part of a domain.
	// +optional
	SecretRef *SecretReference `json:"secretRef,omitempty"`
}

// Kind classifies the share path into one of the supported forms.
func (s *NetworkShare) Kind() ShareKind {
	switch {
	case strings.HasPrefix(s.Path, `\\`):
		return ShareKindCIFS
	case strings.Contains(s.Path, ":/"):
		return ShareKindNFS
	case strings.HasPrefix(s.Path, "/"):
		return ShareKindLocal
	default:
		return ShareKindUnknown
	}
}

// IsNetworkShare reports whether the share requires a local mount point.
func (s *NetworkShare) IsNetworkShare() bool {
	kind := s.Kind()
	return kind == ShareKindNFS || kind == ShareKindCIFS
}

// JobReference records the configuration job the management controller ran for the
// last applied change.
type JobReference struct {
	// ID is the controller-local job identifier.
	// +optional
	ID string `json:"id,omitempty"`

	// State is the final state the job reported.
	// +optional
	State string `json:"state,omitempty"`

	// Message is the human-readable completion message of the job.
	// +optional
	Message string `json:"message,omitempty"`
}

// SyslogForwardingStatus defines the observed state of SyslogForwarding.
type SyslogForwardingStatus struct {
	// Changed reports whether the last reconciliation modified the controller
	// configuration. It is false when the controller reported that there were no
	// changes to commit.
	// +optional
	Changed bool `json:"changed,omitempty"`

	// Job references the configuration job of the last apply.
	// +optional
	Job *JobReference `json:"job,omitempty"`

	// The conditions are a list of status objects that describe the state of the
	// SyslogForwarding.
	//+listType=map
	//+listMapKey=type
	//+patchStrategy=merge
	//+patchMergeKey=type
	//+optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=syslogforwardings
// +kubebuilder:printcolumn:name="BMC",type=string,JSONPath=`.spec.bmcRef.name`
// +kubebuilder:printcolumn:name="State",type=string,JSONPath=`.spec.state`
// +kubebuilder:printcolumn:name="Changed",type=boolean,JSONPath=`.status.changed`,priority=1
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// SyslogForwarding is the Schema for the syslogforwardings API. It toggles the syslog
// forwarding feature of a management controller.
type SyslogForwarding struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Specification of the desired state of the resource.
	// +required
	Spec SyslogForwardingSpec `json:"spec,omitempty"`

	// Status of the resource. This is set and updated automatically.
	// Read-only.
	// +optional
	Status SyslogForwardingStatus `json:"status,omitempty,omitzero"`
}

// GetConditions implements conditions.Getter.
func (sf *SyslogForwarding) GetConditions() []metav1.Condition {
	return sf.Status.Conditions
}

// SetConditions implements conditions.Setter.
func (sf *SyslogForwarding) SetConditions(conditions []metav1.Condition) {
	sf.Status.Conditions = conditions
}

// +kubebuilder:object:root=true

// SyslogForwardingList contains a list of SyslogForwarding.
type SyslogForwardingList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []SyslogForwarding `json:"items"`
}

func init() {
	SchemeBuilder.Register(&SyslogForwarding{}, &SyslogForwardingList{})
}
