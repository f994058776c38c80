// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	"fmt"
	"net"
	"strconv"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// BMCSpec defines the desired state of BMC.
type BMCSpec struct {
	// Endpoint contains the connection information for the management controller.
	// +required
	Endpoint Endpoint `json:"endpoint"`
}

// Endpoint contains the connection information for the management controller.
// +kubebuilder:validation:XValidation:rule="!has(oldSelf.secretRef) || has(self.secretRef)", message="SecretRef is required once set"
type Endpoint struct {
	// Address is the management address of the controller, an IP address or hostname
	// without a scheme or port.
	// +required
	// +kubebuilder:validation:MinLength=1
	// +kubebuilder:validation:MaxLength=253
	Address string `json:"address"`

	// Port is the HTTPS port of the controller's management interface.
	// +optional
	// +kubebuilder:default=443
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=65535
	Port int32 `json:"port"`

	// SecretRef is name of the authentication secret for the controller containing the
	// username and password. The secret must be of type kubernetes.io/basic-auth and as
	// such contain the following keys: 'username' and 'password'.
	// +optional
	SecretRef *SecretReference `json:"secretRef,omitempty"`

	// InsecureSkipVerify disables verification of the controller's TLS certificate.
	// Management controllers commonly ship with self-signed certificates.
	// +optional
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty"`
}

// URL returns the HTTPS base URL of the management endpoint.
func (e *Endpoint) URL() string {
	port := e.Port
	if port == 0 {
		port = 443
	}
	return fmt.Sprintf("https://%s", net.JoinHostPort(e.Address, strconv.Itoa(int(port))))
}

// BMCStatus defines the observed state of BMC.
type BMCStatus struct {
	// Manufacturer is the manufacturer of the managed server.
	// +optional
	Manufacturer string `json:"manufacturer,omitempty"`

	// Model is the model identifier of the management controller.
	// +optional
	Model string `json:"model,omitempty"`

	// FirmwareVersion is the firmware version running on the management controller.
	// +optional
	FirmwareVersion string `json:"firmwareVersion,omitempty"`

	// The conditions are a list of status objects that describe the state of the BMC.
	//+listType=map
	//+listMapKey=type
	//+patchStrategy=merge
	//+patchMergeKey=type
	//+optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=bmcs
// +kubebuilder:printcolumn:name="Address",type=string,JSONPath=`.spec.endpoint.address`
// +kubebuilder:printcolumn:name="Model",type=string,JSONPath=`.status.model`,priority=1
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].status`
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// BMC is the Schema for the bmcs API. It represents a single baseboard
// management controller reachable over its Redfish management interface.
type BMC struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Specification of the desired state of the resource.
	// +required
	Spec BMCSpec `json:"spec,omitempty"`

	// Status of the resource. This is set and updated automatically.
	// Read-only.
	// +optional
	Status BMCStatus `json:"status,omitempty,omitzero"`
}

// GetConditions implements conditions.Getter.
func (b *BMC) GetConditions() []metav1.Condition {
	return b.Status.Conditions
}

// SetConditions implements conditions.Setter.
func (b *BMC) SetConditions(conditions []metav1.Condition) {
	b.Status.Conditions = conditions
}

// +kubebuilder:object:root=true

// BMCList contains a list of BMC.
type BMCList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []BMC `json:"items"`
}

func init() {
	SchemeBuilder.Register(&BMC{}, &BMCList{})
}
