// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package v1alpha1 contains API Schema definitions for the bmc.ironcore.dev v1alpha1 API group.
// +kubebuilder:validation:Required
// +kubebuilder:object:generate=true
// +groupName=bmc.ironcore.dev
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is group version used to register these objects.
	GroupVersion = schema.GroupVersion{Group: "bmc.ironcore.dev", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)

// WatchLabel is a label that can be applied to any BMC API object.
//
// Controllers which allow for selective reconciliation may check this label and proceed
// with reconciliation of the object only if this label and a configured value is present.
const WatchLabel = "bmc.ironcore.dev/watch-filter"

// FinalizerName is the identifier used by the controllers to perform cleanup before a resource is deleted.
// It is added when the resource is created and ensures that the controller can handle teardown logic
// before Kubernetes finalizes the deletion.
const FinalizerName = "bmc.ironcore.dev/finalizer"

// BMCLabel is a label applied to any BMC API object to indicate the management
// controller it is associated with. This label is used by controllers to filter and
// manage resources based on the controller they are intended for.
const BMCLabel = "bmc.ironcore.dev/bmc-name"

// BMCKind represents the Kind of BMC.
const BMCKind = "BMC"

// Condition types that are used across different objects.
const (
	// ReadyCondition is the top-level status condition that reports if an object is ready.
	ReadyCondition = "Ready"

	// ConfiguredCondition indicates whether the desired configuration has been applied to
	// the management controller (i.e., the configuration job finished successfully).
	ConfiguredCondition = "Configured"
)

// Reasons that are used across different objects.
const (
	// ReadyReason indicates that the resource is ready for use.
	ReadyReason = "Ready"

	// NotReadyReason indicates that the resource is not ready for use.
	NotReadyReason = "NotReady"

	// ReconcilePendingReason indicates that the controller is waiting for resources to be reconciled.
	ReconcilePendingReason = "ReconcilePending"

	// NotImplementedReason indicates that the provider does not implement the required
	// functionality to support the resource.
	NotImplementedReason = "NotImplemented"

	// ConfiguredReason indicates that the resource has been successfully configured.
	ConfiguredReason = "Configured"

	// ErrorReason indicates that an error occurred while reconciling the resource.
	ErrorReason = "Error"
)

// Reasons that are specific to the connection to the management controller.
const (
	// BMCUnreachableReason indicates that the management controller could not be reached.
	// Connectivity problems are reported through this reason instead of failing the
	// reconcile, so the resource is retried without entering an error backoff.
	BMCUnreachableReason = "BMCUnreachable"

	// BMCUnauthenticatedReason indicates that the management controller rejected the
	// provided credentials.
	BMCUnauthenticatedReason = "BMCUnauthenticated"

	// HTTPErrorReason indicates that the management controller answered a request with
	// an HTTP-level error. The decoded error body is attached to the condition message.
	HTTPErrorReason = "HTTPError"
)
