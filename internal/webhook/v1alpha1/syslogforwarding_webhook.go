// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
)

// log is for logging in this package.
var syslogforwardinglog = logf.Log.WithName("syslogforwarding-resource")

// SetupSyslogForwardingWebhookWithManager registers the webhook for SyslogForwarding in the manager.
func SetupSyslogForwardingWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(&v1alpha1.SyslogForwarding{}).
		WithValidator(&SyslogForwardingCustomValidator{}).
		Complete()
}

// +kubebuilder:webhook:path=/validate-bmc-ironcore-dev-v1alpha1-syslogforwarding,mutating=false,failurePolicy=Fail,sideEffects=None,groups=bmc.ironcore.dev,resources=syslogforwardings,verbs=create;update,versions=v1alpha1,name=syslogforwarding-v1alpha1.kb.io,admissionReviewVersions=v1
// SyslogForwardingCustomValidator struct is responsible for validating the SyslogForwarding resource
// when it is created, updated, or deleted.
type SyslogForwardingCustomValidator struct{}

var _ webhook.CustomValidator = &SyslogForwardingCustomValidator{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type SyslogForwarding.
func (v *SyslogForwardingCustomValidator) ValidateCreate(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	sf, ok := obj.(*v1alpha1.SyslogForwarding)
	if !ok {
		return nil, fmt.Errorf("expected a SyslogForwarding object but got %T", obj)
	}
	syslogforwardinglog.Info("Validation for SyslogForwarding upon creation", "name", sf.GetName())

	return nil, v.validateShare(&sf.Spec.Share)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type SyslogForwarding.
func (v *SyslogForwardingCustomValidator) ValidateUpdate(_ context.Context, _, newObj runtime.Object) (admission.Warnings, error) {
	sf, ok := newObj.(*v1alpha1.SyslogForwarding)
	if !ok {
		return nil, fmt.Errorf("expected a SyslogForwarding object for the newObj but got %T", newObj)
	}
	syslogforwardinglog.Info("Validation for SyslogForwarding upon update", "name", sf.GetName())

	return nil, v.validateShare(&sf.Spec.Share)
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type SyslogForwarding.
func (v *SyslogForwardingCustomValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	_, ok := obj.(*v1alpha1.SyslogForwarding)
	if !ok {
		return nil, fmt.Errorf("expected a SyslogForwarding object but got %T", obj)
	}

	return nil, nil
}

// validateShare checks the constraints of the share that cannot be expressed in the
// CRD schema: the path must classify to one of the supported forms, network shares
// need a local mount point and CIFS shares need credentials.
func (v *SyslogForwardingCustomValidator) validateShare(share *v1alpha1.NetworkShare) error {
	kind := share.Kind()
	if kind == v1alpha1.ShareKindUnknown {
		return fmt.Errorf("%q is not an NFS path, a CIFS path or an absolute local path", share.Path)
	}
	if share.IsNetworkShare() && share.MountPoint == "" {
		return fmt.Errorf("mountPoint is required for %s shares", kind)
	}
	if kind == v1alpha1.ShareKindCIFS && share.SecretRef == nil {
		return fmt.Errorf("secretRef is required for CIFS shares")
	}
	return nil
}
