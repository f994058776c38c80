// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package bmcutil provides helpers for resolving BMC objects and building connections to them.
package bmcutil

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/clientutil"
)

// ErrNoBMC is returned when the BMC label could not be found on the object passed in.
var ErrNoBMC = fmt.Errorf("no %q label present", v1alpha1.BMCLabel)

// GetBMCFromMetadata returns the BMC object referenced by the BMC label of the given object.
func GetBMCFromMetadata(ctx context.Context, c client.Client, obj metav1.Object) (*v1alpha1.BMC, error) {
	name, ok := obj.GetLabels()[v1alpha1.BMCLabel]
	if !ok || name == "" {
		return nil, ErrNoBMC
	}
	return GetBMCByName(ctx, c, obj.GetNamespace(), name)
}

// GetOwnerBMC returns the BMC object owning the current resource.
func GetOwnerBMC(ctx context.Context, c client.Client, obj metav1.Object) (*v1alpha1.BMC, error) {
	for _, ref := range obj.GetOwnerReferences() {
		if ref.Kind != v1alpha1.BMCKind {
			continue
		}
		gv, err := schema.ParseGroupVersion(ref.APIVersion)
		if err != nil {
			return nil, err
		}
		if gv.Group == v1alpha1.GroupVersion.Group {
			return GetBMCByName(ctx, c, obj.GetNamespace(), ref.Name)
		}
	}
	return nil, nil
}

// GetBMCByName finds and returns a BMC object using the specified selector.
func GetBMCByName(ctx context.Context, c client.Client, namespace, name string) (*v1alpha1.BMC, error) {
	obj := new(v1alpha1.BMC)
	if err := c.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, obj); err != nil {
		return nil, fmt.Errorf("failed to get %s/%s", v1alpha1.GroupVersion.WithKind(v1alpha1.BMCKind).String(), name)
	}
	return obj, nil
}

// Connection holds everything a provider needs to open a session to a
// management controller. The credentials are resolved from the referenced
// secret and must never be logged.
type Connection struct {
	// Endpoint is the HTTPS base URL of the management interface.
	Endpoint string

	// Username and Password authenticate against the management interface.
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// GetBMCConnection resolves the endpoint and credentials of the given BMC into a Connection.
func GetBMCConnection(ctx context.Context, r client.Reader, bmc *v1alpha1.BMC) (*Connection, error) {
	conn := &Connection{
		Endpoint:           bmc.Spec.Endpoint.URL(),
		InsecureSkipVerify: bmc.Spec.Endpoint.InsecureSkipVerify,
	}

	if ref := bmc.Spec.Endpoint.SecretRef; ref != nil {
		c := clientutil.NewClient(r, bmc.Namespace)
		user, pass, err := c.BasicAuth(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve credentials for BMC %q: %w", bmc.Name, err)
		}
		conn.Username = string(user)
		conn.Password = string(pass)
	}

	return conn, nil
}
