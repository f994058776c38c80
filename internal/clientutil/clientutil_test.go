// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package clientutil

import (
	"testing"

	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
)

func TestGetDefaultNamespace(t *testing.T) {
	g := NewWithT(t)

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "credentials",
			Namespace: "bmc-system",
		},
	}

	c := NewClient(fake.NewClientBuilder().
		WithScheme(scheme.Scheme).
		WithObjects(secret).
		Build(), "bmc-system")

	var out corev1.Secret
	err := c.Get(t.Context(), client.ObjectKey{Name: "credentials"}, &out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Namespace).To(Equal("bmc-system"))
}

func TestSecret(t *testing.T) {
	g := NewWithT(t)

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "share-credentials",
			Namespace: metav1.NamespaceDefault,
		},
		Data: map[string][]byte{
			"username": []byte("share-user"),
		},
		StringData: map[string]string{
			"password": "share-pass",
		},
	}

	c := NewClient(fake.NewClientBuilder().
		WithScheme(scheme.Scheme).
		WithObjects(secret).
		Build(), metav1.NamespaceDefault)

	ref := &v1alpha1.SecretReference{Name: "share-credentials"}

	data, err := c.Secret(t.Context(), ref, "username")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(data).To(Equal([]byte("share-user")))

	_, err = c.Secret(t.Context(), ref, "missing")
	g.Expect(err).To(MatchError(ContainSubstring("missing field")))

	_, err = c.Secret(t.Context(), &v1alpha1.SecretReference{Name: "absent"}, "username")
	g.Expect(err).To(MatchError(ContainSubstring("failed to get secret")))
}

func TestBasicAuth(t *testing.T) {
	g := NewWithT(t)

	valid := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "bmc-credentials",
			Namespace: metav1.NamespaceDefault,
		},
		Type: corev1.SecretTypeBasicAuth,
		Data: map[string][]byte{
			corev1.BasicAuthUsernameKey: []byte("root"),
			corev1.BasicAuthPasswordKey: []byte("calvin"),
		},
	}
	wrongType := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "opaque",
			Namespace: metav1.NamespaceDefault,
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			corev1.BasicAuthUsernameKey: []byte("root"),
			corev1.BasicAuthPasswordKey: []byte("calvin"),
		},
	}
	missingPassword := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "incomplete",
			Namespace: metav1.NamespaceDefault,
		},
		Type: corev1.SecretTypeBasicAuth,
		Data: map[string][]byte{
			corev1.BasicAuthUsernameKey: []byte("root"),
		},
	}

	c := NewClient(fake.NewClientBuilder().
		WithScheme(scheme.Scheme).
		WithObjects(valid, wrongType, missingPassword).
		Build(), metav1.NamespaceDefault)

	user, pass, err := c.BasicAuth(t.Context(), &v1alpha1.SecretReference{Name: "bmc-credentials"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(user).To(Equal([]byte("root")))
	g.Expect(pass).To(Equal([]byte("calvin")))

	_, _, err = c.BasicAuth(t.Context(), &v1alpha1.SecretReference{Name: "opaque"})
	g.Expect(err).To(MatchError(ContainSubstring("unsupported secret type")))

	_, _, err = c.BasicAuth(t.Context(), &v1alpha1.SecretReference{Name: "incomplete"})
	g.Expect(err).To(MatchError(ContainSubstring("missing field 'password'")))
}
