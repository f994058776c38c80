// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
)

var _ = Describe("SyslogForwarding Webhook", func() {
	var (
		obj       *v1alpha1.SyslogForwarding
		validator SyslogForwardingCustomValidator
	)

	BeforeEach(func() {
		obj = &v1alpha1.SyslogForwarding{
			Spec: v1alpha1.SyslogForwardingSpec{
				BMCRef: v1alpha1.LocalObjectReference{Name: "idrac1"},
				State:  v1alpha1.SyslogStateEnabled,
				Share: v1alpha1.NetworkShare{
					Path:       "192.168.0.2:/share",
					MountPoint: "/mnt/share",
				},
			},
		}
		validator = SyslogForwardingCustomValidator{}
	})

	Context("ValidateCreate share", func() {
		It("accepts an NFS share with a mount point", func() {
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).ToNot(HaveOccurred())
		})

		It("accepts a local path without a mount point", func() {
			obj.Spec.Share = v1alpha1.NetworkShare{Path: "/tmp/scp"}
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).ToNot(HaveOccurred())
		})

		It("accepts a CIFS share with a mount point and credentials", func() {
			obj.Spec.Share = v1alpha1.NetworkShare{
				Path:       `\\192.168.0.2\share`,
				MountPoint: "/mnt/share",
				SecretRef:  &v1alpha1.SecretReference{Name: "share-creds"},
			}
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects a path that matches no supported form", func() {
			obj.Spec.Share = v1alpha1.NetworkShare{Path: "garbage"}
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a network share without a mount point", func() {
			obj.Spec.Share.MountPoint = ""
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("mountPoint is required")))
		})

		It("rejects a CIFS share without credentials", func() {
			obj.Spec.Share = v1alpha1.NetworkShare{
				Path:       `\\192.168.0.2\share`,
				MountPoint: "/mnt/share",
			}
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("secretRef is required")))
		})
	})

	Context("ValidateUpdate share", func() {
		It("allows an unchanged valid share", func() {
			oldObj := obj.DeepCopy()
			_, err := validator.ValidateUpdate(ctx, oldObj, obj)
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects removing the mount point", func() {
			oldObj := obj.DeepCopy()
			obj.Spec.Share.MountPoint = ""
			_, err := validator.ValidateUpdate(ctx, oldObj, obj)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("ValidateDelete", func() {
		It("allows delete on SyslogForwarding objects", func() {
			_, err := validator.ValidateDelete(ctx, obj)
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects delete when the object type is wrong", func() {
			_, err := validator.ValidateDelete(ctx, &v1alpha1.SyslogForwardingList{})
			Expect(err).To(HaveOccurred())
		})
	})
})
