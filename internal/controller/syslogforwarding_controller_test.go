// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

// Helpers
func ensureSyslogForwarding(key client.ObjectKey, spec v1alpha1.SyslogForwardingSpec) *v1alpha1.SyslogForwarding {
	obj := &v1alpha1.SyslogForwarding{}
	if err := k8sClient.Get(ctx, key, obj); errors.IsNotFound(err) {
		obj = &v1alpha1.SyslogForwarding{
			ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
			Spec:       spec,
		}
		Expect(k8sClient.Create(ctx, obj)).To(Succeed())
	} else {
		Expect(err).NotTo(HaveOccurred())
	}
	return obj
}

// cleanupResource deletes the resource if it still exists and waits until it is gone.
func cleanupResource(key client.ObjectKey, obj client.Object) {
	if err := k8sClient.Get(ctx, key, obj); errors.IsNotFound(err) {
		return
	}
	Expect(client.IgnoreNotFound(k8sClient.Delete(ctx, obj))).To(Succeed())
	Eventually(func() bool {
		return errors.IsNotFound(k8sClient.Get(ctx, key, obj))
	}, defaultTimeout, defaultPoll).Should(BeTrue(), "resource should be fully deleted")
}

var _ = Describe("SyslogForwarding Controller", func() {
	const (
		bmcName = "syslog-bmc"
		nsName  = metav1.NamespaceDefault
	)

	bmcKey := client.ObjectKey{Name: bmcName, Namespace: nsName}

	newSpec := func(state v1alpha1.SyslogState) v1alpha1.SyslogForwardingSpec {
		return v1alpha1.SyslogForwardingSpec{
			BMCRef: v1alpha1.LocalObjectReference{Name: bmcName},
			State:  state,
			Share: v1alpha1.NetworkShare{
				Path:       "192.168.0.2:/share",
				MountPoint: "/mnt/share",
			},
		}
	}

	BeforeEach(func() {
		testProvider.Reset()

		By("Creating the BMC the forwarding object refers to")
		ensureBMC(bmcKey, v1alpha1.BMCSpec{
			Endpoint: v1alpha1.Endpoint{Address: testEndpointIP, Port: 443},
		})
	})

	AfterEach(func() {
		cleanupResource(bmcKey, &v1alpha1.BMC{})
	})

	Context("When reconciling a resource", func() {
		objKey := client.ObjectKey{Name: "test-forwarding", Namespace: nsName}

		BeforeEach(func() {
			By("Creating the custom resource for the Kind SyslogForwarding")
			ensureSyslogForwarding(objKey, newSpec(v1alpha1.SyslogStateEnabled))
		})

		AfterEach(func() {
			cleanupResource(objKey, &v1alpha1.SyslogForwarding{})
		})

		It("Should successfully reconcile the resource", func() {
			By("Adding the finalizer, BMC label and owner reference")
			Eventually(func(g Gomega) {
				obj := &v1alpha1.SyslogForwarding{}
				g.Expect(k8sClient.Get(ctx, objKey, obj)).To(Succeed())
				g.Expect(controllerutil.ContainsFinalizer(obj, v1alpha1.FinalizerName)).To(BeTrue())
				g.Expect(obj.Labels).To(HaveKeyWithValue(v1alpha1.BMCLabel, bmcName))
				g.Expect(obj.OwnerReferences).To(ContainElement(SatisfyAll(
					HaveField("Kind", "BMC"),
					HaveField("Name", bmcName),
				)))
			}, defaultTimeout, defaultPoll).Should(Succeed())

			By("Applying the configuration on the management controller")
			Eventually(func(g Gomega) {
				state := testProvider.SyslogState()
				g.Expect(state).NotTo(BeNil())
				g.Expect(*state).To(Equal(v1alpha1.SyslogStateEnabled))
			}, defaultTimeout, defaultPoll).Should(Succeed())
			Expect(testProvider.LastShare()).To(Equal(provider.Share{
				Kind:       v1alpha1.ShareKindNFS,
				Path:       "192.168.0.2:/share",
				MountPoint: "/mnt/share",
			}))

			By("Updating the resource status")
			Eventually(func(g Gomega) {
				obj := &v1alpha1.SyslogForwarding{}
				g.Expect(k8sClient.Get(ctx, objKey, obj)).To(Succeed())
				g.Expect(obj.Status.Changed).To(BeTrue())
				g.Expect(obj.Status.Job).NotTo(BeNil())
				g.Expect(obj.Status.Job.ID).To(Equal("JID_001"))
				g.Expect(obj.Status.Job.State).To(Equal("Completed"))

				ready := meta.FindStatusCondition(obj.Status.Conditions, v1alpha1.ReadyCondition)
				g.Expect(ready).NotTo(BeNil())
				g.Expect(ready.Status).To(Equal(metav1.ConditionTrue))
				configured := meta.FindStatusCondition(obj.Status.Conditions, v1alpha1.ConfiguredCondition)
				g.Expect(configured).NotTo(BeNil())
				g.Expect(configured.Status).To(Equal(metav1.ConditionTrue))
			}, defaultTimeout, defaultPoll).Should(Succeed())
		})

		It("Should disable the feature on the controller when the resource is deleted", func() {
			By("Waiting for the initial apply")
			Eventually(func(g Gomega) {
				state := testProvider.SyslogState()
				g.Expect(state).NotTo(BeNil())
				g.Expect(*state).To(Equal(v1alpha1.SyslogStateEnabled))
			}, defaultTimeout, defaultPoll).Should(Succeed())

			By("Deleting the custom resource")
			obj := &v1alpha1.SyslogForwarding{}
			Expect(k8sClient.Get(ctx, objKey, obj)).To(Succeed())
			Expect(k8sClient.Delete(ctx, obj)).To(Succeed())

			By("Disabling the feature and removing the finalizer")
			Eventually(func(g Gomega) {
				state := testProvider.SyslogState()
				g.Expect(state).NotTo(BeNil())
				g.Expect(*state).To(Equal(v1alpha1.SyslogStateDisabled))
				g.Expect(errors.IsNotFound(k8sClient.Get(ctx, objKey, &v1alpha1.SyslogForwarding{}))).To(BeTrue())
			}, defaultTimeout, defaultPoll).Should(Succeed())
		})
	})

	Context("When the controller reports no changes to commit", func() {
		objKey := client.ObjectKey{Name: "test-forwarding-unchanged", Namespace: nsName}

		BeforeEach(func() {
			testProvider.SetNoChanges(true)

			By("Creating the custom resource for the Kind SyslogForwarding")
			ensureSyslogForwarding(objKey, newSpec(v1alpha1.SyslogStateEnabled))
		})

		AfterEach(func() {
			cleanupResource(objKey, &v1alpha1.SyslogForwarding{})
		})

		It("Should report the resource as unchanged", func() {
			Eventually(func(g Gomega) {
				obj := &v1alpha1.SyslogForwarding{}
				g.Expect(k8sClient.Get(ctx, objKey, obj)).To(Succeed())
				g.Expect(obj.Status.Job).NotTo(BeNil())
				g.Expect(obj.Status.Job.Message).To(Equal("No changes found to commit!"))
				g.Expect(obj.Status.Changed).To(BeFalse())

				configured := meta.FindStatusCondition(obj.Status.Conditions, v1alpha1.ConfiguredCondition)
				g.Expect(configured).NotTo(BeNil())
				g.Expect(configured.Status).To(Equal(metav1.ConditionTrue))
			}, defaultTimeout, defaultPoll).Should(Succeed())
		})
	})
})
