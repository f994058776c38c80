// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
)

const (
	defaultTimeout = 5 * time.Second
	defaultPoll    = 150 * time.Millisecond
	testEndpointIP = "192.168.10.2"
)

// Helpers
func ensureBMC(key client.ObjectKey, spec v1alpha1.BMCSpec) *v1alpha1.BMC {
	bmc := &v1alpha1.BMC{}
	if err := k8sClient.Get(ctx, key, bmc); errors.IsNotFound(err) {
		bmc = &v1alpha1.BMC{
			ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
			Spec:       spec,
		}
		Expect(k8sClient.Create(ctx, bmc)).To(Succeed())
	} else {
		Expect(err).NotTo(HaveOccurred())
	}
	return bmc
}

func deleteAndWait(key client.ObjectKey, obj client.Object) {
	Expect(k8sClient.Get(ctx, key, obj)).NotTo(HaveOccurred())
	Expect(k8sClient.Delete(ctx, obj)).To(Succeed())
	Eventually(func() bool {
		return errors.IsNotFound(k8sClient.Get(ctx, key, obj))
	}, defaultTimeout, defaultPoll).Should(BeTrue(), "resource should be fully deleted")
}

var _ = Describe("BMC Controller", func() {
	Context("When reconciling a resource", func() {
		const (
			bmcName = "test-bmc"
			nsName  = metav1.NamespaceDefault
		)

		bmcKey := client.ObjectKey{Name: bmcName, Namespace: nsName}

		BeforeEach(func() {
			By("Creating the custom resource for the Kind BMC")
			ensureBMC(bmcKey, v1alpha1.BMCSpec{
				Endpoint: v1alpha1.Endpoint{Address: testEndpointIP, Port: 443},
			})
		})

		AfterEach(func() {
			deleteAndWait(bmcKey, &v1alpha1.BMC{})
		})

		It("Should successfully reconcile the resource", func() {
			By("Updating the resource status with the controller identity")
			Eventually(func(g Gomega) {
				bmc := &v1alpha1.BMC{}
				g.Expect(k8sClient.Get(ctx, bmcKey, bmc)).To(Succeed())
				g.Expect(bmc.Status.Manufacturer).To(Equal("Dell Inc."))
				g.Expect(bmc.Status.Model).To(Equal("14G Monolithic"))
				g.Expect(bmc.Status.FirmwareVersion).To(Equal("4.40.00.00"))
			}, defaultTimeout, defaultPoll).Should(Succeed())

			By("Setting the Ready condition")
			Eventually(func(g Gomega) {
				bmc := &v1alpha1.BMC{}
				g.Expect(k8sClient.Get(ctx, bmcKey, bmc)).To(Succeed())
				cond := meta.FindStatusCondition(bmc.Status.Conditions, v1alpha1.ReadyCondition)
				g.Expect(cond).NotTo(BeNil())
				g.Expect(cond.Status).To(Equal(metav1.ConditionTrue))
				g.Expect(cond.Reason).To(Equal(v1alpha1.ReadyReason))
			}, defaultTimeout, defaultPoll).Should(Succeed())
		})
	})
})
