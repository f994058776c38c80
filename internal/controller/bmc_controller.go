// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	kerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/tools/record"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/bmcutil"
	"github.com/ironcore-dev/bmc-operator/internal/conditions"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

// BMCReconciler reconciles a BMC object
type BMCReconciler struct {
	client.Client
	Scheme *runtime.Scheme

	// WatchFilterValue is the label value used to filter events prior to reconciliation.
	WatchFilterValue string

	// Recorder is used to record events for the controller.
	// More info: https://book.kubebuilder.io/reference/raising-events
	Recorder record.EventRecorder

	// Provider is the driver that will be used to probe the management controller.
	Provider provider.ProviderFunc

	// RequeueInterval is the duration after which the controller should requeue the reconciliation,
	// regardless of changes.
	RequeueInterval time.Duration
}

// +kubebuilder:rbac:groups=bmc.ironcore.dev,resources=bmcs,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=bmc.ironcore.dev,resources=bmcs/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=core,resources=events,verbs=create;patch
// +kubebuilder:rbac:groups=core,resources=secrets,verbs=get;list;watch

// Reconcile is part of the main kubernetes reconciliation loop which aims to
// move the current state of the cluster closer to the desired state.
//
// For more details, check Reconcile and its Result here:
// - https://pkg.go.dev/sigs.k8s.io/controller-runtime@v0.21.0/pkg/reconcile
func (r *BMCReconciler) Reconcile(ctx context.Context, req ctrl.Request) (_ ctrl.Result, reterr error) {
	log := ctrl.LoggerFrom(ctx)
	log.Info("Reconciling resource")

	obj := new(v1alpha1.BMC)
	if err := r.Get(ctx, req.NamespacedName, obj); err != nil {
		if apierrors.IsNotFound(err) {
			log.Info("Resource not found. Ignoring since object must be deleted")
			return ctrl.Result{}, nil
		}
		log.Error(err, "Failed to get resource")
		return ctrl.Result{}, err
	}

	prov, ok := r.Provider().(provider.BMCProvider)
	if !ok {
		err := errors.New("provider does not implement BMCProvider interface")
		log.Error(err, "Failed to reconcile resource")
		return ctrl.Result{}, err
	}

	conn, err := bmcutil.GetBMCConnection(ctx, r, obj)
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("failed to obtain BMC connection: %w", err)
	}

	orig := obj.DeepCopy()
	if conditions.InitializeConditions(obj, v1alpha1.ReadyCondition) {
		log.Info("Initializing status conditions")
		return ctrl.Result{}, r.Status().Update(ctx, obj)
	}

	// Always attempt to update the status after reconciliation
	defer func() {
		if !equality.Semantic.DeepEqual(orig.Status, obj.Status) {
			if err := r.Status().Patch(ctx, obj, client.MergeFrom(orig)); err != nil {
				log.Error(err, "Failed to update status")
				reterr = kerrors.NewAggregate([]error{reterr, err})
			}
		}
	}()

	if err := r.reconcile(ctx, obj, prov, conn); err != nil {
		// Reachability is reflected in the conditions; the periodic requeue
		// picks the probe back up without entering the error backoff.
		if provider.IsUnreachable(err) {
			log.Info("BMC is unreachable, requeuing reconciliation", "Error", err.Error())
			return ctrl.Result{RequeueAfter: Jitter(r.RequeueInterval)}, nil
		}
		log.Error(err, "Failed to reconcile resource")
		return ctrl.Result{}, err
	}

	return ctrl.Result{RequeueAfter: Jitter(r.RequeueInterval)}, nil
}

// SetupWithManager sets up the controller with the Manager.
func (r *BMCReconciler) SetupWithManager(mgr ctrl.Manager) error {
	if r.RequeueInterval == 0 {
		return errors.New("requeue interval must not be 0")
	}

	labelSelector := metav1.LabelSelector{}
	if r.WatchFilterValue != "" {
		labelSelector.MatchLabels = map[string]string{v1alpha1.WatchLabel: r.WatchFilterValue}
	}

	filter, err := predicate.LabelSelectorPredicate(labelSelector)
	if err != nil {
		return fmt.Errorf("failed to create label selector predicate: %w", err)
	}

	return ctrl.NewControllerManagedBy(mgr).
		For(&v1alpha1.BMC{}).
		Named("bmc").
		WithEventFilter(filter).
		// Watches enqueues BMCs for referenced Secret resources.
		Watches(
			&corev1.Secret{},
			handler.EnqueueRequestsFromMapFunc(r.secretToBMCs),
			builder.WithPredicates(predicate.ResourceVersionChangedPredicate{}),
		).
		Complete(r)
}

func (r *BMCReconciler) reconcile(ctx context.Context, obj *v1alpha1.BMC, prov provider.BMCProvider, conn *bmcutil.Connection) (reterr error) {
	if err := prov.Connect(ctx, conn); err != nil {
		conditions.Set(obj, conditions.FromError(err))
		conditions.RecomputeReady(obj)
		return fmt.Errorf("failed to connect to provider: %w", err)
	}
	defer func() {
		if err := prov.Disconnect(ctx); err != nil {
			reterr = kerrors.NewAggregate([]error{reterr, err})
		}
	}()

	info, err := prov.GetControllerInfo(ctx)
	if err != nil {
		conditions.Set(obj, conditions.FromError(err))
		conditions.RecomputeReady(obj)
		return fmt.Errorf("failed to get controller details: %w", err)
	}

	obj.Status.Manufacturer = info.Manufacturer
	obj.Status.Model = info.Model
	obj.Status.FirmwareVersion = info.FirmwareVersion

	conditions.Set(obj, metav1.Condition{
		Type:    v1alpha1.ReadyCondition,
		Status:  metav1.ConditionTrue,
		Reason:  v1alpha1.ReadyReason,
		Message: "BMC is reachable",
	})

	return nil
}

// secretToBMCs is a [handler.MapFunc] to be used to enqueue requests for reconciliation
// for a BMC to update when its referenced Secret gets updated.
func (r *BMCReconciler) secretToBMCs(ctx context.Context, obj client.Object) []ctrl.Request {
	secret, ok := obj.(*corev1.Secret)
	if !ok {
		panic(fmt.Sprintf("Expected a Secret but got a %T", obj))
	}

	log := ctrl.LoggerFrom(ctx, "Secret", klog.KObj(secret))

	bmcs := new(v1alpha1.BMCList)
	if err := r.List(ctx, bmcs, client.InNamespace(secret.Namespace)); err != nil {
		log.Error(err, "Failed to list BMCs")
		return nil
	}

	requests := []ctrl.Request{}
	for _, bmc := range bmcs.Items {
		if ref := bmc.Spec.Endpoint.SecretRef; ref != nil && ref.Name == secret.Name {
			log.Info("Enqueuing BMC for reconciliation", "BMC", klog.KObj(&bmc))
			requests = append(requests, ctrl.Request{
				NamespacedName: client.ObjectKey{
					Name:      bmc.Name,
					Namespace: bmc.Namespace,
				},
			})
		}
	}

	return requests
}

// Jitter returns a randomized duration within +/- 10% of the given duration.
func Jitter(d time.Duration) time.Duration {
	r := rand.Float64() // #nosec G404
	return time.Duration(float64(d) * (0.9 + 0.2*r))
}
