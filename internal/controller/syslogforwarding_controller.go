// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	kerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/bmcutil"
	"github.com/ironcore-dev/bmc-operator/internal/clientutil"
	"github.com/ironcore-dev/bmc-operator/internal/conditions"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
	"github.com/ironcore-dev/bmc-operator/internal/resourcelock"
)

// SyslogForwardingReconciler reconciles a SyslogForwarding object
type SyslogForwardingReconciler struct {
	client.Client
	Scheme *runtime.Scheme

	// WatchFilterValue is the label value used to filter events prior to reconciliation.
	WatchFilterValue string

	// Recorder is used to record events for the controller.
	// More info: https://book.kubebuilder.io/reference/raising-events
	Recorder record.EventRecorder

	// Provider is the driver that will be used to realize the syslog configuration.
	Provider provider.ProviderFunc

	// Locker is used to synchronize operations on resources targeting the same BMC.
	Locker *resourcelock.BMCLocker
}

// +kubebuilder:rbac:groups=bmc.ironcore.dev,resources=syslogforwardings,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=bmc.ironcore.dev,resources=syslogforwardings/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=bmc.ironcore.dev,resources=syslogforwardings/finalizers,verbs=update
// +kubebuilder:rbac:groups=core,resources=secrets,verbs=get;list;watch
// +kubebuilder:rbac:groups=core,resources=events,verbs=create;patch

// Reconcile is part of the main kubernetes reconciliation loop which aims to
// move the current state of the cluster closer to the desired state.
//
// For more details, check Reconcile and its Result here:
// - https://pkg.go.dev/sigs.k8s.io/controller-runtime@v0.21.0/pkg/reconcile
func (r *SyslogForwardingReconciler) Reconcile(ctx context.Context, req ctrl.Request) (_ ctrl.Result, reterr error) {
	log := ctrl.LoggerFrom(ctx)
	log.Info("Reconciling resource")

	obj := new(v1alpha1.SyslogForwarding)
	if err := r.Get(ctx, req.NamespacedName, obj); err != nil {
		if apierrors.IsNotFound(err) {
			log.Info("Resource not found. Ignoring since object must be deleted")
			return ctrl.Result{}, nil
		}
		log.Error(err, "Failed to get resource")
		return ctrl.Result{}, err
	}

	prov, ok := r.Provider().(provider.SyslogProvider)
	if !ok {
		if meta.SetStatusCondition(&obj.Status.Conditions, metav1.Condition{
			Type:    v1alpha1.ReadyCondition,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.NotImplementedReason,
			Message: "Provider does not implement provider.SyslogProvider",
		}) {
			return ctrl.Result{}, r.Status().Update(ctx, obj)
		}
		return ctrl.Result{}, nil
	}

	bmc, err := bmcutil.GetBMCByName(ctx, r.Client, obj.Namespace, obj.Spec.BMCRef.Name)
	if err != nil {
		return ctrl.Result{}, err
	}

	release, err := r.Locker.Lock(ctx, bmc, "syslogforwarding-controller")
	if err != nil {
		if errors.Is(err, resourcelock.ErrLockAlreadyHeld) {
			log.Info("BMC is already locked, requeuing reconciliation")
			return ctrl.Result{RequeueAfter: time.Second * 5}, nil
		}
		log.Error(err, "Failed to acquire BMC lock")
		return ctrl.Result{}, err
	}
	defer func() {
		if err := release(ctx); err != nil {
			log.Error(err, "Failed to release BMC lock")
			reterr = kerrors.NewAggregate([]error{reterr, err})
		}
	}()

	conn, err := bmcutil.GetBMCConnection(ctx, r, bmc)
	if err != nil {
		return ctrl.Result{}, err
	}

	share, err := r.resolveShare(ctx, obj)
	if err != nil {
		return ctrl.Result{}, err
	}

	s := &syslogForwardingScope{
		BMC:              bmc,
		SyslogForwarding: obj,
		Connection:       conn,
		Share:            share,
		Provider:         prov,
	}

	if !obj.DeletionTimestamp.IsZero() {
		if controllerutil.ContainsFinalizer(obj, v1alpha1.FinalizerName) {
			if err := r.finalize(ctx, s); err != nil {
				log.Error(err, "Failed to finalize resource")
				return ctrl.Result{}, err
			}
			controllerutil.RemoveFinalizer(obj, v1alpha1.FinalizerName)
			if err := r.Update(ctx, obj); err != nil {
				log.Error(err, "Failed to remove finalizer from resource")
				return ctrl.Result{}, err
			}
		}
		log.Info("Resource is being deleted, skipping reconciliation")
		return ctrl.Result{}, nil
	}

	// More info: https://kubernetes.io/docs/concepts/overview/working-with-objects/finalizers
	if !controllerutil.ContainsFinalizer(obj, v1alpha1.FinalizerName) {
		controllerutil.AddFinalizer(obj, v1alpha1.FinalizerName)
		if err := r.Update(ctx, obj); err != nil {
			log.Error(err, "Failed to add finalizer to resource")
			return ctrl.Result{}, err
		}
		log.Info("Added finalizer to resource")
		return ctrl.Result{}, nil
	}

	orig := obj.DeepCopy()
	if conditions.InitializeConditions(obj, v1alpha1.ReadyCondition) {
		log.Info("Initializing status conditions")
		return ctrl.Result{}, r.Status().Update(ctx, obj)
	}

	// Always attempt to update the metadata/status after reconciliation
	defer func() {
		if !equality.Semantic.DeepEqual(orig.ObjectMeta, obj.ObjectMeta) {
			if err := r.Patch(ctx, obj, client.MergeFrom(orig)); err != nil {
				log.Error(err, "Failed to update resource metadata")
				reterr = kerrors.NewAggregate([]error{reterr, err})
			}
			return
		}

		if !equality.Semantic.DeepEqual(orig.Status, obj.Status) {
			if err := r.Status().Patch(ctx, obj, client.MergeFrom(orig)); err != nil {
				log.Error(err, "Failed to update status")
				reterr = kerrors.NewAggregate([]error{reterr, err})
			}
		}
	}()

	if err := r.reconcile(ctx, s); err != nil {
		// An unreachable controller is reflected in the conditions and retried
		// without entering the error backoff.
		if provider.IsUnreachable(err) {
			log.Info("BMC is unreachable, requeuing reconciliation", "Error", err.Error())
			return ctrl.Result{RequeueAfter: time.Minute}, nil
		}
		log.Error(err, "Failed to reconcile resource")
		return ctrl.Result{}, err
	}

	return ctrl.Result{}, nil
}

// SetupWithManager sets up the controller with the Manager.
func (r *SyslogForwardingReconciler) SetupWithManager(mgr ctrl.Manager) error {
	labelSelector := metav1.LabelSelector{}
	if r.WatchFilterValue != "" {
		labelSelector.MatchLabels = map[string]string{v1alpha1.WatchLabel: r.WatchFilterValue}
	}

	filter, err := predicate.LabelSelectorPredicate(labelSelector)
	if err != nil {
		return fmt.Errorf("failed to create label selector predicate: %w", err)
	}

	return ctrl.NewControllerManagedBy(mgr).
		For(&v1alpha1.SyslogForwarding{}).
		Named("syslogforwarding").
		WithEventFilter(filter).
		Complete(r)
}

// scope holds the different objects that are read and used during the reconcile.
type syslogForwardingScope struct {
	BMC              *v1alpha1.BMC
	SyslogForwarding *v1alpha1.SyslogForwarding
	Connection       *bmcutil.Connection
	Share            provider.Share
	Provider         provider.SyslogProvider
}

func (r *SyslogForwardingReconciler) reconcile(ctx context.Context, s *syslogForwardingScope) (reterr error) {
	if s.SyslogForwarding.Labels == nil {
		s.SyslogForwarding.Labels = make(map[string]string)
	}

	s.SyslogForwarding.Labels[v1alpha1.BMCLabel] = s.BMC.Name

	// Ensure the SyslogForwarding is owned by the BMC.
	if !controllerutil.HasControllerReference(s.SyslogForwarding) {
		if err := controllerutil.SetOwnerReference(s.BMC, s.SyslogForwarding, r.Scheme, controllerutil.WithBlockOwnerDeletion(true)); err != nil {
			return err
		}
	}

	if err := s.Provider.Connect(ctx, s.Connection); err != nil {
		conditions.Set(s.SyslogForwarding, conditions.FromError(err))
		return fmt.Errorf("failed to connect to provider: %w", err)
	}
	defer func() {
		if err := s.Provider.Disconnect(ctx); err != nil {
			reterr = kerrors.NewAggregate([]error{reterr, err})
		}
	}()

	result, err := s.Provider.EnsureSyslogForwarding(ctx, &provider.EnsureSyslogForwardingRequest{
		Forwarding: s.SyslogForwarding,
		Share:      s.Share,
	})

	cond := conditions.FromError(err)
	conditions.Set(s.SyslogForwarding, cond)
	conditions.RecomputeReady(s.SyslogForwarding)

	if result != nil {
		s.SyslogForwarding.Status.Changed = result.Changed
		s.SyslogForwarding.Status.Job = &v1alpha1.JobReference{
			ID:      result.JobID,
			State:   result.JobState,
			Message: result.Message,
		}
	}

	return err
}

// finalize reverts the forwarding feature before the object goes away. The
// toggle is disabled regardless of the desired state; disabling an already
// disabled feature is a no-op on the controller.
func (r *SyslogForwardingReconciler) finalize(ctx context.Context, s *syslogForwardingScope) (reterr error) {
	log := ctrl.LoggerFrom(ctx)

	if err := s.Provider.Connect(ctx, s.Connection); err != nil {
		if provider.IsUnreachable(err) {
			log.Info("BMC is unreachable during finalization, skipping cleanup", "Error", err.Error())
			return nil
		}
		return fmt.Errorf("failed to connect to provider: %w", err)
	}
	defer func() {
		if err := s.Provider.Disconnect(ctx); err != nil {
			reterr = kerrors.NewAggregate([]error{reterr, err})
		}
	}()

	obj := s.SyslogForwarding.DeepCopy()
	obj.Spec.State = v1alpha1.SyslogStateDisabled

	_, err := s.Provider.EnsureSyslogForwarding(ctx, &provider.EnsureSyslogForwardingRequest{
		Forwarding: obj,
		Share:      s.Share,
	})
	if provider.IsUnreachable(err) {
		log.Info("BMC is unreachable during finalization, skipping cleanup", "Error", err.Error())
		return nil
	}
	return err
}

// resolveShare turns the share descriptor of the object into a fully resolved
// share, reading credentials from the referenced secret.
func (r *SyslogForwardingReconciler) resolveShare(ctx context.Context, obj *v1alpha1.SyslogForwarding) (provider.Share, error) {
	share := provider.Share{
		Kind:       obj.Spec.Share.Kind(),
		Path:       obj.Spec.Share.Path,
		MountPoint: obj.Spec.Share.MountPoint,
	}

	if ref := obj.Spec.Share.SecretRef; ref != nil {
		c := clientutil.NewClient(r, obj.Namespace)
		user, pass, err := c.BasicAuth(ctx, ref)
		if err != nil {
			return provider.Share{}, fmt.Errorf("failed to resolve share credentials: %w", err)
		}
		share.Username = string(user)
		share.Password = string(pass)
	}

	return share, nil
}
