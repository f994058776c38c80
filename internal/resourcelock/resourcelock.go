// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package resourcelock serializes access to management controllers using Leases.
//
// A controller accepts a single configuration job at a time; concurrent pushes
// from different reconcilers fail halfway through. Each BMC therefore gets one
// Lease, and whoever holds it is the only writer until the lock is released or
// the lease expires.
package resourcelock

import (
	"context"
	"errors"
	"fmt"
	"time"

	coordinationv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
)

// +kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;list;watch;create;update;delete

// ErrLockAlreadyHeld is returned when the BMC is locked by another holder.
var ErrLockAlreadyHeld = errors.New("resourcelock: lock is held by another holder")

// ReleaseFunc releases a held lock and stops its renewal.
type ReleaseFunc func(context.Context) error

// BMCLocker hands out per-BMC locks backed by coordination.k8s.io/v1 Leases.
// A held lock is renewed in the background until released or until the
// acquiring context is cancelled.
type BMCLocker struct {
	client               client.Client
	leaseDurationSeconds int32
	renewPeriod          time.Duration
}

// NewBMCLocker creates a BMCLocker. The renewPeriod must be shorter than
// leaseDuration so a held lease is renewed before it expires.
func NewBMCLocker(c client.Client, leaseDuration, renewPeriod time.Duration) (*BMCLocker, error) {
	if renewPeriod >= leaseDuration {
		return nil, fmt.Errorf("resourcelock: renewPeriod (%v) must be shorter than leaseDuration (%v)", renewPeriod, leaseDuration)
	}
	return &BMCLocker{
		client:               c,
		leaseDurationSeconds: int32(leaseDuration.Seconds()),
		renewPeriod:          renewPeriod,
	}, nil
}

// LeaseName returns the name of the Lease guarding the given BMC.
func LeaseName(bmc *v1alpha1.BMC) string {
	return "bmc-" + bmc.Name
}

// Lock acquires the lock for the given BMC on behalf of holder. On success it
// returns a release function which must be called once the critical section is
// over. It returns ErrLockAlreadyHeld when another holder owns an unexpired
// lease.
func (l *BMCLocker) Lock(ctx context.Context, bmc *v1alpha1.BMC, holder string) (ReleaseFunc, error) {
	log := ctrl.LoggerFrom(ctx).WithValues("lease", LeaseName(bmc), "holder", holder)

	now := metav1.NewMicroTime(time.Now())
	key := client.ObjectKey{Namespace: bmc.Namespace, Name: LeaseName(bmc)}

	lease := &coordinationv1.Lease{}
	err := l.client.Get(ctx, key, lease)
	switch {
	case apierrors.IsNotFound(err):
		lease = &coordinationv1.Lease{
			ObjectMeta: metav1.ObjectMeta{
				Name:      key.Name,
				Namespace: key.Namespace,
			},
			Spec: coordinationv1.LeaseSpec{
				HolderIdentity:       &holder,
				LeaseDurationSeconds: &l.leaseDurationSeconds,
				AcquireTime:          &now,
				RenewTime:            &now,
			},
		}
		if err := l.client.Create(ctx, lease); err != nil {
			if apierrors.IsAlreadyExists(err) {
				return nil, ErrLockAlreadyHeld
			}
			return nil, fmt.Errorf("resourcelock: failed to create lease: %w", err)
		}
		log.V(1).Info("Lock acquired, lease created")
		return l.hold(ctx, key, holder), nil

	case err != nil:
		return nil, fmt.Errorf("resourcelock: failed to get lease: %w", err)
	}

	if holderOf(lease) != holder && !expired(lease) {
		return nil, ErrLockAlreadyHeld
	}

	lease.Spec.HolderIdentity = &holder
	lease.Spec.LeaseDurationSeconds = &l.leaseDurationSeconds
	lease.Spec.AcquireTime = &now
	lease.Spec.RenewTime = &now

	if err := l.client.Update(ctx, lease); err != nil {
		if apierrors.IsConflict(err) {
			return nil, ErrLockAlreadyHeld
		}
		return nil, fmt.Errorf("resourcelock: failed to update lease: %w", err)
	}
	log.V(1).Info("Lock acquired")
	return l.hold(ctx, key, holder), nil
}

// hold starts background renewal and returns the matching release function.
func (l *BMCLocker) hold(ctx context.Context, key client.ObjectKey, holder string) ReleaseFunc {
	renewCtx, cancel := context.WithCancel(ctx)
	go l.renewUntilDone(renewCtx, key, holder)

	return func(ctx context.Context) error {
		cancel()

		lease := &coordinationv1.Lease{}
		if err := l.client.Get(ctx, key, lease); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("resourcelock: failed to get lease: %w", err)
		}
		if holderOf(lease) != holder {
			// Someone else claimed it after expiry, leave it alone.
			return nil
		}
		if err := l.client.Delete(ctx, lease); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("resourcelock: failed to delete lease: %w", err)
		}
		return nil
	}
}

// renewUntilDone periodically extends the lease until ctx is cancelled.
func (l *BMCLocker) renewUntilDone(ctx context.Context, key client.ObjectKey, holder string) {
	log := ctrl.LoggerFrom(ctx).WithValues("lease", key.Name, "holder", holder)

	ticker := time.NewTicker(l.renewPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.renew(ctx, key, holder); err != nil {
				if apierrors.IsNotFound(err) {
					return
				}
				log.Error(err, "Failed to renew lease")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (l *BMCLocker) renew(ctx context.Context, key client.ObjectKey, holder string) error {
	lease := &coordinationv1.Lease{}
	if err := l.client.Get(ctx, key, lease); err != nil {
		return err
	}
	if holderOf(lease) != holder {
		return fmt.Errorf("resourcelock: no longer the holder of lease %s", key)
	}

	now := metav1.NewMicroTime(time.Now())
	lease.Spec.RenewTime = &now
	return l.client.Update(ctx, lease)
}

func holderOf(lease *coordinationv1.Lease) string {
	if lease.Spec.HolderIdentity == nil {
		return ""
	}
	return *lease.Spec.HolderIdentity
}

func expired(lease *coordinationv1.Lease) bool {
	if lease.Spec.RenewTime == nil || lease.Spec.LeaseDurationSeconds == nil {
		return true
	}
	expiration := lease.Spec.RenewTime.Add(time.Duration(*lease.Spec.LeaseDurationSeconds) * time.Second)
	return time.Now().After(expiration)
}
