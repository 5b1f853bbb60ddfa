package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	subStore "academyhub/internal/adapters/storage/subscription"
	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/subscription"
)

type mockSubCommandStore struct {
	sub     subscription.Subscription
	saved   []subscription.Subscription
	periods []subStore.PeriodEntry
	getErr  error
}

func (m *mockSubCommandStore) GetByTenant(_ context.Context, tenantID string) (subscription.Subscription, error) {
	if m.getErr != nil {
		return subscription.Subscription{}, m.getErr
	}
	return m.sub, nil
}

func (m *mockSubCommandStore) Save(_ context.Context, s subscription.Subscription) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *mockSubCommandStore) AppendPeriod(_ context.Context, entry subStore.PeriodEntry) error {
	m.periods = append(m.periods, entry)
	return nil
}

var commandNow = time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

func TestApplyPaymentRestoresOverdue(t *testing.T) {
	store := &mockSubCommandStore{sub: liveSub("sub-1", "ten-1", subscription.StatusOverdue, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))}
	tenants := &mockTenantStatusStore{}
	audits := &mockAuditStore{}
	deps := ApplyPaymentDeps{
		Subscriptions: store,
		Tenants:       tenants,
		Audits:        audits,
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return commandNow },
	}

	result, err := ExecuteApplyPayment(context.Background(), ApplyPaymentInput{TenantID: "ten-1", AmountCents: 15000, ActorID: "op-1"}, deps)
	if err != nil {
		t.Fatalf("ExecuteApplyPayment: %v", err)
	}
	if result.Status != subscription.StatusActive {
		t.Errorf("status = %q, want active", result.Status)
	}
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !result.NextDueDate.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", result.NextDueDate, want)
	}
	if tenants.statuses["ten-1"] != "active" {
		t.Errorf("tenant status = %q", tenants.statuses["ten-1"])
	}
}

func TestApplyPaymentRejectsPartial(t *testing.T) {
	store := &mockSubCommandStore{sub: liveSub("sub-1", "ten-1", subscription.StatusOverdue, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))}
	audits := &mockAuditStore{}
	deps := ApplyPaymentDeps{
		Subscriptions: store,
		Tenants:       &mockTenantStatusStore{},
		Audits:        audits,
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return commandNow },
	}

	_, err := ExecuteApplyPayment(context.Background(), ApplyPaymentInput{TenantID: "ten-1", AmountCents: 7500}, deps)
	if !errors.Is(err, subscription.ErrInsufficientAmount) {
		t.Fatalf("err = %v, want ErrInsufficientAmount", err)
	}
	if len(store.saved) != 0 {
		t.Error("rejected payment must not save")
	}
	// Rejection is still audited
	if len(audits.events) != 1 || audits.events[0].Action != audit.ActionReject {
		t.Errorf("rejection not audited: %+v", audits.events)
	}
}

func TestApplyPaymentZeroClock(t *testing.T) {
	deps := ApplyPaymentDeps{
		Subscriptions: &mockSubCommandStore{},
		Tenants:       &mockTenantStatusStore{},
		Audits:        &mockAuditStore{},
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return time.Time{} },
	}
	_, err := ExecuteApplyPayment(context.Background(), ApplyPaymentInput{TenantID: "ten-1", AmountCents: 15000}, deps)
	if !errors.Is(err, subscription.ErrZeroTime) {
		t.Fatalf("err = %v, want ErrZeroTime", err)
	}
}

func TestCancelSubscription(t *testing.T) {
	store := &mockSubCommandStore{sub: liveSub("sub-1", "ten-1", subscription.StatusOverdue, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))}
	tenants := &mockTenantStatusStore{}
	deps := CancelSubscriptionDeps{
		Subscriptions: store,
		Tenants:       tenants,
		Audits:        &mockAuditStore{},
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return commandNow },
	}

	result, err := ExecuteCancelSubscription(context.Background(), CancelSubscriptionInput{TenantID: "ten-1", ActorID: "op-1"}, deps)
	if err != nil {
		t.Fatalf("ExecuteCancelSubscription: %v", err)
	}
	if !result.CancelledAt.Equal(commandNow) {
		t.Errorf("CancelledAt = %v", result.CancelledAt)
	}
	// Due 1 Jul, cancelled 15 Aug: July and August installments owed
	if result.OutstandingCents != 30000 {
		t.Errorf("OutstandingCents = %d, want 30000", result.OutstandingCents)
	}
	if tenants.statuses["ten-1"] != "cancelled" {
		t.Errorf("tenant status = %q", tenants.statuses["ten-1"])
	}
}

func TestCancelCancelledRejected(t *testing.T) {
	sub := liveSub("sub-1", "ten-1", subscription.StatusCancelled, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	sub.CancelledAt = time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	store := &mockSubCommandStore{sub: sub}
	audits := &mockAuditStore{}
	deps := CancelSubscriptionDeps{
		Subscriptions: store,
		Tenants:       &mockTenantStatusStore{},
		Audits:        audits,
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return commandNow },
	}

	_, err := ExecuteCancelSubscription(context.Background(), CancelSubscriptionInput{TenantID: "ten-1"}, deps)
	if !errors.Is(err, subscription.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if len(store.saved) != 0 {
		t.Error("rejected cancellation must not save")
	}
}

func TestReactivateOpensNewPeriod(t *testing.T) {
	sub := liveSub("sub-1", "ten-1", subscription.StatusSuspended, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	store := &mockSubCommandStore{sub: sub}
	tenants := &mockTenantStatusStore{}
	deps := ReactivateSubscriptionDeps{
		Subscriptions: store,
		Tenants:       tenants,
		Audits:        &mockAuditStore{},
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return commandNow },
		GenerateID:    func() string { return "per-2" },
	}

	result, err := ExecuteReactivateSubscription(context.Background(), ReactivateSubscriptionInput{TenantID: "ten-1", ActorID: "op-1"}, deps)
	if err != nil {
		t.Fatalf("ExecuteReactivateSubscription: %v", err)
	}
	if result.Period != 2 {
		t.Errorf("Period = %d, want 2", result.Period)
	}
	if !result.PeriodStart.Equal(commandNow) {
		t.Errorf("PeriodStart = %v, want %v", result.PeriodStart, commandNow)
	}
	wantDue := commandNow.AddDate(0, 1, 0)
	if !result.NextDueDate.Equal(wantDue) {
		t.Errorf("NextDueDate = %v, want %v", result.NextDueDate, wantDue)
	}
	// Due 1 May, reactivated 15 Aug: May through August installments carried
	if result.CarriedForwardCents != 60000 {
		t.Errorf("CarriedForwardCents = %d, want 60000", result.CarriedForwardCents)
	}

	if len(store.periods) != 1 {
		t.Fatal("period log entry not appended")
	}
	entry := store.periods[0]
	if entry.Period != 2 || entry.OpenedBy != "op-1" || entry.CarriedForwardCents != 60000 {
		t.Errorf("period entry = %+v", entry)
	}
	if tenants.statuses["ten-1"] != "active" {
		t.Errorf("tenant status = %q", tenants.statuses["ten-1"])
	}
}

func TestReactivateActiveRejected(t *testing.T) {
	store := &mockSubCommandStore{sub: liveSub("sub-1", "ten-1", subscription.StatusActive, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))}
	deps := ReactivateSubscriptionDeps{
		Subscriptions: store,
		Tenants:       &mockTenantStatusStore{},
		Audits:        &mockAuditStore{},
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return commandNow },
		GenerateID:    func() string { return "x" },
	}

	_, err := ExecuteReactivateSubscription(context.Background(), ReactivateSubscriptionInput{TenantID: "ten-1"}, deps)
	if !errors.Is(err, subscription.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if len(store.periods) != 0 {
		t.Error("rejected reactivation must not append a period")
	}
}
