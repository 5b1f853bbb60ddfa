package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	accountdomain "academyhub/internal/domain/account"
	"academyhub/internal/domain/actor"
	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/outbox"
	"academyhub/internal/domain/subscription"
)

type mockSubscriptionStore struct {
	subs    []subscription.Subscription
	saved   []subscription.Subscription
	listErr error
	saveErr error
}

func (m *mockSubscriptionStore) ListLive(_ context.Context) ([]subscription.Subscription, error) {
	return m.subs, m.listErr
}

// GetByTenant returns the latest saved state for the tenant, falling back
// to the listed snapshot, the way a real store reflects concurrent writes.
func (m *mockSubscriptionStore) GetByTenant(_ context.Context, tenantID string) (subscription.Subscription, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].TenantID == tenantID {
			return m.saved[i], nil
		}
	}
	for _, s := range m.subs {
		if s.TenantID == tenantID {
			return s, nil
		}
	}
	return subscription.Subscription{}, fmt.Errorf("no subscription for tenant %s", tenantID)
}

func (m *mockSubscriptionStore) Save(_ context.Context, s subscription.Subscription) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, s)
	return nil
}

type mockTenantStatusStore struct {
	statuses map[string]string
}

func (m *mockTenantStatusStore) SetSubscriptionStatus(_ context.Context, tenantID, status string) error {
	if m.statuses == nil {
		m.statuses = make(map[string]string)
	}
	m.statuses[tenantID] = status
	return nil
}

type mockAuditStore struct {
	events []audit.Event
}

func (m *mockAuditStore) Append(_ context.Context, event audit.Event) error {
	m.events = append(m.events, event)
	return nil
}

type mockOutboxStore struct {
	entries []outbox.Entry
}

func (m *mockOutboxStore) Save(_ context.Context, entry outbox.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

type mockAccountLister struct {
	accounts map[string][]accountdomain.Account
}

func (m *mockAccountLister) ListByTenant(_ context.Context, tenantID string) ([]accountdomain.Account, error) {
	return m.accounts[tenantID], nil
}

func sweepDeps(subs *mockSubscriptionStore, now time.Time) (LifecycleSweepDeps, *mockTenantStatusStore, *mockAuditStore, *mockOutboxStore) {
	tenants := &mockTenantStatusStore{}
	audits := &mockAuditStore{}
	box := &mockOutboxStore{}
	accounts := &mockAccountLister{accounts: map[string][]accountdomain.Account{
		"ten-1": {{ID: "acct-1", Email: "admin@ten-1.test", Role: actor.RoleAcademyAdmin, TenantID: "ten-1"}},
		"ten-2": {{ID: "acct-2", Email: "admin@ten-2.test", Role: actor.RoleAcademyAdmin, TenantID: "ten-2"}},
	}}
	id := 0
	deps := LifecycleSweepDeps{
		Subscriptions: subs,
		Tenants:       tenants,
		Audits:        audits,
		Outbox:        box,
		Accounts:      accounts,
		Locks:         NewTenantLocks(),
		Now:           func() time.Time { return now },
		GenerateID: func() string {
			id++
			return fmt.Sprintf("id-%d", id)
		},
	}
	return deps, tenants, audits, box
}

func liveSub(id, tenantID string, status subscription.Status, due time.Time) subscription.Subscription {
	return subscription.Subscription{
		ID:                 id,
		TenantID:           tenantID,
		Period:             1,
		Status:             status,
		MonthlyAmountCents: 15000,
		NextDueDate:        due,
		ToleranceDays:      14,
		PeriodStart:        due.AddDate(0, -1, 0),
	}
}

func TestSweepMovesPastDueActiveToOverdue(t *testing.T) {
	now := time.Date(2026, 8, 15, 2, 0, 0, 0, time.UTC)
	subs := &mockSubscriptionStore{subs: []subscription.Subscription{
		liveSub("sub-1", "ten-1", subscription.StatusActive, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	}}
	deps, tenants, audits, box := sweepDeps(subs, now)

	result, err := ExecuteLifecycleSweep(context.Background(), deps)
	if err != nil {
		t.Fatalf("ExecuteLifecycleSweep: %v", err)
	}
	if result.Evaluated != 1 || result.Transitioned != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(subs.saved) != 1 || subs.saved[0].Status != subscription.StatusOverdue {
		t.Fatalf("saved = %+v", subs.saved)
	}
	if tenants.statuses["ten-1"] != "overdue" {
		t.Errorf("tenant status = %q, want overdue", tenants.statuses["ten-1"])
	}

	// Transition must be audited
	found := false
	for _, ev := range audits.events {
		if ev.Action == audit.ActionTransition && ev.TenantID == "ten-1" {
			found = true
		}
	}
	if !found {
		t.Error("transition not audited")
	}

	// Entering overdue queues a dunning notice
	if result.DunningQueued != 1 || len(box.entries) != 1 {
		t.Fatalf("dunning not queued: %+v", box.entries)
	}
	var payload DunningPayload
	if err := json.Unmarshal([]byte(box.entries[0].Payload), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Status != "overdue" || len(payload.Recipients) != 1 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSweepHoldsCurrentSubscriptions(t *testing.T) {
	now := time.Date(2026, 8, 15, 2, 0, 0, 0, time.UTC)
	subs := &mockSubscriptionStore{subs: []subscription.Subscription{
		liveSub("sub-1", "ten-1", subscription.StatusActive, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
	}}
	deps, tenants, _, box := sweepDeps(subs, now)

	result, err := ExecuteLifecycleSweep(context.Background(), deps)
	if err != nil {
		t.Fatalf("ExecuteLifecycleSweep: %v", err)
	}
	if result.Transitioned != 0 || len(subs.saved) != 0 {
		t.Errorf("current subscription should hold: %+v", result)
	}
	if len(tenants.statuses) != 0 || len(box.entries) != 0 {
		t.Error("no side effects expected for held subscription")
	}
}

func TestSweepSuspendsBeyondTolerance(t *testing.T) {
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	// Due 1 Aug, tolerance 14 days: suspension boundary is 15 Aug
	subs := &mockSubscriptionStore{subs: []subscription.Subscription{
		liveSub("sub-1", "ten-1", subscription.StatusOverdue, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	}}
	deps, _, _, box := sweepDeps(subs, now)

	result, err := ExecuteLifecycleSweep(context.Background(), deps)
	if err != nil {
		t.Fatalf("ExecuteLifecycleSweep: %v", err)
	}
	if result.Transitioned != 1 {
		t.Fatalf("result = %+v", result)
	}
	if subs.saved[0].Status != subscription.StatusSuspended {
		t.Errorf("status = %q, want suspended", subs.saved[0].Status)
	}
	if len(box.entries) != 1 {
		t.Error("suspension should queue dunning")
	}
}

func TestSweepReEvaluatesFromCurrentStateAfterPayment(t *testing.T) {
	// Listed snapshot: overdue since 1 Mar, well past tolerance by 20 Mar,
	// so a sweep over stale state would suspend the tenant.
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	subs := &mockSubscriptionStore{subs: []subscription.Subscription{
		liveSub("sub-1", "ten-1", subscription.StatusOverdue, due),
	}}
	deps, tenants, audits, box := sweepDeps(subs, now)

	// A full payment lands after the sweep listed the tenant but before it
	// evaluates it. The store now holds an active subscription with the due
	// date advanced; only the ListLive snapshot is stale.
	payResult, err := ExecuteApplyPayment(context.Background(), ApplyPaymentInput{
		TenantID:    "ten-1",
		AmountCents: 15000,
		ActorID:     "acct-1",
	}, ApplyPaymentDeps{
		Subscriptions: subs,
		Tenants:       tenants,
		Audits:        audits,
		Locks:         deps.Locks,
		Now:           deps.Now,
	})
	if err != nil {
		t.Fatalf("ExecuteApplyPayment: %v", err)
	}
	if payResult.Status != subscription.StatusActive {
		t.Fatalf("payment status = %q, want active", payResult.Status)
	}

	result, err := ExecuteLifecycleSweep(context.Background(), deps)
	if err != nil {
		t.Fatalf("ExecuteLifecycleSweep: %v", err)
	}
	if result.Transitioned != 0 {
		t.Errorf("sweep transitioned a freshly paid tenant: %+v", result)
	}
	last := subs.saved[len(subs.saved)-1]
	if last.Status != subscription.StatusActive {
		t.Errorf("status = %q, want active preserved after payment", last.Status)
	}
	if !last.NextDueDate.After(now) {
		t.Errorf("next due = %v, want the advanced date kept", last.NextDueDate)
	}
	if tenants.statuses["ten-1"] != "active" {
		t.Errorf("tenant status = %q, want active", tenants.statuses["ten-1"])
	}
	if len(box.entries) != 0 {
		t.Errorf("no dunning expected for a paid-up tenant: %+v", box.entries)
	}
}

func TestSweepZeroClockTouchesNothing(t *testing.T) {
	subs := &mockSubscriptionStore{subs: []subscription.Subscription{
		liveSub("sub-1", "ten-1", subscription.StatusActive, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	}}
	deps, tenants, audits, _ := sweepDeps(subs, time.Time{})

	_, err := ExecuteLifecycleSweep(context.Background(), deps)
	if !errors.Is(err, subscription.ErrZeroTime) {
		t.Fatalf("err = %v, want ErrZeroTime", err)
	}
	if len(subs.saved) != 0 || len(tenants.statuses) != 0 {
		t.Error("zero clock must not mutate anything")
	}
	// The skipped pass itself is reported
	if len(audits.events) != 1 || audits.events[0].Action != audit.ActionSkip {
		t.Errorf("skip not audited: %+v", audits.events)
	}
}

func TestSweepContinuesPastFailingTenant(t *testing.T) {
	now := time.Date(2026, 8, 15, 2, 0, 0, 0, time.UTC)
	due := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	failing := &failFirstSaveStore{mockSubscriptionStore{subs: []subscription.Subscription{
		liveSub("sub-1", "ten-1", subscription.StatusActive, due),
		liveSub("sub-2", "ten-2", subscription.StatusActive, due),
	}}}
	deps, tenants, audits, _ := sweepDeps(&failing.mockSubscriptionStore, now)
	deps.Subscriptions = failing

	result, err := ExecuteLifecycleSweep(context.Background(), deps)
	if err != nil {
		t.Fatalf("ExecuteLifecycleSweep: %v", err)
	}
	if result.Skipped != 1 || result.Transitioned != 1 {
		t.Errorf("result = %+v, want one skip and one transition", result)
	}
	if tenants.statuses["ten-2"] != "overdue" {
		t.Error("second tenant should still transition")
	}
	skipAudited := false
	for _, ev := range audits.events {
		if ev.Action == audit.ActionSkip && ev.TenantID == "ten-1" {
			skipAudited = true
		}
	}
	if !skipAudited {
		t.Error("skipped tenant not audited")
	}
}

// failFirstSaveStore fails the first Save call and succeeds afterwards.
type failFirstSaveStore struct {
	mockSubscriptionStore
}

func (m *failFirstSaveStore) Save(ctx context.Context, s subscription.Subscription) error {
	if len(m.saved) == 0 && m.saveErr == nil {
		m.saveErr = errors.New("disk full")
		return errors.New("disk full")
	}
	m.saveErr = nil
	return m.mockSubscriptionStore.Save(ctx, s)
}
