package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"academyhub/internal/adapters/storage/billing"
	"academyhub/internal/domain/audit"
	"academyhub/internal/domain/payment"
	"academyhub/internal/domain/subscription"
)

// PaymentStoreForBilling defines the installment store surface.
type PaymentStoreForBilling interface {
	GetByID(ctx context.Context, id string) (payment.Record, error)
	Save(ctx context.Context, r payment.Record) error
	EnsureInstallment(ctx context.Context, r payment.Record) (bool, error)
}

// BillingStoreForInstallments reads and updates billable accounts.
type BillingStoreForInstallments interface {
	GetAccount(ctx context.Context, id string) (billing.BillableAccount, error)
	SaveAccount(ctx context.Context, value billing.BillableAccount) error
	ListAccountsByTenant(ctx context.Context, tenantID string) ([]billing.BillableAccount, error)
}

// GenerateInstallmentsInput carries input for the monthly billing run.
type GenerateInstallmentsInput struct {
	TenantID    string
	DueDate     time.Time
	AmountCents int64
	ActorID     string
}

// GenerateInstallmentsResult summarizes one billing run.
type GenerateInstallmentsResult struct {
	Created int
	Existed int
}

// GenerateInstallmentsDeps holds dependencies for ExecuteGenerateInstallments.
type GenerateInstallmentsDeps struct {
	Payments   PaymentStoreForBilling
	Billing    BillingStoreForInstallments
	Audits     AuditStoreForSweep
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteGenerateInstallments creates the month's installment for every
// billable account of a tenant. The run is idempotent: an account that
// already has an installment for the due date is left alone, so re-running
// a billing day never double-bills.
// PRE: DueDate is non-zero, AmountCents > 0
// POST: Every account has exactly one installment for DueDate
func ExecuteGenerateInstallments(ctx context.Context, input GenerateInstallmentsInput, deps GenerateInstallmentsDeps) (GenerateInstallmentsResult, error) {
	var result GenerateInstallmentsResult
	if input.DueDate.IsZero() {
		return result, subscription.ErrZeroTime
	}
	if input.AmountCents <= 0 {
		return result, payment.ErrNegativeAmount
	}

	accounts, err := deps.Billing.ListAccountsByTenant(ctx, input.TenantID)
	if err != nil {
		return result, fmt.Errorf("list billable accounts: %w", err)
	}

	for _, acct := range accounts {
		record := payment.Record{
			ID:          deps.GenerateID(),
			AccountID:   acct.ID,
			TenantID:    input.TenantID,
			DueDate:     input.DueDate,
			AmountCents: input.AmountCents,
		}
		if err := record.Validate(); err != nil {
			return result, err
		}
		created, err := deps.Payments.EnsureInstallment(ctx, record)
		if err != nil {
			return result, fmt.Errorf("ensure installment for %s: %w", acct.ID, err)
		}
		if created {
			result.Created++
		} else {
			result.Existed++
		}
	}

	ev := audit.NewEvent(deps.Now(), audit.CategoryBilling, audit.ActionCreate).
		WithActor(input.ActorID).
		WithTenant(input.TenantID).
		WithDescription(fmt.Sprintf("billing run for %s: %d installments created, %d already existed",
			input.DueDate.Format("2006-01"), result.Created, result.Existed))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("billing_event", "event", "installments_generated", "tenant_id", input.TenantID, "created", result.Created, "existed", result.Existed)
	return result, nil
}

// RecordInstallmentPaymentInput carries input for settling one installment.
type RecordInstallmentPaymentInput struct {
	PaymentID   string
	AmountCents int64
	ActorID     string
}

// RecordInstallmentPaymentDeps holds dependencies for ExecuteRecordInstallmentPayment.
type RecordInstallmentPaymentDeps struct {
	Payments PaymentStoreForBilling
	Billing  BillingStoreForInstallments
	Audits   AuditStoreForSweep
	Now      func() time.Time
}

// ExecuteRecordInstallmentPayment marks one installment paid and refreshes
// the account's last-payment date, which anchors delinquency arithmetic.
// PRE: PaymentID names an existing unpaid installment; AmountCents > 0
// POST: Installment paid; billable account's LastPaymentDate updated
func ExecuteRecordInstallmentPayment(ctx context.Context, input RecordInstallmentPaymentInput, deps RecordInstallmentPaymentDeps) error {
	now := deps.Now()
	if now.IsZero() {
		return subscription.ErrZeroTime
	}
	if input.AmountCents <= 0 {
		return payment.ErrNegativeAmountPaid
	}

	record, err := deps.Payments.GetByID(ctx, input.PaymentID)
	if err != nil {
		return fmt.Errorf("load installment: %w", err)
	}
	if !record.Unpaid() {
		return fmt.Errorf("installment %s is already paid", record.ID)
	}

	record.PaidDate = now
	record.AmountPaidCents = input.AmountCents
	if err := deps.Payments.Save(ctx, record); err != nil {
		return fmt.Errorf("save installment: %w", err)
	}

	acct, err := deps.Billing.GetAccount(ctx, record.AccountID)
	if err != nil {
		return fmt.Errorf("load billable account: %w", err)
	}
	if now.After(acct.LastPaymentDate) {
		acct.LastPaymentDate = now
		if err := deps.Billing.SaveAccount(ctx, acct); err != nil {
			return fmt.Errorf("save billable account: %w", err)
		}
	}

	ev := audit.NewEvent(now, audit.CategoryBilling, audit.ActionPayment).
		WithActor(input.ActorID).
		WithTenant(record.TenantID).
		WithResource("payment", record.ID).
		WithDescription(fmt.Sprintf("installment settled with %d cents", input.AmountCents))
	_ = deps.Audits.Append(ctx, ev)

	slog.Info("billing_event", "event", "installment_paid", "payment_id", record.ID, "account_id", record.AccountID, "amount_cents", input.AmountCents)
	return nil
}
