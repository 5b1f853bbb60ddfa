package delinquency

import (
	"sort"
	"time"

	"academyhub/internal/domain/payment"
)

// Record is one overdue account in the delinquency read model. Records are
// derived on demand from subscription and payment history and never stored
// or mutated directly.
type Record struct {
	AccountID       string    `json:"accountId"`
	OwedCents       int64     `json:"owedCents"`
	MonthsOverdue   int       `json:"monthsOverdue"`
	LastPaymentDate time.Time `json:"lastPaymentDate"`
}

// Report is the aggregation result: the (possibly truncated) record list
// plus summary totals computed over the full unfiltered set. ExcludedRecords
// counts malformed payment rows dropped from the computation so totals are
// never silently wrong without signal.
type Report struct {
	Records         []Record `json:"records"`
	TotalOwedCents  int64    `json:"totalOwedCents"`
	Count           int      `json:"count"`
	ExcludedRecords int      `json:"excludedRecords"`
}

// Account is the aggregation input for one billable account: its payment
// history plus the dates that anchor months-in-arrears arithmetic.
type Account struct {
	AccountID         string
	LastPaymentDate   time.Time // zero = no payment ever
	SubscriptionStart time.Time
	Payments          []payment.Record
}

// Aggregate computes the delinquency report for a set of accounts as of a
// single instant.
//
// An account is included when it is at least one calendar month past its
// last payment (or subscription start) or holds an unpaid installment past
// its due date. Owed is the sum of ALL unpaid installments, not just the
// most recent. Records sort by owed descending (account ID ascending on
// ties) for top-debtor views; limit > 0 truncates the returned records only;
// totals always cover the full set.
// INVARIANT: inputs are not mutated; identical inputs yield identical output
func Aggregate(accounts []Account, asOf time.Time, limit int) Report {
	report := Report{Records: []Record{}}

	for _, acct := range accounts {
		var owed int64
		var pastDue bool
		for _, p := range acct.Payments {
			if err := p.Validate(); err != nil {
				report.ExcludedRecords++
				continue
			}
			owed += p.OutstandingCents()
			if p.OverduePast(asOf) {
				pastDue = true
			}
		}

		anchor := acct.LastPaymentDate
		if anchor.IsZero() {
			anchor = acct.SubscriptionStart
		}
		months := monthsBetween(anchor, asOf)

		if months < 1 && !pastDue {
			continue
		}

		report.Records = append(report.Records, Record{
			AccountID:       acct.AccountID,
			OwedCents:       owed,
			MonthsOverdue:   months,
			LastPaymentDate: acct.LastPaymentDate,
		})
	}

	sort.Slice(report.Records, func(i, j int) bool {
		if report.Records[i].OwedCents != report.Records[j].OwedCents {
			return report.Records[i].OwedCents > report.Records[j].OwedCents
		}
		return report.Records[i].AccountID < report.Records[j].AccountID
	})

	// Totals before truncation: the summary covers the full set.
	for _, r := range report.Records {
		report.TotalOwedCents += r.OwedCents
	}
	report.Count = len(report.Records)

	if limit > 0 && len(report.Records) > limit {
		report.Records = report.Records[:limit]
	}

	return report
}

// monthsBetween returns the number of whole calendar months from one
// instant to another, matching invoice due dates rather than fixed 30-day
// buckets. Zero when to does not lie after from.
func monthsBetween(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
