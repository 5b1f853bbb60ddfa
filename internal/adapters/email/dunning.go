package email

import (
	"fmt"
	"time"
)

// DunningNotice is the data rendered into a payment-reminder email.
type DunningNotice struct {
	TenantName     string
	Status         string // overdue or suspended
	AmountDueCents int64
	NextDueDate    time.Time
}

// FormatCents renders integer cents as a dollar amount string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// BuildDunningRequest renders a dunning notice into a SendRequest.
// PRE: notice has a non-empty tenant name and a positive amount
// POST: Returns a request ready for any Sender
func BuildDunningRequest(to []string, notice DunningNotice) SendRequest {
	var subject, lead string
	switch notice.Status {
	case "suspended":
		subject = fmt.Sprintf("%s: account suspended, payment required", notice.TenantName)
		lead = "Your academy's subscription has been suspended for non-payment. Access to the console is restricted until the outstanding balance is settled in full."
	default:
		subject = fmt.Sprintf("%s: payment overdue", notice.TenantName)
		lead = "Your academy's subscription payment is overdue. Please settle the amount below to keep your subscription active."
	}

	html := fmt.Sprintf(`<p>Kia ora,</p>
<p>%s</p>
<p><strong>Amount due: %s</strong></p>
<p>Due date: %s</p>
<p>— The AcademyHub billing team</p>`,
		lead,
		FormatCents(notice.AmountDueCents),
		notice.NextDueDate.Format("2 January 2006"),
	)

	return SendRequest{
		To:      to,
		Subject: subject,
		HTML:    html,
	}
}
