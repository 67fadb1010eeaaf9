package lifecycle

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// QuoteMachine is the quote transition table. EXPIRED has no inbound user edge;
// it is only reachable through ExpireQuote.
var QuoteMachine = newMachine("quote", domain.QuoteStatusDraft,
	map[domain.QuoteStatus][]domain.QuoteStatus{
		domain.QuoteStatusDraft:    {domain.QuoteStatusPending},
		domain.QuoteStatusPending:  {domain.QuoteStatusApproved, domain.QuoteStatusRejected},
		domain.QuoteStatusApproved: {},
		domain.QuoteStatusRejected: {},
		domain.QuoteStatusExpired:  {},
	},
	[]domain.QuoteStatus{domain.QuoteStatusApproved, domain.QuoteStatusRejected, domain.QuoteStatusExpired},
	[]domain.QuoteStatus{domain.QuoteStatusApproved},
)

// ApplyQuote moves q to target. Submission preconditions on items are checked by
// the caller before this runs.
func ApplyQuote(q *domain.Quote, target domain.QuoteStatus, now time.Time, from ...domain.QuoteStatus) error {
	if err := QuoteMachine.CheckFrom(q.Status, target, from...); err != nil {
		return err
	}
	q.Status = target
	q.UpdatedAt = now
	return nil
}

// Expirable reports whether q may be expired by the time-based trigger at now.
func Expirable(q *domain.Quote, now time.Time) bool {
	if q.ValidUntil == nil || !now.After(*q.ValidUntil) {
		return false
	}
	return q.Status == domain.QuoteStatusDraft || q.Status == domain.QuoteStatusPending
}

// ExpireQuote moves q to EXPIRED. It is the system trigger, never a user transition.
func ExpireQuote(q *domain.Quote, now time.Time) error {
	if q.Status != domain.QuoteStatusDraft && q.Status != domain.QuoteStatusPending {
		return QuoteMachine.Check(q.Status, domain.QuoteStatusExpired)
	}
	q.Status = domain.QuoteStatusExpired
	q.UpdatedAt = now
	return nil
}
