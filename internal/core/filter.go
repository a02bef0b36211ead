package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DateRange bounds a timestamp column. A zero From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// TextMatch is a case-insensitive substring match.
type TextMatch struct {
	Contains string `validate:"required,max=320"`
}

// SubscriptionFilter selects subscriptions. All set fields must match.
type SubscriptionFilter struct {
	Statuses    []string `validate:"omitempty,dive,oneof=active trialing canceled past_due unpaid incomplete incomplete_expired paused"`
	ProductName string   `validate:"omitempty,max=200"`
	CustomerIDs []string `validate:"omitempty,dive,required,max=64"`
	StartedIn   *DateRange
	CanceledIn  *DateRange
}

// CustomerFilter selects customers. HasSubscription matches customers with at
// least one subscription satisfying the nested filter.
type CustomerFilter struct {
	Email           *TextMatch
	HasSubscription *SubscriptionFilter
}

func (r *DateRange) check(name string) error {
	if r == nil {
		return nil
	}
	if r.From.IsZero() && r.To.IsZero() {
		return fmt.Errorf("%w: %s range is empty", ErrInvalidFilter, name)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return fmt.Errorf("%w: %s range ends before it starts", ErrInvalidFilter, name)
	}
	return nil
}

func (f SubscriptionFilter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if err := f.StartedIn.check("start date"); err != nil {
		return err
	}
	return f.CanceledIn.check("cancel date")
}

func (f CustomerFilter) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if f.HasSubscription != nil {
		return f.HasSubscription.Validate()
	}
	return nil
}

// queryBuilder accumulates WHERE conditions and positional arguments.
type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) add(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *queryBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// apply adds conditions over the aliases s (subscriptions) and p (products).
func (f SubscriptionFilter) apply(b *queryBuilder) {
	if len(f.Statuses) > 0 {
		b.add("s.status = ANY(" + b.arg(f.Statuses) + ")")
	}
	if f.ProductName != "" {
		b.add("lower(p.name) = lower(" + b.arg(f.ProductName) + ")")
	}
	if len(f.CustomerIDs) > 0 {
		b.add("s.customer_id = ANY(" + b.arg(f.CustomerIDs) + ")")
	}
	applyRange(b, "s.start_date", f.StartedIn)
	applyRange(b, "s.canceled_at", f.CanceledIn)
}

// apply adds conditions over the alias c (customers).
func (f CustomerFilter) apply(b *queryBuilder) {
	if f.Email != nil {
		b.add("c.email ILIKE " + b.arg("%"+escapeLike(f.Email.Contains)+"%"))
	}
	if f.HasSubscription != nil {
		sub := &queryBuilder{args: b.args}
		sub.add("s.customer_id = c.id")
		f.HasSubscription.apply(sub)
		b.args = sub.args
		b.add("EXISTS (SELECT 1 FROM subscriptions s JOIN products p ON p.id = s.product_id" + sub.where() + ")")
	}
}

func applyRange(b *queryBuilder, column string, r *DateRange) {
	if r == nil {
		return
	}
	if !r.From.IsZero() {
		b.add(column + " >= " + b.arg(r.From))
	}
	if !r.To.IsZero() {
		b.add(column + " <= " + b.arg(r.To))
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
