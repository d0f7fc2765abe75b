package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluation is the outcome of comparing one sampled rate against an alert.
type Evaluation struct {
	Triggered bool
	Rate      decimal.Decimal
	Previous  *decimal.Decimal
	// ChangePct is the signed percent move from the previous sample. Only
	// set for change conditions that had a baseline.
	ChangePct *decimal.Decimal
}

// Evaluate applies the alert's condition to the sampled rate. The alert is
// not mutated; callers record the new baseline afterwards. A change condition
// without a previous sample never triggers, the first sample only arms it.
func Evaluate(a Alert, rate decimal.Decimal) Evaluation {
	ev := Evaluation{Rate: rate, Previous: a.CurrentRate}

	switch a.Condition.Kind() {
	case ConditionAbove:
		target, _ := a.Condition.TargetRate()
		ev.Triggered = rate.GreaterThanOrEqual(target)
	case ConditionBelow:
		target, _ := a.Condition.TargetRate()
		ev.Triggered = rate.LessThanOrEqual(target)
	case ConditionChange:
		if a.CurrentRate == nil || a.CurrentRate.IsZero() {
			return ev
		}
		pct := rate.Sub(*a.CurrentRate).Div(*a.CurrentRate).Mul(hundred)
		ev.ChangePct = &pct
		threshold, _ := a.Condition.ChangeThreshold()
		ev.Triggered = pct.Abs().GreaterThanOrEqual(threshold)
	}
	return ev
}

// Message renders the human-readable trigger line stored in alert history
// and sent with notifications.
func (e Evaluation) Message(a Alert) string {
	if e.ChangePct != nil {
		sign := ""
		if e.ChangePct.IsPositive() {
			sign = "+"
		}
		return fmt.Sprintf("%s moved %s%s%% to %s",
			a.Pair.Key(), sign, e.ChangePct.StringFixed(2), e.Rate.String())
	}
	return fmt.Sprintf("%s reached %s, %s", a.Pair.Key(), e.Rate.String(), a.Condition.String())
}
