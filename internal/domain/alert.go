package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAlertNotFound indicates an unknown alert id on update or delete.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrAlertLimit indicates the configured alert cap has been reached.
	ErrAlertLimit = errors.New("alert limit reached")
)

// ValidationError reports a rejected alert or settings field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConditionKind enumerates the supported alert comparisons.
type ConditionKind string

const (
	ConditionAbove  ConditionKind = "above"
	ConditionBelow  ConditionKind = "below"
	ConditionChange ConditionKind = "change"
)

// Condition couples a comparison kind with the single payload that kind
// needs: a target rate for above/below, a percent threshold for change.
// The constructors make a conflicting or missing payload unrepresentable.
type Condition struct {
	kind  ConditionKind
	value decimal.Decimal
}

// Above fires when the sampled rate is at or above target.
func Above(target decimal.Decimal) Condition {
	return Condition{kind: ConditionAbove, value: target}
}

// Below fires when the sampled rate is at or below target.
func Below(target decimal.Decimal) Condition {
	return Condition{kind: ConditionBelow, value: target}
}

// ChangeExceeding fires when the absolute percent move from the previous
// sample reaches thresholdPct.
func ChangeExceeding(thresholdPct decimal.Decimal) Condition {
	return Condition{kind: ConditionChange, value: thresholdPct}
}

// Kind returns the comparison kind.
func (c Condition) Kind() ConditionKind {
	return c.kind
}

// TargetRate returns the target for above/below conditions.
func (c Condition) TargetRate() (decimal.Decimal, bool) {
	if c.kind == ConditionAbove || c.kind == ConditionBelow {
		return c.value, true
	}
	return decimal.Decimal{}, false
}

// ChangeThreshold returns the percent threshold for change conditions.
func (c Condition) ChangeThreshold() (decimal.Decimal, bool) {
	if c.kind == ConditionChange {
		return c.value, true
	}
	return decimal.Decimal{}, false
}

// Validate checks the kind is known and the payload positive.
func (c Condition) Validate() error {
	switch c.kind {
	case ConditionAbove, ConditionBelow:
		if !c.value.IsPositive() {
			return ValidationError{Field: "targetRate", Reason: "must be greater than zero"}
		}
	case ConditionChange:
		if !c.value.IsPositive() {
			return ValidationError{Field: "threshold", Reason: "must be greater than zero"}
		}
	default:
		return ValidationError{Field: "condition", Reason: "must be one of above, below, change"}
	}
	return nil
}

func (c Condition) String() string {
	switch c.kind {
	case ConditionAbove:
		return "at or above " + c.value.String()
	case ConditionBelow:
		return "at or below " + c.value.String()
	case ConditionChange:
		return "moves " + c.value.String() + "% or more"
	default:
		return "unset"
	}
}

type conditionJSON struct {
	Kind       ConditionKind    `json:"kind"`
	TargetRate *decimal.Decimal `json:"targetRate,omitempty"`
	Threshold  *decimal.Decimal `json:"threshold,omitempty"`
}

// MarshalJSON emits the kind plus exactly one payload field.
func (c Condition) MarshalJSON() ([]byte, error) {
	out := conditionJSON{Kind: c.kind}
	switch c.kind {
	case ConditionAbove, ConditionBelow:
		v := c.value
		out.TargetRate = &v
	case ConditionChange:
		v := c.value
		out.Threshold = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON rejects payloads that conflict with the declared kind, so the
// exactly-one-payload invariant holds across the persistence boundary too.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var in conditionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.Kind {
	case ConditionAbove, ConditionBelow:
		if in.TargetRate == nil || in.Threshold != nil {
			return fmt.Errorf("condition %q requires targetRate only", in.Kind)
		}
		c.kind = in.Kind
		c.value = *in.TargetRate
	case ConditionChange:
		if in.Threshold == nil || in.TargetRate != nil {
			return fmt.Errorf("condition %q requires threshold only", in.Kind)
		}
		c.kind = in.Kind
		c.value = *in.Threshold
	default:
		return fmt.Errorf("unknown condition kind %q", in.Kind)
	}
	return nil
}

// Alert is a user-defined rule comparing a live exchange rate against a
// target or change threshold.
type Alert struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Pair          CurrencyPair     `json:"pair"`
	Condition     Condition        `json:"condition"`
	Enabled       bool             `json:"enabled"`
	CurrentRate   *decimal.Decimal `json:"currentRate,omitempty"`
	LastChecked   *time.Time       `json:"lastChecked,omitempty"`
	LastTriggered *time.Time       `json:"lastTriggered,omitempty"`
	TriggerCount  int              `json:"triggerCount"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// AlertSpec carries the user-supplied fields for a new alert.
type AlertSpec struct {
	Name        string
	Description string
	Pair        CurrencyPair
	Condition   Condition
	Enabled     bool
}

// NewAlert validates spec and constructs the alert record.
func NewAlert(id string, spec AlertSpec, now time.Time) (Alert, error) {
	pair, err := NewCurrencyPair(spec.Pair.From, spec.Pair.To)
	if err != nil {
		return Alert{}, err
	}
	if err := spec.Condition.Validate(); err != nil {
		return Alert{}, err
	}

	name := spec.Name
	if name == "" {
		name = pair.Key()
	}

	return Alert{
		ID:          id,
		Name:        name,
		Description: spec.Description,
		Pair:        pair,
		Condition:   spec.Condition,
		Enabled:     spec.Enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AlertPatch mutates a subset of user-editable alert fields. Nil fields are
// left untouched.
type AlertPatch struct {
	Name        *string
	Description *string
	Pair        *CurrencyPair
	Condition   *Condition
	Enabled     *bool
}

// ApplyPatch returns the patched alert. Changing the pair resets the sampled
// rate baseline; a change condition then re-arms on the next tick.
func (a Alert) ApplyPatch(patch AlertPatch, now time.Time) (Alert, error) {
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.Description != nil {
		a.Description = *patch.Description
	}
	if patch.Pair != nil {
		pair, err := NewCurrencyPair(patch.Pair.From, patch.Pair.To)
		if err != nil {
			return Alert{}, err
		}
		if pair != a.Pair {
			a.Pair = pair
			a.CurrentRate = nil
			a.LastChecked = nil
		}
	}
	if patch.Condition != nil {
		if err := patch.Condition.Validate(); err != nil {
			return Alert{}, err
		}
		a.Condition = *patch.Condition
	}
	if patch.Enabled != nil {
		a.Enabled = *patch.Enabled
	}
	a.UpdatedAt = now
	return a, nil
}
