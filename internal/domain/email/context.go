// Package email defines the read-only context snapshot the policy engine
// evaluates. Contexts are built once per email per proposal run by the
// email-sync/extraction subsystem and never mutated here.
package email

import "time"

// Context is the evaluation snapshot for a single email. Pointer fields are
// nil when the extraction subsystem produced no value; the evaluator treats
// those as absent rather than zero.
type Context struct {
	EmailID      string     `json:"email_id"`
	Category     string     `json:"category,omitempty"`
	RiskScore    *float64   `json:"risk_score,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	EventStartAt *time.Time `json:"event_start_at,omitempty"`
	SenderDomain string     `json:"sender_domain,omitempty"`
	AgeDays      *int       `json:"age_days,omitempty"`
	Quarantined  *bool      `json:"quarantined,omitempty"`
	Subject      string     `json:"subject,omitempty"`

	// Now is the evaluation-time instant, injected when the snapshot is
	// built so repeated evaluation of the same snapshot stays deterministic.
	Now time.Time `json:"now"`
}

// Kind tags the dynamic type of a resolved field value.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindTime
	KindBool
)

// Value is the result of resolving a field name against a Context.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
	Bool bool
}

// Absent reports whether the value is the absent sentinel.
func (v Value) Absent() bool { return v.Kind == KindAbsent }

func stringValue(s string) Value {
	if s == "" {
		return Value{Kind: KindAbsent}
	}
	return Value{Kind: KindString, Str: s}
}

// Field names the evaluator can resolve, in schema order.
var fieldNames = []string{
	"category",
	"risk_score",
	"expires_at",
	"event_start_at",
	"sender_domain",
	"age_days",
	"quarantined",
	"subject",
	"now",
}

// KnownField reports whether name is part of the context schema. Policies
// referencing other names are rejected at write time.
func KnownField(name string) bool {
	for _, f := range fieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// FieldNames returns the context schema field names.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames)
	return out
}

// Lookup resolves a field name to a typed Value. Unknown names and unset
// optional fields resolve to the absent sentinel; Lookup never fails.
func (c *Context) Lookup(field string) Value {
	switch field {
	case "category":
		return stringValue(c.Category)
	case "risk_score":
		if c.RiskScore == nil {
			return Value{Kind: KindAbsent}
		}
		return Value{Kind: KindNumber, Num: *c.RiskScore}
	case "expires_at":
		if c.ExpiresAt == nil {
			return Value{Kind: KindAbsent}
		}
		return Value{Kind: KindTime, Time: *c.ExpiresAt}
	case "event_start_at":
		if c.EventStartAt == nil {
			return Value{Kind: KindAbsent}
		}
		return Value{Kind: KindTime, Time: *c.EventStartAt}
	case "sender_domain":
		return stringValue(c.SenderDomain)
	case "age_days":
		if c.AgeDays == nil {
			return Value{Kind: KindAbsent}
		}
		return Value{Kind: KindNumber, Num: float64(*c.AgeDays)}
	case "quarantined":
		if c.Quarantined == nil {
			return Value{Kind: KindAbsent}
		}
		return Value{Kind: KindBool, Bool: *c.Quarantined}
	case "subject":
		return stringValue(c.Subject)
	case "now":
		return Value{Kind: KindTime, Time: c.Now}
	default:
		return Value{Kind: KindAbsent}
	}
}
