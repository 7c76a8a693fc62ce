package policy

import (
	"testing"
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/email"
)

func sampleContext(now time.Time) *email.Context {
	risk := 0.9
	age := 12
	quarantined := false
	expired := now.Add(-24 * time.Hour)
	eventStart := now.Add(48 * time.Hour)
	return &email.Context{
		EmailID:      "em-1",
		Category:     "promotions",
		RiskScore:    &risk,
		ExpiresAt:    &expired,
		EventStartAt: &eventStart,
		SenderDomain: "deals.example.com",
		AgeDays:      &age,
		Quarantined:  &quarantined,
		Subject:      "50% off ends soon",
		Now:          now,
	}
}

func TestEvaluateLeafOps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := sampleContext(now)

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq string match", Eq("category", "promotions"), true},
		{"eq string mismatch", Eq("category", "interview"), false},
		{"neq string", Neq("category", "interview"), true},
		{"lt number", Lt("risk_score", 0.95), true},
		{"lte number boundary", Lte("risk_score", 0.9), true},
		{"gt number", Gt("risk_score", 0.8), true},
		{"gte number boundary", Gte("risk_score", 0.9), true},
		{"gt number false", Gt("risk_score", 0.95), false},
		{"int literal against age_days", Gte("age_days", 10), true},
		{"in match", In("category", "promotions", "newsletter"), true},
		{"in no match", In("category", "interview", "offer"), false},
		{"regex match", Regex("sender_domain", `\.example\.com$`), true},
		{"regex no match", Regex("sender_domain", `^mail\.google`), false},
		{"exists set field", Exists("risk_score"), true},
		{"eq bool", Eq("quarantined", false), true},
		{"neq bool", Neq("quarantined", true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, ctx); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTimeComparisons(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := sampleContext(now)

	// expires_at is 24h in the past, event_start_at 48h in the future.
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"expired coupon", Lt("expires_at", "now"), true},
		{"not future expiry", Gt("expires_at", "now"), false},
		{"future event", Gt("event_start_at", "now"), true},
		{"rfc3339 literal", Lt("expires_at", "2026-03-02T00:00:00Z"), true},
		{"now equals now", Eq("now", "now"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, ctx); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Absent fields compare as not-equal to anything and fail every ordering
// check. Only Exists can tell absence apart from a failed comparison.
func TestEvaluateAbsentFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := &email.Context{EmailID: "em-2", Category: "other", Now: now}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq on absent", Eq("risk_score", 0.5), false},
		{"neq on absent", Neq("risk_score", 0.5), true},
		{"lt on absent", Lt("risk_score", 0.5), false},
		{"gt on absent", Gt("risk_score", 0.5), false},
		{"exists on absent", Exists("risk_score"), false},
		{"exists on absent time", Exists("expires_at"), false},
		{"in on absent", In("sender_domain", "example.com"), false},
		{"regex on absent", Regex("sender_domain", `.*`), false},
		{"eq quarantined absent vs false", Eq("quarantined", false), false},
		{"neq quarantined absent vs true", Neq("quarantined", true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, ctx); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateCombinators(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := sampleContext(now)

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"all true", All(Eq("category", "promotions"), Lt("expires_at", "now")), true},
		{"all one false", All(Eq("category", "promotions"), Eq("category", "interview")), false},
		{"any one true", Any(Eq("category", "interview"), Eq("category", "promotions")), true},
		{"any all false", Any(Eq("category", "interview"), Eq("category", "offer")), false},
		{"not flips", Not(Eq("category", "interview")), true},
		{"empty all is vacuously true", All(), true},
		{"empty any is false", Any(), false},
		{"nested", All(Any(Eq("category", "promotions"), Eq("category", "newsletter")), Not(Eq("quarantined", true))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.cond, ctx); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateMixedTypeComparison(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := sampleContext(now)

	// A string literal against a numeric field is incomparable, never a match.
	if Evaluate(Eq("risk_score", "high"), ctx) {
		t.Error("string literal should not equal a numeric field")
	}
	if Evaluate(Lt("risk_score", "high"), ctx) {
		t.Error("incomparable ordering should be false")
	}
	// Incomparable is still not-equal.
	if !Evaluate(Neq("risk_score", "high"), ctx) {
		t.Error("incomparable Neq should be true")
	}
}

func TestEvaluateInvalidRegexNeverMatches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := sampleContext(now)

	// Validation rejects these at write time; the evaluator still has to be
	// total if one slips through.
	if Evaluate(Regex("sender_domain", `([`), ctx) {
		t.Error("invalid pattern should never match")
	}
	// Repeated evaluation exercises the cached nil entry.
	if Evaluate(Regex("sender_domain", `([`), ctx) {
		t.Error("cached invalid pattern should never match")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := sampleContext(now)
	cond := All(Eq("category", "promotions"), Lt("expires_at", "now"), Regex("sender_domain", `example`))

	first := Evaluate(cond, ctx)
	for i := 0; i < 100; i++ {
		if Evaluate(cond, ctx) != first {
			t.Fatal("evaluation of an unchanged snapshot must be stable")
		}
	}
}
