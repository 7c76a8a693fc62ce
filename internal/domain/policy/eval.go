package policy

import (
	"regexp"
	"sync"
	"time"

	"github.com/jobtrail/jobtrail/internal/domain/email"
)

// Evaluate walks a condition tree against an email context. It is pure,
// total and deterministic: malformed nodes and missing fields never fail,
// they evaluate to false (or true for Neq, since an absent field compares as
// not-equal to anything). Only Exists distinguishes absent from present.
func Evaluate(c Condition, ctx *email.Context) bool {
	switch c.Op {
	case OpAll:
		for _, child := range c.Children {
			if !Evaluate(child, ctx) {
				return false
			}
		}
		return true // vacuous truth for All([])
	case OpAny:
		for _, child := range c.Children {
			if Evaluate(child, ctx) {
				return true
			}
		}
		return false
	case OpNot:
		if c.Child == nil {
			return false
		}
		return !Evaluate(*c.Child, ctx)
	case OpEq:
		return compare(ctx.Lookup(c.Field), c.Value, ctx.Now) == cmpEqual
	case OpNeq:
		return compare(ctx.Lookup(c.Field), c.Value, ctx.Now) != cmpEqual
	case OpLt:
		return compare(ctx.Lookup(c.Field), c.Value, ctx.Now) == cmpLess
	case OpLte:
		r := compare(ctx.Lookup(c.Field), c.Value, ctx.Now)
		return r == cmpLess || r == cmpEqual
	case OpGt:
		return compare(ctx.Lookup(c.Field), c.Value, ctx.Now) == cmpGreater
	case OpGte:
		r := compare(ctx.Lookup(c.Field), c.Value, ctx.Now)
		return r == cmpGreater || r == cmpEqual
	case OpIn:
		v := ctx.Lookup(c.Field)
		for _, lit := range c.Values {
			if compare(v, lit, ctx.Now) == cmpEqual {
				return true
			}
		}
		return false
	case OpRegex:
		v := ctx.Lookup(c.Field)
		pattern, ok := c.Value.(string)
		if !ok || v.Kind != email.KindString {
			return false
		}
		re := compiledPattern(pattern)
		if re == nil {
			return false
		}
		return re.MatchString(v.Str)
	case OpExists:
		return !ctx.Lookup(c.Field).Absent()
	default:
		return false
	}
}

// cmpResult is a four-valued comparison outcome. Absent fields and
// type-mismatched literals compare as incomparable: not equal, not less,
// not greater.
type cmpResult int

const (
	cmpIncomparable cmpResult = iota
	cmpEqual
	cmpLess
	cmpGreater
)

// compare resolves the literal against the field value's type and performs a
// typed comparison. Numbers compare numerically, times as instants, strings
// lexicographically. The literal "now" resolves to the evaluation-time
// instant before comparison.
func compare(v email.Value, literal any, now time.Time) cmpResult {
	switch v.Kind {
	case email.KindString:
		s, ok := literal.(string)
		if !ok {
			return cmpIncomparable
		}
		switch {
		case v.Str == s:
			return cmpEqual
		case v.Str < s:
			return cmpLess
		default:
			return cmpGreater
		}
	case email.KindNumber:
		n, ok := literalNumber(literal)
		if !ok {
			return cmpIncomparable
		}
		switch {
		case v.Num == n:
			return cmpEqual
		case v.Num < n:
			return cmpLess
		default:
			return cmpGreater
		}
	case email.KindTime:
		t, ok := literalTime(literal, now)
		if !ok {
			return cmpIncomparable
		}
		switch {
		case v.Time.Equal(t):
			return cmpEqual
		case v.Time.Before(t):
			return cmpLess
		default:
			return cmpGreater
		}
	case email.KindBool:
		b, ok := literal.(bool)
		if !ok || v.Bool != b {
			return cmpIncomparable
		}
		return cmpEqual
	default:
		return cmpIncomparable
	}
}

// literalNumber coerces the JSON and Go numeric literal shapes to float64.
func literalNumber(literal any) (float64, bool) {
	switch n := literal.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// literalTime resolves a time literal: the string "now", an RFC 3339 string,
// or a time.Time from Go-built policies.
func literalTime(literal any, now time.Time) (time.Time, bool) {
	switch t := literal.(type) {
	case string:
		if t == "now" {
			return now, true
		}
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case time.Time:
		return t, true
	default:
		return time.Time{}, false
	}
}

// patternCache memoizes compiled regexes. Patterns are validated at policy
// write time, so a compile failure here answers false rather than erroring.
var patternCache sync.Map // pattern string -> *regexp.Regexp

func compiledPattern(pattern string) *regexp.Regexp {
	if cached, ok := patternCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		patternCache.Store(pattern, (*regexp.Regexp)(nil))
		return nil
	}
	patternCache.Store(pattern, re)
	return re
}
