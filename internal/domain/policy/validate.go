package policy

import (
	"fmt"
	"regexp"
	"time"

	"github.com/jobtrail/jobtrail/internal/domain"
	"github.com/jobtrail/jobtrail/internal/domain/email"
)

// maxConditionDepth bounds tree nesting accepted at write time.
const maxConditionDepth = 32

// Validate checks that a CreateRequest is well-formed. Malformed condition
// trees and invalid regex patterns are rejected here, synchronously, so that
// evaluation never has to fail.
func (req *CreateRequest) Validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(req.Name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	if !KnownActionType(req.ActionType) {
		return fmt.Errorf("unknown action_type %q: %w", req.ActionType, domain.ErrValidation)
	}
	if req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1]: %w", domain.ErrValidation)
	}
	if req.Confidence != nil && (*req.Confidence < 0 || *req.Confidence > 1) {
		return fmt.Errorf("confidence must be in [0,1]: %w", domain.ErrValidation)
	}
	if err := ValidateCondition(req.Condition); err != nil {
		return err
	}
	return nil
}

// Validate checks that an UpdateRequest is well-formed. Only the fields
// present are checked.
func (req *UpdateRequest) Validate() error {
	if req.Name != nil {
		if *req.Name == "" {
			return fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		if len(*req.Name) > 255 {
			return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
		}
	}
	if req.ActionType != nil && !KnownActionType(*req.ActionType) {
		return fmt.Errorf("unknown action_type %q: %w", *req.ActionType, domain.ErrValidation)
	}
	if req.ConfidenceThreshold != nil && (*req.ConfidenceThreshold < 0 || *req.ConfidenceThreshold > 1) {
		return fmt.Errorf("confidence_threshold must be in [0,1]: %w", domain.ErrValidation)
	}
	if req.Confidence != nil && (*req.Confidence < 0 || *req.Confidence > 1) {
		return fmt.Errorf("confidence must be in [0,1]: %w", domain.ErrValidation)
	}
	if req.Condition != nil {
		if err := ValidateCondition(*req.Condition); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCondition checks a condition tree against the context schema.
func ValidateCondition(c Condition) error {
	return validateNode(c, 0)
}

func validateNode(c Condition, depth int) error {
	if depth > maxConditionDepth {
		return fmt.Errorf("condition tree exceeds max depth %d: %w", maxConditionDepth, domain.ErrValidation)
	}

	switch c.Op {
	case OpAll, OpAny:
		for i, child := range c.Children {
			if err := validateNode(child, depth+1); err != nil {
				return fmt.Errorf("%s[%d]: %w", c.Op, i, err)
			}
		}
		return nil
	case OpNot:
		if c.Child == nil {
			return fmt.Errorf("not requires a child: %w", domain.ErrValidation)
		}
		return validateNode(*c.Child, depth+1)
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		if err := validateField(c.Field); err != nil {
			return err
		}
		return validateLiteral(c.Op, c.Field, c.Value)
	case OpIn:
		if err := validateField(c.Field); err != nil {
			return err
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("in requires a non-empty literal set: %w", domain.ErrValidation)
		}
		for i, v := range c.Values {
			if err := validateLiteral(c.Op, c.Field, v); err != nil {
				return fmt.Errorf("in[%d]: %w", i, err)
			}
		}
		return nil
	case OpRegex:
		if err := validateField(c.Field); err != nil {
			return err
		}
		pattern, ok := c.Value.(string)
		if !ok {
			return fmt.Errorf("regex pattern must be a string: %w", domain.ErrValidation)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid regex %q: %v: %w", pattern, err, domain.ErrValidation)
		}
		return nil
	case OpExists:
		return validateField(c.Field)
	default:
		return fmt.Errorf("unknown condition op %q: %w", c.Op, domain.ErrValidation)
	}
}

func validateField(field string) error {
	if field == "" {
		return fmt.Errorf("field is required: %w", domain.ErrValidation)
	}
	if !email.KnownField(field) {
		return fmt.Errorf("unknown field %q: %w", field, domain.ErrValidation)
	}
	return nil
}

// validateLiteral rejects literal shapes a comparator could never resolve:
// anything other than a JSON scalar, and unparseable time strings for the
// time-typed fields.
func validateLiteral(op Op, field string, literal any) error {
	switch lit := literal.(type) {
	case string:
		if isTimeField(field) && lit != "now" {
			if _, err := time.Parse(time.RFC3339, lit); err != nil {
				return fmt.Errorf("%s on %s: literal %q is not RFC 3339 or \"now\": %w", op, field, lit, domain.ErrValidation)
			}
		}
		return nil
	case float64, float32, int, int64, bool, time.Time:
		return nil
	case nil:
		return fmt.Errorf("%s on %s: literal is required: %w", op, field, domain.ErrValidation)
	default:
		return fmt.Errorf("%s on %s: literal must be a scalar: %w", op, field, domain.ErrValidation)
	}
}

func isTimeField(field string) bool {
	switch field {
	case "expires_at", "event_start_at", "now":
		return true
	}
	return false
}
