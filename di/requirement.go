package di

import (
	"fmt"
	"strings"
)

// Requirement is the multiplicity policy applied to the registrations of a token.
type Requirement int

const (
	One       Requirement = iota // exactly one match
	Any                          // first-registered of at least one match
	OneOrNone                    // exactly one match, or absence
	AnyOrNone                    // first-registered match, or absence
	All                          // every match in registration order, at least one
	AllOrNone                    // every match in registration order, possibly none
)

var requirementNames = [...]string{
	One:       "ONE",
	Any:       "ANY",
	OneOrNone: "ONE_OR_NONE",
	AnyOrNone: "ANY_OR_NONE",
	All:       "ALL",
	AllOrNone: "ALL_OR_NONE",
}

func (r Requirement) String() string {
	if r.valid() {
		return requirementNames[r]
	}
	return fmt.Sprintf("Requirement(%d)", int(r))
}

// ParseRequirement parses a requirement name such as "one_or_none".
func ParseRequirement(s string) (Requirement, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for r, n := range requirementNames {
		if n == name {
			return Requirement(r), nil
		}
	}
	return 0, fmt.Errorf("di: unknown requirement %q", s)
}

// Multiple reports whether the requirement yields a sequence.
func (r Requirement) Multiple() bool { return r == All || r == AllOrNone }

// Optional reports whether zero matches is a successful outcome.
func (r Requirement) Optional() bool {
	return r == OneOrNone || r == AnyOrNone || r == AllOrNone
}

// exclusive reports whether more than one match is an error.
func (r Requirement) exclusive() bool { return r == One || r == OneOrNone }

func (r Requirement) valid() bool { return r >= One && r <= AllOrNone }
