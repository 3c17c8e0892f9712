package di

import (
	"fmt"
	"strings"
)

// Scope is the lifecycle policy of a class registration.
type Scope int

const (
	Singleton Scope = iota // one instance per registration, cached
	Transient              // a fresh instance per resolution
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "SINGLETON"
	case Transient:
		return "TRANSIENT"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope parses a scope name, case-insensitively.
func ParseScope(s string) (Scope, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SINGLETON":
		return Singleton, nil
	case "TRANSIENT":
		return Transient, nil
	}
	return 0, fmt.Errorf("di: unknown scope %q", s)
}

func (s Scope) valid() bool { return s == Singleton || s == Transient }
