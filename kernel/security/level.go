package security

import (
	"strings"

	"github.com/gopheros/kcore/kernel"
)

var (
	// ErrUnknownLevel is returned by ParseLevel for unrecognized level names.
	ErrUnknownLevel = &kernel.Error{Module: "security", Message: "unknown security level"}
)

// Level is the privilege level a process runs at. Lower values carry more
// privilege.
type Level uint8

// The defined security levels.
const (
	Kernel Level = iota
	System
	User
)

// Valid returns true if l is one of the defined security levels.
func (l Level) Valid() bool {
	return l <= User
}

// Privileged returns true for levels allowed to access kernel space.
func (l Level) Privileged() bool {
	return l <= System
}

func (l Level) String() string {
	switch l {
	case Kernel:
		return "kernel"
	case System:
		return "system"
	case User:
		return "user"
	default:
		return "invalid"
	}
}

// ParseLevel maps a level name (case-insensitive) to a Level.
func ParseLevel(name string) (Level, *kernel.Error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kernel":
		return Kernel, nil
	case "system":
		return System, nil
	case "user":
		return User, nil
	default:
		return 0, ErrUnknownLevel
	}
}
