// Package idgen generates identifiers for parse sessions and other
// request-scoped objects.
//
// Constructors take a Generator so tests can pin identifiers.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings, which
// sort by creation time.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a Generator yielding prefix1, prefix2, ... It is meant
// for tests and is not safe for concurrent use.
func Sequence(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// SessionPrefix tags parse-session identifiers.
const SessionPrefix = "prs_"

// Session is the default parse-session generator.
var Session Generator = Prefixed(SessionPrefix, UUIDv7())
