package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

// Naming selects how file identities are made unique.
type Naming string

const (
	// NamingUnique appends a short random suffix to the timestamp, so two
	// renders of the same entry in the same millisecond get distinct files.
	NamingUnique Naming = "unique"

	// NamingTimestamp uses the entry id and the timestamp only. Concurrent
	// renders of one entry within a millisecond share a file name and the
	// last write wins.
	NamingTimestamp Naming = "timestamp"
)

// ParseNaming validates a naming mode name. An empty name means NamingUnique.
func ParseNaming(s string) (Naming, error) {
	switch Naming(s) {
	case "", NamingUnique:
		return NamingUnique, nil
	case NamingTimestamp:
		return NamingTimestamp, nil
	}
	return "", apperrors.New(apperrors.ErrCodeInvalidConfiguration,
		"unknown naming mode %q (want unique or timestamp)", s)
}

// Namer derives file identities.
type Namer struct {
	Mode  Naming
	Clock func() time.Time
	// Suffix returns the disambiguator for NamingUnique.
	Suffix func() string
}

// NewNamer returns a namer using the wall clock and random suffixes.
func NewNamer(mode Naming) *Namer {
	return &Namer{Mode: mode, Clock: time.Now, Suffix: randomSuffix}
}

// Identity returns "<entryID>-<timestamp>" with, in unique mode, a trailing
// "-<8 hex chars>".
func (n *Namer) Identity(entryID string) string {
	clock := n.Clock
	if clock == nil {
		clock = time.Now
	}
	id := entryID + "-" + Timestamp(clock())
	if n.Mode == NamingTimestamp {
		return id
	}
	suffix := n.Suffix
	if suffix == nil {
		suffix = randomSuffix
	}
	return id + "-" + suffix()
}

// Timestamp formats t as an ISO-8601 UTC instant with millisecond precision
// and every ':' and '.' replaced by '-', e.g. 2024-05-01T12-00-00-000Z.
func Timestamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
