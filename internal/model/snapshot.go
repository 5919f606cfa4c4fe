package model

import (
	"encoding/hex"
	"io"
	"time"

	"golang.org/x/crypto/sha3"
)

// Collection names used by the CLI, the HTTP API and the reports.
const (
	CollectionVictims       = "victims"
	CollectionAttacks       = "attacks"
	CollectionTargetVictims = "target-victims"
	CollectionTargetAttacks = "target-attacks"
	CollectionRegionVictims = "region-victims"
)

// Collections lists the collection names in display order.
func Collections() []string {
	return []string{
		CollectionVictims,
		CollectionAttacks,
		CollectionTargetVictims,
		CollectionTargetAttacks,
		CollectionRegionVictims,
	}
}

// SourceStatus records the outcome of one feed request in a refresh cycle.
type SourceStatus struct {
	// Name identifies the source (e.g. "recentvictims", "countryvictims/EG").
	Name string `json:"name"`

	// Records is the number of normalized records the source returned.
	Records int `json:"records"`

	// Error is the failure message; empty on success.
	Error string `json:"error,omitempty"`

	// Fatal reports whether a failure of this source aborts the cycle.
	Fatal bool `json:"fatal"`
}

// Failed reports whether the source failed.
func (s SourceStatus) Failed() bool {
	return s.Error != ""
}

// Snapshot is the result of one refresh cycle.
//
// A snapshot is assembled by the refresh pipeline and handed to readers
// only once complete. Published snapshots must not be modified.
type Snapshot struct {
	// Target is the country the target collections were classified against.
	Target Country `json:"target"`

	// Regions are the fan-out region codes in query order.
	Regions []string `json:"regions"`

	Victims       []*Victim           `json:"victims"`
	Attacks       []*Attack           `json:"attacks"`
	TargetVictims []*ClassifiedVictim `json:"targetVictims"` //nolint:tagliatelle // dashboard format
	TargetAttacks []*ClassifiedAttack `json:"targetAttacks"` //nolint:tagliatelle // dashboard format
	RegionVictims []*Victim           `json:"regionVictims"` //nolint:tagliatelle // dashboard format

	// Sources lists every feed request made during the cycle.
	Sources []SourceStatus `json:"sources"`

	// AsOf is the freshness timestamp of the cycle.
	AsOf time.Time `json:"asOf"` //nolint:tagliatelle // dashboard format
}

// NewSnapshot creates an empty snapshot for the given target and regions.
func NewSnapshot(target Country, regions []string) *Snapshot {
	return &Snapshot{
		Target:        target,
		Regions:       append([]string(nil), regions...),
		Victims:       make([]*Victim, 0),
		Attacks:       make([]*Attack, 0),
		TargetVictims: make([]*ClassifiedVictim, 0),
		TargetAttacks: make([]*ClassifiedAttack, 0),
		RegionVictims: make([]*Victim, 0),
		Sources:       make([]SourceStatus, 0),
	}
}

// AddSource appends a source status.
func (s *Snapshot) AddSource(status SourceStatus) {
	s.Sources = append(s.Sources, status)
}

// FailedSources returns the sources that failed during the cycle.
func (s *Snapshot) FailedSources() []SourceStatus {
	var failed []SourceStatus
	for _, src := range s.Sources {
		if src.Failed() {
			failed = append(failed, src)
		}
	}
	return failed
}

// Degraded reports whether any non-fatal source failed.
func (s *Snapshot) Degraded() bool {
	return len(s.FailedSources()) > 0
}

// Stats holds the record counts of each collection.
type Stats struct {
	Victims       int `json:"victims"`
	Attacks       int `json:"attacks"`
	TargetVictims int `json:"targetVictims"` //nolint:tagliatelle // dashboard format
	TargetAttacks int `json:"targetAttacks"` //nolint:tagliatelle // dashboard format
	RegionVictims int `json:"regionVictims"` //nolint:tagliatelle // dashboard format
}

// Stats returns the record counts of the snapshot.
func (s *Snapshot) Stats() Stats {
	return Stats{
		Victims:       len(s.Victims),
		Attacks:       len(s.Attacks),
		TargetVictims: len(s.TargetVictims),
		TargetAttacks: len(s.TargetAttacks),
		RegionVictims: len(s.RegionVictims),
	}
}

// Count returns the number of records in the named collection,
// or -1 when the name is unknown.
func (st Stats) Count(collection string) int {
	switch collection {
	case CollectionVictims:
		return st.Victims
	case CollectionAttacks:
		return st.Attacks
	case CollectionTargetVictims:
		return st.TargetVictims
	case CollectionTargetAttacks:
		return st.TargetAttacks
	case CollectionRegionVictims:
		return st.RegionVictims
	default:
		return -1
	}
}

// Digest returns a SHA3-256 fingerprint of every field of every record in
// each collection, matched keywords included. Two snapshots with the same
// records in the same order have the same digest regardless of AsOf.
func (s *Snapshot) Digest() string {
	h := sha3.New256()

	writeFields(h, CollectionVictims, s.Victims)
	writeFields(h, CollectionAttacks, s.Attacks)
	writeFields(h, CollectionTargetVictims, s.TargetVictims)
	writeFields(h, CollectionTargetAttacks, s.TargetAttacks)
	writeFields(h, CollectionRegionVictims, s.RegionVictims)

	return hex.EncodeToString(h.Sum(nil))
}

// writeFields hashes one collection. Names and values are separated by
// ASCII unit, record and group separators so that no two layouts collide.
func writeFields[R Record](w io.Writer, collection string, records []R) {
	_, _ = io.WriteString(w, collection)
	_, _ = w.Write([]byte{0x1d})
	for _, r := range records {
		for _, f := range r.Fields() {
			_, _ = io.WriteString(w, f.Name)
			_, _ = w.Write([]byte{0x1f})
			_, _ = io.WriteString(w, f.Value)
			_, _ = w.Write([]byte{0x1f})
		}
		_, _ = w.Write([]byte{0x1e})
	}
	_, _ = w.Write([]byte{0x1d})
}
