// Package model defines the records and snapshots handled by ransomwatch.
//
// This package contains the following main types:
//   - Victim and Attack: the two canonical record shapes of the feed
//   - ClassifiedVictim and ClassifiedAttack: records relevant to a target country
//   - Country: the signature a record is classified against
//   - Snapshot: the immutable result of one refresh cycle
//
// Victim and Attack share the Record interface, so classification,
// merging and filtering are written once for both.
package model
