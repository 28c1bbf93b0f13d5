// Package repositories implements SQLite persistence for alert recipients and their preferences.
//
// Key Implementations:
//   - [UserRepository] : recipient persistence with email-based lookups and soft deletes
//   - [PreferenceRepository] : standing alert preferences, including the coarse candidate query
//     consumed by the matching selector
//
// Facet sets (species, breeds, sizes) are stored one value per row in child tables so the candidate
// query can express "empty set or contains" with indexed EXISTS clauses.
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
