// Package models defines the domain entities for the pawalert notification engine.
//
// The package contains two categories of types:
//
// 1. Value types that flow through a matching cycle:
//   - [ListingCreatedEvent] : wire form of a "pet created" event
//   - [ListingSnapshot] : immutable listing view used for matching
//   - [PreferenceRecord] : a user's standing adoption preferences
//   - [Subscriber] : a preference record joined with its [Contact]
//   - [MatchResult] and [NotificationOutcome] : per-candidate results
//
// 2. Persistent entities with full lifecycle management:
//   - [User] : alert recipients, owners of a [Contact]
//
// Persistent entities implement the [Model] interface providing ID, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
