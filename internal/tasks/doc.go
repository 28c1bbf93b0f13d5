// Package tasks runs matching cycles in the background, off the listing-creation path.
//
// # Lifecycle
//
// An [Engine] owns a bounded event queue and a fixed pool of cycle workers:
//
//  1. [Engine.Submit] enqueues a listing-created event without blocking and reports whether it was accepted
//  2. [Engine.Start] launches the workers
//  3. [Engine.Stop] refuses new events, lets workers drain the queue and waits for them
//
// # Cycles
//
// Each event runs one cycle through [Engine.RunCycle]:
//
//	Idle -> Selecting -> Dispatching -> Idle
//
// A malformed event or an unavailable preference store abandons the cycle; the failure is logged and
// counted, never returned to whoever raised the event. Before Selecting, the cycle claims its listing
// through a [dedup.Claimer] so a re-delivered event does not notify anyone twice. An abandoned cycle
// releases its claim so a later re-delivery can still run.
//
// Dispatching fans out one [Notifier] call per candidate, bounded by a weighted semaphore. Outcomes
// land in per-candidate slots and one failure never stops the rest.
//
// # Progress Reporting
//
// An optional [CycleUpdate] channel receives phase transitions. Updates use select with default and are
// dropped when nobody is listening. [Stats] keeps process-wide counters.
package tasks
