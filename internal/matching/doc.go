// Package matching decides which subscribers a new listing should reach.
//
// A [Matcher] evaluates one listing against one [models.PreferenceRecord]; a [Selector]
// narrows the preference store with a [CoarseFilter] and re-checks every candidate with the matcher.
package matching
