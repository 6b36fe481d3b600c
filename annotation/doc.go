// Package annotation runs the per-item review workflow for candidate tags.
//
// A Session holds the working set of annotation tags for exactly one media
// item. Candidates arrive from a suggestion source in the pending state and are
// resolved by Accept and Reject; user-authored tags start accepted. Nothing
// leaves the session until Save, which folds the accepted names into the
// item's flat tag list. Discard drops everything.
//
// Architecture:
//   - Transition: pure state function (pending/accepted/rejected x accept/reject)
//   - Session: in-memory working set, single mutator, no I/O
//   - Manager: boundary calls (item store, suggestion source, identity registry,
//     taxonomy usage counts) around a session's open and commit
//
// Integration:
//   - OPEN phase: load persisted tags, fetch one suggestion batch, ingest
//   - COMMIT phase: compute the flat list, persist it, then close the session
//
// A Session is not safe for concurrent use. The taxonomy it reports usage to is
// shared and does its own locking.
package annotation
