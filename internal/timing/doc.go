// Package timing repairs timestamped token streams.
//
// Repair resolves overlaps in three tiers (shift, split, proportional
// rescale), enforces a minimum gap between neighbours, and clamps every token
// duration into a configured range. It is deterministic, never fails, and is
// idempotent. ExtendForDisplay and Compensate are the optional pre- and
// post-passes used by the pipeline.
package timing
