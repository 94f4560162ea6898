// Package ratelimit implements sliding-window request rate limiting.
//
// SlidingWindowLimiter keeps per-identifier request timestamps in memory
// behind a single mutex; a rejected request is never counted, so short
// bursts that hit the limit do not extend the penalty. A periodic Sweep
// garbage-collects identifiers that have gone quiet.
//
// DistributedLimiter offers the same admit/reject decision backed by Redis
// for multi-instance deployments, failing open when Redis is unreachable.
package ratelimit
