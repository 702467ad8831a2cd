// Package sanitizer normalizes request input before validation.
//
// All functions are idempotent. Input that cannot be normalized is returned
// trimmed but otherwise unchanged, so the validator reports it.
//
// Normalization includes:
//   - IDs: trimmed and lowercased, the canonical form of a hex ObjectID
//   - Times of day: a single-digit hour is zero-padded, "9:00" becomes "09:00"
//   - Statuses: trimmed and lowercased
package sanitizer
