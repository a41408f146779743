// Package auth implements the privacy lock: a short-lived authenticated
// session gated by platform biometrics with a numeric PIN fallback.
//
// A Manager owns the single in-memory Session. Authenticate tries the
// biometric gate first and falls back to a PIN challenge resolved by a UI
// surface through PinChallenge.Submit or PinChallenge.Cancel. A successful
// attempt is persisted through a KeyValueStore and arms a one-shot expiry
// timer; Restore brings a still-fresh session back after a restart.
package auth
