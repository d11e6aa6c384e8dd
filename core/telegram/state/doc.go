// Package state provides an in-memory per-user value store for Telegram bots.
// It is domain-agnostic so it can be reused across bots.
package state
