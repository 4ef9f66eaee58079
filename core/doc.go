// Package core defines the receiver descriptor model and the contracts
// shared by the verification pipeline, secret sources, and stores.
//
// Descriptors are constructed once at startup and never mutated. Every
// per-request structure is owned by the call that produced it.
package core
