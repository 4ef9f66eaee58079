// Package security holds the constant-time comparison primitives, the
// secret sources receivers resolve shared secrets from, and the scheme
// verifiers the pipeline's security stage selects by descriptor.
package security
