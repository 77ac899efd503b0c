// Package stage holds the contract between the workflow manager and the
// pipeline stages, plus small helpers stages share for artifact checks and
// progress reporting.
package stage
