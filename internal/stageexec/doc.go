// Package stageexec runs one stage handler against one record in isolation.
//
// Errors and panics are classified, logged with stage and asset fields, and
// handed to a FailureRecorder so the surrounding batch can continue with the
// next record.
package stageexec
