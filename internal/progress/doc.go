// Package progress tracks batch position and estimated time remaining for the
// stage runners and renders it either as pterm lines on a terminal or as
// structured log records.
package progress
