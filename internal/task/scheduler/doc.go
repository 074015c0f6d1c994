// Package scheduler repeats a job on a schedule string (cron, interval or
// HH:MM) until its context is cancelled.
//
// Runs never overlap: a tick that fires while the previous run is still
// going is skipped.
package scheduler
