// Package portal describes the school portal as the relay consumes it:
// typed snapshots (assignments, timetable, grades, notebook, gradebook) and a
// session obtained from stored credentials.
//
// The portal's own protocol lives behind the Client interface; see
// portal/bridge for the HTTP adapter.
package portal
