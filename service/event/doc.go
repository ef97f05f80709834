// Package event publishes typed simulation events over a messaging queue so
// that observers can follow the scheduler without slowing it down.
package event
