// Package progress tracks aggregated simulation counters.
package progress
