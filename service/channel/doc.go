// Package channel provides the addressed, ordered request/response transport
// between the scheduler and its workers. Every worker owns an inbox keyed by
// its process id; all workers reply on a single scheduler-bound queue. Both
// directions preserve send order.
package channel
