// Package messaging defines the queue abstractions used for the
// scheduler/worker message exchange. Implementations deliver messages in
// publish order.
package messaging
