// Package dump defines the log sink that receives periodic scheduler
// snapshots and the final per-process totals, together with text and JSON
// encodings, an io.Writer sink, an afs storage sink and an in-memory
// recorder.
package dump
