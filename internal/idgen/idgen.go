package idgen

import "github.com/google/uuid"

// NewFunc generates simulation run identifiers; tests may replace it to get
// stable dump headers.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new run identifier.
func New() string { return NewFunc() }
