package memory

import "errors"

var (
	// ErrUnknownProcess is returned when translating for a pid without a page table.
	ErrUnknownProcess = errors.New("memory: unknown process")

	// ErrAddressOutOfRange is returned when the page number exceeds the page table.
	ErrAddressOutOfRange = errors.New("memory: virtual address out of range")

	// ErrNoFreeFrame signals a page fault that could not be resolved because the
	// frame pool is exhausted. The simulation treats it as a soft fault.
	ErrNoFreeFrame = errors.New("memory: no free frame")
)
