package memory

import (
	"fmt"
	"sort"
)

// Entry is a page table entry
type Entry struct {
	Valid       bool `json:"valid"`
	FrameNumber int  `json:"frame"`
}

// PageTable maps the virtual pages of a single process
type PageTable []Entry

// Manager translates virtual addresses for every registered process
type Manager struct {
	config Config
	tables map[int]PageTable
	frames *framePool
}

// New creates a manager with an empty page table for every supplied pid
func New(config Config, pids ...int) *Manager {
	ret := &Manager{
		config: config,
		tables: make(map[int]PageTable, len(pids)),
		frames: newFramePool(config.FrameCount),
	}
	for _, pid := range pids {
		ret.Register(pid)
	}
	return ret
}

// Register creates an empty page table for pid unless one exists already
func (m *Manager) Register(pid int) {
	if _, ok := m.tables[pid]; ok {
		return
	}
	m.tables[pid] = make(PageTable, m.config.PageTableEntries)
}

// Translate converts va of pid into a physical address. faulted reports a page
// fault; when the fault cannot be resolved the returned address is
// InvalidAddress and the error is ErrNoFreeFrame.
func (m *Manager) Translate(pid, va int) (pa int, faulted bool, err error) {
	table, ok := m.tables[pid]
	if !ok {
		return InvalidAddress, false, fmt.Errorf("%w: %d", ErrUnknownProcess, pid)
	}
	if va < 0 {
		return InvalidAddress, false, fmt.Errorf("%w: pid %d va %d", ErrAddressOutOfRange, pid, va)
	}
	pageNumber := va / m.config.PageSize
	offset := va % m.config.PageSize
	if pageNumber >= len(table) {
		return InvalidAddress, false, fmt.Errorf("%w: pid %d va %d", ErrAddressOutOfRange, pid, va)
	}
	entry := &table[pageNumber]
	if !entry.Valid {
		faulted = true
		frame, ok := m.frames.allocate()
		if !ok {
			return InvalidAddress, true, ErrNoFreeFrame
		}
		entry.Valid = true
		entry.FrameNumber = frame
	}
	return entry.FrameNumber*m.config.PageSize + offset, faulted, nil
}

// FreeFrames returns the number of unallocated frames
func (m *Manager) FreeFrames() int {
	return m.frames.size()
}

// AllocatedFrames returns the number of frames assigned to pages
func (m *Manager) AllocatedFrames() int {
	return m.frames.total - m.frames.size()
}

// PageTable returns a copy of the page table of pid
func (m *Manager) PageTable(pid int) (PageTable, error) {
	table, ok := m.tables[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcess, pid)
	}
	return append(PageTable(nil), table...), nil
}

// PIDs returns registered process ids in ascending order
func (m *Manager) PIDs() []int {
	ret := make([]int, 0, len(m.tables))
	for pid := range m.tables {
		ret = append(ret, pid)
	}
	sort.Ints(ret)
	return ret
}

// Config returns the manager configuration
func (m *Manager) Config() Config {
	return m.config
}
