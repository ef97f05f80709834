package memory

// InvalidAddress is returned for translations that produce no physical address.
const InvalidAddress = -1

// framePool keeps free frame numbers with stack discipline: the most recently
// freed frame is allocated next.
type framePool struct {
	free  []int
	total int
}

func newFramePool(count int) *framePool {
	ret := &framePool{free: make([]int, 0, count), total: count}
	for i := 0; i < count; i++ {
		ret.release(i)
	}
	return ret
}

func (p *framePool) release(frame int) {
	p.free = append(p.free, frame)
}

func (p *framePool) allocate() (int, bool) {
	n := len(p.free)
	if n == 0 {
		return InvalidAddress, false
	}
	frame := p.free[n-1]
	p.free = p.free[:n-1]
	return frame, true
}

func (p *framePool) size() int {
	return len(p.free)
}
