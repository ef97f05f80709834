package scheduler

import "github.com/viant/rrsched/model"

// fifo is an unbounded first-in first-out process queue
type fifo struct {
	items []*model.Process
}

func (q *fifo) push(p *model.Process) {
	q.items = append(q.items, p)
}

func (q *fifo) pop() *model.Process {
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return p
}

func (q *fifo) peek() *model.Process {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *fifo) len() int {
	return len(q.items)
}

func (q *fifo) views() []model.ProcessView {
	ret := make([]model.ProcessView, 0, len(q.items))
	for _, p := range q.items {
		ret = append(ret, p.View())
	}
	return ret
}
