package rules

import (
	"container/heap"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
)

type candidateHeap []Candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(Candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// MoveQueue is a max-priority queue of untried ranked moves. Each entry is
// returned by Pop exactly once.
type MoveQueue struct {
	h candidateHeap
}

func NewMoveQueue(cands []Candidate) *MoveQueue {
	q := &MoveQueue{h: append(candidateHeap(nil), cands...)}
	heap.Init(&q.h)
	return q
}

// RankQueue ranks g for side and wraps the result in a queue.
func RankQueue(g *game.Grid, side game.Side, opts RankOptions) *MoveQueue {
	return NewMoveQueue(Rank(g, side, opts))
}

func (q *MoveQueue) Len() int {
	if q == nil {
		return 0
	}
	return q.h.Len()
}

// Peek returns the best remaining candidate without removing it.
func (q *MoveQueue) Peek() (Candidate, bool) {
	if q.Len() == 0 {
		return Candidate{}, false
	}
	return q.h[0], true
}

// Pop removes and returns the best remaining candidate.
func (q *MoveQueue) Pop() (Candidate, bool) {
	if q.Len() == 0 {
		return Candidate{}, false
	}
	return heap.Pop(&q.h).(Candidate), true
}
