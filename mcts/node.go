package mcts

import (
	"fmt"

	"github.com/chaitanyamukeshpatel/Gomoku-AI/game"
	"github.com/chaitanyamukeshpatel/Gomoku-AI/rules"
)

// NodeID addresses a node in a Tree.
type NodeID int

// NoParent is the parent of the root.
const NoParent NodeID = -1

// moveSet marks moves already expanded from a node.
type moveSet [game.Size * game.Size]bool

func (s *moveSet) add(p game.Point)      { s[p.Index()] = true }
func (s *moveSet) has(p game.Point) bool { return s[p.Index()] }

// Node represents one ply in the search tree.
type Node struct {
	Grid game.Grid
	// Mover is the side whose move produced this node. At the root it is the
	// opponent of the searching side.
	Mover    game.Side
	Visits   int
	Wins     float64
	Parent   NodeID
	Children []NodeID
	Move     game.Point
	HasMove  bool
	Terminal bool
	// Winner is the side that completed five, or Empty for a drawn
	// (full) terminal node.
	Winner game.Side

	queue *rules.MoveQueue
	tried moveSet
}

// ToMove is the side about to play from this node.
func (n *Node) ToMove() game.Side {
	return n.Mover.Opponent()
}

// Rate is the plain average reward.
func (n *Node) Rate() float64 {
	return n.Wins / float64(n.Visits)
}

// Tree is an arena of nodes; index 0 is the root.
type Tree struct {
	nodes       []Node
	maxChildren int
}

func newTree(root Node, maxChildren int) *Tree {
	root.Parent = NoParent
	t := &Tree{nodes: make([]Node, 0, 1024), maxChildren: maxChildren}
	t.nodes = append(t.nodes, root)
	return t
}

// Root is always node 0.
func (t *Tree) Root() NodeID { return 0 }

func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a pointer into the arena. It is invalidated by the next
// attach, so callers must not hold it across an expansion.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// attach appends child under parent and returns its id.
func (t *Tree) attach(parent NodeID, child Node) NodeID {
	if n := len(t.nodes[parent].Children); n >= t.maxChildren {
		panic(fmt.Sprintf("mcts: node %d already has %d children", parent, n))
	}
	child.Parent = parent
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, child)
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// BestChild returns the child of id with the highest win rate. Ties keep the
// first child. It reports false when id has no children.
func (t *Tree) BestChild(id NodeID) (NodeID, bool) {
	children := t.nodes[id].Children
	if len(children) == 0 {
		return NoParent, false
	}
	best := children[0]
	bestRate := t.nodes[best].Rate()
	for _, c := range children[1:] {
		if r := t.nodes[c].Rate(); r > bestRate {
			best, bestRate = c, r
		}
	}
	return best, true
}
