// Package keywordtree scans the shared-memory root for FPS files and
// interns every active parameter's dotted keyword path into a shared,
// parent-indexed arena, so a browser or command-line completer can walk
// "root -> seg1 -> seg1.seg2 -> ..." without following pointers.
//
// Nodes are stored in a flat slice and referenced by index rather than by
// pointer, per the design notes' "no back-references" guidance: a node
// holds its parent's index and its children's indices, never a pointer,
// so there is no pointer cycle to guard against.
package keywordtree

import (
	"path/filepath"
	"strings"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsstore"
)

const noParent = -1

// Node is one interned keyword-path prefix. Leaves additionally carry the
// FPS/parameter coordinates the prefix resolves to.
type Node struct {
	Segment    string
	ParentIdx  int
	Children   []int
	IsLeaf     bool
	FPSName    string
	ParamIndex int
}

// Tree is the arena of interned nodes, rooted at index 0.
type Tree struct {
	nodes []Node
}

// New returns an empty tree containing only the synthetic root node.
func New() *Tree {
	return &Tree{nodes: []Node{{Segment: "", ParentIdx: noParent}}}
}

// Root returns the root node's index, always 0.
func (t *Tree) Root() int { return 0 }

// Node returns the node at idx.
func (t *Tree) Node(idx int) Node { return t.nodes[idx] }

// Len returns the number of interned nodes, including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// intern finds or creates the child of parentIdx named segment, reusing
// an existing node when the prefix already exists for another FPS (spec
// §4.6: "nodes are shared across FPS instances when prefixes match").
func (t *Tree) intern(parentIdx int, segment string) int {
	for _, childIdx := range t.nodes[parentIdx].Children {
		if t.nodes[childIdx].Segment == segment {
			return childIdx
		}
	}
	if len(t.nodes) >= fpslimits.KeywordTreeNodeCapacity {
		panic("keywordtree: node capacity exceeded")
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{Segment: segment, ParentIdx: parentIdx})
	t.nodes[parentIdx].Children = append(t.nodes[parentIdx].Children, idx)
	return idx
}

// AddPath interns every prefix of segments under the root and marks the
// full path as a leaf pointing at (fpsName, paramIndex).
func (t *Tree) AddPath(fpsName string, paramIndex int, segments []string) {
	cur := t.Root()
	for _, seg := range segments {
		cur = t.intern(cur, seg)
	}
	t.nodes[cur].IsLeaf = true
	t.nodes[cur].FPSName = fpsName
	t.nodes[cur].ParamIndex = paramIndex
}

// FullPath reconstructs the dotted keyword string for a node by walking
// parent indices back to the root.
func (t *Tree) FullPath(idx int) string {
	var segs []string
	for idx != t.Root() {
		n := t.nodes[idx]
		segs = append([]string{n.Segment}, segs...)
		idx = n.ParentIdx
	}
	return strings.Join(segs, ".")
}

// Scan globs shmRoot for "*.fps.shm", connects each matching FPS in ctrl
// mode, walks its active parameters, and returns a freshly built tree
// along with the set of FPS names it visited. A name filter of "_ALL"
// (or "") matches every file; any other value is treated as a name
// prefix, per spec §4.6.
func Scan(shmRoot, nameFilter string) (*Tree, []string, error) {
	pattern := filepath.Join(shmRoot, "*.fps.shm")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, err
	}

	tree := New()
	var visited []string
	for _, path := range matches {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, ".fps.shm")
		if nameFilter != "" && nameFilter != "_ALL" && !strings.HasPrefix(name, nameFilter) {
			continue
		}

		fps, err := fpsstore.Connect(name, fpsstore.ConnectCtrl)
		if err != nil {
			continue // unreadable/stale file: skip, don't abort the scan
		}
		for i, p := range fps.Parameters {
			if !p.IsActive() {
				continue
			}
			tree.AddPath(name, i, p.KeywordPath)
		}
		fps.Disconnect()
		visited = append(visited, name)
	}
	return tree, visited, nil
}
