package assembly

// Arrange returns a copy of the tree in which, wherever possible, an element
// that provides a referenced type is built before the sibling that refers to
// it. The input is not modified.
//
// Siblings are placed left to right. Before a sibling is placed, each type
// it refers to is checked against the types already placed at this level,
// the types placed to the left of its ancestors, and its own subtree. An
// unsatisfied type pulls the first unplaced sibling providing it forward,
// and that sibling is placed by the same rule first. A provider whose own
// dependencies lead back to a sibling still being placed stays where it is,
// unless the way back is only through optional links and the sibling being
// placed cannot do without the provider. A type nobody provides is assumed
// to be registered elsewhere.
//
// The result keeps template order wherever no reference forces a move, and
// arranging an arranged tree changes nothing.
func Arrange(root *Node) *Node {
	out := shallowCopy(root)
	out.Children = arrangeLevel(root.Children, map[string]bool{})
	return out
}

func arrangeLevel(siblings []*Node, toMyLeft map[string]bool) []*Node {
	if len(siblings) == 0 {
		return nil
	}
	a := &arranger{
		nodes:      siblings,
		left:       toMyLeft,
		seen:       map[string]bool{},
		placed:     make([]bool, len(siblings)),
		inProgress: make([]bool, len(siblings)),
	}
	for i := range siblings {
		a.place(i)
	}

	left := union(toMyLeft)
	out := make([]*Node, len(a.order))
	for pos, i := range a.order {
		n := siblings[i]
		c := shallowCopy(n)
		c.Children = arrangeLevel(n.Children, union(left))
		out[pos] = c
		for t := range n.Below {
			left[t] = true
		}
	}
	return out
}

type arranger struct {
	nodes      []*Node
	left       map[string]bool
	seen       map[string]bool
	placed     []bool
	inProgress []bool
	order      []int
}

func (a *arranger) place(i int) {
	if a.placed[i] || a.inProgress[i] {
		return
	}
	a.inProgress[i] = true
	n := a.nodes[i]
	for _, ref := range sortedKeys(n.RefersTo) {
		if a.satisfied(n, ref) {
			continue
		}
		k := a.provider(ref)
		if k < 0 || a.inProgress[k] {
			continue
		}
		if a.cyclic(k, map[int]bool{}, false) &&
			(!n.Requires[ref] || a.cyclic(k, map[int]bool{}, true)) {
			continue
		}
		a.place(k)
	}
	a.inProgress[i] = false
	a.placed[i] = true
	a.order = append(a.order, i)
	for t := range n.Below {
		a.seen[t] = true
	}
}

func (a *arranger) satisfied(n *Node, ref string) bool {
	return a.seen[ref] || a.left[ref] || n.Below[ref]
}

// provider returns the first unplaced sibling whose subtree holds ref, or -1.
func (a *arranger) provider(ref string) int {
	for j, n := range a.nodes {
		if !a.placed[j] && n.Below[ref] {
			return j
		}
	}
	return -1
}

// cyclic reports whether placing j would need a sibling that is still being
// placed. With requiredOnly, optional links are not followed.
func (a *arranger) cyclic(j int, path map[int]bool, requiredOnly bool) bool {
	path[j] = true
	n := a.nodes[j]
	for _, ref := range sortedKeys(n.RefersTo) {
		if a.satisfied(n, ref) || (requiredOnly && !n.Requires[ref]) {
			continue
		}
		k := a.provider(ref)
		switch {
		case k < 0 || path[k]:
			continue
		case a.inProgress[k]:
			return true
		case a.cyclic(k, path, requiredOnly):
			return true
		}
	}
	return false
}

func shallowCopy(n *Node) *Node {
	c := *n
	c.Children = nil
	return &c
}

func union(sets ...map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, s := range sets {
		for k := range s {
			out[k] = true
		}
	}
	return out
}
