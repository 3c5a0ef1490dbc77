package ir

// StructuralEqual reports whether two nodes are interchangeable: same kind,
// same operand references (producer identity and output index), same
// attributes and same output count. Operands are compared by identity, not
// recursively: callers canonicalize bottom-up, so equal subgraphs already
// share nodes by the time their consumers are compared.
//
// Attributes are compared through their hash and display string, the pair the
// Attrs contract requires to be parameter-complete.
func StructuralEqual(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || a.numOutputs != b.numOutputs || len(a.operands) != len(b.operands) {
		return false
	}
	for ii, operand := range a.operands {
		if operand != b.operands[ii] {
			return false
		}
	}
	if (a.attrs == nil) != (b.attrs == nil) {
		return false
	}
	if a.attrs != nil {
		aHasher, bHasher := NewHasher(), NewHasher()
		a.attrs.AddToHash(aHasher)
		b.attrs.AddToHash(bHasher)
		if aHasher.Sum() != bHasher.Sum() || a.attrs.String() != b.attrs.String() {
			return false
		}
	}
	return true
}

// NodeCache interns nodes by structure, the common-subexpression elimination
// primitive: canonicalizing callers funnel every new node through Lookup and
// use the returned node in place of their own.
//
// The structural hash picks the bucket, but equality is verified node by node
// before anything is substituted -- a hash collision costs a scan, never a
// wrong answer.
type NodeCache struct {
	byHash map[Hash][]*Node
}

// NewNodeCache returns an empty cache.
func NewNodeCache() *NodeCache {
	return &NodeCache{byHash: make(map[Hash][]*Node)}
}

// Lookup returns the canonical node structurally equal to n, registering n as
// canonical if no equal node was seen before. The returned node is n itself
// or an earlier equivalent.
func (c *NodeCache) Lookup(n *Node) *Node {
	n.AssertValid()
	bucket := c.byHash[n.hash]
	for _, candidate := range bucket {
		if StructuralEqual(candidate, n) {
			return candidate
		}
	}
	c.byHash[n.hash] = append(bucket, n)
	return n
}

// Len returns how many canonical nodes the cache holds.
func (c *NodeCache) Len() int {
	var total int
	for _, bucket := range c.byHash {
		total += len(bucket)
	}
	return total
}
