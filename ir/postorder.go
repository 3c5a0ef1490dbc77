package ir

import (
	"github.com/Bihan/xla/types/xslices"
)

// PostOrder returns the nodes reachable from roots in a post-order: every
// node appears after all of its operands, and exactly once even when shared
// by several consumers. The order is deterministic for a fixed roots list.
//
// This is the traversal lowering and rewriting are driven by. It is
// iterative, deep graphs don't risk exhausting the goroutine stack.
func PostOrder(roots ...Output) []*Node {
	const (
		visiting = 1
		done     = 2
	)
	var order []*Node
	state := make(map[*Node]int)
	var stack []*Node
	for _, root := range roots {
		root.Node.AssertValid()
		if state[root.Node] == done {
			continue
		}
		stack = append(stack, root.Node)
		for len(stack) > 0 {
			node := xslices.Last(stack)
			switch state[node] {
			case visiting:
				// All operands emitted, emit the node itself.
				state[node] = done
				order = append(order, node)
				stack = stack[:len(stack)-1]
			case done:
				// Reached again through another consumer.
				stack = stack[:len(stack)-1]
			default:
				state[node] = visiting
				// Push in reverse so operand 0 is processed first.
				for ii := node.NumOperands() - 1; ii >= 0; ii-- {
					operand := node.Operand(ii).Node
					if state[operand] == 0 {
						stack = append(stack, operand)
					}
				}
			}
		}
	}
	return order
}
