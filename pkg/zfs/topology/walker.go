// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package topology

import (
	"context"
	"fmt"

	"github.com/stratastor/burrow/pkg/errors"
)

// frame is one pending visit: the node and the document its rendering is
// appended to, plus the position facts the decorator needs.
type frame struct {
	parentDoc          *StatusNode
	node               PoolNode
	parent             PoolNode // nil for the category root
	parentParentIsRoot bool
}

// Walker linearizes one category root into the status document.
type Walker struct {
	decorator *Decorator
	pool      string
}

func NewWalker(decorator *Decorator, pool string) *Walker {
	return &Walker{decorator: decorator, pool: pool}
}

// Walk visits root depth-first and appends the rendered nodes to top. For
// the data category the root itself is folded into top instead of being
// appended. Children are pushed in reverse so that pops restore backend
// order; IDs follow pop order.
func (w *Walker) Walk(ctx context.Context, category Category, root *RootNode, top *StatusNode, ids *IDSource) error {
	if root == nil {
		return nil
	}

	stack := []frame{{parentDoc: top, node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var (
			doc      *StatusNode
			children []PoolNode
		)

		switch n := f.node.(type) {
		case *RootNode:
			if n == nil {
				return w.invalidNode(category, f.node)
			}
			doc = newContainerDoc(NodeRoot, n.Name, n.Status, n.Counters)
			children = n.Children

		case *GroupNode:
			if n == nil {
				return w.invalidNode(category, f.node)
			}
			doc = newContainerDoc(NodeVdev, n.Name, n.Status, n.Counters)
			_, parentIsRoot := f.parent.(*RootNode)
			w.decorator.decorateGroup(doc, w.pool, n, parentIsRoot)
			children = n.Children

		case *DeviceNode:
			if n == nil {
				return w.invalidNode(category, f.node)
			}
			doc = &StatusNode{
				Name:   n.DeviceName,
				Label:  n.Label,
				Type:   NodeDev,
				Status: n.Status,
				Read:   n.ReadErrors,
				Write:  n.WriteErrors,
				Cksum:  n.ChecksumErrors,
			}
			dc := deviceContext(category, f, n)
			if err := w.decorator.decorateDevice(ctx, doc, w.pool, n, dc); err != nil {
				return err
			}

		default:
			return w.invalidNode(category, f.node)
		}

		_, nodeIsRoot := f.node.(*RootNode)
		if nodeIsRoot && category == CategoryData {
			top.fold(doc)
			doc = top
		} else {
			doc.ID = ids.Next()
			f.parentDoc.Children = append(f.parentDoc.Children, doc)
		}

		_, parentIsRoot := f.parent.(*RootNode)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				parentDoc:          doc,
				node:               children[i],
				parent:             f.node,
				parentParentIsRoot: parentIsRoot,
			})
		}
	}
	return nil
}

// invalidNode reports a node of unknown kind or a nil node of a known kind.
func (w *Walker) invalidNode(category Category, n PoolNode) error {
	detail := fmt.Sprintf("%T", n)
	switch v := n.(type) {
	case *RootNode:
		if v == nil {
			detail = "nil " + detail
		}
	case *GroupNode:
		if v == nil {
			detail = "nil " + detail
		}
	case *DeviceNode:
		if v == nil {
			detail = "nil " + detail
		}
	case nil:
		detail = "nil"
	}
	return errors.New(errors.TopologyInvalidNode, detail).
		WithMetadata("pool", w.pool).
		WithMetadata("category", string(category))
}

func deviceContext(category Category, f frame, dev *DeviceNode) DeviceContext {
	dc := DeviceContext{
		Category:  category,
		Replacing: dev.Replacing,
	}
	if g, ok := f.parent.(*GroupNode); ok {
		dc.GroupName = g.Name
		dc.GroupParentIsRoot = f.parentParentIsRoot
	}
	return dc
}
