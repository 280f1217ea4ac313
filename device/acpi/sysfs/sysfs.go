// Package sysfs exposes an AML namespace as an in-memory directory tree,
// without requiring a real mounted filesystem: a host can inspect it
// directly, or, in a real kernel build, hand it to whatever actually backs
// /proc/acpi or a debugfs-style mount.
package sysfs

import "acpivm/device/acpi/aml"

// DirNode is one exposed namespace entry: the Object it mirrors plus its
// exposed children, keyed by name segment.
type DirNode struct {
	Object   *aml.Object
	Children map[string]*DirNode
}

// DirExposer walks an aml.Namespace and exposes every named object as a
// DirNode tree rooted at "/".
type DirExposer struct {
	root *DirNode
}

// NewDirExposer builds an exposer with an empty root; call Expose to
// populate it from a namespace.
func NewDirExposer() *DirExposer {
	return &DirExposer{root: &DirNode{Children: make(map[string]*DirNode)}}
}

// Expose walks ns starting at its root and (re)builds the in-memory tree.
func (e *DirExposer) Expose(ns *aml.Namespace) {
	e.root = &DirNode{Object: ns.Root(), Children: make(map[string]*DirNode)}
	exposeChildren(e.root, ns.Root())
}

func exposeChildren(parent *DirNode, obj *aml.Object) {
	for _, child := range obj.Children() {
		name := child.Name().String()
		node := &DirNode{Object: child, Children: make(map[string]*DirNode)}
		parent.Children[name] = node
		exposeChildren(node, child)
	}
}

// Lookup resolves a path given as its name segments (e.g.
// []string{"_SB", "PCI0"}) against the exposed tree, mainly for tests.
// Empty segments are skipped.
func (e *DirExposer) Lookup(path []string) (*DirNode, bool) {
	cur := e.root
	for _, seg := range path {
		if seg == "" {
			continue
		}
		next, ok := cur.Children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Root returns the exposed tree's root node.
func (e *DirExposer) Root() *DirNode { return e.root }
