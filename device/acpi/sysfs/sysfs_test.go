package sysfs

import (
	"testing"

	"acpivm/device/acpi/aml"
)

func TestExposeBuildsTreeFromNamespace(t *testing.T) {
	vm := aml.NewVM(nil)
	ns := vm.Namespace()

	sb := ns.Add(ns.Root(), aml.NewName("_SB_"), aml.KindDevice)
	ns.Add(sb, aml.NewName("PCI0"), aml.KindDevice)

	exp := NewDirExposer()
	exp.Expose(ns)

	node, ok := exp.Lookup([]string{"_SB"})
	if !ok {
		t.Fatal("expected to find _SB under the exposed root")
	}
	if node.Object.Kind != aml.KindDevice {
		t.Fatalf("expected _SB to be a Device; got %s", node.Object.Kind.String())
	}

	child, ok := exp.Lookup([]string{"_SB", "PCI0"})
	if !ok {
		t.Fatal("expected to find _SB/PCI0 under the exposed root")
	}
	if child.Object.Kind != aml.KindDevice {
		t.Fatalf("expected PCI0 to be a Device; got %s", child.Object.Kind.String())
	}
}

func TestLookupMissingPathFails(t *testing.T) {
	vm := aml.NewVM(nil)
	exp := NewDirExposer()
	exp.Expose(vm.Namespace())

	if _, ok := exp.Lookup([]string{"NOPE"}); ok {
		t.Fatal("expected Lookup to fail for a path that was never exposed")
	}
}

func TestLookupEmptyPathReturnsRoot(t *testing.T) {
	vm := aml.NewVM(nil)
	exp := NewDirExposer()
	exp.Expose(vm.Namespace())

	node, ok := exp.Lookup(nil)
	if !ok {
		t.Fatal("expected an empty path to resolve to the root node")
	}
	if node != exp.Root() {
		t.Fatal("expected the empty-path lookup to return the same node as Root()")
	}
}
