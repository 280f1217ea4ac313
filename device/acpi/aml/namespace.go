package aml

// Namespace owns the AML object tree rooted at '\' and provides O(1)
// (parent, name)-keyed lookup, plus an overlay stack so a table load (DSDT,
// or each SSDT as it is brought in) can be rolled back in one shot if it
// fails partway through (Commit/Deinit below).
type Namespace struct {
	root *Object

	// byKey indexes every named object in the tree by (parent object id,
	// name), giving O(1) lookup independent of tree depth or sibling count.
	byKey map[nsKey]*Object

	overlays   []*overlay
	nextSeq    int
	nextObjID  uint64
}

// nsKey is the (parent, name) composite key used by byKey.
type nsKey struct {
	parent uint64
	name   Name
}

// overlay tracks the objects introduced while it was the active (topmost)
// overlay, so Deinit can undo exactly those additions.
type overlay struct {
	id      overlayID
	added   []*Object
	pending bool
}

// NewNamespace builds an empty namespace with just the root object and the
// predefined scopes ACPI §5.3.1 requires.
func NewNamespace() *Namespace {
	ns := &Namespace{byKey: make(map[nsKey]*Object)}
	ns.root = ns.newRawObject(KindPredefinedScope, rootName, nil)
	ns.root.flags |= FlagNamed
	for _, seg := range []string{"_GPE", "_PR_", "_SB_", "_SI_", "_TZ_"} {
		ns.addPredefinedScope(NewName(seg))
	}
	return ns
}

// addPredefinedScope creates one of the top-level predefined scopes as a
// permanent (no-overlay) child of root.
func (ns *Namespace) addPredefinedScope(name Name) *Object {
	o := ns.newRawObject(KindPredefinedScope, name, ns.root)
	o.flags |= FlagNamed
	ns.root.addChild(o)
	ns.index(ns.root.id, name, o)
	return o
}

// Root returns the namespace root object ('\').
func (ns *Namespace) Root() *Object { return ns.root }

// newRawObject allocates an Object with an assigned id; it does not link it
// into any parent or index it, letting callers (PushOverlay-aware Add, or
// the constructor above) decide that.
func (ns *Namespace) newRawObject(kind Kind, name Name, parent *Object) *Object {
	ns.nextObjID++
	o := newObject(kind)
	o.id = ns.nextObjID
	o.name = name
	o.parent = parent
	return o
}

// index records o under (parentID, name) in byKey.
func (ns *Namespace) index(parentID uint64, name Name, o *Object) {
	ns.byKey[nsKey{parent: parentID, name: name}] = o
}

// unindex removes the (parentID, name) mapping.
func (ns *Namespace) unindex(parentID uint64, name Name) {
	delete(ns.byKey, nsKey{parent: parentID, name: name})
}

// lookupChild is the O(1) primitive behind Find's single-step descent.
func (ns *Namespace) lookupChild(parent *Object, name Name) (*Object, bool) {
	o, ok := ns.byKey[nsKey{parent: parent.id, name: name}]
	return o, ok
}

// PushOverlay starts a new overlay on top of the stack; objects added via
// Add while this overlay is topmost are tracked so Deinit can remove them
// again. Used once per table load.
func (ns *Namespace) PushOverlay() *overlayID {
	ns.nextSeq++
	ov := &overlay{id: overlayID{seq: ns.nextSeq}, pending: true}
	ns.overlays = append(ns.overlays, ov)
	return &ov.id
}

// currentOverlay returns the topmost pending overlay, or nil if none is
// active (i.e. objects are being added permanently, as with the predefined
// scopes built by NewNamespace).
func (ns *Namespace) currentOverlay() *overlay {
	if len(ns.overlays) == 0 {
		return nil
	}
	return ns.overlays[len(ns.overlays)-1]
}

// CommitOverlay finalizes the overlay identified by id: its objects become
// permanent and it is dropped from the rollback stack.
func (ns *Namespace) CommitOverlay(id *overlayID) {
	for i := len(ns.overlays) - 1; i >= 0; i-- {
		if ns.overlays[i].id == *id {
			ns.overlays[i].pending = false
			ns.overlays = append(ns.overlays[:i], ns.overlays[i+1:]...)
			return
		}
	}
}

// DeinitOverlay rolls back every object the named overlay introduced:
// unindexed, detached from their parent, and given a chance to decrement
// any objects they referenced.
func (ns *Namespace) DeinitOverlay(id *overlayID) {
	for i := len(ns.overlays) - 1; i >= 0; i-- {
		if ns.overlays[i].id != *id {
			continue
		}
		ov := ns.overlays[i]
		for j := len(ov.added) - 1; j >= 0; j-- {
			o := ov.added[j]
			if o.parent != nil {
				ns.unindex(o.parent.id, o.name)
				o.parent.removeChild(o.name)
			}
		}
		ns.overlays = append(ns.overlays[:i], ns.overlays[i+1:]...)
		return
	}
}

// Add creates a new named object under parent and links it into both the
// tree and the byKey index, recording it against the current overlay (if
// any) for later rollback.
func (ns *Namespace) Add(parent *Object, name Name, kind Kind) *Object {
	o := ns.newRawObject(kind, name, parent)
	o.flags |= FlagNamed
	parent.addChild(o)
	ns.index(parent.id, name, o)

	if cur := ns.currentOverlay(); cur != nil {
		o.overlay = &cur.id
		cur.added = append(cur.added, o)
	}
	return o
}

// AddOrReuse creates a new named object under parent, unless one already
// exists with the same name and kind, in which case it is returned unchanged
// for the caller to add children to -- the common case of an SSDT reopening
// a Device/Processor/PowerResource/ThermalZone that a DSDT already declared
// (ACPI §5.3). A same-named child of a different kind is a redefinition
// error; reused reports whether an existing object was returned.
func (ns *Namespace) AddOrReuse(parent *Object, name Name, kind Kind) (obj *Object, reused bool, aerr *Error) {
	if existing, ok := ns.lookupChild(parent, name); ok {
		if existing.Kind != kind {
			return nil, false, newError(ExcBadName, "redefinition of "+name.String()+" as a different object type")
		}
		return existing, true, nil
	}
	return ns.Add(parent, name, kind), false, nil
}

// resolveAlias flattens a chain of Alias objects down to the real target,
// matching original_source/namespace.c's aml_alias_obj_traverse.
func resolveAlias(o *Object) *Object {
	seen := 0
	for o != nil && o.Kind == KindAlias {
		data, _ := o.payload.(*AliasData)
		if data == nil || data.Target == nil {
			return o
		}
		o = data.Target
		seen++
		if seen > 64 {
			// Pathological alias cycle; bail out rather than loop forever.
			return o
		}
	}
	return o
}

// Find resolves target relative to base, following the ACPI §5.3 namespace
// search rules: an absolute name starts at the root; each leading '^'
// climbs one level from base; a bare single NameSeg (no '\', no '^') is
// searched for starting at base and then up through each ancestor scope in
// turn; any other (possibly multi-segment) name is resolved by descending
// one segment at a time from the resolved starting scope.
func (ns *Namespace) Find(base *Object, target NameString) (*Object, *Error) {
	start := base
	if target.Absolute {
		start = ns.root
	} else {
		for i := 0; i < target.ParentLevels; i++ {
			if start.parent == nil {
				return nil, newError(ExcBadName, "^ past namespace root: "+target.String())
			}
			start = start.parent
		}
	}

	if len(target.Segments) == 0 {
		return start, nil
	}

	if !target.Absolute && target.ParentLevels == 0 && len(target.Segments) == 1 {
		name := target.Segments[0]
		for s := start; s != nil; s = s.parent {
			if c, ok := ns.lookupChild(s, name); ok {
				return resolveAlias(c), nil
			}
		}
		return nil, newError(ExcNameNotFound, target.String())
	}

	cur := start
	for _, seg := range target.Segments {
		c, ok := ns.lookupChild(cur, seg)
		if !ok {
			return nil, newError(ExcNameNotFound, target.String())
		}
		cur = resolveAlias(c)
	}
	return cur, nil
}

// ClosestNamedAncestor walks up from o (inclusive) until it finds an
// object with FlagNamed set, used when computing a fully-qualified path
// for diagnostics.
func ClosestNamedAncestor(o *Object) *Object {
	for o != nil {
		if o.flags&FlagNamed != 0 {
			return o
		}
		o = o.parent
	}
	return nil
}

// AbsolutePath renders the fully-qualified dotted name of o, walking up to
// the root.
func AbsolutePath(o *Object) string {
	var segs []string
	for cur := o; cur != nil && cur.parent != nil; cur = cur.parent {
		segs = append([]string{cur.name.String()}, segs...)
	}
	path := "\\"
	for i, s := range segs {
		if i > 0 {
			path += "."
		}
		path += s
	}
	return path
}
