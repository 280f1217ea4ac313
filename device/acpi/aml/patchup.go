package aml

import "sync"

// patchUpEntry records one forward reference that could not be resolved at
// parse time (the referenced name had not yet been declared), together with
// a callback to run once (if ever) it resolves. Grounded in
// original_source/aml_patch_up.c's unresolvedNodes list: entries are kept
// in a flat slice under a single mutex and retried in full after every
// table load, with unmatched entries simply left in the list (silent
// failure by design -- a name that's still missing after every table has
// loaded usually means the referencing AML path is simply never taken).
type patchUpEntry struct {
	target NameString
	base   *Object
	onResolve func(*Object)
}

// patchUpList is a VM's forward-reference backlog. A single process-wide
// list would be wrong for a multi-VM host, so each VM owns one via its
// patchUp field; this type just factors out the list mechanics.
type patchUpList struct {
	mu      sync.Mutex
	entries []*patchUpEntry
}

// newPatchUpList returns an empty backlog.
func newPatchUpList() *patchUpList {
	return &patchUpList{}
}

// Add records an unresolved forward reference. base is the scope the name
// should eventually be resolved relative to (the scope active when the
// reference was parsed).
func (p *patchUpList) Add(target NameString, base *Object, onResolve func(*Object)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, &patchUpEntry{target: target, base: base, onResolve: onResolve})
}

// ResolveAll retries every pending entry against ns, invoking onResolve and
// dropping the entry for every one that now resolves. Entries that still
// fail to resolve are left in the list untouched, matching
// aml_patch_up_resolve_all's silent-failure behavior.
func (p *patchUpList) ResolveAll(ns *Namespace) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.entries[:0]
	for _, e := range p.entries {
		if obj, err := ns.Find(e.base, e.target); err == nil {
			e.onResolve(obj)
			continue
		}
		remaining = append(remaining, e)
	}
	p.entries = remaining
}

// UnresolvedCount reports how many forward references are still pending,
// exposed on VM as a diagnostic for the amldump CLI's --strict flag.
func (p *patchUpList) UnresolvedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
