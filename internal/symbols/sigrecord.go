package symbols

// EntryClass tells the five kinds of signature entries apart. Each class
// is its own namespace within a record.
type EntryClass int

const (
	ValClass EntryClass = iota
	TypeClass
	ModuleClass
	SignatureClass
	CtorClass
)

var classNames = [...]string{"val", "type", "module", "signature", "ctor"}

func (c EntryClass) String() string { return classNames[c] }

// SigItem is one entry of a signature record. Exactly the field matching
// Class is meaningful.
type SigItem struct {
	Class  EntryClass
	Name   string
	Val    ValEntry
	Type   TypeEntry
	Module ModuleEntry
	Sig    SigEntry
	Ctor   CtorEntry
}

type itemKey struct {
	class EntryClass
	name  string
}

// SigRecord is an ordered sequence of named signature entries. Iteration
// order is insertion order and is observable in diagnostics and in the
// emitted output. Extending a record returns a new one.
type SigRecord struct {
	items []SigItem
	index map[itemKey]int
}

// NewSigRecord returns an empty record.
func NewSigRecord() *SigRecord {
	return &SigRecord{index: map[itemKey]int{}}
}

func (r *SigRecord) clone() *SigRecord {
	out := &SigRecord{
		items: make([]SigItem, len(r.items)),
		index: make(map[itemKey]int, len(r.index)),
	}
	copy(out.items, r.items)
	for k, v := range r.index {
		out.index[k] = v
	}
	return out
}

// Add appends an entry, shadowing any earlier entry with the same class
// and name. Sequential extension during elaboration goes through Add;
// merging two finished records goes through DisjointUnion.
func (r *SigRecord) Add(item SigItem) *SigRecord {
	out := r.clone()
	key := itemKey{class: item.Class, name: item.Name}
	if i, ok := out.index[key]; ok {
		out.items[i] = item
		return out
	}
	out.index[key] = len(out.items)
	out.items = append(out.items, item)
	return out
}

// DisjointUnion appends every entry of other, preserving left-then-right
// order. The second result is the conflicting name when the records are
// not disjoint.
func (r *SigRecord) DisjointUnion(other *SigRecord) (*SigRecord, string, bool) {
	out := r.clone()
	for _, item := range other.items {
		key := itemKey{class: item.Class, name: item.Name}
		if _, ok := out.index[key]; ok {
			return nil, item.Name, false
		}
		out.index[key] = len(out.items)
		out.items = append(out.items, item)
	}
	return out, "", true
}

// Len returns the number of entries.
func (r *SigRecord) Len() int { return len(r.items) }

// Items iterates entries in insertion order.
func (r *SigRecord) Items(f func(item SigItem) bool) {
	for _, item := range r.items {
		if !f(item) {
			return
		}
	}
}

func (r *SigRecord) find(class EntryClass, name string) (SigItem, bool) {
	i, ok := r.index[itemKey{class: class, name: name}]
	if !ok {
		return SigItem{}, false
	}
	return r.items[i], true
}

func (r *SigRecord) FindVal(name string) (ValEntry, bool) {
	item, ok := r.find(ValClass, name)
	return item.Val, ok
}

func (r *SigRecord) FindType(name string) (TypeEntry, bool) {
	item, ok := r.find(TypeClass, name)
	return item.Type, ok
}

func (r *SigRecord) FindModule(name string) (ModuleEntry, bool) {
	item, ok := r.find(ModuleClass, name)
	return item.Module, ok
}

func (r *SigRecord) FindSignature(name string) (SigEntry, bool) {
	item, ok := r.find(SignatureClass, name)
	return item.Sig, ok
}

func (r *SigRecord) FindCtor(name string) (CtorEntry, bool) {
	item, ok := r.find(CtorClass, name)
	return item.Ctor, ok
}
