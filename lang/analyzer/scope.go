package analyzer

// scope is a cons-cell lexical frame: one per let/loop binding group, fn
// arity's params, or try's catch binding. Resolution walks outward through
// parent until a name is found or the chain is exhausted (falling back to a
// var reference).
type scope struct {
	parent  *scope
	names   map[string]*Binding
	ownerFn *Node // nearest enclosing KFn, nil at the top level
}

func newScope(parent *scope, ownerFn *Node) *scope {
	return &scope{parent: parent, names: map[string]*Binding{}, ownerFn: ownerFn}
}

func (s *scope) define(b *Binding) {
	s.names[b.Name] = b
}

// lookup finds name anywhere in the scope chain.
func (s *scope) lookup(name string) (*Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.names[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// tailContext identifies the nearest enclosing recur target: a loop or a fn
// arity body, along with the Binding slots recur rebinds in order.
type tailContext struct {
	targetFn   *Node // the KFn node, when the target is a fn arity (vs a loop)
	arityIndex int
	loop       *Node // the KLoop node, when the target is a loop
	slots      []*Binding
}
