package deferred

// blueprintSpec is one position in a Blueprint's template tree: the
// callback/errback pair that position will carry, its children, and an
// optional name that marks it as a ref position.
type blueprintSpec struct {
	ref      string
	callback SuccessFunc
	errback  ErrorFunc
	children []*blueprintSpec
}

// Blueprint is an immutable template for a Node tree, plus a table mapping
// names to positions within it. Instance produces a fresh, live Node tree by
// a single pre-order clone of the template; Blueprints are reusable, their
// instances are not.
type Blueprint struct {
	root *blueprintSpec
	refs map[string]*blueprintSpec
}

// NewBlueprint creates a blueprint whose root carries the given
// callback/errback pair (nil defaults to identity/re-raise, as with Node).
func NewBlueprint(callback SuccessFunc, errback ErrorFunc) *Blueprint {
	return &Blueprint{
		root: &blueprintSpec{callback: callback, errback: errback},
		refs: make(map[string]*blueprintSpec),
	}
}

// Add appends a child position to parent (the blueprint's root if parent is
// nil), optionally naming it so Instance can resolve it to a live *Node. It
// returns the new position, for further nesting.
func (b *Blueprint) Add(parent *blueprintSpec, name string, callback SuccessFunc, errback ErrorFunc) *blueprintSpec {
	if parent == nil {
		parent = b.root
	}
	child := &blueprintSpec{ref: name, callback: callback, errback: errback}
	parent.children = append(parent.children, child)
	if name != "" {
		b.refs[name] = child
	}
	return child
}

// Root returns the blueprint's root position, for use as the parent argument
// to Add.
func (b *Blueprint) Root() *blueprintSpec { return b.root }

// Instance stamps out a fresh, live Node tree from the template: every
// position becomes its own *Node, wired together exactly as in the
// template. The returned map translates ref names to the corresponding live
// nodes in this instance.
func (b *Blueprint) Instance() (root *Node, refs map[string]*Node) {
	refs = make(map[string]*Node, len(b.refs))
	root = cloneSpec(b.root, refs)
	return root, refs
}

func cloneSpec(spec *blueprintSpec, refs map[string]*Node) *Node {
	n := newChildNode(spec.callback, spec.errback)
	if spec.ref != "" {
		refs[spec.ref] = n
	}
	for _, childSpec := range spec.children {
		child := cloneSpec(childSpec, refs)
		n.children = append(n.children, child)
	}
	return n
}

// WrapInstance returns a callable that, on each invocation, instantiates the
// blueprint and immediately drives its root with the supplied value,
// returning a Deferred tracking the freshly-instantiated tree's resolution.
func (b *Blueprint) WrapInstance() func(value any) *Deferred {
	return func(value any) *Deferred {
		root, _ := b.Instance()
		d := FromNode(root)
		root.settleSuccessFrom(value)
		return d
	}
}
