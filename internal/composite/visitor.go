package composite

// Visitor observes tree nodes during a traversal and accumulates a textual
// report. Implementations are stateful and must be Reset between walks;
// Manager.ApplyVisitor does this automatically.
type Visitor interface {
	// Reset clears accumulated findings before a new traversal.
	Reset()

	// VisitGroup is called for every group, parent before children.
	VisitGroup(g *Group)

	// VisitLeaf is called once per distinct leaf.
	VisitLeaf(l *Leaf)

	// Result returns the accumulated report.
	Result() string
}
