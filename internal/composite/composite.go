// Package composite builds the hierarchical sensor aggregation tree: leaves
// hold per-sensor record histories, groups aggregate over their children,
// and one leaf may be linked into several groups at once.
package composite

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// ErrDuplicateChild is returned when the same component is inserted into a
// group twice.
var ErrDuplicateChild = errors.New("duplicate child")

// displayIndent is the per-depth indentation unit for Display output.
const displayIndent = "  "

// Aggregated carries the four aggregate statistics of a subtree. Mean
// fields are 0 when no record contributed to them.
type Aggregated struct {
	DataPointCount int     `json:"DataPointCount"`
	Temperature    float64 `json:"Temperature"`
	Humidity       float64 `json:"Humidity"`
	BatteryLevel   float64 `json:"BatteryLevel"`
}

// leafSet tracks leaves already consumed during one walk, so a leaf linked
// into several groups contributes exactly once.
type leafSet map[*Leaf]struct{}

// Component is a node of the aggregation tree.
type Component interface {
	// Name returns the display name of the node.
	Name() string

	// AddData offers a record to the subtree. Leaves accept only their own
	// serial; groups fan out to every child. It reports whether any leaf
	// stored the record.
	AddData(rec record.Record) bool

	// Stats aggregates the subtree. Leaves reachable through several
	// groups are counted once.
	Stats() Aggregated

	// Display writes an indented summary of the subtree.
	Display(w io.Writer, depth int)

	stats(seen leafSet) Aggregated
	accept(v Visitor, seen leafSet)
}

// Leaf is a single physical sensor and its append-only record history.
// Leaves are not self-synchronized; the Manager serializes access.
type Leaf struct {
	serial  string
	name    string
	typ     record.Type
	history []record.Record
}

// NewLeaf creates a leaf for a serial, displayed as "Sensor <serial>".
func NewLeaf(serial string) *Leaf {
	return &Leaf{serial: serial, name: "Sensor " + serial, typ: record.TypeUnknown}
}

func (l *Leaf) Name() string { return l.name }

// Serial returns the sensor serial this leaf accepts records for.
func (l *Leaf) Serial() string { return l.serial }

// Type returns the latest known type of this sensor.
func (l *Leaf) Type() record.Type { return l.typ }

// History returns a copy of the stored records in arrival order.
func (l *Leaf) History() []record.Record {
	return slices.Clone(l.history)
}

// AddData appends the record when its serial matches this leaf. A record
// with a known type also refreshes the leaf's type.
func (l *Leaf) AddData(rec record.Record) bool {
	if rec.Serial != l.serial {
		return false
	}

	l.history = append(l.history, rec)

	if rec.Type != record.TypeUnknown && rec.Type != "" {
		l.typ = rec.Type
	}

	return true
}

// Stats aggregates this leaf's history: per-field arithmetic means over
// records where the field is present (>0), battery as percent of capacity.
func (l *Leaf) Stats() Aggregated {
	return l.stats(make(leafSet))
}

func (l *Leaf) stats(seen leafSet) Aggregated {
	if _, dup := seen[l]; dup {
		return Aggregated{}
	}

	seen[l] = struct{}{}

	agg := Aggregated{DataPointCount: len(l.history)}

	var (
		tempSum, humSum, batSum float64
		tempN, humN, batN       int
	)

	for _, rec := range l.history {
		if rec.Temperature > 0 {
			tempSum += rec.Temperature
			tempN++
		}

		if rec.Humidity > 0 {
			humSum += rec.Humidity
			humN++
		}

		if rec.HasBattery() {
			batSum += rec.BatteryPercent()
			batN++
		}
	}

	if tempN > 0 {
		agg.Temperature = tempSum / float64(tempN)
	}

	if humN > 0 {
		agg.Humidity = humSum / float64(humN)
	}

	if batN > 0 {
		agg.BatteryLevel = batSum / float64(batN)
	}

	return agg
}

func (l *Leaf) Display(w io.Writer, depth int) {
	indent := strings.Repeat(displayIndent, depth)
	fmt.Fprintf(w, "%s- %s (type: %s, readings: %d)\n", indent, l.name, l.typ, len(l.history))
}

func (l *Leaf) accept(v Visitor, seen leafSet) {
	if _, dup := seen[l]; dup {
		return
	}

	seen[l] = struct{}{}
	v.VisitLeaf(l)
}

// Group is a named ordered collection of components.
type Group struct {
	name     string
	label    string
	children []Component
}

// NewGroup creates an empty group with a display name and a type label.
func NewGroup(name, label string) *Group {
	return &Group{name: name, label: label}
}

func (g *Group) Name() string { return g.name }

// Label returns the group's type label ("Root", "temp", "humidity",
// "custom").
func (g *Group) Label() string { return g.label }

// Children returns the child list in insertion order.
func (g *Group) Children() []Component {
	return slices.Clone(g.children)
}

// AddChild links a component into the group. The same identity cannot be
// linked twice.
func (g *Group) AddChild(c Component) error {
	if g.hasChild(c) {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateChild, c.Name(), g.name)
	}

	g.children = append(g.children, c)

	return nil
}

func (g *Group) hasChild(c Component) bool {
	for _, existing := range g.children {
		if existing == c {
			return true
		}
	}

	return false
}

// AddData fans the record out to every child.
func (g *Group) AddData(rec record.Record) bool {
	stored := false

	for _, child := range g.children {
		if child.AddData(rec) {
			stored = true
		}
	}

	return stored
}

// Stats aggregates over children: DataPointCount sums, the mean fields are
// means over children whose own mean is positive.
func (g *Group) Stats() Aggregated {
	return g.stats(make(leafSet))
}

func (g *Group) stats(seen leafSet) Aggregated {
	var (
		agg                     Aggregated
		tempSum, humSum, batSum float64
		tempN, humN, batN       int
	)

	for _, child := range g.children {
		cs := child.stats(seen)
		agg.DataPointCount += cs.DataPointCount

		if cs.Temperature > 0 {
			tempSum += cs.Temperature
			tempN++
		}

		if cs.Humidity > 0 {
			humSum += cs.Humidity
			humN++
		}

		if cs.BatteryLevel > 0 {
			batSum += cs.BatteryLevel
			batN++
		}
	}

	if tempN > 0 {
		agg.Temperature = tempSum / float64(tempN)
	}

	if humN > 0 {
		agg.Humidity = humSum / float64(humN)
	}

	if batN > 0 {
		agg.BatteryLevel = batSum / float64(batN)
	}

	return agg
}

// SensorCount counts distinct leaves reachable from this group.
func (g *Group) SensorCount() int {
	seen := make(leafSet)
	g.collectLeaves(seen)

	return len(seen)
}

func (g *Group) collectLeaves(seen leafSet) {
	for _, child := range g.children {
		switch c := child.(type) {
		case *Leaf:
			seen[c] = struct{}{}
		case *Group:
			c.collectLeaves(seen)
		}
	}
}

func (g *Group) Display(w io.Writer, depth int) {
	indent := strings.Repeat(displayIndent, depth)
	fmt.Fprintf(w, "%s+ %s [%s]\n", indent, g.name, g.label)

	for _, child := range g.children {
		child.Display(w, depth+1)
	}
}

func (g *Group) accept(v Visitor, seen leafSet) {
	v.VisitGroup(g)

	for _, child := range g.children {
		child.accept(v, seen)
	}
}
