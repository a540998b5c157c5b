package composite

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// ErrGroupNotFound is returned by GroupStats for an unknown group key.
var ErrGroupNotFound = errors.New("group not found")

// Predefined tree names.
const (
	RootGroupName        = "All Sensors"
	TemperatureGroupName = "Temperature Sensors"
	HumidityGroupName    = "Humidity Sensors"
)

// rootGroupLabel is the type label of the root group.
const rootGroupLabel = "Root"

// customGroupLabel is the type label of manufacturer and other ad-hoc
// groups.
const customGroupLabel = "custom"

// manufacturerGroupPrefix prefixes the display name of manufacturer groups.
const manufacturerGroupPrefix = "Manufacturer: "

// unknownManufacturer tags serials with no prefix table entry.
const unknownManufacturer = "Unknown"

// RootKey is the GroupStats key selecting the root group.
const RootKey = "root"

// DefaultManufacturerPrefixes maps a serial's first character to a
// manufacturer tag. The table is deliberately replaceable via
// WithManufacturerPrefixes.
func DefaultManufacturerPrefixes() map[byte]string {
	return map[byte]string{
		'1': "Qualcomm",
		'2': "Texas Instruments",
		'3': "NXP",
		'9': "Infineon",
	}
}

// Manager owns the aggregation tree and serializes every mutation and
// traversal behind one mutex.
type Manager struct {
	mu       sync.Mutex
	root     *Group
	typed    map[record.Type]*Group
	groups   map[string]*Group
	leaves   map[string]*Leaf
	prefixes map[byte]string
}

// Option customizes a Manager.
type Option func(*Manager)

// WithManufacturerPrefixes replaces the serial prefix table used by
// OrganizeByManufacturer.
func WithManufacturerPrefixes(table map[byte]string) Option {
	return func(m *Manager) {
		m.prefixes = table
	}
}

// NewManager builds the predefined tree: root "All Sensors" holding the
// temperature and humidity type groups.
func NewManager(opts ...Option) *Manager {
	root := NewGroup(RootGroupName, rootGroupLabel)
	tempGroup := NewGroup(TemperatureGroupName, string(record.TypeTemperature))
	humGroup := NewGroup(HumidityGroupName, string(record.TypeHumidity))

	root.children = append(root.children, tempGroup, humGroup)

	m := &Manager{
		root: root,
		typed: map[record.Type]*Group{
			record.TypeTemperature: tempGroup,
			record.TypeHumidity:    humGroup,
		},
		groups: map[string]*Group{
			RootGroupName:        root,
			TemperatureGroupName: tempGroup,
			HumidityGroupName:    humGroup,
		},
		leaves:   make(map[string]*Leaf),
		prefixes: DefaultManufacturerPrefixes(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// AddRecord files a record into the tree. Records without a serial are
// dropped. On first sight of a serial the leaf is created under root; a
// known temp or humidity type additionally links the same leaf into its
// type group. The record itself is appended through the leaf, so
// multi-membership never duplicates history.
func (m *Manager) AddRecord(rec record.Record) bool {
	if rec.Serial == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	leaf, ok := m.leaves[rec.Serial]
	if !ok {
		leaf = NewLeaf(rec.Serial)
		m.leaves[rec.Serial] = leaf
		m.root.children = append(m.root.children, leaf)
	}

	// Typing may arrive later than the first record, so linking is
	// re-checked on every add.
	if typeGroup, typed := m.typed[rec.Type]; typed && !typeGroup.hasChild(leaf) {
		typeGroup.children = append(typeGroup.children, leaf)
	}

	return leaf.AddData(rec)
}

// OrganizeByManufacturer links every known leaf into a manufacturer group
// derived from the first character of its serial. Groups are created under
// root on demand and reused on repeated calls.
func (m *Manager) OrganizeByManufacturer() {
	m.mu.Lock()
	defer m.mu.Unlock()

	leaves := make([]*Leaf, 0, len(m.leaves))

	for _, child := range m.root.children {
		if leaf, ok := child.(*Leaf); ok {
			leaves = append(leaves, leaf)
		}
	}

	for _, leaf := range leaves {
		name := manufacturerGroupPrefix + m.manufacturerTag(leaf.serial)

		group, ok := m.groups[name]
		if !ok {
			group = NewGroup(name, customGroupLabel)
			m.groups[name] = group
			m.root.children = append(m.root.children, group)
		}

		if !group.hasChild(leaf) {
			group.children = append(group.children, leaf)
		}
	}
}

func (m *Manager) manufacturerTag(serial string) string {
	if serial == "" {
		return unknownManufacturer
	}

	if tag, ok := m.prefixes[serial[0]]; ok {
		return tag
	}

	return unknownManufacturer
}

// GroupStats aggregates one group. The key "root" (or empty) selects the
// root; any other key must match a group name exactly.
func (m *Manager) GroupStats(key string) (Aggregated, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, err := m.groupLocked(key)
	if err != nil {
		return Aggregated{}, err
	}

	return group.Stats(), nil
}

// GroupNames returns every known group name, root first, then predefined
// and custom groups in creation order.
func (m *Manager) GroupNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.groups))
	names = append(names, RootGroupName)

	for _, child := range m.root.children {
		if g, ok := child.(*Group); ok {
			names = append(names, g.name)
		}
	}

	return names
}

func (m *Manager) groupLocked(key string) (*Group, error) {
	if key == "" || strings.EqualFold(key, RootKey) {
		return m.root, nil
	}

	if g, ok := m.groups[key]; ok {
		return g, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, key)
}

// SensorCount returns the number of distinct sensors in the tree.
func (m *Manager) SensorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.leaves)
}

// Display writes the indented tree, insertion order, depth-first.
func (m *Manager) Display(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.root.Display(w, 0)
}

// ApplyVisitor resets the visitor, walks the tree from root visiting each
// group per membership and each distinct leaf once, and returns the
// visitor's report.
func (m *Manager) ApplyVisitor(v Visitor) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	v.Reset()
	m.root.accept(v, make(leafSet))

	return v.Result()
}
