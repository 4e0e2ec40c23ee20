package rules

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Detail is an opaque rule payload. It is never interpreted, only passed through.
type Detail = json.RawMessage

// ToolSet maps tool-material names to their recommendation details, keeping
// the order in which they appear in the rule source.
type ToolSet struct {
	names  []string
	byName map[string]Detail
}

// NewToolSet builds a ToolSet from parallel name and detail slices.
func NewToolSet(names []string, details []Detail) ToolSet {
	ts := ToolSet{byName: make(map[string]Detail, len(names))}
	for i, name := range names {
		ts.add(name, details[i])
	}
	return ts
}

func (ts *ToolSet) add(name string, detail Detail) {
	if ts.byName == nil {
		ts.byName = make(map[string]Detail)
	}
	if _, ok := ts.byName[name]; !ok {
		ts.names = append(ts.names, name)
	}
	ts.byName[name] = detail
}

// Len returns the number of tool materials.
func (ts ToolSet) Len() int { return len(ts.names) }

// Names returns tool-material names in source order.
func (ts ToolSet) Names() []string {
	return append([]string(nil), ts.names...)
}

// Get looks up a tool material by exact name.
func (ts ToolSet) Get(name string) (Detail, bool) {
	d, ok := ts.byName[name]
	return d, ok
}

// First returns the first entry in source order.
func (ts ToolSet) First() (string, Detail, bool) {
	if len(ts.names) == 0 {
		return "", nil, false
	}
	name := ts.names[0]
	return name, ts.byName[name], true
}

// Only returns a single-entry set holding name, or an empty set if name is absent.
func (ts ToolSet) Only(name string) ToolSet {
	d, ok := ts.byName[name]
	if !ok {
		return ToolSet{}
	}
	return NewToolSet([]string{name}, []Detail{d})
}

// MarshalJSON writes the set as a JSON object with keys in source order.
func (ts ToolSet) MarshalJSON() ([]byte, error) {
	return marshalOrdered(ts.names, func(name string) (json.RawMessage, error) {
		return ts.byName[name], nil
	})
}

// Operation is the rule entry for one machining operation.
type Operation struct {
	RecommendedTools []string
	raw              json.RawMessage
}

// MarshalJSON writes the operation object exactly as it appeared in the source.
func (op Operation) MarshalJSON() ([]byte, error) {
	if len(op.raw) == 0 {
		return json.Marshal(map[string]any{"recommended_tools": op.recommendedToolsOrEmpty()})
	}
	return op.raw, nil
}

func (op Operation) recommendedToolsOrEmpty() []string {
	if op.RecommendedTools == nil {
		return []string{}
	}
	return op.RecommendedTools
}

// OperationSet maps operation names to operation rules in source order.
type OperationSet struct {
	names  []string
	byName map[string]Operation
}

func (s *OperationSet) add(name string, op Operation) {
	if s.byName == nil {
		s.byName = make(map[string]Operation)
	}
	if _, ok := s.byName[name]; !ok {
		s.names = append(s.names, name)
	}
	s.byName[name] = op
}

// Len returns the number of operations.
func (s OperationSet) Len() int { return len(s.names) }

// Names returns operation names in source order.
func (s OperationSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Get looks up an operation by exact name.
func (s OperationSet) Get(name string) (Operation, bool) {
	op, ok := s.byName[name]
	return op, ok
}

// MarshalJSON writes the set as a JSON object with keys in source order.
func (s OperationSet) MarshalJSON() ([]byte, error) {
	return marshalOrdered(s.names, func(name string) (json.RawMessage, error) {
		return json.Marshal(s.byName[name])
	})
}

// Workpiece is the rule entry for one workpiece material.
type Workpiece struct {
	Name            string       `json:"name"`
	Recommendations ToolSet      `json:"recommendations"`
	GeneralNotes    string       `json:"general_notes"`
	Operations      OperationSet `json:"operation"`
}

// Options is the caller-facing enumeration derived from a table.
type Options struct {
	Workpieces    []string `json:"workpieces"`
	ToolMaterials []string `json:"tool_materials"`
	Operations    []string `json:"operations"`
}

// Table is the immutable rule table loaded at startup.
type Table struct {
	names      []string
	workpieces map[string]*Workpiece
	options    Options
	checksum   string
}

// NewTable indexes the given workpieces. Later duplicates replace earlier ones.
func NewTable(workpieces []Workpiece) *Table {
	t := &Table{workpieces: make(map[string]*Workpiece, len(workpieces))}
	for i := range workpieces {
		wp := workpieces[i]
		if _, ok := t.workpieces[wp.Name]; !ok {
			t.names = append(t.names, wp.Name)
		}
		t.workpieces[wp.Name] = &wp
	}
	t.options = buildOptions(t)
	return t
}

// Workpiece returns the rule entry for name.
func (t *Table) Workpiece(name string) (*Workpiece, bool) {
	if t == nil {
		return nil, false
	}
	wp, ok := t.workpieces[name]
	return wp, ok
}

// Len returns the number of workpieces.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Checksum is the SHA-256 of the source bytes the table was parsed from.
// Tables built with NewTable have none.
func (t *Table) Checksum() string {
	if t == nil {
		return ""
	}
	return t.checksum
}

// Options returns a copy of the derived option lists.
func (t *Table) Options() Options {
	if t == nil {
		return Options{Workpieces: []string{}, ToolMaterials: []string{}, Operations: []string{}}
	}
	return Options{
		Workpieces:    append([]string{}, t.options.Workpieces...),
		ToolMaterials: append([]string{}, t.options.ToolMaterials...),
		Operations:    append([]string{}, t.options.Operations...),
	}
}

func buildOptions(t *Table) Options {
	tools := make(map[string]struct{})
	ops := make(map[string]struct{})
	for _, name := range t.names {
		wp := t.workpieces[name]
		for _, tool := range wp.Recommendations.names {
			tools[tool] = struct{}{}
		}
		for _, op := range wp.Operations.names {
			ops[op] = struct{}{}
		}
	}
	return Options{
		Workpieces:    append([]string{}, t.names...),
		ToolMaterials: sortedKeys(tools),
		Operations:    sortedKeys(ops),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func marshalOrdered(names []string, value func(string) (json.RawMessage, error)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v, err := value(name)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			v = json.RawMessage("null")
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
