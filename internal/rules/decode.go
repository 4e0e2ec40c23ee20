package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"tool-advisor/internal/shared/util"
)

// ErrMalformed marks a rule source that does not have the rule-table shape.
var ErrMalformed = errors.New("malformed rule table")

// Format names a rule-table encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatFromPath picks a format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonc":
		return FormatJSONC
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat normalizes a user-supplied format name. Empty input returns "".
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "jsonc":
		return FormatJSONC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported rule format %q", raw)
	}
}

// Parse decodes a rule table in the given format.
func Parse(data []byte, format Format) (*Table, error) {
	var (
		root *node
		err  error
	)
	switch format {
	case FormatYAML:
		root, err = parseYAML(data)
	case FormatJSONC:
		root, err = parseJSON(jsonc.ToJSON(data))
	default:
		root, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}
	table, err := buildTable(root)
	if err != nil {
		return nil, err
	}
	table.checksum = util.Checksum(data)
	return table, nil
}

type nodeKind int

const (
	kindScalar nodeKind = iota
	kindNull
	kindString
	kindObject
	kindArray
)

// node is a decoded value that remembers object key order and its own JSON encoding.
type node struct {
	kind   nodeKind
	keys   []string
	values []*node
	str    string
	raw    json.RawMessage
}

func (n *node) kindName() string {
	switch n.kind {
	case kindNull:
		return "null"
	case kindString:
		return "string"
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	default:
		return "scalar"
	}
}

func parseJSON(data []byte) (*node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	return parseJSONValue(trimmed)
}

func parseJSONValue(raw json.RawMessage) (*node, error) {
	raw = bytes.TrimSpace(raw)
	n := &node{raw: raw}
	switch raw[0] {
	case '{':
		n.kind = kindObject
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := tok.(string)
			// Duplicates are rejected at every depth, detail objects included, instead of last-wins.
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformed, key)
			}
			seen[key] = struct{}{}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, err
			}
			child, err := parseJSONValue(value)
			if err != nil {
				return nil, err
			}
			n.keys = append(n.keys, key)
			n.values = append(n.values, child)
		}
	case '[':
		n.kind = kindArray
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		for dec.More() {
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, err
			}
			child, err := parseJSONValue(value)
			if err != nil {
				return nil, err
			}
			n.values = append(n.values, child)
		}
	case '"':
		n.kind = kindString
		if err := json.Unmarshal(raw, &n.str); err != nil {
			return nil, err
		}
	case 'n':
		n.kind = kindNull
	default:
		n.kind = kindScalar
	}
	return n, nil
}

func parseYAML(data []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	return convertYAML(doc.Content[0])
}

func convertYAML(y *yaml.Node) (*node, error) {
	if y.Kind == yaml.AliasNode && y.Alias != nil {
		return convertYAML(y.Alias)
	}
	n := &node{}
	switch y.Kind {
	case yaml.MappingNode:
		n.kind = kindObject
		explicit := make(map[string]struct{})
		for i := 0; i+1 < len(y.Content); i += 2 {
			keyNode := y.Content[i]
			if isMergeKey(keyNode) {
				continue
			}
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: mapping key must be a scalar", ErrMalformed, keyNode.Line)
			}
			// Duplicates are rejected at every depth instead of last-wins.
			if _, dup := explicit[keyNode.Value]; dup {
				return nil, fmt.Errorf("%w: line %d: duplicate key %q", ErrMalformed, keyNode.Line, keyNode.Value)
			}
			explicit[keyNode.Value] = struct{}{}
		}
		for i := 0; i+1 < len(y.Content); i += 2 {
			keyNode, valueNode := y.Content[i], y.Content[i+1]
			if isMergeKey(keyNode) {
				if err := mergeYAML(n, valueNode, explicit); err != nil {
					return nil, err
				}
				continue
			}
			child, err := convertYAML(valueNode)
			if err != nil {
				return nil, err
			}
			n.keys = append(n.keys, keyNode.Value)
			n.values = append(n.values, child)
		}
		raw, err := marshalOrdered(n.keys, func(key string) (json.RawMessage, error) {
			return n.values[indexOf(n.keys, key)].raw, nil
		})
		if err != nil {
			return nil, err
		}
		n.raw = raw
	case yaml.SequenceNode:
		n.kind = kindArray
		parts := make([][]byte, 0, len(y.Content))
		for _, item := range y.Content {
			child, err := convertYAML(item)
			if err != nil {
				return nil, err
			}
			n.values = append(n.values, child)
			parts = append(parts, child.raw)
		}
		n.raw = append(append([]byte{'['}, bytes.Join(parts, []byte{','})...), ']')
	case yaml.ScalarNode:
		var value any
		if err := y.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, y.Line, err)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, y.Line, err)
		}
		n.raw = raw
		switch v := value.(type) {
		case nil:
			n.kind = kindNull
		case string:
			n.kind = kindString
			n.str = v
		default:
			n.kind = kindScalar
		}
	default:
		return nil, fmt.Errorf("%w: line %d: unsupported yaml node", ErrMalformed, y.Line)
	}
	return n, nil
}

// isMergeKey matches an untagged or !!merge tagged "<<". A quoted "<<" is a plain key.
func isMergeKey(k *yaml.Node) bool {
	if k.Kind != yaml.ScalarNode || k.Value != "<<" {
		return false
	}
	return k.Tag == "" || k.Tag == "!" || k.Tag == "!!merge" || k.Tag == "tag:yaml.org,2002:merge"
}

// mergeYAML splices the keys of a merged mapping (or sequence of mappings) into n.
// Explicit keys and keys merged earlier win.
func mergeYAML(n *node, src *yaml.Node, explicit map[string]struct{}) error {
	if src.Kind == yaml.AliasNode && src.Alias != nil {
		src = src.Alias
	}
	if src.Kind == yaml.SequenceNode {
		for _, item := range src.Content {
			if err := mergeYAML(n, item, explicit); err != nil {
				return err
			}
		}
		return nil
	}
	merged, err := convertYAML(src)
	if err != nil {
		return err
	}
	if merged.kind != kindObject {
		return fmt.Errorf("%w: line %d: merge value must be a mapping, got %s", ErrMalformed, src.Line, merged.kindName())
	}
	for j, key := range merged.keys {
		if _, ok := explicit[key]; ok {
			continue
		}
		if indexOf(n.keys, key) >= 0 {
			continue
		}
		n.keys = append(n.keys, key)
		n.values = append(n.values, merged.values[j])
	}
	return nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func buildTable(root *node) (*Table, error) {
	if root.kind != kindObject {
		return nil, fmt.Errorf("%w: top level must be an object, got %s", ErrMalformed, root.kindName())
	}
	workpieces := make([]Workpiece, 0, len(root.keys))
	for i, name := range root.keys {
		wp, err := buildWorkpiece(name, root.values[i])
		if err != nil {
			return nil, err
		}
		workpieces = append(workpieces, wp)
	}
	return NewTable(workpieces), nil
}

func buildWorkpiece(name string, n *node) (Workpiece, error) {
	wp := Workpiece{Name: name}
	if n.kind != kindObject {
		return wp, malformed(name, "expected object, got %s", n.kindName())
	}
	var sawOperation bool
	for i, key := range n.keys {
		value := n.values[i]
		path := name + "." + key
		switch key {
		case "recommendations":
			if value.kind == kindNull {
				continue
			}
			if value.kind != kindObject {
				return wp, malformed(path, "expected object, got %s", value.kindName())
			}
			for j, tool := range value.keys {
				detail := value.values[j]
				if detail.kind != kindObject {
					return wp, malformed(path+"."+tool, "expected object, got %s", detail.kindName())
				}
				wp.Recommendations.add(tool, Detail(detail.raw))
			}
		case "general_notes":
			switch value.kind {
			case kindNull:
			case kindString:
				wp.GeneralNotes = value.str
			default:
				return wp, malformed(path, "expected string, got %s", value.kindName())
			}
		case "operation", "operations":
			if sawOperation {
				return wp, malformed(path, "operation and operations are both set")
			}
			sawOperation = true
			if value.kind == kindNull {
				continue
			}
			if value.kind != kindObject {
				return wp, malformed(path, "expected object, got %s", value.kindName())
			}
			for j, opName := range value.keys {
				op, err := buildOperation(path+"."+opName, value.values[j])
				if err != nil {
					return wp, err
				}
				wp.Operations.add(opName, op)
			}
		}
	}
	return wp, nil
}

func buildOperation(path string, n *node) (Operation, error) {
	if n.kind != kindObject {
		return Operation{}, malformed(path, "expected object, got %s", n.kindName())
	}
	op := Operation{RecommendedTools: []string{}, raw: n.raw}
	for i, key := range n.keys {
		if key != "recommended_tools" {
			continue
		}
		list := n.values[i]
		if list.kind == kindNull {
			continue
		}
		if list.kind != kindArray {
			return Operation{}, malformed(path+".recommended_tools", "expected array, got %s", list.kindName())
		}
		for j, item := range list.values {
			if item.kind != kindString {
				return Operation{}, malformed(fmt.Sprintf("%s.recommended_tools[%d]", path, j), "expected string, got %s", item.kindName())
			}
			op.RecommendedTools = append(op.RecommendedTools, item.str)
		}
	}
	return op, nil
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, path, fmt.Sprintf(format, args...))
}
