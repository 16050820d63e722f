package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"evalviewer/src/fsutil"
	"evalviewer/src/log"
)

// Loader reads every definition document of a directory into one Registry.
// Nothing is cached: each Load goes back to the file system.
type Loader struct {
	files fsutil.FileStore
}

// NewLoader creates a Loader reading through files
func NewLoader(files fsutil.FileStore) *Loader {
	return &Loader{files: files}
}

// Load merges the .yaml/.yml documents of dir in listing order. Later
// documents overwrite records of earlier ones. The first malformed document
// fails the whole load.
func (l *Loader) Load(dir string) (*Registry, error) {
	entries, err := l.files.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions directory %s: %w", dir, err)
	}

	reg := New()
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			log.Debug("skipping non-definition entry", "dir", dir, "name", entry.Name())
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := l.files.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition document %s: %w", path, err)
		}

		doc, err := ParseDocument(data)
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}

		if overwritten := reg.Merge(doc); len(overwritten) > 0 {
			log.Debug("definition document overwrote records", "path", path, "names", overwritten)
		}
	}

	return reg, nil
}

// ParseDocument parses one YAML document as a mapping of named records.
// An empty document yields an empty Registry.
func ParseDocument(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, err
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("expected a single document, found several")
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return New(), nil
		}
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level is not a mapping of named records", root.Line)
	}

	reg := New()
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: record name is not a scalar", keyNode.Line)
		}

		rec := Record{}
		if resolveAlias(valueNode).Kind == yaml.MappingNode {
			fields, err := mappingValue(resolveAlias(valueNode))
			if err != nil {
				return nil, fmt.Errorf("record %q: %w", keyNode.Value, err)
			}
			rec = Record(fields)
		}
		reg.Set(keyNode.Value, rec)
	}

	return reg, nil
}

// nodeValue converts a node into plain Go values. Mappings keep the last
// value of a repeated key, the same rule the top level follows.
func nodeValue(n *yaml.Node) (any, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		return mappingValue(n)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func mappingValue(n *yaml.Node) (map[string]any, error) {
	fields := make(map[string]any, len(n.Content)/2)

	// merged mappings first so explicit keys override them
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Tag != "!!merge" {
			continue
		}
		if err := mergeInto(fields, n.Content[i+1]); err != nil {
			return nil, err
		}
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := resolveAlias(n.Content[i]), n.Content[i+1]
		if keyNode.Tag == "!!merge" {
			continue
		}
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field name is not a scalar", keyNode.Line)
		}
		v, err := nodeValue(valueNode)
		if err != nil {
			return nil, err
		}
		fields[keyNode.Value] = v
	}
	return fields, nil
}

func mergeInto(fields map[string]any, n *yaml.Node) error {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		merged, err := mappingValue(n)
		if err != nil {
			return err
		}
		for k, v := range merged {
			fields[k] = v
		}
		return nil
	case yaml.SequenceNode:
		// earlier entries of a merge sequence take precedence
		for i := len(n.Content) - 1; i >= 0; i-- {
			if err := mergeInto(fields, n.Content[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: merge value is not a mapping", n.Line)
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
