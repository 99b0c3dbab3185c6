package formats

import (
	"bytes"
	"fmt"
	"os"

	m "github.com/mouse-blink/perturb/internal/model"
	"gopkg.in/yaml.v3"
)

// rewrite applies edit to the text of path and writes the result back when
// it changed. A missing file is reported as ErrMissingKey wrapping the
// not-exist error.
func rewrite(path string, edit func(string) (string, error)) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", m.ErrMissingKey, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated, err := edit(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if updated == string(data) {
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func readYAML(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &doc, nil
}

func writeYAML(path string, doc *yaml.Node, perm os.FileMode) error {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// rootMapping returns the top-level mapping of doc, creating it for an empty document.
func rootMapping(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc.Kind = yaml.DocumentNode
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, m.ErrValidationf("top level is not a mapping")
	}

	return root, nil
}

// mappingIndex returns the index of key's value node in a mapping's Content.
func mappingIndex(node *yaml.Node, key string) int {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return i + 1
		}
	}

	return -1
}

// setMapping replaces or appends key in a mapping node. Comments attached
// to a replaced value are carried over.
func setMapping(node *yaml.Node, key string, value *yaml.Node) {
	if i := mappingIndex(node, key); i >= 0 {
		old := node.Content[i]
		value.HeadComment = old.HeadComment
		value.LineComment = old.LineComment
		value.FootComment = old.FootComment
		node.Content[i] = value

		return
	}

	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// mergeNode lays change over a mapping node: nested maps merge key by key,
// everything else replaces the base value, and new keys are appended.
func mergeNode(node *yaml.Node, change *m.Map) {
	for _, key := range change.Keys() {
		v, _ := change.Get(key)

		if i := mappingIndex(node, key); i >= 0 && v.IsMap() && node.Content[i].Kind == yaml.MappingNode {
			mergeNode(node.Content[i], v.Map)
			continue
		}

		setMapping(node, key, m.ToNode(v))
	}
}
