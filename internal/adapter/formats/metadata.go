package formats

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MetadataUpdate is what a perturbation writes to its metadata.yaml.
type MetadataUpdate struct {
	// Notes are appended to the description unless already present.
	Notes []string
	// Keywords replaces the keywords field.
	Keywords string
}

// MetadataWriter persists experiment metadata.
type MetadataWriter interface {
	Update(path string, upd MetadataUpdate) error
}

// MetadataFile updates payu metadata.yaml files, creating them if needed.
type MetadataFile struct{}

// Update merges upd into the metadata file at path.
func (MetadataFile) Update(path string, upd MetadataUpdate) error {
	perm := os.FileMode(0o644)

	doc := &yaml.Node{}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		perm = info.Mode().Perm()

		doc, err = readYAML(path)
		if err != nil {
			return err
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	root, err := rootMapping(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	description := ""
	if i := mappingIndex(root, "description"); i >= 0 {
		description = root.Content[i].Value
	}

	description = AppendNotes(description, upd.Notes)

	setMetadataField(root, "description", &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.LiteralStyle,
		Value: description,
	})
	setMetadataField(root, "keywords", &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: upd.Keywords,
	})

	return writeYAML(path, doc, perm)
}

// AppendNotes adds every note not already contained in description.
func AppendNotes(description string, notes []string) string {
	for _, note := range notes {
		if strings.Contains(description, strings.TrimSpace(note)) {
			continue
		}

		if description != "" && !strings.HasSuffix(description, "\n") {
			description += "\n"
		}

		description += note + "\n"
	}

	return description
}

// setMetadataField sets key and drops the comments attached to it; they
// describe the control run.
func setMetadataField(root *yaml.Node, key string, value *yaml.Node) {
	setMapping(root, key, value)

	i := mappingIndex(root, key)
	root.Content[i-1].LineComment = ""
	root.Content[i].LineComment = ""
	root.Content[i].FootComment = ""
}
