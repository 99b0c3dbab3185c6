package formats

import (
	"fmt"
	"os"
	"path/filepath"

	m "github.com/mouse-blink/perturb/internal/model"
	"gopkg.in/yaml.v3"
)

// ConfigUpdater merges changes into a payu config.yaml, keeping comments.
// The jobname always follows the experiment directory name.
type ConfigUpdater struct{}

// Update merges params into path. section is ignored.
func (ConfigUpdater) Update(path, _ string, params *m.Map) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", m.ErrMissingKey, path, err)
	}

	doc, err := readYAML(path)
	if err != nil {
		return err
	}

	root, err := rootMapping(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	mergeNode(root, params)
	setMapping(root, "jobname", &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: filepath.Base(filepath.Dir(path)),
	})

	return writeYAML(path, doc, info.Mode().Perm())
}
