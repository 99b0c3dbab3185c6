package formats

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/beevik/etree"
	m "github.com/mouse-blink/perturb/internal/model"
)

const (
	metadataTag   = "metadata"
	streamInfoTag = "stream_info"
)

// StreamsUpdater edits CDEPS stream definition files (*.streams.xml).
type StreamsUpdater struct{}

// Update sets child element text under the <metadata> element or the
// <stream_info name="section"> element of path.
func (StreamsUpdater) Update(path, section string, params *m.Map) error {
	changes := params
	if section != "" {
		changes = m.MapFrom(section, params)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", m.ErrMissingKey, path, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	updated, unmatched := PatchStreams(doc, changes)
	if updated > 0 {
		out, err := doc.WriteToBytes()
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}

		if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	if len(unmatched) > 0 {
		return m.ErrMissingKeyf("%s: no element for %s", path, strings.Join(unmatched, ", "))
	}

	return nil
}

// PatchStreams applies changes (element name -> child -> text) to doc. The
// <metadata> element is addressed as "metadata" and every <stream_info> by
// its name attribute. It returns how many children were set and the
// "element/child" entries that matched nothing.
func PatchStreams(doc *etree.Document, changes *m.Map) (int, []string) {
	pending := make(map[string]bool)

	for _, name := range changes.Keys() {
		v, _ := changes.Get(name)
		if !v.IsMap() {
			pending[name] = true
			continue
		}

		for _, child := range v.Map.Keys() {
			pending[name+"/"+child] = true
		}
	}

	updated := 0

	var walk func(el *etree.Element)

	walk = func(el *etree.Element) {
		name := ""

		switch el.Tag {
		case metadataTag:
			name = metadataTag
		case streamInfoTag:
			name = el.SelectAttrValue("name", "")
		}

		if v, ok := changes.Get(name); ok && name != "" && v.IsMap() {
			for _, child := range v.Map.Keys() {
				target := el.SelectElement(child)
				if target == nil {
					continue
				}

				cv, _ := v.Map.Get(child)
				target.SetText(cv.String())
				delete(pending, name+"/"+child)
				updated++
			}
		}

		for _, child := range el.ChildElements() {
			walk(child)
		}
	}

	if root := doc.Root(); root != nil {
		walk(root)
	}

	unmatched := make([]string, 0, len(pending))
	for key := range pending {
		unmatched = append(unmatched, key)
	}

	sort.Strings(unmatched)

	return updated, unmatched
}
