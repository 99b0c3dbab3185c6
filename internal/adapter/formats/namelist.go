package formats

import (
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
)

const namelistIndent = "    "

// NamelistUpdater edits Fortran namelist files line by line.
type NamelistUpdater struct {
	// Strict rejects groups the file does not already declare instead of
	// appending them.
	Strict bool
}

// Update sets params in the namelist group section of path.
func (u NamelistUpdater) Update(path, section string, params *m.Map) error {
	groups := params
	if section != "" {
		groups = m.MapFrom(section, params)
	}

	return rewrite(path, func(text string) (string, error) {
		if u.Strict {
			lines := strings.Split(text, "\n")

			for _, group := range groups.Keys() {
				if start, _ := findNamelistGroup(lines, group); start < 0 {
					return "", m.ErrGroupTypef("no namelist group %q", group)
				}
			}
		}

		return PatchNamelist(text, groups)
	})
}

// PatchNamelist sets every parameter of groups (group -> name -> value).
// Within a group the first line containing the parameter name is replaced
// by "    name = value"; parameters with no such line are added before the
// group terminator, and unknown groups are appended. Other lines are kept
// verbatim.
func PatchNamelist(text string, groups *m.Map) (string, error) {
	lines := strings.Split(text, "\n")

	for _, group := range groups.Keys() {
		gv, _ := groups.Get(group)
		if !gv.IsMap() {
			return "", m.ErrValidationf("namelist group %q must be a mapping of parameters", group)
		}

		start, end := findNamelistGroup(lines, group)
		if start < 0 {
			lines = appendNamelistGroup(lines, group, gv.Map)
			continue
		}

		for _, name := range gv.Map.Keys() {
			v, _ := gv.Map.Get(name)
			entry := namelistIndent + name + " = " + NamelistValue(v)

			found := false

			for i := start + 1; i < end; i++ {
				if strings.Contains(lines[i], name) {
					lines[i] = entry
					found = true

					break
				}
			}

			if !found {
				lines = insertLine(lines, end, entry)
				end++
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

// NamelistValue renders v with Fortran literals.
func NamelistValue(v m.Value) string {
	if b, ok := v.AsBool(); ok {
		if b {
			return ".true."
		}

		return ".false."
	}

	if v.IsList() {
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			parts = append(parts, NamelistValue(item))
		}

		return strings.Join(parts, ", ")
	}

	return v.String()
}

func findNamelistGroup(lines []string, group string) (int, int) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "&") {
			continue
		}

		fields := strings.Fields(trimmed[1:])
		if len(fields) == 0 || !strings.EqualFold(fields[0], group) {
			continue
		}

		for j := i + 1; j < len(lines); j++ {
			t := strings.TrimSpace(lines[j])
			if strings.HasPrefix(t, "/") || strings.EqualFold(t, "&end") {
				return i, j
			}
		}

		return i, len(lines)
	}

	return -1, -1
}

func appendNamelistGroup(lines []string, group string, params *m.Map) []string {
	block := []string{"&" + group}

	for _, name := range params.Keys() {
		v, _ := params.Get(name)
		block = append(block, namelistIndent+name+" = "+NamelistValue(v))
	}

	block = append(block, "/")

	if n := len(lines); n > 0 && lines[n-1] == "" {
		return append(append(lines[:n-1], block...), "")
	}

	return append(lines, block...)
}

func insertLine(lines []string, at int, line string) []string {
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = line

	return lines
}
