package formats

import (
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
)

const runConfigIndent = "     "

// RunConfigUpdater edits NUOPC run configuration files (nuopc.runconfig).
type RunConfigUpdater struct{}

// Update sets params in the runconfig section of path.
func (RunConfigUpdater) Update(path, section string, params *m.Map) error {
	sections := params
	if section != "" {
		sections = m.MapFrom(section, params)
	}

	return rewrite(path, func(text string) (string, error) {
		return PatchRunConfig(text, sections)
	})
}

// PatchRunConfig sets "key = value" attributes inside "NAME::" ... "::"
// sections, keeping indentation. Missing keys and sections are added.
func PatchRunConfig(text string, sections *m.Map) (string, error) {
	lines := strings.Split(text, "\n")

	for _, section := range sections.Keys() {
		sv, _ := sections.Get(section)
		if !sv.IsMap() {
			return "", m.ErrValidationf("runconfig section %q must be a mapping of attributes", section)
		}

		start, end := findRunConfigSection(lines, section)
		if start < 0 {
			lines = appendRunConfigSection(lines, section, sv.Map)
			continue
		}

		for _, key := range sv.Map.Keys() {
			v, _ := sv.Map.Get(key)
			value := RunConfigValue(v)

			found := false

			for i := start + 1; i < end; i++ {
				name, _, ok := strings.Cut(lines[i], "=")
				if !ok || strings.TrimSpace(name) != key {
					continue
				}

				indent := lines[i][:len(lines[i])-len(strings.TrimLeft(lines[i], " \t"))]
				lines[i] = indent + key + " = " + value
				found = true

				break
			}

			if !found {
				lines = insertLine(lines, end, runConfigIndent+key+" = "+value)
				end++
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

// RunConfigValue renders v for a runconfig attribute.
func RunConfigValue(v m.Value) string {
	if b, ok := v.AsBool(); ok {
		if b {
			return ".true."
		}

		return ".false."
	}

	if v.IsList() {
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			parts = append(parts, RunConfigValue(item))
		}

		return strings.Join(parts, " ")
	}

	return v.String()
}

func findRunConfigSection(lines []string, section string) (int, int) {
	header := section + "::"

	for i, line := range lines {
		if strings.TrimSpace(line) != header {
			continue
		}

		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "::" {
				return i, j
			}
		}

		return i, len(lines)
	}

	return -1, -1
}

func appendRunConfigSection(lines []string, section string, attrs *m.Map) []string {
	block := []string{"", section + "::"}

	for _, key := range attrs.Keys() {
		v, _ := attrs.Get(key)
		block = append(block, runConfigIndent+key+" = "+RunConfigValue(v))
	}

	block = append(block, "::")

	if n := len(lines); n > 0 && lines[n-1] == "" {
		return append(append(lines[:n-1], block...), "")
	}

	return append(lines, block...)
}
