package formats

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
)

const (
	overrideFile   = "MOM_override"
	overrideMarker = "#override"
)

// CommentSource supplies the documentation comment of MOM6 parameters.
type CommentSource interface {
	Comments() (map[string]string, error)
}

// MOM6InputComments reads comments from a MOM_input file. A missing file
// yields no comments.
type MOM6InputComments struct {
	Path string
}

// Comments parses "KEY = value ! comment" lines.
func (c MOM6InputComments) Comments() (map[string]string, error) {
	f, err := os.Open(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.Path, err)
	}
	defer f.Close()

	comments := make(map[string]string)
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		key, _, comment, ok := parseMOM6Line(scanner.Text())
		if ok && comment != "" {
			comments[key] = comment
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.Path, err)
	}

	return comments, nil
}

// MOM6InputUpdater edits MOM_input in place. Used for the control experiment.
type MOM6InputUpdater struct{}

// Update sets params in path.
func (MOM6InputUpdater) Update(path, _ string, params *m.Map) error {
	return rewrite(path, func(text string) (string, error) {
		return PatchMOM6Input(text, params), nil
	})
}

// MOM6OverrideUpdater records perturbations as "#override" lines in the
// MOM_override file next to the target MOM_input, which stays untouched.
type MOM6OverrideUpdater struct {
	Comments CommentSource
}

// Update writes params to the MOM_override beside path.
func (u MOM6OverrideUpdater) Update(path, _ string, params *m.Map) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: %s: %w", m.ErrMissingKey, dir, err)
	}

	comments := map[string]string{}

	if u.Comments != nil {
		c, err := u.Comments.Comments()
		if err != nil {
			return err
		}

		comments = c
	}

	target := filepath.Join(dir, overrideFile)

	data, err := os.ReadFile(target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", target, err)
	}

	updated := PatchMOM6Override(string(data), params, comments)
	if updated == string(data) {
		return nil
	}

	if err := os.WriteFile(target, []byte(updated), 0o644); err != nil { //nolint:gosec // config file read by the model
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	return nil
}

// PatchMOM6Input replaces the value of existing "KEY = value" lines,
// keeping any trailing comment, and appends keys that are not present.
func PatchMOM6Input(text string, params *m.Map) string {
	lines := strings.Split(text, "\n")

	for _, key := range params.Keys() {
		v, _ := params.Get(key)
		value := MOM6Value(v)
		found := false

		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), overrideMarker) {
				continue
			}

			k, _, comment, ok := parseMOM6Line(line)
			if !ok || k != key {
				continue
			}

			lines[i] = formatMOM6Line("", key, value, comment)
			found = true

			break
		}

		if !found {
			lines = appendLine(lines, formatMOM6Line("", key, value, ""))
		}
	}

	return strings.Join(lines, "\n")
}

// PatchMOM6Override sets "#override KEY = value" lines. Comments come from
// comments when known, otherwise an existing line keeps its own.
func PatchMOM6Override(text string, params *m.Map, comments map[string]string) string {
	lines := strings.Split(text, "\n")

	for _, key := range params.Keys() {
		v, _ := params.Get(key)
		value := MOM6Value(v)
		comment := comments[key]
		found := false

		for i, line := range lines {
			rest, ok := strings.CutPrefix(strings.TrimSpace(line), overrideMarker)
			if !ok {
				continue
			}

			k, _, existing, ok := parseMOM6Line(rest)
			if !ok || k != key {
				continue
			}

			if comment == "" {
				comment = existing
			}

			lines[i] = formatMOM6Line(overrideMarker+" ", key, value, comment)
			found = true

			break
		}

		if !found {
			lines = appendLine(lines, formatMOM6Line(overrideMarker+" ", key, value, comment))
		}
	}

	return strings.Join(lines, "\n")
}

// MOM6Value renders v the way MOM6 parameter files expect.
func MOM6Value(v m.Value) string {
	if b, ok := v.AsBool(); ok {
		if b {
			return "True"
		}

		return "False"
	}

	if v.IsList() {
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			parts = append(parts, MOM6Value(item))
		}

		return strings.Join(parts, ", ")
	}

	return v.String()
}

// parseMOM6Line splits "KEY = value ! comment".
func parseMOM6Line(line string) (key, value, comment string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "!") || strings.HasPrefix(trimmed, "#") {
		return "", "", "", false
	}

	body := trimmed
	if i := strings.Index(trimmed, "!"); i >= 0 {
		body = trimmed[:i]
		comment = strings.TrimSpace(trimmed[i+1:])
	}

	k, v, found := strings.Cut(body, "=")
	if !found {
		return "", "", "", false
	}

	return strings.TrimSpace(k), strings.TrimSpace(v), comment, true
}

func formatMOM6Line(prefix, key, value, comment string) string {
	line := prefix + key + " = " + value
	if comment == "" {
		return line
	}

	return fmt.Sprintf("%-32s ! %s", line, comment)
}

// appendLine adds line at the end, keeping a trailing newline in place.
func appendLine(lines []string, line string) []string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return append(append(lines[:n-1], line), "")
	}

	return append(lines, line)
}
