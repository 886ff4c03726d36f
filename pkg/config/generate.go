package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/spf13/afero"
)

// GenerateConfigContent returns the defaults file with every assignment
// commented out, ready to be saved as a user config.
func GenerateConfigContent() string {
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(GetDefaultsContent()))
	for sc.Scan() {
		line := sc.Text()
		if isAssignment(line) {
			b.WriteString("# ")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// isAssignment reports whether a TOML line sets a key.
func isAssignment(line string) bool {
	s := strings.TrimSpace(line)
	switch {
	case s == "", strings.HasPrefix(s, "#"), strings.HasPrefix(s, "["):
		return false
	}
	return strings.Contains(s, "=")
}

// WriteConfigFile saves the generated config at path. An existing file is
// only replaced when force is set.
func WriteConfigFile(fs afero.Fs, path string, force bool) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "checking %s", path).
			WithDetail("path", path)
	}
	if exists && !force {
		return errors.Newf(errors.ErrInvalidInput, "config file %s already exists (use --force to overwrite)", path).
			WithDetail("path", path)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "creating %s", filepath.Dir(path)).
			WithDetail("path", path)
	}
	if err := afero.WriteFile(fs, path, []byte(GenerateConfigContent()), os.FileMode(0644)); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "writing %s", path).
			WithDetail("path", path)
	}
	return nil
}
