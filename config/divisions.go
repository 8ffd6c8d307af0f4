package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DivisionsFile reads the configured division roster from a file.
// The file is re-read on every call so roster edits are picked up
// without a restart.
type DivisionsFile struct {
	path string
}

// NewDivisionsFile returns a roster source backed by the file at path.
func NewDivisionsFile(path string) *DivisionsFile {
	return &DivisionsFile{path: path}
}

// Divisions returns machine name to display name pairs from the roster file.
func (d *DivisionsFile) Divisions() (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(d.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read divisions file")
	}
	return v.GetStringMapString("divisions"), nil
}
