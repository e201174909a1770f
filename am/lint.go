package am

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/deltaconsumer/errors"
)

// LoadedFiles returns the config files that exist, lowest precedence first.
func LoadedFiles() []SourceInfo {
	var found []SourceInfo
	for _, src := range configPaths() {
		if _, err := os.Stat(src.Path); err == nil {
			found = append(found, src)
		}
	}
	return found
}

// UnknownKeys decodes the file at path strictly and returns the keys that
// do not map to a setting, e.g. a misspelled "ingest.batchsize".
func UnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	var keys []string
	for _, key := range md.Undecoded() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return keys, nil
}
