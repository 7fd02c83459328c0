package runlog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/sync"
)

// YAMLStore writes one YAML file per run into a directory.
type YAMLStore struct {
	dir string
}

// NewYAMLStore creates a store rooted at dir.
func NewYAMLStore(dir string) *YAMLStore {
	return &YAMLStore{dir: dir}
}

// Dir returns the store directory.
func (s *YAMLStore) Dir() string {
	return s.dir
}

// fileName sorts runs chronologically: <started>-<run id>.yaml.
func fileName(r *sync.Result) string {
	return r.StartedAt.UTC().Format("20060102T150405Z") + "-" + r.RunID + ".yaml"
}

// Save implements Store.
func (s *YAMLStore) Save(ctx context.Context, r *sync.Result) error {
	if err := os.MkdirAll(s.dir, constants.DirPermissions); err != nil {
		return errors.WrapResource("create", "run log directory", s.dir, err)
	}

	data, err := yaml.MarshalWithOptions(r,
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseLiteralStyleIfMultiline(true),
	)
	if err != nil {
		return errors.WrapResource("encode", "run", r.RunID, err)
	}

	path := filepath.Join(s.dir, fileName(r))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return errors.WrapResource("write", "run log", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapResource("write", "run log", path, err)
	}

	logging.FromContext(ctx).Debug().Str("path", path).Msg("Saved run log")
	return nil
}

// List returns the run log files, oldest first.
func (s *YAMLStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapResource("read", "run log directory", s.dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load reads the run with the given ID.
func (s *YAMLStore) Load(runID string) (*sync.Result, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if strings.HasSuffix(f, "-"+runID+".yaml") {
			return s.Read(f)
		}
	}
	return nil, errors.NewNotFoundError("run", runID)
}

// Read decodes one run log file.
func (s *YAMLStore) Read(path string) (*sync.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapResource("read", "run log", path, err)
	}
	var r sync.Result
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &r, nil
}
