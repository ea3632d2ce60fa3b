package dconfig

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"

	internalErrors "github.com/bashhack/dura/internal/errors"
)

// EnvConfigHome overrides the config/runtime directory when set and non-empty.
const EnvConfigHome = "DURA_CONFIG_HOME"

// DocumentFilename is the name of the persisted configuration document.
const DocumentFilename = "config.toml"

// ShutdownFilename is the name of the ephemeral shutdown-request marker.
const ShutdownFilename = "shutdown"

// StatusFilename is the name of the daemon's periodically refreshed latency
// snapshot, the mechanism by which a sibling `status` invocation observes
// metrics kept in the running daemon's own memory.
const StatusFilename = "status.json"

// RepoConfig is the per-repository record of spec §3.
type RepoConfig struct {
	Include        []string `toml:"include,omitempty"`
	Exclude        []string `toml:"exclude,omitempty"`
	MaxDepth       *int     `toml:"max_depth,omitempty"`
	PollingSeconds *int     `toml:"polling_seconds,omitempty"`
}

// Document is the persisted, user-scoped configuration document of spec §3.
type Document struct {
	PID                    *int                   `toml:"pid,omitempty"`
	CommitAuthor           *string                `toml:"commit_author,omitempty"`
	CommitEmail            *string                `toml:"commit_email,omitempty"`
	CommitExcludeGitConfig bool                   `toml:"commit_exclude_git_config"`
	Repos                  map[string]*RepoConfig `toml:"repos,omitempty"`
}

// empty returns a Document with no watched repos and no daemon pid.
func empty() *Document {
	return &Document{Repos: map[string]*RepoConfig{}}
}

// SortedRepoPaths returns the document's repo paths in the deterministic
// order the supervisor loop must iterate in: lexicographic on the
// canonicalized path.
func (d *Document) SortedRepoPaths() []string {
	paths := make([]string, 0, len(d.Repos))
	for p := range d.Repos {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Dir resolves the config/runtime directory, honoring EnvConfigHome.
func Dir() (string, error) {
	if v := os.Getenv(EnvConfigHome); v != "" {
		return v, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", internalErrors.Wrap(err, "could not determine user config directory")
	}
	return filepath.Join(base, "dura"), nil
}

// DocumentPath returns the absolute path to the configuration document.
func DocumentPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DocumentFilename), nil
}

// ShutdownPath returns the absolute path to the shutdown marker file.
func ShutdownPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ShutdownFilename), nil
}

// StatusPath returns the absolute path to the daemon's latency snapshot file.
func StatusPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StatusFilename), nil
}

// Store provides thread-safe load/save access to the configuration document.
// Unlike gitbak's ThreadSafeConfig, a Store does not cache the document
// between operations: every Load re-reads from disk, because the daemon and
// sibling CLI commands race on this file by design (spec §4.2, §9).
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store backed by the default document path.
func NewStore() (*Store, error) {
	path, err := DocumentPath()
	if err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// NewStoreAt creates a Store backed by an explicit path, primarily for tests.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the document path this Store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document from disk. A missing file yields an empty
// document; a malformed file is a ConfigError the caller must surface.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty(), nil
		}
		return nil, internalErrors.NewConfigError(s.path, err)
	}

	doc := empty()
	if err := toml.Unmarshal(data, doc); err != nil {
		return nil, internalErrors.NewConfigError(s.path, internalErrors.Wrap(err, "malformed config document"))
	}
	if doc.Repos == nil {
		doc.Repos = map[string]*RepoConfig{}
	}
	// An empty per-repo table decodes to a nil record; replace it so the
	// entry survives the next save and callers can read its fields.
	for p, rc := range doc.Repos {
		if rc == nil {
			doc.Repos[p] = &RepoConfig{}
		}
	}
	return doc, nil
}

// Save atomically writes the document: encode to a sibling temp file, then
// rename over the destination so concurrent readers never observe a partial
// write (POSIX rename semantics).
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *Store) save(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return internalErrors.NewConfigError(s.path, internalErrors.Wrap(err, "failed to create config directory"))
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return internalErrors.NewConfigError(s.path, internalErrors.Wrap(err, "failed to encode config document"))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return internalErrors.NewConfigError(s.path, internalErrors.Wrap(err, "failed to write temp config file"))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return internalErrors.NewConfigError(s.path, internalErrors.Wrap(err, "failed to rename temp config file"))
	}
	return nil
}

// Watch canonicalizes path and, if not already present, inserts an empty
// per-repo record and saves. No-op (no save) if already watched.
func (s *Store) Watch(path string) (string, error) {
	abs, err := canonicalize(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}

	if _, ok := doc.Repos[abs]; !ok {
		doc.Repos[abs] = &RepoConfig{}
		if err := s.save(doc); err != nil {
			return "", err
		}
	}
	return abs, nil
}

// Unwatch canonicalizes path and removes it; no-op if absent.
func (s *Store) Unwatch(path string) (string, error) {
	abs, err := canonicalize(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}

	if _, ok := doc.Repos[abs]; ok {
		delete(doc.Repos, abs)
		if err := s.save(doc); err != nil {
			return "", err
		}
	}
	return abs, nil
}

// SetPID mutates only the pid field, leaving concurrent repo-set edits from
// sibling commands untouched.
func (s *Store) SetPID(pid *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.PID = pid
	return s.save(doc)
}

// canonicalize resolves path to an absolute, symlink-resolved form.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", internalErrors.Wrap(err, "failed to resolve absolute path")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The path may not exist yet (e.g. a repo about to be cloned); fall
		// back to the absolute, non-symlink-resolved form rather than fail
		// the watch/unwatch operation outright.
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", internalErrors.Wrap(err, "failed to resolve symlinks")
	}
	return resolved, nil
}
