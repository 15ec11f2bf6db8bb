// Package token persists the bearer credential and cached identity on disk
// and answers local validity questions about the credential.
package token

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/shezi1344/taskflow-cli/internal/model"
)

const (
	tokenFileName = "token.json"
	userFileName  = "user.json"
)

// Store mediates all access to the persisted credential and cached identity.
// The session manager is the sole writer; everything else only reads.
type Store interface {
	// Save overwrites both the credential and the identity record.
	Save(credential string, user model.User) error
	// Load returns the persisted pair. ok is false when either record is
	// absent or undecodable; Load never fails.
	Load() (credential string, user model.User, ok bool)
	// Clear removes credential and identity together. Idempotent.
	Clear() error
}

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

// FileStore keeps the credential under a config directory, one JSON file for
// the token and one for the identity. Both are written and cleared together.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultDir resolves the config directory: $TASKFLOW_CONFIG_DIR, then
// $XDG_CONFIG_HOME/taskflow, then ~/.config/taskflow.
func DefaultDir() string {
	if v := os.Getenv("TASKFLOW_CONFIG_DIR"); v != "" {
		return v
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "taskflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "taskflow")
}

func (s *FileStore) tokenPath() string { return filepath.Join(s.dir, tokenFileName) }
func (s *FileStore) userPath() string  { return filepath.Join(s.dir, userFileName) }

func (s *FileStore) Save(credential string, user model.User) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	tb, err := json.Marshal(tokenFile{AccessToken: credential})
	if err != nil {
		return err
	}
	ub, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.tokenPath(), tb, 0o600); err != nil {
		return err
	}
	return os.WriteFile(s.userPath(), ub, 0o600)
}

func (s *FileStore) Load() (string, model.User, bool) {
	tb, err := os.ReadFile(s.tokenPath())
	if err != nil {
		return "", model.User{}, false
	}
	var tf tokenFile
	if err := json.Unmarshal(tb, &tf); err != nil || tf.AccessToken == "" {
		return "", model.User{}, false
	}
	ub, err := os.ReadFile(s.userPath())
	if err != nil {
		return "", model.User{}, false
	}
	var u model.User
	if err := json.Unmarshal(ub, &u); err != nil {
		return "", model.User{}, false
	}
	return tf.AccessToken, u, true
}

func (s *FileStore) Clear() error {
	// Both records go together; a missing file is not an error.
	errTok := os.Remove(s.tokenPath())
	errUsr := os.Remove(s.userPath())
	if errTok != nil && !os.IsNotExist(errTok) {
		return errTok
	}
	if errUsr != nil && !os.IsNotExist(errUsr) {
		return errUsr
	}
	return nil
}

// SubjectFrom returns the user id embedded in the stored credential, when a
// credential is present and decodable.
func SubjectFrom(s Store) (string, bool) {
	cred, _, ok := s.Load()
	if !ok {
		return "", false
	}
	sub, err := Subject(cred)
	if err != nil {
		return "", false
	}
	return sub, true
}
