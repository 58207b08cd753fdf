package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

const sessionFileName = "session.json"

// FileRepository persists the session as a JSON file under a data directory.
type FileRepository struct {
	path string
}

// NewFileRepository creates the data directory if missing.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("session data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRepository{path: filepath.Join(dataDir, sessionFileName)}, nil
}

func (r *FileRepository) Load() (*domain.Session, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &sess, nil
}

func (r *FileRepository) Save(sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// 0600: the file carries a bearer token.
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (r *FileRepository) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
