package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jawad226/EchoMart-sub000/pkg/domain"
)

const cartFileName = "cart.json"

// FileRepository persists the cart as a JSON file under a data directory.
type FileRepository struct {
	path string
}

// NewFileRepository creates the data directory if missing.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("cart data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRepository{path: filepath.Join(dataDir, cartFileName)}, nil
}

func (r *FileRepository) Load() ([]domain.LineItem, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse cart file: %w", err)
	}
	return items, nil
}

func (r *FileRepository) Save(items []domain.LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write cart file: %w", err)
	}
	return nil
}

func (r *FileRepository) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cart file: %w", err)
	}
	return nil
}
