package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore implements LogStore using file system storage, one JSON file per
// finished game.
type FileStore struct {
	logsDir string
}

// NewFileStore creates a file-based archive rooted at logsDir.
func NewFileStore(logsDir string) (*FileStore, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return &FileStore{logsDir: logsDir}, nil
}

// Archive writes a record to <logsDir>/<gameId>.json.
func (fs *FileStore) Archive(record *GameRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(fs.getFilePath(record.GameID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

// Load reads an archived record back from disk.
func (fs *FileStore) Load(gameID string) (*GameRecord, error) {
	filePath := fs.getFilePath(gameID)

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record GameRecord
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	return &record, nil
}

// List returns all archived game IDs.
func (fs *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(fs.logsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs directory: %w", err)
	}

	var gameIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			gameIDs = append(gameIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return gameIDs, nil
}

// Exists checks if a record file exists for the given game ID.
func (fs *FileStore) Exists(gameID string) bool {
	_, err := os.Stat(fs.getFilePath(gameID))
	return err == nil
}

func (fs *FileStore) getFilePath(gameID string) string {
	return filepath.Join(fs.logsDir, fmt.Sprintf("%s.json", gameID))
}
