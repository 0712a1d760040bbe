package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SimStorageType is the type of storage service (POINTS, STATES, etc.)
type SimStorageType string

const (
	// POINTS storage holds one row per frame per contact point
	POINTS SimStorageType = "POINTS"
	// STATES storage holds one row per frame per entity
	STATES SimStorageType = "STATES"
)

// StorageHeaders is a map of columns for storage types
var StorageHeaders = map[SimStorageType][]string{
	POINTS: {
		"frame", "entity", "point", "position_x", "position_y", "velocity_x", "velocity_y",
	},
	STATES: {
		"frame", "entity", "mount_phase", "sled_intact",
	},
}

// Storage is a service that writes csv's to disk
type Storage struct {
	recordDir string
	store     SimStorageType
	mu        sync.RWMutex
	filePath  string
	writer    *csv.Writer
	file      *os.File
}

// Stores is a collection of storage services
type Stores struct {
	Points *Storage
	States *Storage
}

// Close closes every storage service of the collection
func (s *Stores) Close() {
	if s.Points != nil {
		_ = s.Points.Close()
	}
	if s.States != nil {
		_ = s.States.Close()
	}
}

// NewStorage creates a new storage service for a specific store type within a given record directory.
func NewStorage(recordDir string, store SimStorageType) (*Storage, error) {
	absRecordDir, err := filepath.Abs(recordDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for record directory %s: %w", recordDir, err)
	}

	if err := os.MkdirAll(absRecordDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory %s: %w", absRecordDir, err)
	}

	filePath := filepath.Join(absRecordDir, fmt.Sprintf("%s.csv", strings.ToUpper(string(store))))

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create/open file %s: %w", filePath, err)
	}

	return &Storage{
		recordDir: absRecordDir,
		store:     store,
		filePath:  filePath,
		file:      file,
		writer:    csv.NewWriter(file),
	}, nil
}

// Init ensures the header row is written if the file is new/empty.
func (s *Storage) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat storage file %s: %w", s.filePath, err)
	}
	if info.Size() > 0 {
		return nil
	}

	headers, ok := StorageHeaders[s.store]
	if !ok {
		return fmt.Errorf("no headers defined for storage type %s", s.store)
	}
	if err := s.writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers to %s: %w", s.filePath, err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Write appends one record row
func (s *Storage) Write(record []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers := StorageHeaders[s.store]
	if len(record) != len(headers) {
		return fmt.Errorf("record has %d fields, storage type %s wants %d", len(record), s.store, len(headers))
	}
	return s.writer.Write(record)
}

// Flush forces buffered rows to disk
func (s *Storage) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.writer.Error()
}

// FilePath returns the backing file's path
func (s *Storage) FilePath() string {
	return s.filePath
}

// Close flushes and closes the backing file
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
