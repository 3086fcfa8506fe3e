package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDatabaseNotFound is returned when opening a database that was never
// created.
var ErrDatabaseNotFound = errors.New("database not found")

// Provisioner manages named SQLite databases in one data directory.
// Database "crm" lives in <Dir>/crm.db.
type Provisioner struct {
	Dir string
}

// NewProvisioner returns a provisioner rooted at dir.
func NewProvisioner(dir string) *Provisioner {
	return &Provisioner{Dir: dir}
}

// Path returns the file backing a database.
func (p *Provisioner) Path(name string) string {
	return filepath.Join(p.Dir, name+".db")
}

// DatabaseExists reports whether the database file is present.
func (p *Provisioner) DatabaseExists(_ context.Context, name string) (bool, error) {
	info, err := os.Stat(p.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("database exists %s: %w", name, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("database %s: %s is a directory", name, p.Path(name))
	}
	return true, nil
}

// CreateDatabase creates an empty database file. The data directory is
// created if needed.
func (p *Provisioner) CreateDatabase(ctx context.Context, name string) error {
	exists, err := p.DatabaseExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create database %s: already exists", name)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}

	s, err := Open(p.Path(name))
	if err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return s.Close()
}

// DropDatabase removes the database file with its WAL and shared-memory
// companions. A missing database is not an error.
func (p *Provisioner) DropDatabase(_ context.Context, name string) error {
	path := p.Path(name)
	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("drop database %s: %w", name, err)
		}
	}
	return nil
}

// Open opens an existing database.
func (p *Provisioner) Open(ctx context.Context, name string) (*Store, error) {
	exists, err := p.DatabaseExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrDatabaseNotFound)
	}
	return Open(p.Path(name))
}
