// Package store persists tenant data as flat JSON documents. Every company
// owns a single <id>.json file next to a master.json registry; documents are
// cached in memory and rewritten atomically on every mutation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const masterFile = "master.json"

var (
	// ErrCompanyNotFound indicates the company id has no registry entry.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrCompanyExists indicates a provisioning collision on the company id.
	ErrCompanyExists = errors.New("company already exists")
	// ErrNotFound is the generic miss for entities inside a company document.
	ErrNotFound = errors.New("not found")
)

// Store is a flat-file document store. All access goes through View and
// Update under one lock, so every mutation is serialized and flushed to disk
// before it becomes visible. Contention is not a concern at the document
// sizes this store handles.
type Store struct {
	dir string

	mu        sync.Mutex
	master    *Master
	companies map[string]*CompanyDB
}

// Open loads (or initializes) the master registry under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, companies: make(map[string]*CompanyDB)}
	master, err := readDocument[Master](filepath.Join(dir, masterFile))
	if err != nil {
		return nil, err
	}
	if master == nil {
		master = &Master{UsersDirectory: make(map[string]string)}
		if err := writeDocument(filepath.Join(dir, masterFile), master); err != nil {
			return nil, err
		}
	}
	if master.UsersDirectory == nil {
		master.UsersDirectory = make(map[string]string)
	}
	s.master = master
	return s, nil
}

// Dir returns the data directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// Master returns a copy of the registry.
func (s *Store) Master() Master {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMaster(s.master)
}

// UpdateMaster applies fn to the registry and persists the result. The
// registry is left untouched when fn or the flush fails.
func (s *Store) UpdateMaster(fn func(*Master) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := cloneMaster(s.master)
	if err := fn(&draft); err != nil {
		return err
	}
	if err := writeDocument(filepath.Join(s.dir, masterFile), &draft); err != nil {
		return err
	}
	s.master = &draft
	return nil
}

// CompanyExists reports whether the id is registered.
func (s *Store) CompanyExists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCompany(id) != nil
}

// CompanyActive reports whether the id is registered and not suspended.
func (s *Store) CompanyActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCompany(id)
	return c != nil && c.IsActive
}

// View runs fn against the company document. fn must treat the document as
// read-only; changes made through View are neither persisted nor rolled back.
func (s *Store) View(companyID string, fn func(*CompanyDB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.loadLocked(companyID)
	if err != nil {
		return err
	}
	return fn(db)
}

// Update applies fn to the company document and flushes it to disk before
// returning. When fn or the flush errors the cached copy is dropped so the
// next access rereads the last good document from disk.
func (s *Store) Update(companyID string, fn func(*CompanyDB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.loadLocked(companyID)
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		delete(s.companies, companyID)
		return err
	}
	if err := writeDocument(s.companyPath(companyID), db); err != nil {
		delete(s.companies, companyID)
		return err
	}
	return nil
}

// CreateCompany registers a tenant and writes its initial document.
func (s *Store) CreateCompany(c Company, initial CompanyDB) error {
	return s.UpdateMaster(func(m *Master) error {
		for _, existing := range m.Companies {
			if existing.ID == c.ID {
				return ErrCompanyExists
			}
		}
		if err := writeDocument(s.companyPath(c.ID), &initial); err != nil {
			return err
		}
		m.Companies = append(m.Companies, c)
		return nil
	})
}

func (s *Store) findCompany(id string) *Company {
	for i := range s.master.Companies {
		if s.master.Companies[i].ID == id {
			return &s.master.Companies[i]
		}
	}
	return nil
}

// loadLocked returns the cached document, reading it from disk on first use.
// The caller holds s.mu.
func (s *Store) loadLocked(companyID string) (*CompanyDB, error) {
	if s.findCompany(companyID) == nil {
		return nil, ErrCompanyNotFound
	}
	if db, ok := s.companies[companyID]; ok {
		return db, nil
	}
	db, err := readDocument[CompanyDB](s.companyPath(companyID))
	if err != nil {
		return nil, err
	}
	if db == nil {
		db = &CompanyDB{}
	}
	s.companies[companyID] = db
	return db, nil
}

func (s *Store) companyPath(companyID string) string {
	return filepath.Join(s.dir, companyID+".json")
}

// readDocument returns nil (no error) when the file does not exist yet.
func readDocument[T any](path string) (*T, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// writeDocument replaces the file atomically via a temp file and rename so a
// crash mid-write never leaves a truncated document behind.
func writeDocument[T any](path string, doc *T) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func cloneMaster(m *Master) Master {
	out := Master{
		Companies:      append([]Company(nil), m.Companies...),
		UsersDirectory: make(map[string]string, len(m.UsersDirectory)),
		Admin:          m.Admin,
	}
	for k, v := range m.UsersDirectory {
		out.UsersDirectory[k] = v
	}
	return out
}
