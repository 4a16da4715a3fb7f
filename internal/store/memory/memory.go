package memory

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"reyes/internal/core"
	"reyes/internal/store"
)

// Store keeps project records in memory. Useful for demos and tests
// where no SQLite file should be touched.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Project
}

func New() *Store {
	return &Store{
		nextID: 1,
		items:  make(map[int64]core.Project),
	}
}

// NewFromFiles seeds the store from data/seed_proyectos.csv if present.
// Rows that fail validation are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, p := range readSeed(filepath.Join(base, "seed_proyectos.csv")) {
		if err := p.Validate(); err != nil {
			continue
		}
		s.insert(p)
	}
	return s
}

func (s *Store) insert(p core.Project) core.Project {
	p.ID = s.nextID
	s.nextID++
	s.items[p.ID] = p
	return p
}

// ListProjects implements store.RecordStore.
func (s *Store) ListProjects(_ context.Context) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := make([]core.Project, 0, len(s.items))
	for _, p := range s.items {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

// GetProject implements store.RecordStore.
func (s *Store) GetProject(_ context.Context, id int64) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[id]
	if !ok {
		return core.Project{}, store.ErrNotFound
	}
	return p, nil
}

// CreateProject implements store.RecordStore.
func (s *Store) CreateProject(_ context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(p), nil
}

// UpdateProject implements store.RecordStore.
func (s *Store) UpdateProject(_ context.Context, p core.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.items[p.ID] = p
	return nil
}

// DeleteProject implements store.RecordStore.
func (s *Store) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// readSeed parses a CSV with the columns
// cliente,servicio,estado,precio,contacto,estado_pago,fecha_terminado.
// A header row is detected and skipped.
func readSeed(path string) []core.Project {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var projects []core.Project
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < 6 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(record[0]), "cliente") {
			continue
		}

		p := core.Project{
			Client:  strings.TrimSpace(record[0]),
			Service: strings.TrimSpace(record[1]),
			Status:  strings.TrimSpace(record[2]),
			Contact: strings.TrimSpace(record[4]),
			Payment: strings.TrimSpace(record[5]),
		}
		if price, err := core.ParsePriceCLP(record[3]); err == nil {
			p.Price = &price
		}
		if len(record) > 6 {
			if d, err := core.ParseDate(record[6]); err == nil {
				p.Completed = d
			}
		}
		projects = append(projects, p)
	}

	return projects
}
