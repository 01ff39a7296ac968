// Package memory implementa los puertos de repositorio en memoria, con semántica transaccional:
// un único escritor a la vez y una copia del estado confirmado por transacción
// (Commit = reemplazar el estado, Rollback = descartar la copia).
// Se usa en pruebas y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// state contenido completo del almacén. Se guardan valores, nunca punteros compartidos con el caller.
type state struct {
	categories map[string]entity.Category
	suppliers  map[string]entity.Supplier
	products   map[string]entity.Product
	batches    map[string]entity.Batch
	documents  map[string]entity.Document
	lines      map[string]entity.DocumentLine
	logs       []entity.BatchCorrectionLog
	sequences  map[string]int
	users      map[string]entity.User
}

func newState() *state {
	return &state{
		categories: map[string]entity.Category{},
		suppliers:  map[string]entity.Supplier{},
		products:   map[string]entity.Product{},
		batches:    map[string]entity.Batch{},
		documents:  map[string]entity.Document{},
		lines:      map[string]entity.DocumentLine{},
		sequences:  map[string]int{},
		users:      map[string]entity.User{},
	}
}

func (s *state) clone() *state {
	c := &state{
		categories: cloneMap(s.categories),
		suppliers:  cloneMap(s.suppliers),
		products:   cloneMap(s.products),
		batches:    cloneMap(s.batches),
		documents:  cloneMap(s.documents),
		lines:      cloneMap(s.lines),
		logs:       append([]entity.BatchCorrectionLog(nil), s.logs...),
		sequences:  cloneMap(s.sequences),
		users:      cloneMap(s.users),
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store almacén en memoria. El cero no es usable: construir con New.
type Store struct {
	writer    sync.Mutex   // serializa transacciones de escritura
	mu        sync.RWMutex // protege committed
	committed *state
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{committed: newState()}
}

// Run ejecuta fn sobre una copia del estado y la confirma solo si fn no falla
// y el contexto sigue vigente.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(ctx, reposFor(work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// ReadOnly ejecuta fn sobre una instantánea del estado confirmado. Lo que fn escriba se descarta.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snap := s.committed.clone()
	s.mu.RUnlock()
	return fn(ctx, reposFor(snap))
}

func reposFor(st *state) repository.Repos {
	return repository.Repos{
		Categories:     &categoryRepo{st: st},
		Suppliers:      &supplierRepo{st: st},
		Products:       &productRepo{st: st},
		Batches:        &batchRepo{st: st},
		Documents:      &documentRepo{st: st},
		CorrectionLogs: &correctionLogRepo{st: st},
		Sequences:      &sequenceRepo{st: st},
		Users:          &userRepo{st: st},
	}
}
