// internal/service/customer_service.go
package service

import (
	"context"
	"log"
	"sync"

	appErrors "github.com/unclebandit/customers-app/internal/errors"
	"github.com/unclebandit/customers-app/internal/events"
	"github.com/unclebandit/customers-app/internal/model"
	"github.com/unclebandit/customers-app/internal/repository"
)

// State is a point-in-time copy of what the view renders
type State struct {
	Customers   []model.Customer
	PendingName string
	Loading     bool
	LoadErr     error
}

// CustomerService keeps the in-memory customer list in step with the table.
// Every storage operation runs on the worker, one at a time; the cached list
// is patched from each mutation's outcome rather than re-queried.
type CustomerService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	Publisher    events.Publisher

	// OnReady, if set, is called once when loading finishes.
	OnReady func()

	worker *Worker

	mu          sync.RWMutex
	customers   []model.Customer
	pendingName string
	loading     bool
	loadErr     error

	initOnce  sync.Once
	readyOnce sync.Once
	initDone  chan struct{}
}

func NewCustomerService(repo repository.CustomerRepositoryInterface, pub events.Publisher) *CustomerService {
	return &CustomerService{
		CustomerRepo: repo,
		Publisher:    pub,
		worker:       NewWorker(64),
		customers:    []model.Customer{},
		loading:      true,
		initDone:     make(chan struct{}),
	}
}

// Start launches the worker that runs storage operations. Init and the
// mutations start it with a background context if nobody called Start.
func (s *CustomerService) Start(ctx context.Context) {
	s.worker.Start(ctx)
}

// Stop fails anything still queued and waits for the running operation.
func (s *CustomerService) Stop() {
	s.worker.Stop()
}

// Init creates the schema and loads every customer without blocking the
// caller. The returned channel receives the outcome of that first load; later
// calls report the same outcome and never load again.
func (s *CustomerService) Init() <-chan error {
	s.initOnce.Do(func() {
		s.worker.Start(context.Background())
		done := s.worker.Submit("initial load", s.load)
		go func() {
			if err := <-done; err != nil {
				s.markReady(nil, err)
			}
			close(s.initDone)
		}()
	})

	out := make(chan error, 1)
	go func() {
		<-s.initDone
		s.mu.RLock()
		out <- s.loadErr
		s.mu.RUnlock()
	}()
	return out
}

// Ready is closed once the initial load has finished, successfully or not.
func (s *CustomerService) Ready() <-chan struct{} {
	return s.initDone
}

func (s *CustomerService) load(ctx context.Context) error {
	if err := s.CustomerRepo.EnsureSchema(ctx); err != nil {
		s.markReady(nil, err)
		return err
	}
	customers, err := s.CustomerRepo.ListAll(ctx)
	s.markReady(customers, err)
	return err
}

// markReady performs the single Loading -> Ready transition.
func (s *CustomerService) markReady(customers []model.Customer, err error) {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		if err == nil && customers != nil {
			s.customers = customers
		}
		s.loadErr = err
		s.loading = false
		s.mu.Unlock()

		if s.OnReady != nil {
			s.OnReady()
		}
	})
}

func (s *CustomerService) SetPendingName(name string) {
	s.mu.Lock()
	s.pendingName = name
	s.mu.Unlock()
}

func (s *CustomerService) PendingName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingName
}

// Snapshot returns a copy of the current state
func (s *CustomerService) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]model.Customer, len(s.customers))
	copy(customers, s.customers)
	return State{
		Customers:   customers,
		PendingName: s.pendingName,
		Loading:     s.loading,
		LoadErr:     s.loadErr,
	}
}

// AddCustomer inserts the pending name. On success the customer is appended
// and the pending name cleared; on failure nothing changes.
func (s *CustomerService) AddCustomer(ctx context.Context) (model.Customer, error) {
	return s.add(ctx, s.PendingName(), true)
}

// SubmitPending records name as the pending input and inserts that same
// name. The pending input is cleared on success only if nobody replaced it
// in the meantime, so a concurrent failed submit keeps its input.
func (s *CustomerService) SubmitPending(ctx context.Context, name string) (model.Customer, error) {
	s.SetPendingName(name)
	return s.add(ctx, name, true)
}

// AddCustomerNamed inserts name verbatim without touching the pending name.
func (s *CustomerService) AddCustomerNamed(ctx context.Context, name string) (model.Customer, error) {
	return s.add(ctx, name, false)
}

func (s *CustomerService) add(ctx context.Context, name string, clearPending bool) (model.Customer, error) {
	var created model.Customer
	err := s.do(ctx, "add customer", func(ctx context.Context) error {
		c, err := s.CustomerRepo.Create(ctx, name)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.customers = append(s.customers, c)
		if clearPending && s.pendingName == name {
			s.pendingName = ""
		}
		s.mu.Unlock()

		created = c
		s.publish(ctx, events.NewCreated(c))
		return nil
	})
	if err != nil {
		return model.Customer{}, err
	}
	return created, nil
}

// DeleteCustomer removes the row and then drops it from the cached list.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	return s.do(ctx, "delete customer", func(ctx context.Context) error {
		if err := s.CustomerRepo.Delete(ctx, id); err != nil {
			return err
		}
		s.mu.Lock()
		kept := make([]model.Customer, 0, len(s.customers))
		for _, c := range s.customers {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.customers = kept
		s.mu.Unlock()

		s.publish(ctx, events.NewDeleted(id))
		return nil
	})
}

// Reload re-queries the table and replaces the cached list.
func (s *CustomerService) Reload(ctx context.Context) error {
	return s.do(ctx, "reload customers", func(ctx context.Context) error {
		customers, err := s.CustomerRepo.ListAll(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.customers = customers
		s.mu.Unlock()
		return nil
	})
}

// do submits run and waits for its outcome or for ctx. An operation whose
// caller gave up still runs to completion.
func (s *CustomerService) do(ctx context.Context, name string, run func(ctx context.Context) error) error {
	s.mu.RLock()
	loading := s.loading
	s.mu.RUnlock()
	if loading {
		return appErrors.ErrNotReady
	}

	s.worker.Start(context.Background())
	select {
	case err := <-s.worker.Submit(name, run):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CustomerService) publish(ctx context.Context, e events.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, e); err != nil {
		log.Printf("⚠️ failed to publish %s for customer %d: %v", e.Type, e.CustomerID, err)
	}
}
