package database

import (
	"context"
	"sort"
	"sync"
)

// MockRepository is an in-memory implementation of RepositoryInterface for
// tests and local runs without Postgres.
type MockRepository struct {
	mu sync.RWMutex

	users  map[uint]*User
	orders map[string]*Order
	nextID uint

	// ErrorOnNextCall injects an error into the next repository call.
	ErrorOnNextCall error
}

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:  make(map[uint]*User),
		orders: make(map[string]*Order),
		nextID: 1,
	}
}

// NewSeededMockRepository creates a mock repository preloaded with the demo
// users.
func NewSeededMockRepository() *MockRepository {
	m := NewMockRepository()
	for _, u := range SeedUsers() {
		user := u
		_ = m.CreateUser(context.Background(), &user)
	}
	return m
}

func (m *MockRepository) checkError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrorOnNextCall != nil {
		err := m.ErrorOnNextCall
		m.ErrorOnNextCall = nil
		return err
	}
	return nil
}

func (m *MockRepository) CreateUser(ctx context.Context, user *User) error {
	if err := m.checkError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	} else if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockRepository) GetUser(ctx context.Context, id uint) (*User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MockRepository) CreateOrder(ctx context.Context, order *Order) error {
	if err := m.checkError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *MockRepository) GetOrder(ctx context.Context, id string) (*Order, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockRepository) ListOrdersByUser(ctx context.Context, userID uint) ([]Order, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var orders []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

// Ensure MockRepository implements RepositoryInterface.
var _ RepositoryInterface = (*MockRepository)(nil)
