package tables

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockTableRepo is an in-memory TableRepo. Reads return copies.
type MockTableRepo struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*Table

	CreateFunc           func(ctx context.Context, table *Table) error
	GetFunc              func(ctx context.Context, id uuid.UUID) (*Table, error)
	ListByRestaurantFunc func(ctx context.Context, restaurantID uuid.UUID) ([]*Table, error)
	SaveFunc             func(ctx context.Context, table *Table) error
}

func NewMockTableRepo() *MockTableRepo {
	return &MockTableRepo{tables: make(map[uuid.UUID]*Table)}
}

func (m *MockTableRepo) Create(ctx context.Context, table *Table) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *table
	m.tables[table.ID] = &c
	return nil
}

func (m *MockTableRepo) Get(ctx context.Context, id uuid.UUID) (*Table, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (m *MockTableRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*Table, error) {
	if m.ListByRestaurantFunc != nil {
		return m.ListByRestaurantFunc(ctx, restaurantID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Table
	for _, t := range m.tables {
		if t.RestaurantID == restaurantID {
			c := *t
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *MockTableRepo) Save(ctx context.Context, table *Table) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table.ID]; !ok {
		return ErrTableNotFound
	}
	c := *table
	m.tables[table.ID] = &c
	return nil
}

// MockReservationRepo is an in-memory ReservationRepo. Reads return copies.
type MockReservationRepo struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*Reservation

	CreateFunc     func(ctx context.Context, r *Reservation) error
	GetFunc        func(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListByDateFunc func(ctx context.Context, restaurantID uuid.UUID, date string) ([]*Reservation, error)
	SaveFunc       func(ctx context.Context, r *Reservation) error
}

func NewMockReservationRepo() *MockReservationRepo {
	return &MockReservationRepo{reservations: make(map[uuid.UUID]*Reservation)}
}

func copyReservation(r *Reservation) *Reservation {
	c := *r
	c.TableIDs = append([]uuid.UUID(nil), r.TableIDs...)
	return &c
}

func (m *MockReservationRepo) Create(ctx context.Context, r *Reservation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = copyReservation(r)
	return nil
}

func (m *MockReservationRepo) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, nil
	}
	return copyReservation(r), nil
}

func (m *MockReservationRepo) ListByDate(ctx context.Context, restaurantID uuid.UUID, date string) ([]*Reservation, error) {
	if m.ListByDateFunc != nil {
		return m.ListByDateFunc(ctx, restaurantID, date)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Reservation
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID && r.Date == date {
			result = append(result, copyReservation(r))
		}
	}
	return result, nil
}

func (m *MockReservationRepo) FindByIdempotencyKey(ctx context.Context, restaurantID uuid.UUID, key string) (*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID && r.IdempotencyKey == key {
			return copyReservation(r), nil
		}
	}
	return nil, nil
}

func (m *MockReservationRepo) Save(ctx context.Context, r *Reservation) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[r.ID]; !ok {
		return ErrReservationNotFound
	}
	m.reservations[r.ID] = copyReservation(r)
	return nil
}

func (m *MockReservationRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

// MockPolicyRepo is an in-memory PolicyRepo.
type MockPolicyRepo struct {
	mu       sync.RWMutex
	policies map[uuid.UUID]*Policy

	GetFunc func(ctx context.Context, restaurantID uuid.UUID) (*Policy, error)
}

func NewMockPolicyRepo() *MockPolicyRepo {
	return &MockPolicyRepo{policies: make(map[uuid.UUID]*Policy)}
}

func (m *MockPolicyRepo) Get(ctx context.Context, restaurantID uuid.UUID) (*Policy, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, restaurantID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[restaurantID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *MockPolicyRepo) Save(ctx context.Context, policy *Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *policy
	m.policies[policy.RestaurantID] = &c
	return nil
}

// MockAssignmentRepo is an in-memory AssignmentRepo.
type MockAssignmentRepo struct {
	mu          sync.RWMutex
	assignments map[uuid.UUID]*Assignment

	CreateFunc func(ctx context.Context, a *Assignment) error
	DeleteFunc func(ctx context.Context, reservationID uuid.UUID) error
}

func NewMockAssignmentRepo() *MockAssignmentRepo {
	return &MockAssignmentRepo{assignments: make(map[uuid.UUID]*Assignment)}
}

func (m *MockAssignmentRepo) Create(ctx context.Context, a *Assignment) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ReservationID] = a.clone()
	return nil
}

func (m *MockAssignmentRepo) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, reservationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, reservationID)
	return nil
}

func (m *MockAssignmentRepo) ListFromDate(ctx context.Context, date string) ([]*Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Assignment
	for _, a := range m.assignments {
		if a.Window.Date >= date {
			result = append(result, a.clone())
		}
	}
	return result, nil
}

func (m *MockAssignmentRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assignments)
}

// MockNotifier records notifications.
type MockNotifier struct {
	mu    sync.Mutex
	notes []Notification

	NotifyFunc func(ctx context.Context, n Notification) error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, n Notification) error {
	m.mu.Lock()
	m.notes = append(m.notes, n)
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, n)
	}
	return nil
}

func (m *MockNotifier) Notes() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.notes...)
}

func (m *MockNotifier) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.notes {
		out = append(out, n.Type)
	}
	return out
}

// MockPublisher records published messages by topic.
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	m.messages[topic] = append(m.messages[topic], msg)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	return nil
}

func (m *MockPublisher) Messages(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.messages[topic]...)
}
