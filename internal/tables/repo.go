package tables

import (
	"context"

	"github.com/google/uuid"
)

type TableRepo interface {
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id uuid.UUID) (*Table, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*Table, error)
	Save(ctx context.Context, table *Table) error
}

type ReservationRepo interface {
	Create(ctx context.Context, reservation *Reservation) error
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)
	ListByDate(ctx context.Context, restaurantID uuid.UUID, date string) ([]*Reservation, error)
	FindByIdempotencyKey(ctx context.Context, restaurantID uuid.UUID, key string) (*Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
}

type PolicyRepo interface {
	Get(ctx context.Context, restaurantID uuid.UUID) (*Policy, error)
	Save(ctx context.Context, policy *Policy) error
}

type AssignmentRepo interface {
	Create(ctx context.Context, assignment *Assignment) error
	DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error
	ListFromDate(ctx context.Context, date string) ([]*Assignment, error)
}

type Repos struct {
	TableRepo       TableRepo
	ReservationRepo ReservationRepo
	PolicyRepo      PolicyRepo
	AssignmentRepo  AssignmentRepo
}
