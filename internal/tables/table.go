package tables

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/pkg/enums/tablestatus"
)

// Table is a physical table on a restaurant floor plan. Status is advisory:
// the Ledger decides whether a table can be committed to a window.
type Table struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	RestaurantID uuid.UUID `json:"restaurant_id" bson:"restaurant_id"`
	Number       int       `json:"number" bson:"number"`
	Label        string    `json:"label,omitempty" bson:"label,omitempty"`
	Capacity     int       `json:"capacity" bson:"capacity"`
	Status       string    `json:"status" bson:"status"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	CreatedBy    string    `json:"created_by" bson:"created_by"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy    string    `json:"updated_by" bson:"updated_by"`
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTable() *Table {
	return &Table{
		ID:     aqm.GenerateNewID(),
		Status: tablestatus.Statuses.Available.Code(),
	}
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = aqm.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

// Operable reports whether the table counts towards restaurant capacity.
func (t *Table) Operable() bool {
	return t.Capacity > 0 && tablestatus.Operable(t.Status)
}

func (t *Table) candidate() Candidate {
	return Candidate{TableID: t.ID, Number: t.Number, Capacity: t.Capacity}
}
