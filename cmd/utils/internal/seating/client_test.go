package seating

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

func TestHTTPClientBook(t *testing.T) {
	restaurantID := uuid.New()
	booked := &tables.Reservation{ID: uuid.New(), RestaurantID: restaurantID, Time: "19:00", PartySize: 2, Status: "confirmed"}

	tests := []struct {
		name         string
		status       int
		wantErr      error
		wantRejected bool
	}{
		{name: "created", status: http.StatusCreated},
		{name: "unavailable", status: http.StatusConflict, wantRejected: true},
		{name: "violation", status: http.StatusUnprocessableEntity, wantRejected: true},
		{name: "serverError", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = r.Header.Get("Idempotency-Key")
				gotPath = r.Method + " " + r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				if tt.status == http.StatusCreated {
					_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": booked})
					return
				}
				_, _ = w.Write([]byte(`{"error":"no"}`))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL + "/")
			req := tables.BookingRequest{RestaurantID: restaurantID, Date: "2025-06-06", Time: "19:00", PartySize: 2, IdempotencyKey: "demo-seed-2025-06-06-01"}
			res, err := c.Book(context.Background(), req)

			if gotPath != "POST /reservations" {
				t.Errorf("request = %q, want POST /reservations", gotPath)
			}
			if gotKey != req.IdempotencyKey {
				t.Errorf("Idempotency-Key = %q, want %q", gotKey, req.IdempotencyKey)
			}

			switch {
			case tt.status == http.StatusCreated:
				if err != nil {
					t.Fatalf("Book() error = %v", err)
				}
				if res == nil || res.ID != booked.ID || res.Status != "confirmed" {
					t.Errorf("Book() = %+v, want %+v", res, booked)
				}
			case tt.wantRejected:
				if !errors.Is(err, ErrRejected) {
					t.Errorf("Book() error = %v, want rejected", err)
				}
			default:
				if err == nil || errors.Is(err, ErrRejected) {
					t.Errorf("Book() error = %v, want a hard failure", err)
				}
			}
		})
	}
}

func TestHTTPClientListAndActions(t *testing.T) {
	restaurantID := uuid.New()
	res := &tables.Reservation{ID: uuid.New(), RestaurantID: restaurantID, Status: "confirmed"}

	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/reservations":
			if r.URL.Query().Get("restaurant_id") != restaurantID.String() || r.URL.Query().Get("date") != "2025-06-06" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []*tables.Reservation{res}})
		case "/reservations/" + res.ID.String() + "/cancel":
			cancelled := *res
			cancelled.Status = "cancelled"
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": &cancelled})
		default:
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ctx := context.Background()

	list, err := c.List(ctx, restaurantID, "2025-06-06")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != res.ID {
		t.Fatalf("List() = %v, want the one reservation", list)
	}

	cancelled, err := c.Cancel(ctx, res.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Errorf("Cancel() status = %q, want cancelled", cancelled.Status)
	}

	if _, err := c.Complete(ctx, res.ID); !errors.Is(err, ErrRejected) {
		t.Errorf("Complete() error = %v, want rejected", err)
	}

	if !c.Reachable(ctx) {
		t.Error("Reachable() = false for a running server")
	}
	if len(calls) != 4 {
		t.Errorf("calls = %v, want 4", calls)
	}
}

func TestHTTPClientReachableDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	if NewHTTPClient(addr).Reachable(context.Background()) {
		t.Error("Reachable() = true for a stopped server")
	}
}
