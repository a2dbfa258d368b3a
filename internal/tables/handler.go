package tables

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

const idempotencyHeader = "Idempotency-Key"

type HandlerDeps struct {
	Service *Service
	Repos   Repos
}

type Handler struct {
	service    *Service
	tableRepo  TableRepo
	resRepo    ReservationRepo
	policyRepo PolicyRepo
	logger     aqm.Logger
	config     *aqm.Config
	tlm        *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		service:    deps.Service,
		tableRepo:  deps.Repos.TableRepo,
		resRepo:    deps.Repos.ReservationRepo,
		policyRepo: deps.Repos.PolicyRepo,
		logger:     logger,
		config:     config,
		tlm:        telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/availability", h.CheckAvailability)

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", h.CreateReservation)
		r.Get("/", h.ListReservations)
		r.Get("/{id}", h.GetReservation)
		r.Patch("/{id}", h.UpdateReservation)

		r.Post("/{id}/cancel", h.CancelReservation)
		r.Post("/{id}/approve", h.ApproveReservation)
		r.Post("/{id}/seat", h.SeatReservation)
		r.Post("/{id}/complete", h.CompleteReservation)
		r.Post("/{id}/no-show", h.NoShowReservation)
		r.Post("/{id}/reassign", h.ReassignReservation)
	})

	r.Get("/assignments", h.ListAssignments)

	r.Route("/restaurants/{id}", func(r chi.Router) {
		r.Get("/policy", h.GetPolicy)
		r.Put("/policy", h.PutPolicy)
		r.Get("/tables", h.ListTables)
		r.Post("/tables", h.CreateTable)
	})

	r.Patch("/tables/{id}", h.UpdateTable)
}

// Availability

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CheckAvailability")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req AvailabilityRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if errs := ValidateAvailabilityRequest(ctx, req); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	av, err := h.service.CheckAvailability(ctx, req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not check availability")
		return
	}

	aqm.RespondSuccess(w, av)
}

// Reservations

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req BookingRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(r.Header.Get(idempotencyHeader))
	}

	if errs := ValidateBookingRequest(ctx, req); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	res, err := h.service.Book(ctx, req)
	if err != nil {
		h.respondServiceError(w, log, err, "Could not create reservation")
		return
	}

	links := aqm.RESTfulLinksFor(res)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, res, links...)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListReservations")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	restaurantID, ok := h.parseIDQuery(w, r, log, "restaurant_id")
	if !ok {
		return
	}
	date, ok := h.parseDateQuery(w, r, log)
	if !ok {
		return
	}

	list, err := h.resRepo.ListByDate(ctx, restaurantID, date)
	if err != nil {
		log.Error("error retrieving reservations", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve reservations")
		return
	}

	aqm.RespondCollection(w, list, "reservation")
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.resRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading reservation", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not load reservation")
		return
	}
	if res == nil {
		aqm.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	links := aqm.RESTfulLinksFor(res)
	aqm.RespondSuccess(w, res, links...)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var changes ReservationChanges
	if !h.decodePayload(w, r, log, &changes) {
		return
	}

	if errs := ValidateReservationChanges(ctx, changes); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	res, err := h.service.UpdateReservation(ctx, id, changes)
	h.respondReservation(w, log, res, err, "Could not update reservation")
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelReservation")
	defer finish()

	log := h.log(r)
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Cancel(r.Context(), id)
	h.respondReservation(w, log, res, err, "Could not cancel reservation")
}

func (h *Handler) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ApproveReservation")
	defer finish()

	log := h.log(r)
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Approve(r.Context(), id)
	h.respondReservation(w, log, res, err, "Could not approve reservation")
}

func (h *Handler) SeatReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SeatReservation")
	defer finish()

	log := h.log(r)
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Seat(r.Context(), id)
	h.respondReservation(w, log, res, err, "Could not seat reservation")
}

func (h *Handler) CompleteReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CompleteReservation")
	defer finish()

	log := h.log(r)
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Complete(r.Context(), id)
	h.respondReservation(w, log, res, err, "Could not complete reservation")
}

func (h *Handler) NoShowReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.NoShowReservation")
	defer finish()

	log := h.log(r)
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.MarkNoShow(r.Context(), id)
	h.respondReservation(w, log, res, err, "Could not mark reservation as no-show")
}

func (h *Handler) ReassignReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReassignReservation")
	defer finish()

	log := h.log(r)
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Reassign(r.Context(), id)
	h.respondReservation(w, log, res, err, "Could not reassign reservation")
}

// Assignments

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListAssignments")
	defer finish()

	log := h.log(r)
	ledger := h.service.Ledger()
	q := r.URL.Query()

	if raw := q.Get("reservation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			aqm.RespondError(w, http.StatusBadRequest, "Invalid reservation_id")
			return
		}
		list := []*Assignment{}
		if a := ledger.ForReservation(id); a != nil {
			list = append(list, a)
		}
		aqm.RespondCollection(w, list, "assignment")
		return
	}

	if raw := q.Get("table_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			aqm.RespondError(w, http.StatusBadRequest, "Invalid table_id")
			return
		}
		aqm.RespondCollection(w, ledger.ForTable(id), "assignment")
		return
	}

	restaurantID, ok := h.parseIDQuery(w, r, log, "restaurant_id")
	if !ok {
		return
	}
	date, ok := h.parseDateQuery(w, r, log)
	if !ok {
		return
	}

	list := ledger.ForDate(restaurantID, date)
	if list == nil {
		list = []*Assignment{}
	}
	aqm.RespondCollection(w, list, "assignment")
}

// Policies

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPolicy")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	policy, err := h.policyRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading policy", "error", err, "restaurant_id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not load policy")
		return
	}
	if policy == nil {
		aqm.RespondError(w, http.StatusNotFound, "Policy not found")
		return
	}

	aqm.RespondSuccess(w, policy)
}

func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PutPolicy")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req PolicyRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	existing, err := h.policyRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading policy", "error", err, "restaurant_id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not load policy")
		return
	}

	policy := &Policy{
		RestaurantID:           id,
		OpeningHours:           req.OpeningHours,
		MinPartySize:           req.MinPartySize,
		MaxPartySize:           req.MaxPartySize,
		MaxReservationsPerSlot: req.MaxReservationsPerSlot,
		ServiceDurationMinutes: req.ServiceDurationMinutes,
		LargeGroupThreshold:    req.LargeGroupThreshold,
	}
	if errs := policy.Validate(); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	if existing == nil {
		policy.BeforeCreate()
	} else {
		policy.CreatedAt = existing.CreatedAt
		policy.BeforeUpdate()
	}

	if err := h.policyRepo.Save(ctx, policy); err != nil {
		log.Error("cannot save policy", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not save policy")
		return
	}

	aqm.RespondSuccess(w, policy)
}

// Tables

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	list, err := h.tableRepo.ListByRestaurant(ctx, id)
	if err != nil {
		log.Error("error retrieving tables", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve tables")
		return
	}

	aqm.RespondCollection(w, list, "table")
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	restaurantID, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req TableCreateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if errs := ValidateTableCreate(ctx, req); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	table := NewTable()
	table.RestaurantID = restaurantID
	table.Number = req.Number
	table.Label = req.Label
	table.Capacity = req.Capacity
	if req.Status != "" {
		table.Status = req.Status
	}
	table.BeforeCreate()

	if err := h.tableRepo.Create(ctx, table); err != nil {
		log.Error("cannot create table", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not create table")
		return
	}

	links := aqm.RESTfulLinksFor(table)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, table, links...)
}

// UpdateTable edits a table and re-validates the reservations holding it.
func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req TableUpdateRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if errs := ValidateTableUpdate(ctx, id, req); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed: "+strings.Join(errs, ", "))
		return
	}

	table, err := h.tableRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading table", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve table")
		return
	}
	if table == nil {
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	if req.Label != nil {
		table.Label = *req.Label
	}
	if req.Capacity != nil {
		table.Capacity = *req.Capacity
	}
	if req.Status != nil {
		table.Status = *req.Status
	}
	table.BeforeUpdate()

	if err := h.tableRepo.Save(ctx, table); err != nil {
		log.Error("cannot update table", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update table")
		return
	}

	failures, err := h.service.ReconcileTable(ctx, table.ID)
	if err != nil {
		log.Error("cannot reconcile table assignments", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Table saved but its reservations could not be re-validated")
		return
	}
	for _, f := range failures {
		log.Info("reservation lost its table", "reservation_id", f.ReservationID.String(), "reason", f.Reason)
	}

	links := aqm.RESTfulLinksFor(table)
	aqm.RespondSuccess(w, table, links...)
}

// Helpers

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

// respondReservation writes the outcome of a reservation mutation. A
// reconciliation failure still carries the saved reservation.
func (h *Handler) respondReservation(w http.ResponseWriter, log aqm.Logger, res *Reservation, err error, msg string) {
	var failure *ReconciliationFailure
	if err != nil && !(errors.As(err, &failure) && res != nil) {
		h.respondServiceError(w, log, err, msg)
		return
	}
	if failure != nil {
		log.Info("reservation flagged for reassignment", "reservation_id", res.ID.String(), "reason", failure.Reason)
	}

	links := aqm.RESTfulLinksFor(res)
	aqm.RespondSuccess(w, res, links...)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, log aqm.Logger, err error, msg string) {
	var violation *PolicyViolation
	var unavailable *Unavailable

	switch {
	case errors.As(err, &violation):
		log.Debug("policy violation", "rule", string(violation.Rule), "limit", violation.Limit)
		aqm.Respond(w, http.StatusUnprocessableEntity, violation, nil)
	case errors.As(err, &unavailable):
		log.Debug("capacity unavailable", "reason", unavailable.Availability.Reason)
		aqm.Respond(w, http.StatusConflict, unavailable.Availability, nil)
	case errors.Is(err, ErrAssignmentConflict), errors.Is(err, ErrAlreadyCommitted):
		log.Info("assignment conflict", "error", err)
		aqm.RespondError(w, http.StatusConflict, "Tables were taken by another booking, please retry")
	case errors.Is(err, ErrInvalidTransition):
		log.Debug("invalid transition", "error", err)
		aqm.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrReservationNotFound):
		aqm.RespondError(w, http.StatusNotFound, "Reservation not found")
	case errors.Is(err, ErrPolicyNotFound):
		aqm.RespondError(w, http.StatusNotFound, "Policy not found")
	case errors.Is(err, ErrTableNotFound):
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
	case errors.Is(err, ErrInvalidRequest):
		log.Debug("invalid request", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error(strings.ToLower(msg), "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, msg)
	}
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log aqm.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		aqm.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) parseIDQuery(w http.ResponseWriter, r *http.Request, log aqm.Logger, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Debug("invalid query parameter", "name", name, "value", raw, "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) parseDateQuery(w http.ResponseWriter, r *http.Request, log aqm.Logger) (string, bool) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(DateLayout, date); err != nil {
		log.Debug("invalid date parameter", "date", date)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid date parameter")
		return "", false
	}
	return date, true
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		aqm.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		log.Debug("error decoding JSON", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}

	return true
}
