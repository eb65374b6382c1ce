package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

const streamKeepAlive = 30 * time.Second

type TimeTrackingHandler interface {
	// Clock
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)

	// Entries
	SubmitManualEntry(w http.ResponseWriter, r *http.Request)
	ListEntries(w http.ResponseWriter, r *http.Request)
	GetEntry(w http.ResponseWriter, r *http.Request)
	ListBreaks(w http.ResponseWriter, r *http.Request)
	GetEntryAudit(w http.ResponseWriter, r *http.Request)
	SubmitCorrection(w http.ResponseWriter, r *http.Request)

	// Approval
	ListPendingApprovals(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)

	// Status
	GetMyStatus(w http.ResponseWriter, r *http.Request)
	GetEmployeeStatus(w http.ResponseWriter, r *http.Request)
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	StreamStatus(w http.ResponseWriter, r *http.Request)
}

type timeTrackingHandlerImpl struct {
	service    timetracking.Service
	auditRepo  audit.Repository
	hub        *sse.Hub
	jwtService jwt.Service
}

func NewTimeTrackingHandler(service timetracking.Service, auditRepo audit.Repository, hub *sse.Hub, jwtService jwt.Service) TimeTrackingHandler {
	return &timeTrackingHandlerImpl{
		service:    service,
		auditRepo:  auditRepo,
		hub:        hub,
		jwtService: jwtService,
	}
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// actorID is the id recorded as the author of a change: the caller's employee
// id when it has one, else the user id.
func actorID(pc user.PermissionContext) string {
	if pc.EmployeeID != nil {
		return *pc.EmployeeID
	}
	return pc.UserID
}

// targetEmployee resolves whose clock a request acts on. Acting for someone
// else requires onBehalf.
func targetEmployee(pc user.PermissionContext, requested *string, onBehalf user.Permission) (string, error) {
	if requested == nil || *requested == "" || (pc.EmployeeID != nil && *requested == *pc.EmployeeID) {
		if pc.EmployeeID == nil {
			return "", user.ErrEmployeeIDRequired
		}
		return *pc.EmployeeID, nil
	}
	if !user.HasPermission(pc.Role, onBehalf) {
		return "", user.ErrInsufficientPermissions
	}
	return *requested, nil
}

// canView reports whether the caller may read records of employeeID.
func canView(pc user.PermissionContext, employeeID string) bool {
	if pc.Relationship(employeeID) == user.RelationshipSelf {
		return user.HasPermission(pc.Role, user.PermissionTimeViewOwn)
	}
	return user.HasPermission(pc.Role, user.PermissionTimeViewAll)
}

func fieldAccess(pc user.PermissionContext, employeeID string) map[string]user.Access {
	return user.TimeEntryFieldAccess(pc.Role, pc.Relationship(employeeID))
}

// completeMutation hands a committed change to the audit trail and the
// status stream. The change is already durable, so failures are only logged.
func (h *timeTrackingHandlerImpl) completeMutation(r *http.Request, outcome timetracking.Outcome) {
	if h.auditRepo != nil && !outcome.Audit.IsZero() {
		if err := h.auditRepo.Record(r.Context(), outcome.Audit); err != nil {
			slog.Error("Failed to record audit trail",
				"entity_type", outcome.Audit.EntityType,
				"entity_id", outcome.Audit.EntityID,
				"action", outcome.Audit.Action,
				"error", err)
		}
	}
	if h.hub != nil {
		h.hub.Publish(sse.Event{
			EmployeeID: outcome.Status.EmployeeID,
			Name:       sse.EventTimeStatusChanged,
			Data:       timetracking.NewStatusResponse(outcome.Status),
		})
	}
}

func (h *timeTrackingHandlerImpl) respondOutcome(w http.ResponseWriter, r *http.Request, pc user.PermissionContext, created bool, message string, outcome timetracking.Outcome) {
	h.completeMutation(r, outcome)

	resp := timetracking.NewOutcomeResponse(outcome, fieldAccess(pc, outcome.Status.EmployeeID))
	if created {
		response.Created(w, message, resp)
		return
	}
	response.SuccessWithMessage(w, message, resp)
}

// ClockIn implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.ClockInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(pc, req.EmployeeID, user.PermissionTimeTrackForOthers)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.ClockIn(r.Context(), req.ToInput(employeeID, actorID(pc)))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, true, "Clock in successful", outcome)
}

// ClockOut implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.ClockOutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(pc, req.EmployeeID, user.PermissionTimeTrackForOthers)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.ClockOut(r.Context(), req.ToInput(employeeID, actorID(pc)))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, false, "Clock out successful", outcome)
}

// StartBreak implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.StartBreakRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(pc, req.EmployeeID, user.PermissionTimeTrackForOthers)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.StartBreak(r.Context(), req.ToInput(employeeID, actorID(pc)))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, true, "Break started", outcome)
}

// EndBreak implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.EndBreakRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(pc, req.EmployeeID, user.PermissionTimeTrackForOthers)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.EndBreak(r.Context(), req.ToInput(employeeID, actorID(pc)))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, false, "Break ended", outcome)
}

// SubmitManualEntry implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) SubmitManualEntry(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.ManualEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(pc, req.EmployeeID, user.PermissionTimeCorrectOthers)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.SubmitManualEntry(r.Context(), req.ToInput(employeeID, actorID(pc)))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, true, "Manual entry submitted", outcome)
}

// ListEntries implements TimeTrackingHandler. Callers without time.view_all
// only ever see their own entries.
func (h *timeTrackingHandlerImpl) ListEntries(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := timetracking.TimeEntryListFilter{}
	query := r.URL.Query()

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if manual := query.Get("manual_entry"); manual != "" {
		if v, err := strconv.ParseBool(manual); err == nil {
			filter.ManualEntry = &v
		}
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	filter.Page = getIntQueryParam(r, "page", 1)
	filter.Limit = getIntQueryParam(r, "limit", 20)
	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	if !user.HasPermission(pc.Role, user.PermissionTimeViewAll) {
		if pc.EmployeeID == nil {
			response.HandleError(w, user.ErrEmployeeIDRequired)
			return
		}
		if filter.EmployeeID != nil && *filter.EmployeeID != *pc.EmployeeID {
			response.HandleError(w, user.ErrInsufficientPermissions)
			return
		}
		filter.EmployeeID = pc.EmployeeID
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	entryFilter, page := filter.ToQuery()
	entries, total, err := h.service.ListTimeEntries(r.Context(), entryFilter, page)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timetracking.NewListTimeEntriesResponse(entryResponses(pc, entries), total, page))
}

func entryResponses(pc user.PermissionContext, entries []timetracking.TimeEntry) []timetracking.TimeEntryResponse {
	items := make([]timetracking.TimeEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, timetracking.NewTimeEntryResponse(e, fieldAccess(pc, e.EmployeeID)))
	}
	return items
}

// loadVisibleEntry fetches the entry in the URL and checks the caller may see it.
func (h *timeTrackingHandlerImpl) loadVisibleEntry(w http.ResponseWriter, r *http.Request) (user.PermissionContext, timetracking.TimeEntry, bool) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return pc, timetracking.TimeEntry{}, false
	}

	entry, err := h.service.GetTimeEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return pc, timetracking.TimeEntry{}, false
	}

	if !canView(pc, entry.EmployeeID) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return pc, timetracking.TimeEntry{}, false
	}
	return pc, entry, true
}

// GetEntry implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) GetEntry(w http.ResponseWriter, r *http.Request) {
	pc, entry, ok := h.loadVisibleEntry(w, r)
	if !ok {
		return
	}

	response.Success(w, timetracking.NewTimeEntryResponse(entry, fieldAccess(pc, entry.EmployeeID)))
}

// ListBreaks implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) ListBreaks(w http.ResponseWriter, r *http.Request) {
	_, entry, ok := h.loadVisibleEntry(w, r)
	if !ok {
		return
	}

	breaks, err := h.service.ListBreaks(r.Context(), entry.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]timetracking.BreakEntryResponse, 0, len(breaks))
	for _, b := range breaks {
		items = append(items, timetracking.NewBreakEntryResponse(b))
	}
	response.Success(w, items)
}

// GetEntryAudit implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) GetEntryAudit(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	trail, err := h.auditRepo.ListByEntity(r.Context(), audit.EntityTimeEntry, entryID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if trail == nil {
		trail = []audit.Entry{}
	}

	response.Success(w, trail)
}

// SubmitCorrection implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) SubmitCorrection(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.CorrectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	onBehalf := user.HasPermission(pc.Role, user.PermissionTimeCorrectOthers)
	if !onBehalf && pc.EmployeeID == nil {
		response.HandleError(w, user.ErrEmployeeIDRequired)
		return
	}

	outcome, err := h.service.SubmitTimeEntryCorrection(r.Context(), req.ToInput(chi.URLParam(r, "id"), actorID(pc), onBehalf))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, false, "Correction submitted for approval", outcome)
}

// ListPendingApprovals implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var employeeID *string
	if id := r.URL.Query().Get("employee_id"); id != "" {
		employeeID = &id
	}

	page := timetracking.Pagination{
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
		SortBy:    "clock_in_time",
		SortOrder: "asc",
	}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 || page.Limit > 100 {
		page.Limit = 20
	}

	entries, total, err := h.service.ListPendingApprovals(r.Context(), employeeID, page)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timetracking.NewListTimeEntriesResponse(entryResponses(pc, entries), total, page))
}

// Approve implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.ApproveTimeEntry(r.Context(), timetracking.ApproveInput{
		TimeEntryID: chi.URLParam(r, "id"),
		ApprovedBy:  actorID(pc),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, false, "Time entry approved", outcome)
}

// Reject implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req timetracking.RejectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	outcome, err := h.service.RejectTimeEntry(r.Context(), timetracking.RejectInput{
		TimeEntryID: chi.URLParam(r, "id"),
		RejectedBy:  actorID(pc),
		Reason:      req.Reason,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondOutcome(w, r, pc, false, "Time entry rejected", outcome)
}

// GetMyStatus implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) GetMyStatus(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if pc.EmployeeID == nil {
		response.HandleError(w, user.ErrEmployeeIDRequired)
		return
	}

	h.writeStatus(w, r, *pc.EmployeeID)
}

// GetEmployeeStatus implements TimeTrackingHandler.
func (h *timeTrackingHandlerImpl) GetEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, r, chi.URLParam(r, "employeeID"))
}

func (h *timeTrackingHandlerImpl) writeStatus(w http.ResponseWriter, r *http.Request, employeeID string) {
	status, err := h.service.GetCurrentStatus(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timetracking.NewStatusResponse(status))
}

// GetStreamToken issues a short-lived token for StreamStatus, since
// EventSource cannot send an Authorization header.
func (h *timeTrackingHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	pc, err := user.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if pc.EmployeeID == nil {
		response.HandleError(w, user.ErrEmployeeIDRequired)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(jwt.SSESubject{UserID: pc.UserID, EmployeeID: *pc.EmployeeID})
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, timetracking.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// StreamStatus pushes the caller's status changes as server-sent events.
func (h *timeTrackingHandlerImpl) StreamStatus(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	subject, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	// Subscribe before reading the snapshot so no change is lost in between.
	events, cleanup := h.hub.Subscribe(subject.EmployeeID)
	defer cleanup()
	slog.Debug("Status stream opened",
		"employee_id", subject.EmployeeID,
		"employee_streams", h.hub.SubscriberCount(subject.EmployeeID),
		"total_streams", h.hub.TotalSubscribers(),
	)

	status, err := h.service.GetCurrentStatus(r.Context(), subject.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, sse.EventTimeStatusChanged, timetracking.NewStatusResponse(status)); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepAlive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, event.Name, event.Data); err != nil {
				slog.Debug("Status stream write failed", "employee_id", subject.EmployeeID, "error", err)
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w io.Writer, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
