package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"permitdesk.org/internal/audit"
	"permitdesk.org/internal/obs"
	"permitdesk.org/internal/permits"
)

type createPermitRequest struct {
	ApplicantName  string `json:"applicant_name" validate:"required,notblank,max=200"`
	ApplicantEmail string `json:"applicant_email" validate:"required,email"`
	PermitType     string `json:"permit_type" validate:"required,notblank,max=100"`
}

// updatePermitRequest has no status field; a client-sent
// application_status is dropped by the decoder.
type updatePermitRequest struct {
	ApplicantName  *string `json:"applicant_name" validate:"omitempty,notblank,max=200"`
	ApplicantEmail *string `json:"applicant_email" validate:"omitempty,email"`
	PermitType     *string `json:"permit_type" validate:"omitempty,notblank,max=100"`
}

type updateStatusRequest struct {
	Status string `json:"application_status" validate:"required,oneof=Pending Approved Rejected"`
}

type permitResponse struct {
	ID             string    `json:"id"`
	ApplicantName  string    `json:"applicant_name"`
	ApplicantEmail string    `json:"applicant_email"`
	PermitType     string    `json:"permit_type"`
	Status         string    `json:"application_status"`
	SubmittedAt    time.Time `json:"submitted_at"`
	UserID         *string   `json:"userId"`
}

func toPermitResponse(app *permits.Application) permitResponse {
	return permitResponse{
		ID:             app.ID,
		ApplicantName:  app.ApplicantName,
		ApplicantEmail: app.ApplicantEmail,
		PermitType:     app.PermitType,
		Status:         string(app.Status),
		SubmittedAt:    app.SubmittedAt,
		UserID:         app.OwnerUserID,
	}
}

func (a *API) permitFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	obs.RecordPermitOp(op, classifyError(err, false).Code)
	a.handleError(w, r, err)
}

func (a *API) handleCreatePermit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	var req createPermitRequest
	if err := decodeJSON(r, &req); err != nil {
		a.permitFailed(w, r, "create", err)
		return
	}
	app, err := a.permits.Create(r.Context(), permits.CreateInput{
		ApplicantName:  req.ApplicantName,
		ApplicantEmail: req.ApplicantEmail,
		PermitType:     req.PermitType,
	}, caller.UserID)
	if err != nil {
		a.permitFailed(w, r, "create", err)
		return
	}
	obs.RecordPermitOp("create", "ok")
	_ = audit.LogEvent(r.Context(), audit.PermitCreated, map[string]any{
		"application_id": app.ID,
		"permit_type":    app.PermitType,
	})
	w.Header().Set("Location", permitsPath+"/"+app.ID)
	writeSuccess(w, http.StatusCreated, "Permit application created successfully", toPermitResponse(app))
}

func (a *API) handleListPermits(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	page, limit, err := pageFromQuery(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	apps, total, err := a.permits.List(r.Context(), caller, permits.Page{Number: page, Limit: limit})
	if err != nil {
		a.permitFailed(w, r, "list", err)
		return
	}
	out := make([]permitResponse, len(apps))
	for i, app := range apps {
		out[i] = toPermitResponse(app)
	}
	obs.RecordPermitOp("list", "ok")
	const msg = "Permit applications retrieved successfully"
	if limit > 0 {
		writePaginated(w, msg, out, newPagination(page, limit, total))
		return
	}
	writeSuccess(w, http.StatusOK, msg, out)
}

func (a *API) handleGetPermit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	app, err := a.permits.Get(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		a.permitFailed(w, r, "get", err)
		return
	}
	obs.RecordPermitOp("get", "ok")
	writeSuccess(w, http.StatusOK, "Permit application retrieved successfully", toPermitResponse(app))
}

func (a *API) handleUpdatePermit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	var req updatePermitRequest
	if err := decodeJSON(r, &req); err != nil {
		a.permitFailed(w, r, "update", err)
		return
	}
	patch := permits.Patch{
		ApplicantName:  req.ApplicantName,
		ApplicantEmail: req.ApplicantEmail,
		PermitType:     req.PermitType,
	}
	app, err := a.permits.Update(r.Context(), mux.Vars(r)["id"], patch, caller)
	if err != nil {
		a.permitFailed(w, r, "update", err)
		return
	}
	obs.RecordPermitOp("update", "ok")
	if !patch.Empty() {
		_ = audit.LogEvent(r.Context(), audit.PermitUpdated, map[string]any{
			"application_id": app.ID,
			"fields":         patchedFields(patch),
		})
	}
	writeSuccess(w, http.StatusOK, "Permit application updated successfully", toPermitResponse(app))
}

func (a *API) handleUpdatePermitStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.permitFailed(w, r, "update_status", err)
		return
	}
	app, err := a.permits.UpdateStatus(r.Context(), mux.Vars(r)["id"], permits.Status(req.Status))
	if err != nil {
		a.permitFailed(w, r, "update_status", err)
		return
	}
	obs.RecordPermitOp("update_status", "ok")
	_ = audit.LogEvent(r.Context(), audit.PermitStatusChanged, map[string]any{
		"application_id": app.ID,
		"status":         string(app.Status),
	})
	writeSuccess(w, http.StatusOK, "Permit application status updated successfully", toPermitResponse(app))
}

func (a *API) handleDeletePermit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	app, err := a.permits.Delete(r.Context(), mux.Vars(r)["id"], caller)
	if err != nil {
		a.permitFailed(w, r, "delete", err)
		return
	}
	obs.RecordPermitOp("delete", "ok")
	_ = audit.LogEvent(r.Context(), audit.PermitDeleted, map[string]any{"application_id": app.ID})
	writeSuccess(w, http.StatusOK, "Permit application deleted successfully", toPermitResponse(app))
}

func patchedFields(p permits.Patch) []string {
	var fields []string
	if p.ApplicantName != nil {
		fields = append(fields, "applicant_name")
	}
	if p.ApplicantEmail != nil {
		fields = append(fields, "applicant_email")
	}
	if p.PermitType != nil {
		fields = append(fields, "permit_type")
	}
	return fields
}
