package httpapi

import (
	"encoding/json"
	"net/http"
)

// envelope is the response shape for every endpoint.
type envelope struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data"`
	Message    string     `json:"message"`
	Error      *errorBody `json:"error,omitempty"`
	StatusCode int        `json:"statusCode"`
	Meta       *meta      `json:"meta,omitempty"`
}

type errorBody struct {
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type meta struct {
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(page, limit, total int) *pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data, Message: message, StatusCode: code})
}

func writePaginated(w http.ResponseWriter, message string, data any, p *pagination) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Message:    message,
		StatusCode: http.StatusOK,
		Meta:       &meta{Pagination: p},
	})
}

func writeFailure(w http.ResponseWriter, r *http.Request, f apiFailure) {
	body := &errorBody{Code: f.Code, Details: f.Details}
	if r != nil {
		body.RequestID = RequestIDFromContext(r.Context())
	}
	writeJSON(w, f.Status, envelope{
		Success:    false,
		Message:    f.Message,
		Error:      body,
		StatusCode: f.Status,
	})
}
