package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/youtopia/flow-gateway/pkg/gateway/apierror"
	"github.com/youtopia/flow-gateway/pkg/gateway/mw"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	body, status := apierror.FromError(err, reqID)
	writeJSON(w, status, apierror.Envelope{Error: body})
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, apiErr *apierror.Error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	apiErr.RequestID = reqID
	writeJSON(w, status, apierror.Envelope{Error: apiErr})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorStatus(w, r, http.StatusMethodNotAllowed, &apierror.Error{
		Type:    apierror.ErrInvalidRequest,
		Message: "method not allowed",
	})
}
