package handlers

import (
	"net/http"

	"github.com/youtopia/flow-gateway/pkg/gateway/apierror"
)

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorStatus(w, r, http.StatusNotFound, &apierror.Error{
		Type:    apierror.ErrNotFound,
		Message: "not found",
	})
}
