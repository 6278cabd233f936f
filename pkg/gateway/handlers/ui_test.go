package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
)

func TestUIHandlerRendersPhoneNumber(t *testing.T) {
	h := UIHandler{Config: config.Config{PhoneNumber: "+15550100000"}}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "+15550100000") {
		t.Fatal("page does not show the deployment's phone number")
	}
}

func TestUIHandlerUnknownPathIs404(t *testing.T) {
	h := UIHandler{Config: config.Config{}}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
