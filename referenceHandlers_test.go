package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/asset_audit_backend/models"
)

func TestReferenceHandlersWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withBusiness("biz-1"))
	r.GET("/employees/:id", getResourceHandler("getEmployeeHandler", models.GetEmployee))
	r.POST("/locations", createResourceHandler("createLocationHandler", models.CreateLocation))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"get unavailable", http.MethodGet, "/employees/5", "", http.StatusServiceUnavailable},
		{"malformed body", http.MethodPost, "/locations", "{", http.StatusBadRequest},
		{"invalid input", http.MethodPost, "/locations", `{"name":"  "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := serve(r, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
		if w.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d, body = %s", tt.name, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestActiveOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"?includeInactive=true", false},
		{"?includeInactive=nope", true},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/employees"+tt.query, nil)
		if got := activeOnly(c); got != tt.want {
			t.Fatalf("%q: activeOnly = %v, want %v", tt.query, got, tt.want)
		}
	}
}
