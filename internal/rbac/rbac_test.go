package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker(t *testing.T) {
	c := NewChecker(map[string][]string{
		"candidate": {"attempt:view-own", "exam:*"},
		"admin":     {"*"},
	})
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"candidate", "attempt:view-own", true},
		{"candidate", "exam:view", true},
		{"candidate", "exam:export", true},
		{"candidate", "attempt:view-all", false},
		{"admin", "events:read", true},
		{"nobody", "exam:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if NewChecker(nil).Has("candidate", "exam:export") {
		t.Error("default table lets candidates export")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	cases := []struct {
		name  string
		role  string
		h     http.Handler
		owner bool
		want  int
	}{
		{"candidate allowed", "candidate", Require("attempt:submit")(ok), false, http.StatusNoContent},
		{"candidate denied", "candidate", Require("exam:export")(ok), false, http.StatusForbidden},
		{"no role", "", Require("exam:view")(ok), false, http.StatusUnauthorized},
		{"no role owner", "", nil, true, http.StatusUnauthorized},
		{"owner", "candidate", nil, true, http.StatusNoContent},
		{"not owner", "candidate", nil, false, http.StatusForbidden},
		{"admin not owner", "admin", nil, false, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := tc.h
			if h == nil {
				owner := tc.owner
				h = RequireOwnerOr("attempt:view-all", func(*http.Request) bool { return owner })(ok)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithRole(req.Context(), tc.role))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("code = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
