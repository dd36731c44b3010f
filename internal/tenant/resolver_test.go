package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	known     map[string]bool
	suspended map[string]bool
}

func (f fakeChecker) CompanyExists(id string) bool { return f.known[id] }
func (f fakeChecker) CompanyActive(id string) bool { return f.known[id] && !f.suspended[id] }

func TestResolvePrefersHeader(t *testing.T) {
	r := NewResolver("", "vzuttia.app", "")
	req := httptest.NewRequest(http.MethodGet, "http://acme.vzuttia.app/api/v1/orders", nil)
	req.Header.Set("X-Company-ID", "beta")
	require.Equal(t, "beta", r.Resolve(req))
}

func TestResolveSubdomain(t *testing.T) {
	r := NewResolver("", "vzuttia.app", "")
	req := httptest.NewRequest(http.MethodGet, "http://acme.vzuttia.app/api/v1/orders", nil)
	require.Equal(t, "acme", r.Resolve(req))

	bare := httptest.NewRequest(http.MethodGet, "http://vzuttia.app/", nil)
	require.Equal(t, "", r.Resolve(bare))

	foreign := httptest.NewRequest(http.MethodGet, "http://acme.other.app/", nil)
	require.Equal(t, "", r.Resolve(foreign))
}

func TestResolveIgnoresHostWithoutRootDomain(t *testing.T) {
	r := NewResolver("", "", "")
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	require.Equal(t, "", r.Resolve(req))
}

func TestResolveStripsPort(t *testing.T) {
	r := NewResolver("", "vzuttia.app", "")
	req := httptest.NewRequest(http.MethodGet, "http://acme.vzuttia.app:8080/", nil)
	require.Equal(t, "acme", r.Resolve(req))
}

func TestMiddlewareInjectsCompany(t *testing.T) {
	r := NewResolver("", "", "fallback")
	var seen string
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen, _ = From(req.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "fallback", seen)
}

func TestRequireGuards(t *testing.T) {
	checker := fakeChecker{
		known:     map[string]bool{"acme": true, "idle": true},
		suspended: map[string]bool{"idle": true},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guard := Require(checker)(next)

	cases := []struct {
		name    string
		company string
		status  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"unknown", "ghost", http.StatusNotFound},
		{"suspended", "idle", http.StatusForbidden},
		{"active", "acme", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.company != "" {
				req = req.WithContext(With(req.Context(), tc.company))
			}
			rec := httptest.NewRecorder()
			guard.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestPrefixKey(t *testing.T) {
	require.Equal(t, "acme:orders", PrefixKey("acme", "orders"))
	require.Equal(t, "orders", PrefixKey("", "orders"))
}
