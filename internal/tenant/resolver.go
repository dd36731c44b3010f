package tenant

import (
	"net"
	"net/http"
	"strings"

	"github.com/olehkv/backend-vzuttia/internal/common"
)

// Checker answers whether a company id is provisioned and allowed to serve
// traffic. The store satisfies this.
type Checker interface {
	CompanyExists(id string) bool
	CompanyActive(id string) bool
}

// Resolver extracts the company id from a request, preferring the header and
// falling back to the subdomain under RootDomain.
type Resolver struct {
	HeaderName     string
	RootDomain     string
	DefaultCompany string
}

// NewResolver returns a resolver for the given header name, root domain, and
// default company. If headerName is empty, "X-Company-ID" is used.
func NewResolver(headerName, rootDomain, defaultCompany string) *Resolver {
	if headerName == "" {
		headerName = "X-Company-ID"
	}
	return &Resolver{
		HeaderName:     headerName,
		RootDomain:     strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultCompany: strings.TrimSpace(defaultCompany),
	}
}

// Middleware resolves the company from the request and injects it into the
// downstream context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		companyID := r.Resolve(req)
		if companyID == "" {
			companyID = r.DefaultCompany
		}
		if companyID != "" {
			req = req.WithContext(With(req.Context(), companyID))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve attempts to find the company id from the configured header or the
// request subdomain.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if companyID := strings.TrimSpace(req.Header.Get(r.HeaderName)); companyID != "" {
		return companyID
	}
	host := hostWithoutPort(req.Host)
	if host == "" {
		return ""
	}
	return strings.TrimSpace(r.subdomainFromHost(host))
}

// Require rejects requests without a resolvable company, with an unknown
// company, or with a suspended one. Mount it after the resolver on every
// tenant-scoped route group.
func Require(checker Checker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			companyID, ok := From(req.Context())
			if !ok {
				common.JSONError(w, http.StatusBadRequest, "COMPANY_REQUIRED", "company identifier missing", nil)
				return
			}
			if !checker.CompanyExists(companyID) {
				common.JSONError(w, http.StatusNotFound, "COMPANY_NOT_FOUND", "unknown company", nil)
				return
			}
			if !checker.CompanyActive(companyID) {
				common.JSONError(w, http.StatusForbidden, "COMPANY_SUSPENDED", "company is suspended", nil)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *Resolver) subdomainFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || r.RootDomain == "" {
		// without a configured root domain the host carries no tenant signal
		return ""
	}
	if host == r.RootDomain {
		return ""
	}
	suffix := "." + r.RootDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	host = strings.TrimSuffix(host, suffix)
	parts := strings.Split(host, ".")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.Index(hostport, "]"); idx != -1 {
			if host := hostport[1:idx]; host != "" {
				return host
			}
		}
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	if idx := strings.Index(hostport, ":"); idx != -1 && strings.Count(hostport, ":") == 1 {
		return hostport[:idx]
	}
	return hostport
}
