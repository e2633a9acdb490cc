// Package subdomain derives the tenant label from a request's Host header.
package subdomain

import (
	"net"
	"net/http"
	"strings"
)

// HeaderOverride names the header that selects a tenant when running on a loopback host.
const HeaderOverride = "X-Subdomain"

// Kind classifies a resolved host.
type Kind int

const (
	Main Kind = iota
	WWW
	Tenant
)

func (k Kind) String() string {
	switch k {
	case WWW:
		return "www"
	case Tenant:
		return "tenant"
	default:
		return "main"
	}
}

// Result is the outcome of resolving one Host header.
type Result struct {
	// Host is the hostname with any port removed.
	Host string
	// Subdomain is empty on the main domain.
	Subdomain string
	Kind      Kind
}

// IsMainDomain is true when no subdomain was resolved.
func (r Result) IsMainDomain() bool { return r.Subdomain == "" }

// IsSubdomain is true for a resolved subdomain other than www.
func (r Result) IsSubdomain() bool { return r.Kind == Tenant }

// HasSubdomain is an alias of IsSubdomain.
func (r Result) HasSubdomain() bool { return r.IsSubdomain() }

// Resolve maps a Host header value to a Result. override is the X-Subdomain
// header and only applies on loopback hosts. It performs no I/O.
func Resolve(host, override string) Result {
	hostname := stripPort(strings.TrimSpace(host))
	hostname = strings.TrimSuffix(strings.ToLower(hostname), ".")
	if hostname == "" {
		return Result{Kind: Main}
	}

	if isLoopback(hostname) {
		return classify(hostname, strings.TrimSpace(override))
	}
	if net.ParseIP(hostname) != nil {
		return Result{Host: hostname, Kind: Main}
	}

	labels := strings.Split(hostname, ".")
	switch {
	case len(labels) == 1:
		return classify(hostname, labels[0])
	case len(labels) == 2:
		return Result{Host: hostname, Kind: Main}
	default:
		return classify(hostname, labels[0])
	}
}

// FromRequest resolves r's Host and X-Subdomain headers.
func FromRequest(r *http.Request) Result {
	return Resolve(r.Host, r.Header.Get(HeaderOverride))
}

// BuildFullDomain joins a subdomain and the base domain. An empty subdomain yields the base domain.
func BuildFullDomain(subdomain, baseDomain string) string {
	if subdomain == "" {
		return baseDomain
	}
	return subdomain + "." + baseDomain
}

func classify(hostname, sub string) Result {
	switch {
	case sub == "":
		return Result{Host: hostname, Kind: Main}
	case strings.EqualFold(sub, "www"):
		return Result{Host: hostname, Subdomain: sub, Kind: WWW}
	default:
		return Result{Host: hostname, Subdomain: sub, Kind: Tenant}
	}
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	// bracketed IPv6 without a port
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

func isLoopback(hostname string) bool {
	if hostname == "localhost" {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}
