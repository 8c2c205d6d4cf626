package core

import (
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/TheodorosKourtalis/nuts3-atlas/cnf"
)

var rateLimiter sync.Map

// clientAddr parses RemoteAddr with or without the :port suffix.
func clientAddr(remoteAddr string) (netip.Addr, error) {
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr(), nil
	}
	return netip.ParseAddr(remoteAddr)
}

func isBlocked(ip netip.Addr) bool {
	if cnf.Config == nil {
		return false
	}
	blockedIps := cnf.Config["BLOCKED_IPS"]
	if blockedIps == "" {
		return false
	}
	for _, ipStr := range strings.Split(blockedIps, ",") {
		blockedIP, err := netip.ParseAddr(strings.TrimSpace(ipStr))
		if err != nil {
			continue
		}
		if ip == blockedIP {
			return true
		}
	}
	return false
}

func applyRateLimit(ip string) bool {
	val, loaded := rateLimiter.LoadOrStore(ip, time.Now())
	if loaded {
		last := val.(time.Time)
		if time.Since(last) < 1*time.Second {
			return false
		}
	}
	rateLimiter.Store(ip, time.Now())
	return true
}

// BlockIPs rejects requests from addresses in BLOCKED_IPS.
func BlockIPs(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, err := clientAddr(r.RemoteAddr)
		if err != nil {
			http.Error(w, "Invalid IP", http.StatusBadRequest)
			return
		}
		if isBlocked(ip) {
			Infof("Access denied for blocked IP: %s", ip)
			http.Error(w, "Access denied", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// RateLimit allows one request per second per client IP.
func RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, err := clientAddr(r.RemoteAddr)
		if err != nil {
			http.Error(w, "Invalid IP", http.StatusBadRequest)
			return
		}
		if !applyRateLimit(ip.String()) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// SecureHeaders sets the response headers every page shares. The CSP must let
// through the plotly and tailwind CDNs the templates reference.
func SecureHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://cdn.plot.ly https://cdn.jsdelivr.net; "+
				"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net; "+
				"img-src 'self' data: https://*.basemaps.cartocdn.com https://www.aueb.gr; "+
				"connect-src 'self' https://*.basemaps.cartocdn.com; "+
				"font-src 'self'")

		if os.Getenv("ENVIRONMENT") != "development" {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

var allowedStaticPrefixes = []string{"css/", "js/", "img/"}

// ServeStatic serves whitelisted static assets, refusing traversal and
// directory listings.
func ServeStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")
	realPath := filepath.Join("static", path)

	if strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		Infof("Path traversal attempt: %s", path)
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	allowed := false
	for _, prefix := range allowedStaticPrefixes {
		if strings.HasPrefix(path, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		http.Error(w, "This resource cannot be served", http.StatusForbidden)
		return
	}

	info, err := os.Stat(realPath)
	if os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if err == nil && info.IsDir() {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	http.ServeFile(w, r, realPath)
}

// ApplyMiddleware chains middlewares around a handler.
func ApplyMiddleware(fn http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for _, mw := range middlewares {
		fn = mw(fn)
	}
	return fn
}
