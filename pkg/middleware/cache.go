package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl lets browsers and CDNs cache catalog reads for maxAge
// seconds. Only GET and HEAD responses below 400 are marked public; error
// responses get no-store so a CMS outage or a typo'd slug is not pinned.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	public := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			cw := &cacheWriter{ResponseWriter: w, public: public}
			next.ServeHTTP(cw, r)
			if !cw.wroteHeader {
				// Nothing written; the server will send an implicit 200.
				w.Header().Set("Cache-Control", public)
			}
		})
	}
}

type cacheWriter struct {
	http.ResponseWriter
	public      string
	wroteHeader bool
}

func (cw *cacheWriter) WriteHeader(status int) {
	if !cw.wroteHeader {
		cw.wroteHeader = true
		if status < http.StatusBadRequest {
			cw.Header().Set("Cache-Control", cw.public)
		} else {
			cw.Header().Set("Cache-Control", "no-store")
		}
	}
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *cacheWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *cacheWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
