package server

import (
	"log"
	"net/http"
	"time"
)

// loggingMiddleware logs each request with its handling time.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Println(r.Method, r.RequestURI, r.ContentLength, time.Since(start))
	})
}
