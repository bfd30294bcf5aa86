package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func TestBrotli(t *testing.T) {
	large := strings.Repeat("пр..красный ", 200)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		name     string
		path     string
		accept   string
		upgrade  string
		wantBr   bool
		wantBody string
	}{
		{name: "large body compressed", path: "/large", accept: "gzip, br;q=0.9", wantBr: true, wantBody: large},
		{name: "small body plain", path: "/small", accept: "br", wantBody: "ok"},
		{name: "client without br", path: "/large", accept: "gzip", wantBody: large},
		{name: "websocket passthrough", path: "/large", accept: "br", upgrade: "websocket", wantBody: large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", tt.accept)
			if tt.upgrade != "" {
				req.Header.Set("Upgrade", tt.upgrade)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			gotBr := w.Header().Get("Content-Encoding") == "br"
			if gotBr != tt.wantBr {
				t.Fatalf("Content-Encoding br = %v, want %v", gotBr, tt.wantBr)
			}

			var body io.Reader = w.Body
			if gotBr {
				body = brotli.NewReader(w.Body)
			}
			got, err := io.ReadAll(body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if string(got) != tt.wantBody {
				t.Errorf("body mismatch: got %d bytes, want %d", len(got), len(tt.wantBody))
			}
		})
	}
}
