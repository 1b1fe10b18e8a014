package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRedact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"email=a.b+tag@example.com", "email=[REDACTED:email]"},
		{"ticket 01890a5d-ac96-774b-bcce-b302099a8057 open", "ticket [REDACTED:id] open"},
		{"rid=123e4567-e89b-42d3-a456-426614174000", "rid=[REDACTED:id]"},
		{"call 212-555-1212", "call [REDACTED:phone]"},
		{"nothing to hide", "nothing to hide"},
	}
	for _, tc := range cases {
		if got := Redact(tc.in); got != tc.want {
			t.Fatalf("Redact(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactingLogger_ScrubsAndAttachesLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.POST("/api/v1/chat/history", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("service log")
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/history?email=a@x.com&limit=5", strings.NewReader(`{"email":"a@x.com"}`))
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Customer", "a@x.com")
	req.Header.Set(requestIDHeader, "rid-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	for _, leak := range []string{"a@x.com", "Bearer secret", "shhh"} {
		if strings.Contains(out, leak) {
			t.Fatalf("log leaked %q: %s", leak, out)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected service line and access line, got %d: %s", len(lines), out)
	}
	var svc, access map[string]any
	_ = json.Unmarshal([]byte(lines[0]), &svc)
	_ = json.Unmarshal([]byte(lines[1]), &access)

	if svc["request_id"] != "rid-7" || svc["path"] != "/api/v1/chat/history" {
		t.Fatalf("service log lacks request fields: %v", svc)
	}
	if access["level"] != "info" || access["message"] != "http_request" || access["status"] != float64(200) {
		t.Fatalf("unexpected access line: %v", access)
	}
	if access["query"] != "email=[REDACTED:email]&limit=5" {
		t.Fatalf("query not redacted: %v", access["query"])
	}
	headers := access["headers"].(map[string]any)
	if headers["Authorization"] != "[REDACTED]" || headers["X-Api-Key"] != "[REDACTED]" || headers["X-Customer"] != "[REDACTED:email]" {
		t.Fatalf("headers not scrubbed: %v", headers)
	}
}

func TestRedactingLogger_LevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusOK)
	})

	for _, p := range []string{"/bad", "/boom", "/err", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []struct{ level, path string }{
		{"warn", "/bad"}, {"error", "/boom"}, {"error", "/err"}, {"warn", "/missing"},
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, w := range want {
		var m map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &m); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if m["level"] != w.level || m["path"] != w.path {
			t.Fatalf("line %d = %v; want level=%s path=%s", i, m, w.level, w.path)
		}
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "handler error" }
