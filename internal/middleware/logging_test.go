package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(buf *bytes.Buffer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core)
}

func TestWithRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	h := chimw.RequestID(WithRequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))

	out := buf.String()
	for _, want := range []string{`"method":"POST"`, `"path":"/api/auth/register"`, `"status":201`, `"bytes":5`, `"request_id"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q does not contain %s", out, want)
		}
	}
}

func TestWithRequestLogging_ServerErrorAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	h := WithRequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("expected error level entry, got %q", buf.String())
	}
}

func TestWithRequestLogging_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	h := WithRequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("expected status 200, got %q", buf.String())
	}
}
