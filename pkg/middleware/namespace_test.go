package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conduit-lang/clsproxy/pkg/cls"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNamespace(t *testing.T) *cls.Namespace {
	t.Helper()
	ns, err := cls.NewRegistry(nil).Create("http")
	require.NoError(t, err)
	return ns
}

func TestNamespaceMiddleware(t *testing.T) {
	ns := testNamespace(t)
	var requestIDFromFrame string
	var active bool

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, active = ns.Active(r.Context())
		requestIDFromFrame = RequestID(r.Context(), ns)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Namespace(ns)(handler).ServeHTTP(rec, req)

	assert.True(t, active)
	assert.NotEmpty(t, requestIDFromFrame)
	assert.Equal(t, requestIDFromFrame, rec.Header().Get("X-Request-ID"))
}

func TestNamespaceMiddleware_RequestIDFromHeader(t *testing.T) {
	ns := testNamespace(t)
	var requestIDFromFrame string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestIDFromFrame = RequestID(r.Context(), ns)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "custom-request-id")
	rec := httptest.NewRecorder()
	Namespace(ns)(handler).ServeHTTP(rec, req)

	assert.Equal(t, "custom-request-id", requestIDFromFrame)
	assert.Equal(t, "custom-request-id", rec.Header().Get("X-Request-ID"))
}

func TestNamespaceMiddleware_CustomConfig(t *testing.T) {
	ns := testNamespace(t)
	var requestIDFromFrame string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestIDFromFrame = RequestID(r.Context(), ns)
	})

	mw := NamespaceWithConfig(ns, Config{
		HeaderName: "X-Trace-ID",
		Generator:  func() string { return "trace-1" },
	})
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "trace-1", requestIDFromFrame)
	assert.Equal(t, "trace-1", rec.Header().Get("X-Trace-ID"))
}

func TestNamespaceMiddleware_FramePerRequest(t *testing.T) {
	ns := testNamespace(t)
	var frames []string

	r := chi.NewRouter()
	r.Use(Namespace(ns))
	r.Get("/frames", func(w http.ResponseWriter, r *http.Request) {
		frame, ok := ns.Active(r.Context())
		require.True(t, ok)
		frames = append(frames, frame.ID())
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frames", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	require.Len(t, frames, 2)
	assert.NotEqual(t, frames[0], frames[1])
}

func TestRequestID_OutsideFrame(t *testing.T) {
	ns := testNamespace(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestID(req.Context(), ns))
}
