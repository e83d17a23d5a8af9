package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/matchlobby/internal/testutil"
)

// hijackableRecorder is a ResponseRecorder that supports Hijack
type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked     bool
	headerWrites int
}

func (h *hijackableRecorder) WriteHeader(status int) {
	h.headerWrites++
	h.ResponseRecorder.WriteHeader(status)
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func hijack(w http.ResponseWriter) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err == nil {
		_ = conn.Close()
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	logger, logs := testutil.RecordingLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	entries := logs.Entries("http request")
	require.Len(t, entries, 1)
	assert.Equal(t, float64(http.StatusTeapot), entries[0]["status"])
	assert.Equal(t, float64(len("short and stout")), entries[0]["size"])
	assert.Equal(t, "/api/v1/health", entries[0]["path"])
}

func TestLoggingPassesHijackThrough(t *testing.T) {
	logger, logs := testutil.RecordingLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hijack(w)
	}))

	rec := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/", nil))

	assert.True(t, rec.hijacked)
	entries := logs.Entries("http request")
	require.Len(t, entries, 1)
	assert.Equal(t, float64(http.StatusSwitchingProtocols), entries[0]["status"])
}

func TestHijackUnsupported(t *testing.T) {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

func TestRecoveryWritesPanicResponse(t *testing.T) {
	logger, logs := testutil.RecordingLogger()
	h := Recovery(logger, DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/game/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	entries := logs.Entries("panic recovered")
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, false, entries[0]["hijacked"])
}

func TestRecoverySkipsResponseAfterHijack(t *testing.T) {
	logger, logs := testutil.RecordingLogger()
	called := false
	handler := func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
		DefaultPanicHandler(w, r, err)
	}
	h := Recovery(logger, handler)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hijack(w)
		panic("after upgrade")
	}))

	rec := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/", nil))

	assert.True(t, rec.hijacked)
	assert.False(t, called)
	assert.Zero(t, rec.headerWrites)
	entries := logs.Entries("panic recovered")
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0]["hijacked"])
}
