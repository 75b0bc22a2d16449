package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/festival-calendar/internal/events"
	"github.com/klabast/wb-services/festival-calendar/internal/festival"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type testServer struct {
	*Server
	store   events.Store
	handler http.Handler
}

type serverOption func(*Deps)

func withStore(s events.Store) serverOption {
	return func(d *Deps) { d.Store = s }
}

func withAuth(a *Auth) serverOption {
	return func(d *Deps) { d.Auth = a }
}

func withRate(rps float64, burst int) serverOption {
	return func(d *Deps) {
		d.WriteRPS = rps
		d.WriteBurst = burst
	}
}

// newTestServer builds a server on the approximate calendar with a fixed
// clock, the embedded festival data and a file store in a temp dir.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	catalog, err := festival.NewCatalog("", "", discard)
	require.NoError(t, err)
	store, err := events.OpenFileStore(filepath.Join(t.TempDir(), "events.json"), discard)
	require.NoError(t, err)

	d := Deps{
		Lunar: lunar.NewService(lunar.Options{
			EpochYear: 2024,
			Now:       func() time.Time { return fixedNow },
			Logger:    discard,
		}),
		Catalog:    catalog,
		Store:      store,
		Logger:     discard,
		WriteRPS:   1000,
		WriteBurst: 1000,
	}
	for _, opt := range opts {
		opt(&d)
	}
	t.Cleanup(func() { _ = d.Store.Close() })

	s := NewServer(d)
	return &testServer{Server: s, store: d.Store, handler: s.Router()}
}

func (ts *testServer) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
