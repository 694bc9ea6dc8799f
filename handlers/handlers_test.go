package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimaevra94/serviceflow-console/apiclient"
	"github.com/gimaevra94/serviceflow-console/session"
	"github.com/gimaevra94/serviceflow-console/storage"
	"github.com/gimaevra94/serviceflow-console/templates"
)

// fakeBackend stands in for the request-tracking API.
type fakeBackend struct {
	mu      sync.Mutex
	hits    []string
	created []map[string]string

	// When gate is set, OPEN-filtered lists wait for it after signalling held.
	gate chan struct{}
	held chan struct{}
}

func (b *fakeBackend) count(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, h := range b.hits {
		if strings.HasPrefix(h, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) exact(hit string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, h := range b.hits {
		if h == hit {
			n++
		}
	}
	return n
}

func (b *fakeBackend) hold() (gate, held chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate, b.held = make(chan struct{}), make(chan struct{}, 1)
	return b.gate, b.held
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hits)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits = append(b.hits, r.Method+" "+r.URL.RequestURI())
	gate, held := b.gate, b.held
	b.mu.Unlock()

	key := r.Header.Get("X-API-Key")
	if key != "abc123" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid key"}`))
		return
	}

	switch {
	case r.URL.Path == "/users/me":
		w.Write([]byte(`{"id":1,"full_name":"Ann","email":"ann@example.com","role":"ADMIN","is_active":true,"created_at":"2026-01-02T03:04:05"}`))
	case r.URL.Path == "/requests" && r.Method == http.MethodPost:
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		b.mu.Lock()
		b.created = append(b.created, payload)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":10,"title":"A","status":"OPEN","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"}`))
	case r.URL.Path == "/requests":
		if r.URL.Query().Get("request_status") == "OPEN" {
			if gate != nil {
				held <- struct{}{}
				<-gate
			}
			w.Write([]byte(`[{"id":1,"title":"Printer","status":"OPEN","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"}]`))
			return
		}
		w.Write([]byte(`[
			{"id":1,"title":"Printer","status":"OPEN","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"},
			{"id":2,"title":"VPN","status":"OPEN","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"},
			{"id":3,"title":"Laptop","status":"IN_PROGRESS","created_by_user_id":1,"assigned_to_user_id":4,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"},
			{"id":4,"title":"Chair","status":"CLOSED","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"},
			{"id":5,"title":"Badge","status":"CANCEL","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"}
		]`))
	case r.URL.Path == "/requests/my", r.URL.Path == "/requests/queue", r.URL.Path == "/requests/assigned-to-me":
		w.Write([]byte(`[{"id":7,"title":"Mine","status":"ON_HOLD","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"}]`))
	case r.URL.Path == "/requests/7":
		w.Write([]byte(`{"id":7,"public_id":"3b7c","title":"Mine","description":"Broken","status":"ON_HOLD","created_by_user_id":1,"created_at":"2026-01-02T03:04:05","updated_at":"2026-01-02T03:04:05"}`))
	case r.URL.Path == "/requests/7/history":
		w.Write([]byte(`[{"id":1,"request_id":7,"user_id":1,"action":"status_changed","old_value":"OPEN","new_value":"ON_HOLD","source":"API","timestamp":"2026-01-02T03:04:05"}]`))
	case r.URL.Path == "/users":
		w.Write([]byte(`[{"id":1,"full_name":"Ann","email":"ann@example.com","role":"ADMIN","is_active":true,"created_at":"2026-01-02T03:04:05"}]`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"request_not_found"}`))
	}
}

type harness struct {
	console  *httptest.Server
	backend  *fakeBackend
	store    *storage.Memory
	sessions *session.Manager
	client   *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := &fakeBackend{}
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	tmpl, err := templates.Parse()
	require.NoError(t, err)

	client := apiclient.New(api.URL, 5*time.Second)
	store := storage.NewMemory()
	sessions := session.NewManager(storage.NewLocal(store))
	h := New(tmpl, client, sessions, nil)
	console := httptest.NewServer(h.Router("sf_session", true))
	t.Cleanup(console.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{console: console, backend: backend, store: store, sessions: sessions, client: &http.Client{Jar: jar}}
}

func (h *harness) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := h.client.Get(h.console.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (h *harness) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := h.client.PostForm(h.console.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNoKeyNoNetwork(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/", "/requests?status=OPEN", "/requests/my", "/requests/queue", "/requests/assigned", "/requests/7", "/users"} {
		body := h.get(t, path)
		assert.Contains(t, body, "Enter an API key to load the list.", path)
	}
	assert.Equal(t, 0, h.backend.total())
}

func TestAnonymousVisitsKeepNoSession(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(h.console.URL + "/requests")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	h.get(t, "/")
	h.get(t, "/users")
	assert.Equal(t, 0, h.sessions.Len())

	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})
	assert.Equal(t, 1, h.sessions.Len())
}

func TestConnectEmptyKey(t *testing.T) {
	h := newHarness(t)
	body := h.post(t, "/connect", url.Values{"api_key": {"  "}, "next": {"/"}})
	assert.Contains(t, body, "Enter an API key to connect.")
	assert.Equal(t, 0, h.backend.total())
}

func TestConnectAndDashboard(t *testing.T) {
	h := newHarness(t)
	body := h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})

	assert.Contains(t, body, "Connected as Ann")
	assert.Contains(t, body, "ADMIN")
	assert.Contains(t, body, `<strong id="total">5</strong>`)
	assert.Contains(t, body, `<strong id="open">2</strong>`)
	assert.Contains(t, body, `<strong id="in-progress">1</strong>`)
	assert.Contains(t, body, `class="badge in_progress"`)
	assert.Equal(t, 1, h.backend.count("GET /users/me"))
	assert.Equal(t, 1, h.backend.count("GET /requests?limit=5"))
}

func TestConnectFailure(t *testing.T) {
	h := newHarness(t)
	body := h.post(t, "/connect", url.Values{"api_key": {"bad"}, "next": {"/users"}})

	assert.Contains(t, body, "Connection error: Invalid key")
	assert.Contains(t, body, "not connected")
	assert.Contains(t, body, "Load error: Invalid key")

	stored := ""
	for _, key := range h.storedKeys(t) {
		stored = key
	}
	assert.Equal(t, "bad", stored)
}

func (h *harness) storedKeys(t *testing.T) []string {
	t.Helper()
	u, err := url.Parse(h.console.URL)
	require.NoError(t, err)
	var values []string
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name != "sf_session" {
			continue
		}
		v, err := h.store.Get(context.Background(), storage.Key("sf_api_key", c.Value))
		require.NoError(t, err)
		values = append(values, v)
	}
	return values
}

func TestFailedLoadDropsEarlierRows(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})
	body := h.get(t, "/users")
	require.Contains(t, body, "ann@example.com")
	body = h.get(t, "/")
	require.Contains(t, body, `<strong id="total">5</strong>`)

	h.post(t, "/connect", url.Values{"api_key": {"bad"}, "next": {"/"}})
	body = h.get(t, "/users")
	assert.Contains(t, body, "Load error: Invalid key")
	assert.NotContains(t, body, "ann@example.com")

	body = h.get(t, "/")
	assert.Contains(t, body, "Load error: Invalid key")
	assert.Contains(t, body, `<strong id="total">0</strong>`)
	assert.NotContains(t, body, "Printer")
}

func TestConcurrentTabsKeepTheirOwnFilter(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})
	gate, held := h.backend.hold()
	var release sync.Once
	t.Cleanup(func() { release.Do(func() { close(gate) }) })

	openTab := make(chan string, 1)
	go func() {
		resp, err := h.client.Get(h.console.URL + "/requests?status=OPEN")
		if err != nil {
			openTab <- err.Error()
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		openTab <- string(body)
	}()
	<-held

	body := h.get(t, "/requests?status=CLOSED")
	assert.Contains(t, body, `<option value="CLOSED" selected>`)
	assert.Contains(t, body, "Laptop")

	release.Do(func() { close(gate) })
	body = <-openTab
	assert.Contains(t, body, `<option value="OPEN" selected>`)
	assert.NotContains(t, body, `<option value="CLOSED" selected>`)
	assert.Contains(t, body, "Printer")
	assert.NotContains(t, body, "Laptop")
}

func TestConnectReturnsToFilteredPage(t *testing.T) {
	h := newHarness(t)
	body := h.get(t, "/requests?status=OPEN")
	assert.Contains(t, body, `name="next" value="/requests?status=OPEN"`)

	body = h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/requests?status=OPEN"}})
	assert.Contains(t, body, `<option value="OPEN" selected>`)
	assert.NotContains(t, body, "Laptop")
}

func TestRequestsFilter(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/requests"}})

	body := h.get(t, "/requests?status=OPEN")
	assert.Contains(t, body, "Printer")
	assert.NotContains(t, body, "Laptop")
	assert.Contains(t, body, `<option value="OPEN" selected>`)
	assert.Equal(t, 1, h.backend.exact("GET /requests?request_status=OPEN"))

	body = h.get(t, "/requests?status=")
	assert.Contains(t, body, "Laptop")
	assert.Equal(t, 2, h.backend.exact("GET /requests"))
}

func TestListsAreIdempotentForStoredKey(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})

	for i := 0; i < 3; i++ {
		h.get(t, "/requests/queue")
		h.get(t, "/users")
	}
	assert.Equal(t, []string{"abc123"}, h.storedKeys(t))
	assert.Equal(t, 3, h.backend.count("GET /requests/queue"))
	assert.Equal(t, 3, h.backend.count("GET /users"))
}

func TestCreateRequest(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/requests/my"}})
	require.Equal(t, 1, h.backend.count("GET /requests/my"))

	body := h.post(t, "/requests/my", url.Values{"title": {"A"}, "description": {"B"}})
	assert.Contains(t, body, "Request created.")
	assert.Contains(t, body, `<input name="title" value="" `)
	assert.Equal(t, []map[string]string{{"title": "A", "description": "B"}}, h.backend.created)
	assert.Equal(t, 2, h.backend.count("GET /requests/my"))
}

func TestCreateRequestFailureKeepsForm(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"bad"}, "next": {"/requests/my"}})

	body := h.post(t, "/requests/my", url.Values{"title": {"Printer jam"}, "description": {"3rd floor"}})
	assert.Contains(t, body, "Error: Invalid key")
	assert.Contains(t, body, `value="Printer jam"`)
	assert.Contains(t, body, "3rd floor")
}

func TestDetail(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})

	body := h.get(t, "/requests/7")
	assert.Contains(t, body, "Broken")
	assert.Contains(t, body, "status_changed")

	body = h.get(t, "/requests/8")
	assert.Contains(t, body, "Load error: request_not_found")
	assert.Contains(t, body, "Request #8")
	assert.NotContains(t, body, "Broken")

	body = h.get(t, "/requests/abc")
	assert.Contains(t, body, "Latest requests")
}

func TestDisconnect(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})
	body := h.post(t, "/disconnect", url.Values{"next": {"//evil.example"}})
	assert.Contains(t, body, "Disconnected.")
	assert.Contains(t, body, `value="abc123"`)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newHarness(t)
	body := h.get(t, "/healthz")
	assert.JSONEq(t, `{"status":"ok"}`, body)

	h.post(t, "/connect", url.Values{"api_key": {"abc123"}, "next": {"/"}})
	body = h.get(t, "/metrics")
	assert.Contains(t, body, "console_api_calls_total")
}

func TestRedirectTarget(t *testing.T) {
	cases := map[string]string{
		"/requests":          "/requests",
		"":                   "/",
		"https://evil.test/": "/",
		"//evil.test":        "/",
		"/\\evil.test":       "/",
	}
	for in, want := range cases {
		r := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(url.Values{"next": {in}}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, want, redirectTarget(r), in)
	}
}
