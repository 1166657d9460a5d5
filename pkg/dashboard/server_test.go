package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recadm/recadm/pkg/record"
)

// fakeClient is an in-memory records backend.
type fakeClient struct {
	mu      sync.Mutex
	healthy bool
	records []record.Record
	nextID  int

	listErr    error
	failCreate bool
	failUpdate map[string]bool
	failDelete map[string]bool

	updates []string
	deletes []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		healthy:    true,
		nextID:     1,
		failUpdate: map[string]bool{},
		failDelete: map[string]bool{},
	}
}

func (f *fakeClient) Health(ctx context.Context) (bool, map[string]any) {
	return f.healthy, map[string]any{"status": "ok"}
}

func (f *fakeClient) List(ctx context.Context) ([]record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]record.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeClient) Create(ctx context.Context, fields record.Fields) (record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return record.Record{}, fmt.Errorf("create rejected")
	}
	rec := record.Record{
		ID:        fmt.Sprintf("r%d", f.nextID),
		CreatedAt: 1719800000000,
		Fields:    fields.Clone(),
	}
	f.nextID++
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeClient) Update(ctx context.Context, id string, fields record.Fields) (record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.failUpdate[id] {
		return record.Record{}, fmt.Errorf("update rejected")
	}
	for i, rec := range f.records {
		if rec.ID == id {
			f.records[i].Fields = fields.Clone()
			return f.records[i], nil
		}
	}
	return record.Record{}, fmt.Errorf("not found")
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.failDelete[id] {
		return fmt.Errorf("delete rejected")
	}
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("not found")
}

func (f *fakeClient) seed(id string, kv ...string) {
	fields := record.NewFields()
	for i := 0; i+1 < len(kv); i += 2 {
		fields.Set(kv[i], kv[i+1])
	}
	f.records = append(f.records, record.Record{ID: id, CreatedAt: 1719800000000, Fields: fields})
}

func newTestServer(t *testing.T, fc *fakeClient) *Server {
	t.Helper()
	s, err := New(Config{
		Client:        fc,
		APIURL:        "http://api.test",
		ImportRequire: []string{"name"},
	})
	require.NoError(t, err)
	return s
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexRendersRecords(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice", "city", "Vellore")
	fc.seed("r2", "name", "Bob")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Vellore")
	assert.Contains(t, body, "API healthy")
	assert.Contains(t, body, "http://api.test")
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestIndexSearchFiltersRows(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice", "city", "Vellore")
	fc.seed("r2", "name", "Bob", "city", "Chennai")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?q=VELL", nil))

	body := rr.Body.String()
	assert.Contains(t, body, "Alice")
	assert.NotContains(t, body, "Chennai")
}

func TestIndexExpressionFilter(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	fc.seed("r2", "name", "Bob")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?where="+url.QueryEscape(`name == "Bob"`), nil))

	body := rr.Body.String()
	assert.Contains(t, body, "Bob")
	assert.NotContains(t, body, "Alice")
}

func TestIndexBadExpressionShowsError(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?where="+url.QueryEscape(`name ==`), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "invalid filter expression")
	assert.Contains(t, body, "Alice")
}

func TestIndexAPIDownStillRenders(t *testing.T) {
	fc := newFakeClient()
	fc.healthy = false
	fc.listErr = fmt.Errorf("connection refused")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "API unreachable")
	assert.Contains(t, body, "could not load records")
}

func TestAddCreatesRecordAndSkipsBlanks(t *testing.T) {
	fc := newFakeClient()
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records", url.Values{
		"name":  {"Carol"},
		"note":  {"   "},
		"extra": {"team=platform\n\nempty=\n"},
	})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "msg=")

	require.Len(t, fc.records, 1)
	fields := fc.records[0].Fields
	v, _ := fields.Get("name")
	assert.Equal(t, "Carol", v)
	_, hasNote := fields.Get("note")
	assert.False(t, hasNote)
	_, hasEmpty := fields.Get("empty")
	assert.False(t, hasEmpty)
	team, _ := fields.Get("team")
	assert.Equal(t, "platform", team)
}

func TestAddAllBlankRejected(t *testing.T) {
	fc := newFakeClient()
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records", url.Values{"name": {""}, "note": {" "}})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "err=")
	assert.Empty(t, fc.records)
}

func TestAddReservedExtraFieldRejected(t *testing.T) {
	fc := newFakeClient()
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records", url.Values{"extra": {"id=boom"}})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "err=")
	assert.Empty(t, fc.records)
}

func TestSaveUpdatesOnlyChangedRows(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice", "city", "Vellore")
	fc.seed("r2", "name", "Bob", "city", "Chennai")
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records/save", url.Values{
		"id":        {"r1", "r2"},
		"f.r1.name": {"Alice"},
		"f.r1.city": {"Vellore"},
		"f.r2.name": {"Robert"},
		"f.r2.city": {"Chennai"},
	})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []string{"r2"}, fc.updates)
	name, _ := fc.records[1].Fields.Get("name")
	assert.Equal(t, "Robert", name)
}

func TestSaveNoChanges(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records/save", url.Values{
		"id":        {"r1"},
		"f.r1.name": {"Alice"},
	})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Empty(t, fc.updates)
	assert.Contains(t, rr.Header().Get("Location"), "no+changes")
}

func TestSaveFailureIsIndependent(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	fc.seed("r2", "name", "Bob")
	fc.failUpdate["r1"] = true
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records/save", url.Values{
		"id":        {"r1", "r2"},
		"f.r1.name": {"Alicia"},
		"f.r2.name": {"Robert"},
	})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.ElementsMatch(t, []string{"r1", "r2"}, fc.updates)
	loc := rr.Header().Get("Location")
	assert.Contains(t, loc, "msg=")
	assert.Contains(t, loc, "err=")
	name, _ := fc.records[1].Fields.Get("name")
	assert.Equal(t, "Robert", name)
}

func TestDeleteMarkedRows(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	fc.seed("r2", "name", "Bob")
	fc.seed("r3", "name", "Carol")
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records/delete", url.Values{"delete": {"r1", "r3"}})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []string{"r1", "r3"}, fc.deletes)
	require.Len(t, fc.records, 1)
	assert.Equal(t, "r2", fc.records[0].ID)
}

func TestDeleteNothingSelected(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/records/delete", url.Values{})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Empty(t, fc.deletes)
	assert.Contains(t, rr.Header().Get("Location"), "err=")
}

func TestImportPreviewThenApply(t *testing.T) {
	fc := newFakeClient()
	h := newTestServer(t, fc).Handler()

	csv := "name,city\nAlice,Vellore\n,Chennai\nBob,Mysore\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "people.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "people.csv")
	assert.Contains(t, body, "3 row(s) parsed")
	assert.Empty(t, fc.records, "preview must not create anything")

	rr = postForm(t, h, "/import", url.Values{"apply": {"1"}, "csv": {csv}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	loc, err := url.QueryUnescape(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, loc, "2 created")
	assert.Contains(t, loc, "1 skipped")
	require.Len(t, fc.records, 2)
}

func TestImportWithoutFile(t *testing.T) {
	fc := newFakeClient()
	h := newTestServer(t, fc).Handler()

	rr := postForm(t, h, "/import", url.Values{})

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "err=")
}

func TestExportCSV(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export.csv", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "records.csv")
	assert.Contains(t, rr.Body.String(), "Alice")
}

func TestHealthz(t *testing.T) {
	fc := newFakeClient()
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["dashboard"])
}

func TestAPIRecordsJSON(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	h := newTestServer(t, fc).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/records", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var records []record.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].ID)
}

func TestRefreshInvalidatesCache(t *testing.T) {
	fc := newFakeClient()
	fc.seed("r1", "name", "Alice")
	srv, err := New(Config{
		Client:        fc,
		APIURL:        "http://api.test",
		CacheTTL:      time.Hour,
		ImportRequire: []string{"name"},
	})
	require.NoError(t, err)
	h := srv.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	// Mutate behind the cache's back; the cached view must not see it
	// until a refresh.
	fc.seed("r2", "name", "Bob")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, rr.Body.String(), "Bob")

	rr = postForm(t, h, "/refresh", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rr.Body.String(), "Bob")
}
