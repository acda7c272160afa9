package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaed/internal/builder"
	"metaed/internal/dsl"
)

func init() { gin.SetMode(gin.TestMode) }

func buildResult(t *testing.T, src string) *builder.Result {
	t.Helper()
	env := builder.NewEnvironment(nil)
	require.NoError(t, dsl.ParseString("api.metaed", src, env.Dispatcher(true)))
	return &builder.Result{Environment: env, Files: []string{"api.metaed"}}
}

func sampleSource() string {
	return dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartDomainEntity("Student").WithMetaEdID("1").WithDocumentation("s").
		WithProperty("string", "StudentId").WithDocumentation("id").WithIdentity().WithMaxLength("30").EndProperty().
		WithProperty("short", "Age").WithDocumentation("age").WithOptional().EndProperty().
		EndEntity().
		StartDomainEntity("School").WithDocumentation("s").
		WithProperty("integer", "SchoolId").WithDocumentation("id").WithIdentity().EndProperty().
		EndEntity().
		StartSharedDecimal("Money").WithDocumentation("m").WithTotalDigits("9").WithDecimalPlaces("2").EndEntity().
		EndNamespace().
		BeginNamespace("Sample", "Sample").
		StartDomainEntityExtension("EdFi.Student").
		WithProperty("string", "Pet").WithDocumentation("p").WithOptional().EndProperty().
		EndEntity().
		EndNamespace().
		String()
}

func brokenSource() string {
	return dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartDomainEntity("Student").EndEntity().
		StartDomainEntity("Student").EndEntity().
		EndNamespace().
		String()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNotBuiltYet(t *testing.T) {
	r := NewRouter(NewStorage(nil), nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, "GET", "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, "GET", "/api/meta", "").Code)
	assert.Equal(t, http.StatusNotImplemented, do(t, r, "POST", "/api/admin/reload", "{}").Code)
}

func TestMetaEndpoints(t *testing.T) {
	storage := NewStorage(buildResult(t, sampleSource()))
	r := NewRouter(storage, nil, nil)

	t.Run("build summary", func(t *testing.T) {
		w := do(t, r, "GET", "/api/meta", "")
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[map[string]any](t, w)
		assert.Equal(t, storage.Current().ID, got["buildId"])
		assert.Len(t, got["namespaces"], 2)
		assert.EqualValues(t, 0, got["errors"])
		assert.EqualValues(t, 1, got["warnings"])
	})

	t.Run("namespace is case insensitive", func(t *testing.T) {
		w := do(t, r, "GET", "/api/meta/edfi", "")
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[map[string]any](t, w)
		assert.Equal(t, "EdFi", got["name"])
		kinds := got["kinds"].(map[string]any)
		assert.EqualValues(t, 2, kinds["domainEntity"])
		assert.EqualValues(t, 1, kinds["sharedDecimal"])

		assert.Equal(t, http.StatusNotFound, do(t, r, "GET", "/api/meta/Nope", "").Code)
	})

	t.Run("kind listing with paging and sort", func(t *testing.T) {
		w := do(t, r, "GET", "/api/meta/EdFi/domain-entity?sort=name&limit=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
		rows := decode[[]map[string]any](t, w)
		require.Len(t, rows, 1)
		assert.Equal(t, "School", rows[0]["name"])

		w = do(t, r, "GET", "/api/meta/EdFi/domainEntity?sort=-properties", "")
		rows = decode[[]map[string]any](t, w)
		require.Len(t, rows, 2)
		assert.Equal(t, "Student", rows[0]["name"])

		assert.Equal(t, http.StatusBadRequest, do(t, r, "GET", "/api/meta/EdFi/widget", "").Code)
	})

	t.Run("single entity", func(t *testing.T) {
		w := do(t, r, "GET", "/api/meta/EdFi/domainEntity/student", "")
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[map[string]any](t, w)
		assert.Equal(t, "Domain Entity", got["humanized"])
		entity := got["entity"].(map[string]any)
		assert.Equal(t, "Student", entity["name"])
		assert.Equal(t, "1", entity["metaEdId"])
		assert.Len(t, entity["properties"], 2)

		w = do(t, r, "GET", "/api/meta/Sample/domainEntityExtension/Student", "")
		require.Equal(t, http.StatusOK, w.Code)
		entity = decode[map[string]any](t, w)["entity"].(map[string]any)
		assert.Equal(t, "EdFi", entity["baseEntityNamespaceName"])

		assert.Equal(t, http.StatusNotFound, do(t, r, "GET", "/api/meta/EdFi/domainEntity/Nobody", "").Code)
	})

	t.Run("conditional get", func(t *testing.T) {
		w := do(t, r, "GET", "/api/meta/EdFi/domainEntity/Student", "")
		require.Equal(t, http.StatusOK, w.Code)
		etag := w.Header().Get("ETag")
		require.NotEmpty(t, etag)

		req := httptest.NewRequest(http.MethodGet, "/api/meta/EdFi/domainEntity/Student", nil)
		req.Header.Set("If-None-Match", `"other", `+etag)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotModified, w.Code)
		assert.Empty(t, w.Body.String())

		req = httptest.NewRequest(http.MethodGet, "/api/meta/EdFi/domainEntity/Student", nil)
		req.Header.Set("If-None-Match", `"stale"`)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("simple types", func(t *testing.T) {
		w := do(t, r, "GET", "/api/types/EdFi?sort=name", "")
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode[[]map[string]any](t, w)
		require.Len(t, rows, 2)
		assert.Equal(t, "Money", rows[0]["name"])
		assert.Equal(t, false, rows[0]["generated"])
		assert.Equal(t, "StudentId", rows[1]["name"])
		assert.Equal(t, true, rows[1]["generated"])
		assert.Equal(t, "30", rows[1]["maxLength"])

		w = do(t, r, "GET", "/api/meta/EdFi/integerType/Money", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = do(t, r, "GET", "/api/meta/EdFi/decimalType/Money", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("failures", func(t *testing.T) {
		w := do(t, r, "GET", "/api/failures?category=warning", "")
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode[[]map[string]any](t, w)
		require.Len(t, rows, 1)
		assert.Equal(t, "DeprecatedSyntaxValidator", rows[0]["validator"])
		assert.Equal(t, "api.metaed", rows[0]["file"])

		w = do(t, r, "GET", "/api/failures?category=error", "")
		assert.Equal(t, "0", w.Header().Get("X-Total-Count"))
	})

	t.Run("health", func(t *testing.T) {
		w := do(t, r, "GET", "/healthz", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, storage.Current().ID, decode[map[string]any](t, w)["buildId"])
	})
}

func TestAdminReload(t *testing.T) {
	first := buildResult(t, sampleSource())
	storage := NewStorage(first)
	firstID := storage.Current().ID

	var next *builder.Result
	var nextErr error
	var gotPatterns []string
	reload := func(_ context.Context, patterns []string) (*builder.Result, error) {
		gotPatterns = patterns
		return next, nextErr
	}
	r := NewRouter(storage, reload, nil)

	t.Run("load error keeps the model", func(t *testing.T) {
		nextErr = errors.New("boom")
		w := do(t, r, "POST", "/api/admin/reload", `{"patterns":["  a/**/*.metaed ", ""]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"a/**/*.metaed"}, gotPatterns)
		assert.Equal(t, firstID, storage.Current().ID)
		nextErr = nil
	})

	t.Run("errors block the swap", func(t *testing.T) {
		next = buildResult(t, brokenSource())
		w := do(t, r, "POST", "/api/admin/reload", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		got := decode[map[string]any](t, w)
		assert.EqualValues(t, 2, got["total"])
		assert.Equal(t, firstID, storage.Current().ID)
	})

	t.Run("force swaps anyway", func(t *testing.T) {
		w := do(t, r, "POST", "/api/admin/reload", `{"force":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[map[string]any](t, w)
		assert.NotEqual(t, firstID, got["buildId"])
		assert.Same(t, next, storage.Current().Result)
	})

	t.Run("clean build swaps", func(t *testing.T) {
		next = buildResult(t, sampleSource())
		w := do(t, r, "POST", "/api/admin/reload", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Same(t, next, storage.Current().Result)
		assert.Empty(t, gotPatterns)
	})

	assert.Equal(t, http.StatusBadRequest, do(t, r, "POST", "/api/admin/reload", `{"patterns":`).Code)
}

func TestBuildIDsAreMonotonic(t *testing.T) {
	s := NewStorage(nil)
	res := buildResult(t, sampleSource())
	prev := s.Swap(res).ID
	for range 20 {
		id := s.Swap(res).ID
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestListParams(t *testing.T) {
	rows := []Row{
		{"name": "b", "n": 2},
		{"name": "a", "n": 10},
		{"name": "c"},
	}
	lp := parseListParams(map[string][]string{"sort": {"-n"}, "nulls": {"first"}, "limit": {"2"}})
	page, total := applyList(rows, lp)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0]["name"])
	assert.Equal(t, "a", page[1]["name"])

	lp = parseListParams(map[string][]string{"q": {"B"}})
	page, total = applyList(rows, lp)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b", page[0]["name"])

	lp = parseListParams(map[string][]string{"offset": {"10"}})
	page, total = applyList(rows, lp)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)
}
