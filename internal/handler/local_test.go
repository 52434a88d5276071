package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"logserv/internal/handler"
)

type body struct {
	Entries []string `json:"entries"`
	Cont    string   `json:"cont,omitempty"`
}

func testdataRoot(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("../../testdata")
	require.NoError(t, err)
	return abs
}

func doGet(t *testing.T, h http.Handler, target string) (int, body) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var b body
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	}
	return rec.Code, b
}

// Scenario 1 from spec.md §8.
func TestScenarioSimpleLogAll(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	code, b := doGet(t, h, "/fodder/simple.log")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, b.Entries, 10)
	require.Equal(t, "2025-03-17 14:17:29 status installed libc-bin:amd64 2.36-9+deb12u10", b.Entries[0])
	require.Equal(t, "2025-03-17 14:17:20 configure gettext:amd64 0.21-12 <none>", b.Entries[9])
	require.Empty(t, b.Cont)
}

// Scenario 2.
func TestScenarioSimpleLogFiltered(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	code, b := doGet(t, h, "/fodder/simple.log?s=status")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, b.Entries, 7)
	require.Contains(t, b.Entries[0], "status installed libc-bin")
	require.Contains(t, b.Entries[6], "status unpacked gettext")
}

// Scenario 3: paginate the filtered set with n=3.
func TestScenarioPagination(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}

	code1, p1 := doGet(t, h, "/fodder/simple.log?n=3&s=status")
	require.Equal(t, http.StatusOK, code1)
	require.Len(t, p1.Entries, 3)
	require.NotEmpty(t, p1.Cont)

	code2, p2 := doGet(t, h, "/fodder/simple.log?cont="+p1.Cont)
	require.Equal(t, http.StatusOK, code2)
	require.Len(t, p2.Entries, 3)
	require.NotEmpty(t, p2.Cont)

	code3, p3 := doGet(t, h, "/fodder/simple.log?cont="+p2.Cont)
	require.Equal(t, http.StatusOK, code3)
	require.Len(t, p3.Entries, 1)
	require.Empty(t, p3.Cont)

	all := append(append(p1.Entries, p2.Entries...), p3.Entries...)
	_, filtered := doGet(t, h, "/fodder/simple.log?s=status")
	require.Equal(t, filtered.Entries, all)
}

// Scenario 4.
func TestScenarioBadN(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fodder/simple.log?n=xyz", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var e struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	require.Contains(t, e.Error, "n")
}

// Scenario 5.
func TestScenarioLongLogCapped(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	code, b := doGet(t, h, "/fodder/long.log?n=1000")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, b.Entries, 100)
}

// Scenario 6.
func TestScenarioContMixedWithS(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fodder/long.log?s=x&cont=foo", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "continuation")
}

// Scenario 7.
func TestScenarioMalformedToken(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fodder/long.log?cont=foo", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "token")
}

// Scenario 8.
func TestScenarioMissingFile(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fodder/nonexistent.log", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

// Scenario 9.
func TestScenarioTraversal(t *testing.T) {
	h := &handler.Local{Root: testdataRoot(t)}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/../simple.log", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}
