package google

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/interchange"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	titles   []string
	added    []string
	cleared  []string
	written  []*gsheet.ValueRange
	failRead bool
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sid"):
		if f.failRead {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
			return
		}
		ss := gsheet.Spreadsheet{}
		for _, title := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case strings.HasSuffix(path, "/spreadsheets/sid:batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.Unmarshal(body, &req)
		for _, r := range req.Requests {
			f.added = append(f.added, r.AddSheet.Properties.Title)
			f.titles = append(f.titles, r.AddSheet.Properties.Title)
		}
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, "/values:batchClear"):
		var req gsheet.BatchClearValuesRequest
		_ = json.Unmarshal(body, &req)
		f.cleared = append(f.cleared, req.Ranges...)
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, "/values:batchUpdate"):
		var req gsheet.BatchUpdateValuesRequest
		_ = json.Unmarshal(body, &req)
		f.written = append(f.written, req.Data...)
		_, _ = w.Write([]byte(`{"totalUpdatedCells":4}`))
	default:
		http.NotFound(w, r)
	}
}

func newFakeClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sid")
}

func TestPublish(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"Summary"}}
	c := newFakeClient(t, api)

	err := c.Publish(context.Background(), []interchange.Sheet{
		{Name: "Summary", Header: []string{"Label", "Income"}, Values: [][]any{{"Total", 10.5}}},
		{Name: "Office's Expenses", Header: []string{"Amount"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Office's Expenses"}, api.added)
	assert.Equal(t, []string{"'Summary'", "'Office''s Expenses'"}, api.cleared)
	require.Len(t, api.written, 2)
	assert.Equal(t, "'Summary'!A1", api.written[0].Range)
	assert.Equal(t, [][]any{{"Label", "Income"}, {"Total", 10.5}}, api.written[0].Values)
	assert.Equal(t, [][]any{{"Amount"}}, api.written[1].Values)
}

func TestPublish_NoTabsToAdd(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"A"}}
	c := newFakeClient(t, api)

	require.NoError(t, c.Publish(context.Background(), []interchange.Sheet{{Name: "A"}}))
	assert.Empty(t, api.added)
	assert.Len(t, api.written, 1)
}

func TestPublish_ReadFailure(t *testing.T) {
	api := &fakeSheetsAPI{failRead: true}
	c := newFakeClient(t, api)

	err := c.Publish(context.Background(), []interchange.Sheet{{Name: "A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read spreadsheet")
	assert.Empty(t, api.written)
}

func TestPublish_Empty(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newFakeClient(t, api)
	require.NoError(t, c.Publish(context.Background(), nil))
}

func TestPublish_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "sid"}
	assert.Error(t, c.Publish(context.Background(), []interchange.Sheet{{Name: "A"}}))
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{ServiceAccountJSON: "{}"})
	require.Error(t, err)
	assert.Equal(t, "missing spreadsheet ID", err.Error())
}

func TestCredentialsJSON(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	t.Run("inline json wins", func(t *testing.T) {
		got, err := credentialsJSON(Config{ServiceAccountJSON: ` {"type":"service_account"} `, ServiceAccountFile: "/nope"})
		require.NoError(t, err)
		assert.Equal(t, `{"type":"service_account"}`, string(got))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sa.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))
		got, err := credentialsJSON(Config{ServiceAccountFile: path})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := credentialsJSON(Config{ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")})
		assert.ErrorContains(t, err, "read service account file")
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := credentialsJSON(Config{})
		assert.ErrorContains(t, err, "missing service account credentials")
	})
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Dosya Masrafları'", quoteSheet("Dosya Masrafları"))
	assert.Equal(t, "'it''s'", quoteSheet("it's"))
}
