package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/finance"
	"ledger/internal/interchange"
	"ledger/internal/locale"
	"ledger/internal/log"
	"ledger/internal/table"
	"ledger/internal/storage/memory"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

// TestMain serves amounts the way cmd/ledger does.
func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

func seed() core.Snapshot {
	return core.Snapshot{
		CaseFiles: []core.CaseFile{
			{ID: "c1", FileNumber: "2024/1", ClientName: "Acme", AmountCollected: core.NewAmount(1000)},
		},
		OfficeExpenses: []core.OfficeExpense{
			{ID: "o1", Description: "Rent", Category: "Rent", Amount: core.NewAmount(150), Date: core.NewDate(2024, 1, 5)},
			{ID: "o2", Description: "Supplies", Category: "Supplies", Amount: core.NewAmount(50), Date: core.NewDate(2024, 2, 5)},
		},
	}
}

func newTestServer(t *testing.T, store *memory.Store) *Server {
	t.Helper()
	s := NewServer(Options{
		Addr:          ":0",
		Store:         store,
		DefaultLocale: "tr",
		Logger:        log.New(log.Config{Output: &bytes.Buffer{}, Component: log.ComponentHTTP}),
	})
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func serve(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, r)
	return rr
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept-Language", "en-US,en;q=0.8")
	return serve(s, r)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func upload(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, target, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func workbookBytes(t *testing.T, wb *interchange.Workbook) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := wb.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, memory.New(core.Snapshot{}))

	rr := get(s, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = get(s, "/readyz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", rr.Body.String())
}

func TestMiddlewareHeaders(t *testing.T) {
	s := newTestServer(t, memory.New(core.Snapshot{}))
	rr := get(s, "/healthz")

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, memory.New(seed()))

	rr := get(s, "/api/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	body := decode[map[string]any](t, rr)
	assert.Equal(t, 800.0, body["netProfit"], "amounts are JSON numbers")
	assert.Equal(t, 200.0, body["officeExpenseTotal"])
	assert.Contains(t, rr.Body.String(), `"netProfit":800`)

	series := body["chartSeries"].([]any)
	require.Len(t, series, 4)
	assert.Equal(t, "Institutional", series[0].(map[string]any)["label"])
}

func TestSummaryUsesDefaultLocale(t *testing.T) {
	s := newTestServer(t, memory.New(seed()))

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	body := decode[map[string]any](t, rr)
	series := body["chartSeries"].([]any)
	assert.Equal(t, "Kurum", series[0].(map[string]any)["label"])

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/api/summary?lang=en", nil))
	body = decode[map[string]any](t, rr)
	series = body["chartSeries"].([]any)
	assert.Equal(t, "Institutional", series[0].(map[string]any)["label"])
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, memory.New(seed()))

	rr := get(s, "/api/office-expenses/categories")
	require.Equal(t, http.StatusOK, rr.Code)

	shares := decode[[]finance.CategoryShare](t, rr)
	require.Len(t, shares, 2)
	assert.Equal(t, "Rent", shares[0].Category)
	assert.Equal(t, "150", shares[0].Total.String())
	assert.Equal(t, 1, shares[1].ColorIndex)
}

type pageBody = table.Page[map[string]any]

func TestList(t *testing.T) {
	s := newTestServer(t, memory.New(seed()))

	t.Run("sorted and clamped page", func(t *testing.T) {
		rr := get(s, "/api/office-expenses?sort=amount&dir=desc&size=1&page=9")
		require.Equal(t, http.StatusOK, rr.Code)

		page := decode[pageBody](t, rr)
		assert.Equal(t, 2, page.TotalItems)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 2, page.Page)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Supplies", page.Items[0]["description"])
		require.Len(t, page.Links, 2)
		assert.True(t, page.Links[1].Current)
	})

	t.Run("search and date range", func(t *testing.T) {
		rr := get(s, "/api/office_expenses?q=REN&date_field=date&from=2024-01-01&to=2024-01-31")
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[pageBody](t, rr)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "o1", page.Items[0]["id"])
	})

	t.Run("bad date", func(t *testing.T) {
		rr := get(s, "/api/office_expenses?date_field=date&from=yesterday")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown entity", func(t *testing.T) {
		rr := get(s, "/api/invoices")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, decode[errorBody](t, rr).Error, "unknown entity type")
	})

	t.Run("empty collection", func(t *testing.T) {
		rr := get(s, "/api/case_expenses")
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[pageBody](t, rr)
		assert.Equal(t, 1, page.Page)
		assert.Empty(t, page.Items)
	})
}

func TestExport(t *testing.T) {
	s := newTestServer(t, memory.New(seed()))

	rr := get(s, "/api/export/office_expenses?sort=amount")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Office_Expenses_2024-05-01.xlsx")

	ds, err := interchange.Parse(bytes.NewReader(rr.Body.Bytes()), "export.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Category", "Amount", "Date", "Notes"}, ds.Headers)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "Supplies", ds.Rows[0].Fields["Description"])
}

func TestExportAll(t *testing.T) {
	s := newTestServer(t, memory.New(seed()))

	rr := get(s, "/api/export")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "All_Data_2024-05-01.xlsx")

	empty := newTestServer(t, memory.New(core.Snapshot{}))
	rr = get(empty, "/api/export")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "nothing to export", decode[errorBody](t, rr).Error)
}

func TestImport(t *testing.T) {
	store := memory.New(core.Snapshot{})
	s := newTestServer(t, store)

	wb, err := interchange.Export(core.OfficeExpenses, seed().OfficeExpenses, locale.English(), fixedNow)
	require.NoError(t, err)
	data := workbookBytes(t, wb)

	t.Run("preview stores nothing", func(t *testing.T) {
		rr := serve(s, upload(t, "/api/import/office_expenses?preview=1", "office.xlsx", data))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		p := decode[interchange.Preview](t, rr)
		assert.Len(t, p.Records, 2)
		snap, _ := store.Snapshot(context.Background())
		assert.Empty(t, snap.OfficeExpenses)
	})

	t.Run("import commits batch", func(t *testing.T) {
		rr := serve(s, upload(t, "/api/import/office_expenses", "office.xlsx", data))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		res := decode[interchange.Result](t, rr)
		assert.Equal(t, core.OfficeExpenses, res.Entity)
		assert.Equal(t, 2, res.Rows)

		snap, _ := store.Snapshot(context.Background())
		require.Len(t, snap.OfficeExpenses, 2)
		assert.Equal(t, "Rent", snap.OfficeExpenses[0].Description)
	})

	t.Run("unsupported format", func(t *testing.T) {
		rr := serve(s, upload(t, "/api/import/office_expenses", "office.csv", []byte("a,b")))
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
		assert.Equal(t, "parse", decode[errorBody](t, rr).Kind)
	})

	t.Run("rejected batch", func(t *testing.T) {
		bad, err := interchange.Export(core.CaseExpenses, []core.CaseExpense{
			{CaseFileID: "missing", ExpenseType: "Harç", Amount: core.NewAmount(10)},
		}, locale.English(), fixedNow)
		require.NoError(t, err)

		rr := serve(s, upload(t, "/api/import/case_expenses", "bad.xlsx", workbookBytes(t, bad)))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "insert", decode[errorBody](t, rr).Kind)
	})

	t.Run("missing file", func(t *testing.T) {
		rr := serve(s, httptest.NewRequest(http.MethodPost, "/api/import/office_expenses", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown entity", func(t *testing.T) {
		rr := serve(s, upload(t, "/api/import/invoices", "office.xlsx", data))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestImportTooLarge(t *testing.T) {
	s := NewServer(Options{
		Store:          memory.New(core.Snapshot{}),
		ImportMaxBytes: 1 << 10,
		Logger:         log.New(log.Config{Output: &bytes.Buffer{}}),
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	rr := serve(s, upload(t, "/api/import/office_expenses", "big.xlsx", bytes.Repeat([]byte("x"), 4<<10)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestAttachments(t *testing.T) {
	store := memory.New(seed())
	_, err := store.AddAttachment(context.Background(), core.Attachment{
		EntityID: "c1", EntityType: core.CaseFiles, FileName: "vekaletname.pdf", Size: 1024,
	})
	require.NoError(t, err)
	s := newTestServer(t, store)

	rr := get(s, "/api/attachments/case_files/c1")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]core.Attachment](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "vekaletname.pdf", list[0].FileName)

	rr = get(s, "/api/attachments/case_files/none")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestPostRateLimit(t *testing.T) {
	s := newTestServer(t, memory.New(core.Snapshot{}))

	var last int
	for i := 0; i < 61; i++ {
		last = serve(s, httptest.NewRequest(http.MethodPost, "/api/import/office_expenses", nil)).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, http.StatusOK, get(s, "/healthz").Code, "reads are not limited")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnknownEntity, http.StatusNotFound},
		{interchange.ErrNothingToExport, http.StatusNotFound},
		{interchange.ErrImportInProgress, http.StatusConflict},
		{&interchange.ImportError{Kind: interchange.KindParse, Err: interchange.ErrEmptyWorkbook}, http.StatusUnprocessableEntity},
		{&interchange.ImportError{Kind: interchange.KindParse, Err: interchange.ErrUnsupportedFormat}, http.StatusUnsupportedMediaType},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
