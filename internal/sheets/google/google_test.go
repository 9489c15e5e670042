package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type call struct {
	method string
	path   string
	body   map[string]any
}

func fakeSheets(t *testing.T, status int) (*Client, *[]call) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, call{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
			return
		}
		if r.Method == http.MethodPut {
			rows := 0
			if v, ok := body["values"].([]any); ok {
				rows = len(v)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": rows})
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-1", "My Wallet"), &calls
}

func TestReplaceRowsClearsThenWrites(t *testing.T) {
	c, calls := fakeSheets(t, http.StatusOK)
	values := [][]any{
		{"Date", "Description", "Category", "Type", "Amount", "Currency"},
		{"2024-01-01", "Rent", "Bills", "expense", 500.0, "MRU"},
		{"2024-01-02", "Salary", "Salary", "income", 900.0, "MRU"},
	}

	n, err := c.ReplaceRows(context.Background(), values)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 data rows, got %d", n)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected clear and update, got %d calls", len(*calls))
	}

	clr, update := (*calls)[0], (*calls)[1]
	if clr.method != http.MethodPost || !strings.HasSuffix(clr.path, "/values/'My Wallet'!A:F:clear") {
		t.Errorf("unexpected clear call: %s %s", clr.method, clr.path)
	}
	if update.method != http.MethodPut || !strings.HasSuffix(update.path, "/values/'My Wallet'!A1") {
		t.Errorf("unexpected update call: %s %s", update.method, update.path)
	}
	if !strings.Contains(update.path, "/spreadsheets/sheet-1/") {
		t.Errorf("spreadsheet id missing from %s", update.path)
	}
}

func TestReplaceRowsPropagatesAPIError(t *testing.T) {
	c, calls := fakeSheets(t, http.StatusForbidden)

	_, err := c.ReplaceRows(context.Background(), [][]any{{"Date"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "clear") {
		t.Errorf("expected clear error, got %v", err)
	}
	if len(*calls) != 1 {
		t.Errorf("update must not run after a failed clear, got %d calls", len(*calls))
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestA1Helpers(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "A"}, {1, "A"}, {6, "F"}, {26, "Z"}, {27, "AA"}, {52, "AZ"}, {703, "AAA"},
	}
	for _, tt := range tests {
		if got := columnName(tt.n); got != tt.want {
			t.Errorf("columnName(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	if got := quoteSheet("Transactions"); got != "Transactions" {
		t.Errorf("plain name quoted: %q", got)
	}
	if got := quoteSheet("Bob's 2024"); got != "'Bob''s 2024'" {
		t.Errorf("unexpected quoting: %q", got)
	}
}
