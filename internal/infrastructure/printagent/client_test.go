package printagent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challanbook/internal/domain/documents/challan"
)

func TestClient_PrintSendsMultipart(t *testing.T) {
	var (
		gotPrinter, gotCopies, gotName string
		gotPDF                         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/print", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotPrinter = r.FormValue("printer")
		gotCopies = r.FormValue("copies")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotName = hdr.Filename
		gotPDF, _ = io.ReadAll(f)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	err := c.Print(context.Background(), challan.PrintJob{
		Printer:  "TSC-TE244",
		Copies:   2,
		FileName: "CH-25-000007-03.pdf",
		PDF:      []byte("%PDF-1.3 label"),
	})
	require.NoError(t, err)

	assert.Equal(t, "TSC-TE244", gotPrinter)
	assert.Equal(t, "2", gotCopies)
	assert.Equal(t, "CH-25-000007-03.pdf", gotName)
	assert.Equal(t, "%PDF-1.3 label", string(gotPDF))
}

func TestClient_PrintReportsAgentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "printer TSC-TE244 is offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).Print(context.Background(), challan.PrintJob{Printer: "TSC-TE244", Copies: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "offline")
}

func TestClient_PrintTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	err := New(srv.URL, 20*time.Millisecond).Print(context.Background(), challan.PrintJob{Copies: 1})
	assert.Error(t, err)
}

func TestClient_RequiresEndpoint(t *testing.T) {
	var c *Client
	assert.Error(t, c.Print(context.Background(), challan.PrintJob{}))
	assert.Error(t, New("", time.Second).Print(context.Background(), challan.PrintJob{}))
}
