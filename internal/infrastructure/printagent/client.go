// Package printagent sends label PDFs to the remote print agent, a small HTTP
// service next to the label printer that forwards jobs to the OS print queue.
package printagent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"challanbook/internal/domain/documents/challan"
	"challanbook/pkg/logger"
)

// Client posts print jobs as multipart forms to {endpoint}/print.
type Client struct {
	Endpoint string
	Client   *http.Client
}

var _ challan.Printer = (*Client)(nil)

// New creates a client with its own timeout.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

// Print uploads the job. Any non-2xx answer is an error carrying the agent's message.
func (c *Client) Print(ctx context.Context, job challan.PrintJob) error {
	if c == nil || c.Endpoint == "" {
		return fmt.Errorf("print agent endpoint required")
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("printer", job.Printer); err != nil {
		return err
	}
	if err := writer.WriteField("copies", strconv.Itoa(job.Copies)); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("file", job.FileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(job.PDF); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/print", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("print agent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("print agent response %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	logger.Debug(ctx, "print job accepted",
		"printer", job.Printer,
		"file", job.FileName,
		"copies", job.Copies,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
