package challan

import (
	"context"

	"challanbook/internal/core/id"
	"challanbook/internal/domain"
)

// Repository stores challans and their lines.
type Repository interface {
	// Create inserts the header and lines.
	Create(ctx context.Context, doc *Challan) error

	// Update rewrites the header (optimistic lock on Version) and replaces the lines.
	// On success doc.Version is the new stored version.
	Update(ctx context.Context, doc *Challan) error

	// GetByID returns the challan with lines ordered by item index.
	GetByID(ctx context.Context, docID id.ID) (*Challan, error)

	// GetForUpdate is GetByID with a row lock; call inside a transaction.
	GetForUpdate(ctx context.Context, docID id.ID) (*Challan, error)

	// SoftDelete sets the deletion mark and reason.
	SoftDelete(ctx context.Context, docID id.ID, reason string) error

	// SetPDFPath records the relative path of the last successful render of
	// version. It fails with CONCURRENT_MODIFICATION if the stored version differs.
	SetPDFPath(ctx context.Context, docID id.ID, version int, path string) error

	// List returns register rows, newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ListItem], error)

	// MaxChallanNo returns the highest number on any challan, deleted ones included.
	MaxChallanNo(ctx context.Context) (int64, error)
}

// DocumentRenderer renders the two-up challan PDF and returns its path relative
// to the project root. A failed render leaves no file at that path.
type DocumentRenderer interface {
	Render(ctx context.Context, p *Printout) (string, error)
}

// LabelRenderer renders a single 75x125mm box label.
type LabelRenderer interface {
	RenderPDF(ctx context.Context, l Label) ([]byte, error)
	RenderHTML(ctx context.Context, l Label) ([]byte, error)
}

// FileStore gives access to rendered files by relative path.
type FileStore interface {
	Remove(ctx context.Context, relPath string) error
	Abs(relPath string) (string, error)
}

// PrintJob is one label sent to a printer.
type PrintJob struct {
	Printer  string
	Copies   int
	FileName string
	PDF      []byte
}

// Printer delivers print jobs, e.g. to the remote print agent.
type Printer interface {
	Print(ctx context.Context, job PrintJob) error
}
