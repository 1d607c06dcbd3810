package challan

import (
	"context"
	"errors"
	"fmt"
	"path"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/entity"
	"challanbook/internal/core/id"
	"challanbook/internal/core/numerator"
	"challanbook/internal/core/tx"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain"
	"challanbook/internal/domain/audit"
	"challanbook/internal/domain/catalogs/masterdata"
	"challanbook/pkg/logger"
)

// Label output formats.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// MaxLabelCopies bounds one print request.
const MaxLabelCopies = 20

// DefaultHistoryLimit is used when History is called with limit <= 0.
const DefaultHistoryLimit = 100

// Deps are the collaborators of Service. Printer may be nil when no print
// agent is configured.
type Deps struct {
	Repo      Repository
	Resolver  *masterdata.Resolver
	Numbers   numerator.Generator
	TxManager tx.Manager
	Audit     audit.Logger
	Documents DocumentRenderer
	Labels    LabelRenderer
	Files     FileStore
	Printer   Printer
}

// Service provides the challan use cases.
type Service struct {
	repo      Repository
	resolver  *masterdata.Resolver
	numbers   numerator.Generator
	txManager tx.Manager
	audit     audit.Logger
	documents DocumentRenderer
	labels    LabelRenderer
	files     FileStore
	printer   Printer
	seq       numerator.Config
}

// NewService creates the challan service.
func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		resolver:  d.Resolver,
		numbers:   d.Numbers,
		txManager: d.TxManager,
		audit:     d.Audit,
		documents: d.Documents,
		labels:    d.Labels,
		files:     d.Files,
		printer:   d.Printer,
		seq:       numerator.ChallanConfig(),
	}
}

// --- Numbering ---

// PreviewNumber shows the current counter and the number the next challan will
// probably get. Nothing is reserved.
func (s *Service) PreviewNumber(ctx context.Context) (numerator.Preview, error) {
	current, err := s.numbers.Peek(ctx, s.seq)
	if err != nil {
		return numerator.Preview{}, fmt.Errorf("peek challan number: %w", err)
	}
	return numerator.NewPreview(current), nil
}

// ReserveNumber allocates a number for a challan that will be created later.
// The number is used up exactly once by Create; an unused reservation is a gap.
func (s *Service) ReserveNumber(ctx context.Context) (int64, error) {
	return s.numbers.Reserve(ctx, s.seq)
}

// SetCounter moves the challan counter forward, e.g. after importing old books.
// It refuses values below the highest challan number already issued. The
// counter is locked first so no creation can commit a higher number between
// the check and the move.
func (s *Service) SetCounter(ctx context.Context, value int64) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.numbers.Lock(ctx, s.seq); err != nil {
			return err
		}
		highest, err := s.repo.MaxChallanNo(ctx)
		if err != nil {
			return fmt.Errorf("read highest challan number: %w", err)
		}
		if value < highest {
			return apperror.NewConflict("counter cannot be set below an issued challan number").
				WithDetail("highest", highest).
				WithDetail("requested", value)
		}
		return s.numbers.Set(ctx, s.seq, value)
	})
}

// allocate takes the next number or consumes a reservation, inside the
// creation transaction.
func (s *Service) allocate(ctx context.Context, reserved *int64) (int64, error) {
	if reserved != nil {
		if err := s.numbers.Consume(ctx, s.seq, *reserved); err != nil {
			return 0, err
		}
		return *reserved, nil
	}
	return s.numbers.Next(ctx, s.seq)
}

// --- Weights ---

// ComputeWeights previews tare and net for one box with the same calculator the
// challan uses.
func (s *Service) ComputeWeights(ctx context.Context, in WeightInput) (weight.Breakdown, error) {
	if err := in.validate(); err != nil {
		return weight.Breakdown{}, err
	}

	var refs []masterdata.Ref
	if in.BobTypeID != nil {
		refs = append(refs, masterdata.Ref{Kind: masterdata.KindBobType, ID: *in.BobTypeID, Field: "bobTypeId"})
	}
	if in.BoxTypeID != nil {
		refs = append(refs, masterdata.Ref{Kind: masterdata.KindBoxType, ID: *in.BoxTypeID, Field: "boxTypeId"})
	}
	bobUnit, box := in.BobUnitWt, in.BoxWt
	if len(refs) > 0 {
		res, err := s.resolver.Resolve(ctx, refs)
		if err != nil {
			return weight.Breakdown{}, err
		}
		if in.BobTypeID != nil {
			bobUnit = res.Get(masterdata.KindBobType, *in.BobTypeID).WeightKg
		}
		if in.BoxTypeID != nil {
			box = res.Get(masterdata.KindBoxType, *in.BoxTypeID).WeightKg
		}
	}
	return weight.Compute(in.BobQty, bobUnit, box, in.GrossWt), nil
}

// --- Documents ---

// Create validates, numbers and stores a challan, then renders its PDF.
//
// Validation and reference checks run before any number is taken. The number is
// allocated (or the reservation consumed) in the same transaction that inserts
// the challan, so a failed insert leaves the counter untouched. The PDF is
// rendered after commit; if rendering fails the saved challan is returned
// together with a PDF_RENDER_FAILED error and can be re-rendered later.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Challan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, in.refs())
	if err != nil {
		return nil, err
	}
	lines := in.lines(resolved)

	doc := New(in.Date, in.CustomerID, in.ShiftID, in.FirmID)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		no, err := s.allocate(ctx, in.ChallanNo)
		if err != nil {
			return err
		}
		doc.ChallanNo = no
		if err := doc.SetLines(lines); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create challan: %w", err)
		}
		return s.audit.LogChange(ctx, EntityName, doc.ID, audit.ActionCreate, doc.auditState())
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "challan created",
		"id", doc.ID,
		"challan_no", doc.ChallanNo,
		"items", len(doc.Lines),
		"reserved", in.ChallanNo != nil)

	if err := s.render(ctx, doc, resolved); err != nil {
		return doc, err
	}
	return doc, nil
}

// Update replaces the header and items of a challan, recomputes every line and
// re-renders the PDF under the same number. The previous file is removed only
// after the new one is written, and only if its path changed.
func (s *Service) Update(ctx context.Context, docID id.ID, in UpdateInput) (*Challan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, in.refs())
	if err != nil {
		return nil, err
	}
	lines := in.lines(resolved)

	var doc *Challan
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := cur.CanModify(EntityName); err != nil {
			return err
		}
		if in.Version != 0 && in.Version != cur.Version {
			return apperror.NewConcurrentModification(EntityName, docID.String()).
				WithDetail("expected", in.Version).
				WithDetail("actual", cur.Version)
		}

		before := cur.auditState()

		updated := *cur
		updated.Date = entity.TruncateDate(in.Date)
		updated.CustomerID = in.CustomerID
		updated.ShiftID = in.ShiftID
		updated.FirmID = in.FirmID
		if err := updated.SetLines(lines); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, &updated); err != nil {
			return err
		}
		doc = &updated

		changes := audit.Diff(before, doc.auditState())
		return s.audit.LogChange(ctx, EntityName, doc.ID, audit.ActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "challan updated",
		"id", doc.ID,
		"challan_no", doc.ChallanNo,
		"items", len(doc.Lines),
		"version", doc.Version)

	if err := s.render(ctx, doc, resolved); err != nil {
		return doc, err
	}
	return doc, nil
}

// Delete soft-deletes a challan. The PDF stays on disk.
func (s *Service) Delete(ctx context.Context, docID id.ID, reason string) error {
	reason, err := normalizeReason(reason)
	if err != nil {
		return err
	}

	var challanNo int64
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := cur.CanModify(EntityName); err != nil {
			return err
		}
		challanNo = cur.ChallanNo
		if err := s.repo.SoftDelete(ctx, docID, reason); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, EntityName, docID, audit.ActionDelete, map[string]any{"reason": reason})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "challan deleted", "id", docID, "challan_no", challanNo, "reason", reason)
	return nil
}

// Get returns a challan with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Challan, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns the challan register.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ListItem], error) {
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return domain.ListResult[*ListItem]{}, apperror.NewValidation("dateTo is before dateFrom").
			WithDetail("field", "dateTo")
	}
	return s.repo.List(ctx, filter)
}

// History returns the audit journal of a challan, newest first.
func (s *Service) History(ctx context.Context, docID id.ID, limit int) ([]audit.Entry, error) {
	if _, err := s.repo.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.audit.History(ctx, EntityName, docID, limit)
}

// --- Files ---

// RegeneratePDF renders the stored challan again at its deterministic path.
func (s *Service) RegeneratePDF(ctx context.Context, docID id.ID) (*Challan, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.CanModify(EntityName); err != nil {
		return nil, err
	}
	resolved, err := s.resolver.ResolveForDisplay(ctx, doc.refs())
	if err != nil {
		return nil, err
	}
	if err := s.render(ctx, doc, resolved); err != nil {
		return doc, err
	}
	return doc, nil
}

// PDFFile returns the absolute path and download name of the stored PDF.
func (s *Service) PDFFile(ctx context.Context, docID id.ID) (string, string, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return "", "", err
	}
	if doc.PDFPath == nil || *doc.PDFPath == "" {
		return "", "", apperror.NewNotFound("challan pdf", docID.String()).
			WithDetail("challanNo", doc.ChallanNo)
	}
	abs, err := s.files.Abs(*doc.PDFPath)
	if err != nil {
		return "", "", err
	}
	return abs, path.Base(*doc.PDFPath), nil
}

// render writes the PDF of doc and stores its path, holding the challan row
// lock so overlapping edits render one after another. If a newer edit has
// committed in the meantime doc is stale and nothing is written; that edit
// renders its own PDF. The previous file is removed after commit when the path
// changed.
func (s *Service) render(ctx context.Context, doc *Challan, resolved *masterdata.Resolved) error {
	p, err := BuildPrintout(doc, resolved)
	if err != nil {
		return s.renderFailed(ctx, doc, err)
	}

	var (
		oldPath *string
		newPath string
		stale   bool
	)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if cur.Version != doc.Version || cur.DeletionMark {
			stale = true
			return nil
		}
		oldPath = cur.PDFPath

		newPath, err = s.documents.Render(ctx, p)
		if err != nil {
			return err
		}
		if err := s.repo.SetPDFPath(ctx, doc.ID, doc.Version, newPath); err != nil {
			return fmt.Errorf("store pdf path: %w", err)
		}
		return nil
	})
	if err != nil {
		if newPath != "" && !samePath(oldPath, newPath) {
			s.removeFile(ctx, newPath, "unstored challan pdf")
		}
		return s.renderFailed(ctx, doc, err)
	}
	if stale {
		logger.Info(ctx, "challan pdf superseded by a newer edit",
			"id", doc.ID, "challan_no", doc.ChallanNo, "version", doc.Version)
		return nil
	}
	doc.PDFPath = &newPath

	logger.Info(ctx, "challan pdf rendered", "id", doc.ID, "challan_no", doc.ChallanNo, "path", newPath)

	if oldPath != nil && *oldPath != "" && *oldPath != newPath {
		s.removeFile(ctx, *oldPath, "old challan pdf")
	}

	var prev any
	if oldPath != nil {
		prev = *oldPath
	}
	if err := s.audit.LogChange(ctx, EntityName, doc.ID, audit.ActionRender, map[string]any{
		"pdfPath": map[string]any{"old": prev, "new": newPath},
	}); err != nil {
		logger.Warn(ctx, "render not journaled", "id", doc.ID, "error", err)
	}
	return nil
}

func samePath(stored *string, p string) bool {
	return stored != nil && *stored == p
}

func (s *Service) removeFile(ctx context.Context, relPath, what string) {
	if err := s.files.Remove(ctx, relPath); err != nil {
		logger.Warn(ctx, what+" not removed", "path", relPath, "error", err)
		return
	}
	logger.Info(ctx, what+" removed", "path", relPath)
}

func (s *Service) renderFailed(ctx context.Context, doc *Challan, err error) error {
	logger.Error(ctx, "challan pdf render failed", "id", doc.ID, "challan_no", doc.ChallanNo, "error", err)
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeValidation {
		return appErr
	}
	return apperror.NewRenderFailed(err).
		WithDetail("challanId", doc.ID.String()).
		WithDetail("challanNo", doc.ChallanNo)
}

// --- Labels ---

// LabelFor builds the label input of one item from the stored challan.
func (s *Service) LabelFor(ctx context.Context, docID id.ID, itemIndex int) (Label, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return Label{}, err
	}
	if _, err := doc.Line(itemIndex); err != nil {
		return Label{}, err
	}
	resolved, err := s.resolver.ResolveForDisplay(ctx, doc.refs())
	if err != nil {
		return Label{}, err
	}
	p, err := BuildPrintout(doc, resolved)
	if err != nil {
		return Label{}, err
	}
	return p.Label(itemIndex)
}

// RenderLabel renders one item label as PDF or HTML and returns the bytes and content type.
func (s *Service) RenderLabel(ctx context.Context, docID id.ID, itemIndex int, format string) ([]byte, string, error) {
	if format != "" && format != FormatPDF && format != FormatHTML {
		return nil, "", apperror.NewValidation("unsupported label format").
			WithDetail("field", "format").
			WithDetail("value", format)
	}
	lbl, err := s.LabelFor(ctx, docID, itemIndex)
	if err != nil {
		return nil, "", err
	}
	if format == FormatHTML {
		out, err := s.labels.RenderHTML(ctx, lbl)
		if err != nil {
			return nil, "", apperror.NewRenderFailed(err).WithDetail("barcode", lbl.Line.Barcode)
		}
		return out, "text/html; charset=utf-8", nil
	}
	out, err := s.labels.RenderPDF(ctx, lbl)
	if err != nil {
		return nil, "", apperror.NewRenderFailed(err).WithDetail("barcode", lbl.Line.Barcode)
	}
	return out, "application/pdf", nil
}

// PrintLabel renders the label PDF and hands it to the print agent.
func (s *Service) PrintLabel(ctx context.Context, docID id.ID, itemIndex int, printer string, copies int) error {
	if s.printer == nil {
		return apperror.NewPrintAgentDisabled()
	}
	if copies == 0 {
		copies = 1
	}
	if copies < 1 || copies > MaxLabelCopies {
		return apperror.NewValidation(fmt.Sprintf("copies must be between 1 and %d", MaxLabelCopies)).
			WithDetail("field", "copies")
	}

	lbl, err := s.LabelFor(ctx, docID, itemIndex)
	if err != nil {
		return err
	}
	pdf, err := s.labels.RenderPDF(ctx, lbl)
	if err != nil {
		return apperror.NewRenderFailed(err).WithDetail("barcode", lbl.Line.Barcode)
	}

	job := PrintJob{
		Printer:  printer,
		Copies:   copies,
		FileName: lbl.Line.Barcode + ".pdf",
		PDF:      pdf,
	}
	if err := s.printer.Print(ctx, job); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewPrintFailed(err).WithDetail("barcode", lbl.Line.Barcode)
	}

	logger.Info(ctx, "label printed", "id", docID, "barcode", lbl.Line.Barcode, "printer", printer, "copies", copies)
	if err := s.audit.LogChange(ctx, EntityName, docID, audit.ActionPrint, map[string]any{
		"barcode": lbl.Line.Barcode, "printer": printer, "copies": copies,
	}); err != nil {
		logger.Warn(ctx, "print not journaled", "id", docID, "error", err)
	}
	return nil
}
