package challan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/id"
	"challanbook/internal/core/numerator"
	"challanbook/internal/core/tx"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain/audit"
	"challanbook/internal/domain/catalogs/masterdata"
)

type fixture struct {
	svc      *Service
	repo     *memRepo
	master   *masterdata.MemoryRepository
	numbers  *numerator.MemoryGenerator
	audit    *audit.MemoryLogger
	renderer *fakeRenderer
	labels   *fakeLabels
	files    *fakeFiles
	printer  *fakePrinter

	customer, other, shift, firm *masterdata.Record
	gold, silver, cut, operator  *masterdata.Record
	helper, bobType, boxType     *masterdata.Record
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMemRepo(),
		master:   masterdata.NewMemoryRepository(),
		numbers:  numerator.NewMemoryGenerator(),
		audit:    audit.NewMemoryLogger(),
		renderer: &fakeRenderer{},
		labels:   &fakeLabels{},
		files:    &fakeFiles{},
		printer:  &fakePrinter{},
	}
	m := f.master
	acme := masterdata.NewRecord("C1", "Acme")
	acme.Address = "12 Mill Road"
	f.customer = m.Add(masterdata.KindCustomer, acme)
	f.other = m.Add(masterdata.KindCustomer, masterdata.NewRecord("C2", "Bolt Traders"))
	f.shift = m.Add(masterdata.KindShift, masterdata.NewRecord("A", "Day"))
	f.firm = m.Add(masterdata.KindFirm, masterdata.NewRecord("F1", "Sun Metallics"))
	f.gold = m.Add(masterdata.KindMetallic, masterdata.NewRecord("G", "Gold"))
	f.silver = m.Add(masterdata.KindMetallic, masterdata.NewRecord("S", "Silver"))
	f.cut = m.Add(masterdata.KindCut, masterdata.NewRecord("K1", "K69"))
	f.operator = m.Add(masterdata.KindEmployee, masterdata.NewRecord("E1", "Ravi"))
	f.helper = m.Add(masterdata.KindEmployee, masterdata.NewRecord("E2", "Mohan"))
	f.bobType = m.Add(masterdata.KindBobType, masterdata.NewWeighted("B25", "Paper 250g", weight.MustParse("0.25")))
	f.boxType = m.Add(masterdata.KindBoxType, masterdata.NewWeighted("X1", "Carton", weight.MustParse("0.1")))

	f.svc = NewService(Deps{
		Repo:      f.repo,
		Resolver:  masterdata.NewResolver(f.master),
		Numbers:   f.numbers,
		TxManager: tx.Passthrough,
		Audit:     f.audit,
		Documents: f.renderer,
		Labels:    f.labels,
		Files:     f.files,
		Printer:   f.printer,
	})
	return f
}

func (f *fixture) item(metallic *masterdata.Record, bobQty int, gross string) ItemInput {
	return ItemInput{
		MetallicID: metallic.ID,
		CutID:      f.cut.ID,
		OperatorID: f.operator.ID,
		BobTypeID:  f.bobType.ID,
		BoxTypeID:  f.boxType.ID,
		BobQty:     bobQty,
		GrossWt:    weight.MustParse(gross),
	}
}

func (f *fixture) header(items ...ItemInput) Header {
	return Header{
		Date:       time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		CustomerID: f.customer.ID,
		ShiftID:    f.shift.ID,
		Items:      items,
	}
}

func TestService_CreateComputesLinesAndRenders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.numbers.Set(ctx, numerator.ChallanConfig(), 6))

	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(
		f.item(f.gold, 5, "2.5"),
		f.item(f.silver, 4, "3.0004"),
	)})
	require.NoError(t, err)

	assert.Equal(t, int64(7), doc.ChallanNo)
	require.Len(t, doc.Lines, 2)

	first := doc.Lines[0]
	assert.Equal(t, 1, first.ItemIndex)
	assert.Equal(t, "1.350", weight.Format(first.TareWt))
	assert.Equal(t, "1.150", weight.Format(first.NetWt))
	assert.Equal(t, "CH-25-000007-01", first.Barcode)
	assert.Equal(t, "CH-25-000007-02", doc.Lines[1].Barcode)
	assert.Equal(t, "3.000", weight.Format(doc.Lines[1].GrossWt))

	require.NotNil(t, doc.PDFPath)
	assert.Equal(t, "Challans/2025/03/CH-25-000007_Acme_Gold_Silver_K69.pdf", *doc.PDFPath)

	stored, err := f.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.PDFPath, stored.PDFPath)
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionRender}, f.audit.Actions(doc.ID))
}

func TestService_CreateValidationTakesNoNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bad := f.item(f.gold, -1, "2.0")
	_, err := f.svc.Create(ctx, CreateInput{Header: f.header(bad)})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	unknown := f.item(f.gold, 1, "2.0")
	unknown.CutID = id.New()
	_, err = f.svc.Create(ctx, CreateInput{Header: f.header(unknown)})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Create(ctx, CreateInput{Header: f.header()})
	assert.True(t, apperror.IsValidation(err))

	current, err := f.numbers.Peek(ctx, numerator.ChallanConfig())
	require.NoError(t, err)
	assert.Zero(t, current)
	assert.Empty(t, f.renderer.rendered)
}

func TestService_CreateRejectsMoreThanFortyItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	items := make([]ItemInput, 45)
	for i := range items {
		items[i] = f.item(f.gold, 1, "1.0")
	}
	_, err := f.svc.Create(ctx, CreateInput{Header: f.header(items...)})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 45, appErr.Details["count"])
	assert.Equal(t, MaxItems, appErr.Details["max"])

	current, _ := f.numbers.Peek(ctx, numerator.ChallanConfig())
	assert.Zero(t, current)

	_, err = f.svc.Create(ctx, CreateInput{Header: f.header(items[:40]...)})
	assert.NoError(t, err)
}

func TestService_NumberAllocatedInsideTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	type marker struct{}
	var sawTx bool
	f.svc.txManager = tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(context.WithValue(ctx, marker{}, true))
	})
	f.svc.numbers = &probeGenerator{Generator: f.numbers, onNext: func(ctx context.Context) {
		sawTx = ctx.Value(marker{}) != nil
	}}

	_, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)
	assert.True(t, sawTx)
}

type probeGenerator struct {
	numerator.Generator
	onNext func(ctx context.Context)
}

func (p *probeGenerator) Next(ctx context.Context, cfg numerator.Config) (int64, error) {
	p.onNext(ctx)
	return p.Generator.Next(ctx, cfg)
}

func TestService_CreatePersistenceFailureRendersNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.createErr = errors.New("disk I/O error")

	_, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Empty(t, f.renderer.rendered)
}

func TestService_ReservedNumberIsConsumedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.numbers.Set(ctx, numerator.ChallanConfig(), 41))

	no, err := f.svc.ReserveNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(42), no)

	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1")), ChallanNo: &no})
	require.NoError(t, err)
	assert.Equal(t, int64(42), doc.ChallanNo)

	// The counter is not advanced a second time.
	preview, err := f.svc.PreviewNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), preview.Current)
	assert.Equal(t, int64(43), preview.Next)

	_, err = f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1")), ChallanNo: &no})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeReservationInvalid))

	stale := int64(43)
	_, err = f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1")), ChallanNo: &stale})
	assert.True(t, apperror.HasCode(err, apperror.CodeReservationInvalid))
}

func TestService_EditChangingCustomerReplacesPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.numbers.Set(ctx, numerator.ChallanConfig(), 41))
	no, err := f.svc.ReserveNumber(ctx)
	require.NoError(t, err)

	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 5, "2.5")), ChallanNo: &no})
	require.NoError(t, err)
	oldPath := *doc.PDFPath
	assert.Equal(t, "Challans/2025/03/CH-25-000042_Acme_Gold_K69.pdf", oldPath)

	h := f.header(f.item(f.gold, 5, "2.5"), f.item(f.silver, 2, "1.2"))
	h.CustomerID = f.other.ID
	updated, err := f.svc.Update(ctx, doc.ID, UpdateInput{Header: h, Version: doc.Version})
	require.NoError(t, err)

	assert.Equal(t, int64(42), updated.ChallanNo)
	assert.Equal(t, doc.Version+1, updated.Version)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, "CH-25-000042-02", updated.Lines[1].Barcode)

	require.NotNil(t, updated.PDFPath)
	assert.Equal(t, "Challans/2025/03/CH-25-000042_Bolt Traders_Gold_Silver_K69.pdf", *updated.PDFPath)
	assert.Equal(t, []string{oldPath}, f.files.removed)

	// Rendering again at the same path removes nothing.
	_, err = f.svc.RegeneratePDF(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, f.files.removed, 1)
}

func TestService_OverlappingEditsKeepNewestPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.txManager = lockingTx

	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)
	created := *doc.PDFPath

	// The first edit stops inside its render, holding the row.
	gate := f.renderer.holdNext()
	first := f.header(f.item(f.gold, 1, "1"))
	first.CustomerID = f.other.ID
	firstDone := make(chan error, 1)
	go func() {
		_, err := f.svc.Update(ctx, doc.ID, UpdateInput{Header: first})
		firstDone <- err
	}()
	<-gate.entered

	waiting := make(chan struct{})
	var once sync.Once
	f.repo.mu.Lock()
	f.repo.onWait = func() { once.Do(func() { close(waiting) }) }
	f.repo.mu.Unlock()

	secondDone := make(chan error, 1)
	go func() {
		_, err := f.svc.Update(ctx, doc.ID, UpdateInput{Header: f.header(f.item(f.silver, 1, "1"))})
		secondDone <- err
	}()
	<-waiting

	close(gate.release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	stored, err := f.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, stored.CustomerID)
	assert.Equal(t, f.silver.ID, stored.Lines[0].MetallicID)
	require.NotNil(t, stored.PDFPath)
	assert.Equal(t, "Challans/2025/03/CH-25-000001_Acme_Silver_K69.pdf", *stored.PDFPath)
	assert.ElementsMatch(t, []string{
		created,
		"Challans/2025/03/CH-25-000001_Bolt Traders_Gold_K69.pdf",
	}, f.files.removed)
}

func TestService_StaleRenderWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)
	stale := clone(doc)

	updated, err := f.svc.Update(ctx, doc.ID, UpdateInput{Header: f.header(f.item(f.silver, 1, "1"))})
	require.NoError(t, err)
	renders := len(f.renderer.rendered)
	removed := append([]string(nil), f.files.removed...)

	resolved, err := f.svc.resolver.ResolveForDisplay(ctx, stale.refs())
	require.NoError(t, err)
	require.NoError(t, f.svc.render(ctx, stale, resolved))

	assert.Len(t, f.renderer.rendered, renders)
	assert.Equal(t, removed, f.files.removed)
	stored, err := f.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated.PDFPath, *stored.PDFPath)
}

func TestService_UpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, doc.ID, UpdateInput{Header: f.header(f.item(f.gold, 1, "1")), Version: doc.Version + 5})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestService_RenderFailureKeepsChallan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.renderer.err = errors.New("permission denied")

	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeRenderFailed))
	require.NotNil(t, doc)

	stored, err := f.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ChallanNo)
	assert.Nil(t, stored.PDFPath)

	f.renderer.err = nil
	regenerated, err := f.svc.RegeneratePDF(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, regenerated.PDFPath)
	assert.Empty(t, f.files.removed)
}

func TestService_EditRenderFailureKeepsOldFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)
	oldPath := *doc.PDFPath

	f.renderer.err = errors.New("disk full")
	h := f.header(f.item(f.silver, 1, "1"))
	_, err = f.svc.Update(ctx, doc.ID, UpdateInput{Header: h})
	require.Error(t, err)

	stored, err := f.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, oldPath, *stored.PDFPath)
	assert.Empty(t, f.files.removed)
}

func TestService_DeletedChallanIsReadOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, doc.ID, "  x ")
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, f.svc.Delete(ctx, doc.ID, "wrong customer"))
	deleted, err := f.repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, deleted.DeletionMark)
	require.NotNil(t, deleted.DeleteReason)
	assert.Equal(t, "wrong customer", *deleted.DeleteReason)

	_, err = f.svc.Update(ctx, doc.ID, UpdateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentDeleted))

	_, err = f.svc.RegeneratePDF(ctx, doc.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentDeleted))

	err = f.svc.Delete(ctx, doc.ID, "again please")
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentDeleted))

	// The file stays where it was.
	assert.Empty(t, f.files.removed)
	abs, name, err := f.svc.PDFFile(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "/srv/book/"+*doc.PDFPath, abs)
	assert.Equal(t, "CH-25-000001_Acme_Gold_K69.pdf", name)
}

func TestService_SetCounterBelowIssuedNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.numbers.Set(ctx, numerator.ChallanConfig(), 99))
	_, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)

	err = f.svc.SetCounter(ctx, 50)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	require.NoError(t, f.svc.SetCounter(ctx, 500))
	preview, err := f.svc.PreviewNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(501), preview.Next)
}

type orderedGenerator struct {
	numerator.Generator
	calls *[]string
}

func (g *orderedGenerator) Lock(ctx context.Context, cfg numerator.Config) (int64, error) {
	*g.calls = append(*g.calls, "lock")
	return g.Generator.Lock(ctx, cfg)
}

func (g *orderedGenerator) Set(ctx context.Context, cfg numerator.Config, value int64) error {
	*g.calls = append(*g.calls, "set")
	return g.Generator.Set(ctx, cfg, value)
}

type orderedRepo struct {
	*memRepo
	calls *[]string
}

func (r *orderedRepo) MaxChallanNo(ctx context.Context) (int64, error) {
	*r.calls = append(*r.calls, "max")
	return r.memRepo.MaxChallanNo(ctx)
}

func TestService_SetCounterLocksBeforeReadingHighest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var calls []string
	f.svc.numbers = &orderedGenerator{Generator: f.numbers, calls: &calls}
	f.svc.repo = &orderedRepo{memRepo: f.repo, calls: &calls}

	require.NoError(t, f.svc.SetCounter(ctx, 10))
	assert.Equal(t, []string{"lock", "max", "set"}, calls)
}

func TestService_ComputeWeights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.ComputeWeights(ctx, WeightInput{
		BobQty:    5,
		GrossWt:   weight.MustParse("2.5"),
		BobTypeID: &f.bobType.ID,
		BoxTypeID: &f.boxType.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "1.350", weight.Format(b.Tare))
	assert.Equal(t, "1.150", weight.Format(b.Net))

	b, err = f.svc.ComputeWeights(ctx, WeightInput{
		BobQty:    0,
		GrossWt:   weight.MustParse("1.0"),
		BoxWt:     weight.MustParse("1.5"),
		BobUnitWt: weight.Zero(),
	})
	require.NoError(t, err)
	assert.Equal(t, "-0.500", weight.Format(b.Net))

	_, err = f.svc.ComputeWeights(ctx, WeightInput{BobQty: 1, GrossWt: weight.MustParse("-1")})
	assert.True(t, apperror.IsValidation(err))
}

func TestService_LabelMatchesLedgerRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	it := f.item(f.silver, 4, "3.0006")
	it.HelperID = &f.helper.ID
	h := f.header(f.item(f.gold, 5, "2.5"), it)
	h.FirmID = &f.firm.ID
	doc, err := f.svc.Create(ctx, CreateInput{Header: h})
	require.NoError(t, err)

	require.Len(t, f.renderer.rendered, 1)
	row := f.renderer.rendered[0].Lines[1]

	lbl, err := f.svc.LabelFor(ctx, doc.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, row, lbl.Line)
	assert.Equal(t, "Sun Metallics", lbl.Header)
	assert.Equal(t, "14-03-2025", lbl.DateText)
	assert.Equal(t, "3.001", lbl.Line.GrossWt)
	assert.Equal(t, "1.100", lbl.Line.TareWt)
	assert.Equal(t, "1.901", lbl.Line.NetWt)
	assert.Equal(t, "1.000", lbl.Line.BobWt)
	assert.Equal(t, "Mohan", lbl.Line.Helper)

	_, err = f.svc.LabelFor(ctx, doc.ID, 3)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RenderLabelFormats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)

	out, ct, err := f.svc.RenderLabel(ctx, doc.ID, 1, FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", ct)
	assert.Contains(t, string(out), "CH-25-000001-01")

	_, ct, err = f.svc.RenderLabel(ctx, doc.ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	_, _, err = f.svc.RenderLabel(ctx, doc.ID, 1, "png")
	assert.True(t, apperror.IsValidation(err))
}

func TestService_PrintLabel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)

	require.NoError(t, f.svc.PrintLabel(ctx, doc.ID, 1, "zebra-1", 0))
	require.Len(t, f.printer.jobs, 1)
	job := f.printer.jobs[0]
	assert.Equal(t, "zebra-1", job.Printer)
	assert.Equal(t, 1, job.Copies)
	assert.Equal(t, "CH-25-000001-01.pdf", job.FileName)
	assert.Contains(t, f.audit.Actions(doc.ID), audit.ActionPrint)

	err = f.svc.PrintLabel(ctx, doc.ID, 1, "zebra-1", MaxLabelCopies+1)
	assert.True(t, apperror.IsValidation(err))

	f.printer.err = errors.New("connection refused")
	err = f.svc.PrintLabel(ctx, doc.ID, 1, "zebra-1", 2)
	assert.True(t, apperror.HasCode(err, apperror.CodePrintFailed))

	f.svc.printer = nil
	err = f.svc.PrintLabel(ctx, doc.ID, 1, "zebra-1", 1)
	assert.True(t, apperror.HasCode(err, apperror.CodePrintAgentDisabled))
}

func TestService_ListAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, err := f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 5, "2.5"))})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateInput{Header: f.header(f.item(f.gold, 1, "1"))})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, first.ID, "duplicate entry"))

	res, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2), res.Items[0].ChallanNo)
	assert.Equal(t, 50, res.Limit)

	res, err = f.svc.List(ctx, ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	from := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.List(ctx, ListFilter{DateFrom: &from, DateTo: &to})
	assert.True(t, apperror.IsValidation(err))

	history, err := f.svc.History(ctx, first.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, audit.ActionDelete, history[0].Action)

	_, err = f.svc.History(ctx, id.New(), 0)
	assert.True(t, apperror.IsNotFound(err))
}
