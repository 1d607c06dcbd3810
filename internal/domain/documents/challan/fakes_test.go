package challan

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/id"
	"challanbook/internal/core/tx"
	"challanbook/internal/domain"
)

// memRepo is an in-memory Repository. GetForUpdate takes a per-row lock when
// ctx comes from lockingTx, and holds it until that transaction ends.
type memRepo struct {
	mu   sync.Mutex
	docs map[id.ID]*Challan
	rows map[id.ID]*sync.Mutex

	// onWait runs when GetForUpdate is about to block on a held row lock.
	onWait func()

	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*Challan), rows: make(map[id.ID]*sync.Mutex)}
}

type txScopeKey struct{}

type txScope struct {
	held map[id.ID]*sync.Mutex
}

// lockingTx releases the row locks taken inside fn when fn returns.
var lockingTx = tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txScopeKey{}) != nil {
		return fn(ctx)
	}
	scope := &txScope{held: make(map[id.ID]*sync.Mutex)}
	defer func() {
		for _, m := range scope.held {
			m.Unlock()
		}
	}()
	return fn(context.WithValue(ctx, txScopeKey{}, scope))
})

func (r *memRepo) lockRow(ctx context.Context, docID id.ID) {
	scope, ok := ctx.Value(txScopeKey{}).(*txScope)
	if !ok || scope.held[docID] != nil {
		return
	}
	r.mu.Lock()
	row := r.rows[docID]
	if row == nil {
		row = &sync.Mutex{}
		r.rows[docID] = row
	}
	onWait := r.onWait
	r.mu.Unlock()

	if !row.TryLock() {
		if onWait != nil {
			onWait()
		}
		row.Lock()
	}
	scope.held[docID] = row
}

func clone(c *Challan) *Challan {
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	if c.PDFPath != nil {
		p := *c.PDFPath
		cp.PDFPath = &p
	}
	return &cp
}

func (r *memRepo) Create(ctx context.Context, doc *Challan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, d := range r.docs {
		if d.ChallanNo == doc.ChallanNo && !d.DeletionMark {
			return apperror.NewDuplicate(EntityName, "challanNo", fmt.Sprint(doc.ChallanNo))
		}
	}
	r.docs[doc.ID] = clone(doc)
	return nil
}

func (r *memRepo) Update(ctx context.Context, doc *Challan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound(EntityName, doc.ID.String())
	}
	if cur.Version != doc.Version {
		return apperror.NewConcurrentModification(EntityName, doc.ID.String())
	}
	doc.Version++
	r.docs[doc.ID] = clone(doc)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, docID id.ID) (*Challan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound(EntityName, docID.String())
	}
	return clone(d), nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Challan, error) {
	r.lockRow(ctx, docID)
	return r.GetByID(ctx, docID)
}

func (r *memRepo) SoftDelete(ctx context.Context, docID id.ID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound(EntityName, docID.String())
	}
	d.MarkDeleted()
	d.DeleteReason = &reason
	return nil
}

func (r *memRepo) SetPDFPath(ctx context.Context, docID id.ID, version int, p string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound(EntityName, docID.String())
	}
	if d.Version != version {
		return apperror.NewConcurrentModification(EntityName, docID.String())
	}
	d.PDFPath = &p
	return nil
}

func (r *memRepo) List(ctx context.Context, f ListFilter) (domain.ListResult[*ListItem], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*ListItem
	for _, d := range r.docs {
		if d.DeletionMark && !f.IncludeDeleted {
			continue
		}
		if f.CustomerID != nil && d.CustomerID != *f.CustomerID {
			continue
		}
		net, bobs := d.Totals()
		items = append(items, &ListItem{
			ID: d.ID, ChallanNo: d.ChallanNo, Date: d.Date, CustomerID: d.CustomerID,
			ItemCount: len(d.Lines), TotalBobQty: bobs, TotalNetWt: net,
			PDFPath: d.PDFPath, DeletionMark: d.DeletionMark,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ChallanNo > items[j].ChallanNo })
	return domain.ListResult[*ListItem]{Items: items, TotalCount: int64(len(items)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *memRepo) MaxChallanNo(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var highest int64
	for _, d := range r.docs {
		highest = max(highest, d.ChallanNo)
	}
	return highest, nil
}

// fakeRenderer names files the way the real store does, minus sanitizing.
type fakeRenderer struct {
	mu       sync.Mutex
	rendered []*Printout
	err      error

	// hold, when set, stops the next Render until release is closed.
	hold *renderGate
}

type renderGate struct {
	entered chan struct{}
	release chan struct{}
}

// holdNext makes the next Render call wait for the returned gate.
func (f *fakeRenderer) holdNext() *renderGate {
	g := &renderGate{entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.hold = g
	f.mu.Unlock()
	return g
}

func (f *fakeRenderer) Render(ctx context.Context, p *Printout) (string, error) {
	f.mu.Lock()
	g := f.hold
	f.hold = nil
	f.mu.Unlock()
	if g != nil {
		close(g.entered)
		<-g.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.rendered = append(f.rendered, p)
	name := p.Number
	if parts := p.SuffixParts(); len(parts) > 0 {
		name += "_" + strings.Join(parts, "_")
	}
	return path.Join("Challans", p.Date.Format("2006"), p.Date.Format("01"), name+".pdf"), nil
}

type fakeLabels struct {
	last Label
}

func (f *fakeLabels) RenderPDF(ctx context.Context, l Label) ([]byte, error) {
	f.last = l
	return []byte("%PDF-" + l.Line.Barcode), nil
}

func (f *fakeLabels) RenderHTML(ctx context.Context, l Label) ([]byte, error) {
	f.last = l
	return []byte("<div>" + l.Line.Barcode + "</div>"), nil
}

type fakeFiles struct {
	mu        sync.Mutex
	removed   []string
	removeErr error
}

func (f *fakeFiles) Remove(ctx context.Context, relPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, relPath)
	return nil
}

func (f *fakeFiles) Abs(relPath string) (string, error) {
	if strings.HasPrefix(relPath, "/") {
		return "", errors.New("absolute path")
	}
	return "/srv/book/" + relPath, nil
}

type fakePrinter struct {
	jobs []PrintJob
	err  error
}

func (f *fakePrinter) Print(ctx context.Context, job PrintJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}
