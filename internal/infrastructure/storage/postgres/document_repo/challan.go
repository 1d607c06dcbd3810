package document_repo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/id"
	"challanbook/internal/domain"
	"challanbook/internal/domain/documents/challan"
	"challanbook/internal/infrastructure/storage/postgres"
)

const (
	challansTable     = "doc_challans"
	challanLinesTable = "doc_challan_lines"

	challanNoIndex = "ux_doc_challans_challan_no"
)

// challanLineColumns is the COPY column order; document_id is not part of challan.Line.
var challanLineColumns = append([]string{"document_id"}, postgres.ExtractDBColumns[challan.Line]()...)

// ChallanRepo implements challan.Repository.
type ChallanRepo struct {
	*BaseDocumentRepo[*challan.Challan]
	batch *postgres.BatchInserter
}

var _ challan.Repository = (*ChallanRepo)(nil)

// NewChallanRepo creates a new challan repository.
func NewChallanRepo(txManager *postgres.TxManager) *ChallanRepo {
	return &ChallanRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			challansTable,
			challan.EntityName,
			postgres.ExtractDBColumns[challan.Challan](),
			func() *challan.Challan { return &challan.Challan{} },
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// Create inserts the header and lines. A second live challan with the same
// number fails on the partial unique index.
func (r *ChallanRepo) Create(ctx context.Context, doc *challan.Challan) error {
	if err := r.insert(ctx, doc); err != nil {
		return r.mapConstraint(err, doc.ChallanNo)
	}
	return r.saveLines(ctx, doc.ID, doc.Lines)
}

// Update rewrites the header and replaces all lines. challan_no never changes.
func (r *ChallanRepo) Update(ctx context.Context, doc *challan.Challan) error {
	version, err := r.update(ctx, doc, "challan_no", "pdf_path", "deletion_mark", "delete_reason")
	if err != nil {
		return err
	}
	doc.Version = version
	return r.saveLines(ctx, doc.ID, doc.Lines)
}

// GetByID returns the challan with its lines.
func (r *ChallanRepo) GetByID(ctx context.Context, docID id.ID) (*challan.Challan, error) {
	return r.load(ctx, docID, false)
}

// GetForUpdate locks the header row until the transaction ends.
func (r *ChallanRepo) GetForUpdate(ctx context.Context, docID id.ID) (*challan.Challan, error) {
	return r.load(ctx, docID, true)
}

func (r *ChallanRepo) load(ctx context.Context, docID id.ID, forUpdate bool) (*challan.Challan, error) {
	doc, err := r.getByID(ctx, docID, forUpdate)
	if err != nil {
		return nil, err
	}
	lines, err := r.getLines(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

func (r *ChallanRepo) getLines(ctx context.Context, docID id.ID) ([]challan.Line, error) {
	sql, args, err := r.Builder().
		Select(postgres.ExtractDBColumns[challan.Line]()...).
		From(challanLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("item_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]challan.Line, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// saveLines replaces the lines of a challan (delete existing + COPY new).
func (r *ChallanRepo) saveLines(ctx context.Context, docID id.ID, lines []challan.Line) error {
	deleteSQL := "DELETE FROM " + challanLinesTable + " WHERE document_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	rows := make([][]any, len(lines))
	for i, l := range lines {
		data := postgres.StructToMap(&l)
		row := make([]any, len(challanLineColumns))
		row[0] = docID
		for j, col := range challanLineColumns[1:] {
			row[j+1] = data[col]
		}
		rows[i] = row
	}
	if _, err := r.batch.CopyFromSlice(ctx, challanLinesTable, challanLineColumns, rows); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// SetPDFPath records the path of the last successful render of version. It does
// not bump the version: the render happens after the edit that already did.
func (r *ChallanRepo) SetPDFPath(ctx context.Context, docID id.ID, version int, path string) error {
	sql, args, err := r.setPDFPathQuery(docID, version, path).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set pdf path: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(challan.EntityName, docID.String()).
			WithDetail("expected", version)
	}
	return nil
}

func (r *ChallanRepo) setPDFPathQuery(docID id.ID, version int, path string) squirrel.UpdateBuilder {
	return r.Builder().
		Update(challansTable).
		Set("pdf_path", path).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID, "version": version})
}

// List returns register rows with customer name and line aggregates.
func (r *ChallanRepo) List(ctx context.Context, filter challan.ListFilter) (domain.ListResult[*challan.ListItem], error) {
	result := domain.ListResult[*challan.ListItem]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	where := squirrel.And{}
	if !filter.IncludeDeleted {
		where = append(where, squirrel.Eq{"d.deletion_mark": false})
	}
	if filter.CustomerID != nil {
		where = append(where, squirrel.Eq{"d.customer_id": *filter.CustomerID})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"d.date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"d.date": *filter.DateTo})
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		From(challansTable + " d").
		Where(where).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q := r.Builder().
		Select(
			"d.id", "d.challan_no", "d.date", "d.customer_id",
			"c.name AS customer_name",
			"COUNT(l.line_id) AS item_count",
			"COALESCE(SUM(l.bob_qty), 0) AS total_bob_qty",
			"COALESCE(SUM(l.net_wt), 0) AS total_net_wt",
			"d.pdf_path", "d.deletion_mark",
		).
		From(challansTable + " d").
		Join("cat_customers c ON c.id = d.customer_id").
		LeftJoin(challanLinesTable + " l ON l.document_id = d.id").
		Where(where).
		GroupBy("d.id", "c.name").
		OrderBy("d.date DESC", "d.challan_no DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	result.Items = make([]*challan.ListItem, 0)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list challans: %w", err)
	}
	return result, nil
}

// MaxChallanNo returns the highest issued number, deleted challans included.
func (r *ChallanRepo) MaxChallanNo(ctx context.Context) (int64, error) {
	var highest int64
	err := r.querier(ctx).
		QueryRow(ctx, "SELECT COALESCE(MAX(challan_no), 0) FROM "+challansTable).
		Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("max challan number: %w", err)
	}
	return highest, nil
}

func (r *ChallanRepo) mapConstraint(err error, challanNo int64) error {
	if name, ok := postgres.UniqueViolation(err); ok && name == challanNoIndex {
		return apperror.NewDuplicate(challan.EntityName, "challanNo", strconv.FormatInt(challanNo, 10)).WithCause(err)
	}
	if name, ok := postgres.ForeignKeyViolation(err); ok {
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", name).
			WithCause(err)
	}
	return err
}
