package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challanbook/internal/core/apperror"
	appctx "challanbook/internal/core/context"
	"challanbook/internal/core/id"
	"challanbook/internal/core/numerator"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain"
	"challanbook/internal/domain/audit"
	"challanbook/internal/domain/catalogs/masterdata"
	"challanbook/internal/domain/documents/challan"
	"challanbook/internal/infrastructure/http/v1/dto"
	"challanbook/internal/infrastructure/storage/postgres"
	"challanbook/pkg/logger"
)

// stubService records what the handlers pass down and returns canned results.
type stubService struct {
	created  *challan.CreateInput
	updated  *challan.UpdateInput
	deleted  string
	terminal string
	counter  *int64
	printed  []int
	weights  *challan.WeightInput

	doc     *challan.Challan
	err     error
	preview numerator.Preview
	label   []byte
	panics  bool
}

func (s *stubService) PreviewNumber(ctx context.Context) (numerator.Preview, error) {
	return s.preview, s.err
}

func (s *stubService) ReserveNumber(ctx context.Context) (int64, error) {
	return s.preview.Next, s.err
}

func (s *stubService) SetCounter(ctx context.Context, value int64) error {
	s.counter = &value
	if s.err != nil {
		return s.err
	}
	s.preview = numerator.NewPreview(value)
	return nil
}

func (s *stubService) ComputeWeights(ctx context.Context, in challan.WeightInput) (weight.Breakdown, error) {
	s.weights = &in
	return weight.Compute(in.BobQty, in.BobUnitWt, in.BoxWt, in.GrossWt), s.err
}

func (s *stubService) Create(ctx context.Context, in challan.CreateInput) (*challan.Challan, error) {
	if s.panics {
		panic("boom")
	}
	s.created = &in
	s.terminal = appctx.GetTerminal(ctx)
	return s.doc, s.err
}

func (s *stubService) Update(ctx context.Context, docID id.ID, in challan.UpdateInput) (*challan.Challan, error) {
	s.updated = &in
	return s.doc, s.err
}

func (s *stubService) Delete(ctx context.Context, docID id.ID, reason string) error {
	s.deleted = reason
	return s.err
}

func (s *stubService) Get(ctx context.Context, docID id.ID) (*challan.Challan, error) {
	return s.doc, s.err
}

func (s *stubService) List(ctx context.Context, filter challan.ListFilter) (domain.ListResult[*challan.ListItem], error) {
	return domain.ListResult[*challan.ListItem]{
		Items: []*challan.ListItem{{
			ID:           s.doc.ID,
			ChallanNo:    s.doc.ChallanNo,
			Date:         s.doc.Date,
			CustomerID:   s.doc.CustomerID,
			CustomerName: "Acme",
			ItemCount:    1,
			TotalBobQty:  4,
			TotalNetWt:   decimal.RequireFromString("1.15"),
		}},
		TotalCount: 1,
		Limit:      50,
	}, s.err
}

func (s *stubService) History(ctx context.Context, docID id.ID, limit int) ([]audit.Entry, error) {
	return []audit.Entry{{EntityID: docID, Action: audit.ActionCreate}}, s.err
}

func (s *stubService) RegeneratePDF(ctx context.Context, docID id.ID) (*challan.Challan, error) {
	return s.doc, s.err
}

func (s *stubService) PDFFile(ctx context.Context, docID id.ID) (string, string, error) {
	return "", "", s.err
}

func (s *stubService) RenderLabel(ctx context.Context, docID id.ID, itemIndex int, format string) ([]byte, string, error) {
	if format == challan.FormatHTML {
		return s.label, "text/html; charset=utf-8", s.err
	}
	return s.label, "application/pdf", s.err
}

func (s *stubService) PrintLabel(ctx context.Context, docID id.ID, itemIndex int, printer string, copies int) error {
	if s.err != nil {
		return s.err
	}
	s.printed = append(s.printed, itemIndex, copies)
	return nil
}

type stubDB struct{ err error }

func (d stubDB) Ping(ctx context.Context) error { return d.err }
func (d stubDB) Stats() postgres.PoolStats      { return postgres.PoolStats{MaxConns: 10} }

var (
	customerID = id.MustParse("0190a000-0000-7000-8000-000000000001")
	shiftID    = id.MustParse("0190a000-0000-7000-8000-000000000002")
	metallicID = id.MustParse("0190a000-0000-7000-8000-000000000003")
	cutID      = id.MustParse("0190a000-0000-7000-8000-000000000004")
	operatorID = id.MustParse("0190a000-0000-7000-8000-000000000005")
	bobTypeID  = id.MustParse("0190a000-0000-7000-8000-000000000006")
	boxTypeID  = id.MustParse("0190a000-0000-7000-8000-000000000007")
)

func storedChallan(t *testing.T) *challan.Challan {
	t.Helper()
	doc := challan.New(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), customerID, shiftID, nil)
	doc.ChallanNo = 7
	b := weight.Compute(4, decimal.RequireFromString("0.25"), decimal.RequireFromString("0.35"), decimal.RequireFromString("2.5"))
	require.NoError(t, doc.SetLines([]challan.Line{{
		MetallicID: metallicID, CutID: cutID, OperatorID: operatorID,
		BobTypeID: bobTypeID, BoxTypeID: boxTypeID,
		BobQty: b.BobQty, BobUnitWt: b.BobUnitWeight, BoxWt: b.BoxWeight,
		GrossWt: b.Gross, TareWt: b.Tare, NetWt: b.Net,
	}}))
	return doc
}

func newTestRouter(t *testing.T, svc *stubService, catalogs masterdata.Repository, db stubDB) *gin.Engine {
	t.Helper()
	r, err := NewRouter(RouterConfig{
		Logger:   logger.NewNop(),
		DB:       db,
		Challans: svc,
		Catalogs: catalogs,
		Version:  "test",
	})
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func createBody(gross string) string {
	return `{
		"date": "2025-03-14",
		"customerId": "` + customerID.String() + `",
		"shiftId": "` + shiftID.String() + `",
		"items": [{
			"metallicId": "` + metallicID.String() + `",
			"cutId": "` + cutID.String() + `",
			"operatorId": "` + operatorID.String() + `",
			"bobTypeId": "` + bobTypeID.String() + `",
			"boxTypeId": "` + boxTypeID.String() + `",
			"bobQty": 4,
			"grossWt": ` + gross + `
		}]
	}`
}

func TestCreateChallan(t *testing.T) {
	svc := &stubService{doc: storedChallan(t)}
	r := newTestRouter(t, svc, nil, stubDB{})

	rr := do(r, http.MethodPost, "/api/v1/challans", createBody(`"2.5"`), "X-Terminal-ID", "scale-2")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	require.NotNil(t, svc.created)
	assert.Nil(t, svc.created.ChallanNo)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), svc.created.Date)
	assert.Equal(t, customerID, svc.created.CustomerID)
	require.Len(t, svc.created.Items, 1)
	assert.Equal(t, "2.5", svc.created.Items[0].GrossWt.String())
	assert.Nil(t, svc.created.Items[0].HelperID)
	assert.Equal(t, "scale-2", svc.terminal)

	var resp dto.ChallanResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ChallanNo)
	assert.Equal(t, "2025-03-14", resp.Date)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "1.350", resp.Lines[0].TareWt)
	assert.Equal(t, "1.150", resp.Lines[0].NetWt)
	assert.Equal(t, "CH-25-000007-01", resp.Lines[0].Barcode)
	assert.Equal(t, "1.150", resp.TotalNetWt)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCreateChallan_ReservedNumber(t *testing.T) {
	svc := &stubService{doc: storedChallan(t)}
	r := newTestRouter(t, svc, nil, stubDB{})

	body := strings.Replace(createBody("2.5"), `"date"`, `"challanNo": 42, "date"`, 1)
	rr := do(r, http.MethodPost, "/api/v1/challans", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, svc.created.ChallanNo)
	assert.Equal(t, int64(42), *svc.created.ChallanNo)
}

func TestCreateChallan_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative gross", createBody(`"-0.5"`)},
		{"bad date", strings.Replace(createBody("1"), "2025-03-14", "14/03/2025", 1)},
		{"not a uuid", strings.Replace(createBody("1"), customerID.String(), "acme", 1)},
		{"no items", `{"date":"2025-03-14","customerId":"` + customerID.String() + `","shiftId":"` + shiftID.String() + `","items":[]}`},
		{"malformed json", `{"date":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{doc: storedChallan(t)}
			r := newTestRouter(t, svc, nil, stubDB{})

			rr := do(r, http.MethodPost, "/api/v1/challans", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apperror.CodeValidation, decodeError(t, rr).Code)
			assert.Nil(t, svc.created)
		})
	}
}

func TestCreateChallan_RenderFailureCarriesChallanID(t *testing.T) {
	doc := storedChallan(t)
	svc := &stubService{
		doc: doc,
		err: apperror.NewRenderFailed(errors.New("disk full")).
			WithDetail("challanId", doc.ID.String()).
			WithDetail("challanNo", doc.ChallanNo),
	}
	r := newTestRouter(t, svc, nil, stubDB{})

	rr := do(r, http.MethodPost, "/api/v1/challans", createBody("2.5"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, apperror.CodeRenderFailed, body.Code)
	assert.Equal(t, doc.ID.String(), body.Details["challanId"])
	assert.NotContains(t, rr.Body.String(), "disk full")
}

func TestGetChallan_Errors(t *testing.T) {
	svc := &stubService{doc: storedChallan(t)}
	r := newTestRouter(t, svc, nil, stubDB{})

	rr := do(r, http.MethodGet, "/api/v1/challans/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.err = apperror.NewNotFound("challan", customerID.String())
	rr = do(r, http.MethodGet, "/api/v1/challans/"+customerID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apperror.CodeNotFound, decodeError(t, rr).Code)

	svc.err = errors.New("connection reset by peer")
	rr = do(r, http.MethodGet, "/api/v1/challans/"+customerID.String(), "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection reset")
}

func TestUpdateAndDeleteChallan(t *testing.T) {
	doc := storedChallan(t)
	svc := &stubService{doc: doc}
	r := newTestRouter(t, svc, nil, stubDB{})
	target := "/api/v1/challans/" + doc.ID.String()

	body := strings.Replace(createBody("2.5"), `"date"`, `"version": 3, "date"`, 1)
	rr := do(r, http.MethodPut, target, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 3, svc.updated.Version)

	rr = do(r, http.MethodDelete, target, `{"reason":"wrong customer"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "wrong customer", svc.deleted)

	svc.err = apperror.NewDocumentDeleted("challan", doc.ID.String())
	rr = do(r, http.MethodPost, target+"/pdf", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, apperror.CodeDocumentDeleted, decodeError(t, rr).Code)
}

func TestListChallans(t *testing.T) {
	svc := &stubService{doc: storedChallan(t)}
	r := newTestRouter(t, svc, nil, stubDB{})

	rr := do(r, http.MethodGet, "/api/v1/challans?dateFrom=2025-03-01&dateTo=2025-03-31", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp dto.ListResponse[dto.ChallanListItemResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "1.150", resp.Items[0].TotalNetWt)
	assert.Equal(t, "Acme", resp.Items[0].CustomerName)

	rr = do(r, http.MethodGet, "/api/v1/challans?dateFrom=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSequenceEndpoints(t *testing.T) {
	svc := &stubService{doc: storedChallan(t), preview: numerator.NewPreview(41)}
	r := newTestRouter(t, svc, nil, stubDB{})

	rr := do(r, http.MethodGet, "/api/v1/sequences/challan/next", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"current":41,"next":42}`, rr.Body.String())

	rr = do(r, http.MethodPost, "/api/v1/sequences/challan/reservations", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"challanNo":42}`, rr.Body.String())

	rr = do(r, http.MethodPut, "/api/v1/sequences/challan", `{"value":1200}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1200), *svc.counter)
	assert.JSONEq(t, `{"current":1200,"next":1201}`, rr.Body.String())

	rr = do(r, http.MethodPut, "/api/v1/sequences/challan", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.err = apperror.NewSequenceContention("challan_no", errors.New("lock timeout"))
	rr = do(r, http.MethodPost, "/api/v1/sequences/challan/reservations", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, true, decodeError(t, rr).Details["retryable"])
}

func TestComputeWeights(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(t, svc, nil, stubDB{})

	rr := do(r, http.MethodPost, "/api/v1/weights/compute",
		`{"bobQty":4,"grossWt":"2.5","bobUnitWt":"0.25","boxWt":0.35}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"bobQty":4,"bobUnitWt":"0.250","boxWt":"0.350","grossWt":"2.500","tareWt":"1.350","netWt":"1.150"}`, rr.Body.String())
	assert.Nil(t, svc.weights.BobTypeID)

	rr = do(r, http.MethodPost, "/api/v1/weights/compute", `{"bobQty":4,"grossWt":"2.5","boxWt":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLabelEndpoints(t *testing.T) {
	doc := storedChallan(t)
	svc := &stubService{doc: doc, label: []byte("<html>label</html>")}
	r := newTestRouter(t, svc, nil, stubDB{})
	target := "/api/v1/challans/" + doc.ID.String() + "/lines/1/label"

	rr := do(r, http.MethodGet, target+"?format=html", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "<html>label</html>", rr.Body.String())

	rr = do(r, http.MethodGet, "/api/v1/challans/"+doc.ID.String()+"/lines/zero/label", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, http.MethodPost, target+"/print", `{"printer":"TSC-TE244","copies":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []int{1, 2}, svc.printed)

	rr = do(r, http.MethodPost, target+"/print", `{"copies":2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.err = apperror.NewPrintAgentDisabled()
	rr = do(r, http.MethodPost, target+"/print", `{"printer":"TSC-TE244"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apperror.CodePrintAgentDisabled, decodeError(t, rr).Code)
}

func TestHistory(t *testing.T) {
	doc := storedChallan(t)
	r := newTestRouter(t, &stubService{doc: doc}, nil, stubDB{})

	rr := do(r, http.MethodGet, "/api/v1/challans/"+doc.ID.String()+"/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"action":"create"`)
}

func TestCatalogList(t *testing.T) {
	repo := masterdata.NewMemoryRepository()
	repo.Add(masterdata.KindBobType, masterdata.NewWeighted("B25", "Small bobbin", decimal.RequireFromString("0.25")))
	r := newTestRouter(t, &stubService{}, repo, stubDB{})

	rr := do(r, http.MethodGet, "/api/v1/catalogs/bob_type", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"weightKg":"0.250"`)
	assert.Contains(t, rr.Body.String(), `"name":"Small bobbin"`)

	rr = do(r, http.MethodGet, "/api/v1/catalogs/suppliers", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPanicBecomesInternalError(t *testing.T) {
	r := newTestRouter(t, &stubService{panics: true}, nil, stubDB{})

	rr := do(r, http.MethodPost, "/api/v1/challans", createBody("2.5"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, apperror.CodeInternal, decodeError(t, rr).Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubService{}, nil, stubDB{})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/ready", "").Code)

	rr := do(r, http.MethodGet, "/health/info", "")
	assert.Contains(t, rr.Body.String(), `"maxConns":10`)

	down := newTestRouter(t, &stubService{}, nil, stubDB{err: errors.New("dial tcp: refused")})
	assert.Equal(t, http.StatusServiceUnavailable, do(down, http.MethodGet, "/health/ready", "").Code)
}
