package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"landrec/internal/registration/handler/mocks"
	"landrec/internal/registration/models"
	"landrec/internal/registration/tract"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	adminmw "landrec/pkg/platform/middleware/admin"
	"landrec/pkg/testutil"
)

type RegistrationHandlerSuite struct {
	suite.Suite
	service      *mocks.MockService
	transactions *mocks.MockTransactionResolver
	router       http.Handler
	user         id.UserID
}

func TestRegistrationHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistrationHandlerSuite))
}

func (s *RegistrationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.transactions = mocks.NewMockTransactionResolver(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, s.transactions, logger)
	s.router = testutil.NewRouter(func(r chi.Router) {
		h.Register(r, adminmw.RequireAdminToken("books-token", logger))
	})
	s.user = id.UserID(uuid.MustParse("9d7c1c2e-5a4b-4f3e-8d2c-1b0a9f8e7d6c"))
}

func (s *RegistrationHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithActor(req, s.user, "recorder"))
}

func fixedState() *models.LandRecordState {
	presented := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	lr := &models.LandRecord{
		ID:               id.LandRecordID(uuid.MustParse("11111111-1111-4111-8111-111111111111")),
		UID:              "LR-7F3A9C21B4D0",
		TransactionID:    id.TransactionID(uuid.MustParse("22222222-2222-4222-8222-222222222222")),
		TransactionUID:   "TR-0A1B2C3D4E5F",
		Instrument:       models.Instrument{Kind: "deed", Number: "1234"},
		Status:           models.LandRecordStatusOpen,
		PresentationTime: presented,
		LastActIndex:     1,
	}
	act := &models.RecordingAct{
		ID:           id.RecordingActID(uuid.MustParse("33333333-3333-4333-8333-333333333333")),
		UID:          "RA-000000000001",
		Type:         "domain_transfer",
		Index:        1,
		Status:       models.RecordingActStatusPending,
		LandRecordID: lr.ID,
		ResourceID:   id.ResourceID(uuid.MustParse("44444444-4444-4444-8444-444444444444")),
	}
	return &models.LandRecordState{LandRecord: lr, Acts: []*models.RecordingAct{act}}
}

func (s *RegistrationHandlerSuite) TestCreateLandRecord() {
	state := fixedState()
	txID := state.LandRecord.TransactionID

	s.Run("renders the new record", func() {
		s.transactions.EXPECT().ResolveTransactionID(gomock.Any(), "TR-0A1B2C3D4E5F").Return(txID, nil)
		s.service.EXPECT().CreateLandRecord(gomock.Any(), models.CreateLandRecordCommand{
			TransactionID: txID,
			Instrument:    models.Instrument{Kind: "deed", Number: "1234"},
		}).Return(state, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/transactions/TR-0A1B2C3D4E5F/land-record",
			map[string]any{"instrument_kind": " deed ", "instrument_number": "1234"})
		rr := s.do(req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)

		g := goldie.New(s.T(), goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden.json"))
		g.Assert(s.T(), "land_record", rr.Body.Bytes())
	})

	s.Run("unknown transaction", func() {
		s.transactions.EXPECT().ResolveTransactionID(gomock.Any(), "TR-FFFFFFFFFFFF").
			Return(id.TransactionID{}, dErrors.New(dErrors.CodeNotFound, "transaction not found"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/transactions/TR-FFFFFFFFFFFF/land-record",
			map[string]any{"instrument_kind": "deed"})
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusNotFound, "not_found")
	})

	s.Run("instrument kind is required", func() {
		s.transactions.EXPECT().ResolveTransactionID(gomock.Any(), txID.String()).Return(txID, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/transactions/"+txID.String()+"/land-record",
			map[string]any{"instrument_number": "1"})
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, "validation_error")
	})
}

func (s *RegistrationHandlerSuite) TestCreateRecordingAct() {
	state := fixedState()
	lrID := state.LandRecord.ID
	resourceID := state.Acts[0].ResourceID
	bookID := id.BookID(uuid.New())

	s.Run("parses identifiers into the command", func() {
		s.service.EXPECT().Execute(gomock.Any(), lrID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.LandRecordID, cmd *models.RegistrationCommand) (*models.LandRecordState, error) {
				s.Equal("mortgage", cmd.Type)
				s.Require().NotNil(cmd.ResourceID)
				s.Equal(resourceID, *cmd.ResourceID)
				s.Nil(cmd.AntecedentID)
				s.Require().NotNil(cmd.BookEntry)
				s.Equal(bookID, cmd.BookEntry.BookID)
				return state, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/land-records/"+lrID.String()+"/recording-acts", map[string]any{
			"type":        "mortgage",
			"resource_id": resourceID.String(),
			"book_entry":  map[string]any{"book_id": bookID.String()},
		})
		testutil.AssertStatus(s.T(), s.do(req), http.StatusCreated)
	})

	s.Run("malformed resource id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/land-records/"+lrID.String()+"/recording-acts", map[string]any{
			"type": "mortgage", "resource_id": "lot-7",
		})
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, "invalid_input")
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/land-records/"+lrID.String()+"/recording-acts",
			`{"type":"mortgage","colour":"red"}`)
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, "bad_request")
	})

	s.Run("engine errors keep their code and details", func() {
		s.service.EXPECT().Execute(gomock.Any(), lrID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidAntecedentType, "antecedent type not allowed").
				WithDetail("antecedent_type", "easement"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/land-records/"+lrID.String()+"/recording-acts", map[string]any{
			"type": "mortgage_cancellation", "resource_id": resourceID.String(), "antecedent_id": state.Acts[0].ID.String(),
		})
		rr := s.do(req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("invalid_antecedent_type", body.Error)
		s.Equal("easement", body.Details["antecedent_type"])
	})
}

func (s *RegistrationHandlerSuite) TestRemoveAndRetype() {
	state := fixedState()
	lrID := state.LandRecord.ID
	actID := state.Acts[0].ID

	s.Run("remove", func() {
		s.service.EXPECT().RemoveRecordingAct(gomock.Any(), lrID, actID).Return(state, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/land-records/"+lrID.String()+"/recording-acts/"+actID.String(), nil)
		testutil.AssertStatus(s.T(), s.do(req), http.StatusOK)
	})

	s.Run("remove with a bad act id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/land-records/"+lrID.String()+"/recording-acts/nope", nil)
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, "invalid_input")
	})

	s.Run("retype a closed record", func() {
		s.service.EXPECT().ChangeRecordingActType(gomock.Any(), actID, "easement").
			Return(nil, dErrors.New(dErrors.CodeLandRecordClosed, "land record is closed"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/recording-acts/"+actID.String()+"/type",
			map[string]any{"type": "easement"})
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusConflict, "land_record_closed")
	})
}

func (s *RegistrationHandlerSuite) TestLifecycle() {
	state := fixedState()
	lrID := state.LandRecord.ID
	path := "/land-records/" + lrID.String()

	s.Run("close without a body seals electronically", func() {
		s.service.EXPECT().Close(gomock.Any(), lrID, models.CloseCommand{}).Return(state, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/close", nil)
		testutil.AssertStatus(s.T(), s.do(req), http.StatusOK)
	})

	s.Run("close with a manual seal", func() {
		s.service.EXPECT().Close(gomock.Any(), lrID, models.CloseCommand{
			Manual: &models.ManualSeal{Hash: "abc", Signature: "J. Doe"},
		}).Return(state, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/close",
			map[string]any{"manual_hash": "abc", "manual_signature": "J. Doe"})
		testutil.AssertStatus(s.T(), s.do(req), http.StatusOK)
	})

	s.Run("open and remove signature", func() {
		s.service.EXPECT().RemoveSignature(gomock.Any(), lrID).Return(state, nil)
		s.service.EXPECT().Open(gomock.Any(), lrID).Return(state, nil)
		testutil.AssertStatus(s.T(), s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/remove-signature", nil)), http.StatusOK)
		testutil.AssertStatus(s.T(), s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/open", nil)), http.StatusOK)
	})

	s.Run("internal errors hide their message", func() {
		s.service.EXPECT().GetLandRecord(gomock.Any(), lrID).Return(nil, errors.New("connection reset"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", body.Error)
		s.Empty(body.ErrorDescription)
	})
}

func (s *RegistrationHandlerSuite) TestTractIndex() {
	state := fixedState()
	resourceID := state.Acts[0].ResourceID
	entries := []tract.Entry{{Act: state.Acts[0], LandRecord: state.LandRecord}}

	s.Run("full history", func() {
		s.service.EXPECT().GetTractIndex(gomock.Any(), resourceID, true).Return(entries, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/resources/"+resourceID.String()+"/tract?full=true", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[TractResponse](s.T(), rr)
		s.Require().Len(resp.Entries, 1)
		s.Equal("LR-7F3A9C21B4D0", resp.Entries[0].LandRecordUID)
		s.True(resp.Entries[0].LandRecordOpen)
	})

	s.Run("until a break act", func() {
		breakAct := state.Acts[0].ID
		s.service.EXPECT().GetTractIndexUntil(gomock.Any(), resourceID, breakAct, true).Return(entries, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet,
			"/resources/"+resourceID.String()+"/tract?until="+breakAct.String()+"&include=1", nil))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("bad flag", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/resources/"+resourceID.String()+"/tract?full=maybe", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *RegistrationHandlerSuite) TestBooks() {
	body := map[string]any{"recorder_office": "Central", "book_number": "12", "policy": "NO_REUSE", "start_index": 40}

	s.Run("admin token is required", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/books", body)
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusUnauthorized, "unauthorized")
	})

	s.Run("creates a book", func() {
		book := &models.RecordingBook{ID: id.BookID(uuid.New()), UID: "BK-1", RecorderOffice: "Central", BookNumber: "12",
			Policy: models.NumberingPolicyNoReuse, StartIndex: 40}
		s.service.EXPECT().CreateRecordingBook(gomock.Any(), models.CreateBookCommand{
			RecorderOffice: "Central", BookNumber: "12", Policy: models.NumberingPolicyNoReuse, StartIndex: 40,
		}).Return(book, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/books", body)
		req.Header.Set("X-Admin-Token", "books-token")
		rr := s.do(req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "policy", "no_reuse")
	})

	s.Run("unknown policy", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/books",
			map[string]any{"recorder_office": "Central", "book_number": "12", "policy": "sometimes"})
		req.Header.Set("X-Admin-Token", "books-token")
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, "validation_error")
	})
}
