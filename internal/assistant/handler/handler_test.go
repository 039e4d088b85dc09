package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"helpinghands/internal/assistant/handler/mocks"
	dErrors "helpinghands/pkg/domain-errors"
	"helpinghands/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
func newRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func TestHandleAsk(t *testing.T) {
	testutil.Given(t, "a working model", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Answer(gomock.Any(), "Who can donate?").Return("Healthy adults aged 18-65.", nil).Times(2)

		testutil.When(t, "a question is posted", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/ai-help",
				AskRequest{Question: "Who can donate?"}))

			testutil.Then(t, "the answer is echoed with the question", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONHasKey(t, rr, "answer")
			})

			testutil.And(t, "the envelope carries both texts", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/ai-help",
					AskRequest{Question: "Who can donate?"}))
				resp := testutil.UnmarshalResponse[AskResponse](t, rr)
				assert.True(t, resp.Success)
				assert.Equal(t, "Who can donate?", resp.Question)
				assert.Equal(t, "Healthy adults aged 18-65.", resp.Answer)
			})
		})
	})

	testutil.Given(t, "a failing model", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Answer(gomock.Any(), gomock.Any()).
			Return("", dErrors.Wrap(errors.New("quota"), dErrors.CodeUnavailable, "AI service unavailable"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/ai-help",
			AskRequest{Question: "Can I donate?"}))

		testutil.Then(t, "a 500 failure envelope is returned", func(t *testing.T) {
			resp := testutil.AssertFailure(t, rr, http.StatusInternalServerError, "AI service unavailable")
			assert.Equal(t, "AI service unavailable", resp.Error)
		})
	})

	testutil.Given(t, "an empty question", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Answer(gomock.Any(), "").
			Return("", dErrors.New(dErrors.CodeValidation, "question is required"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/ai-help", AskRequest{}))

		testutil.Then(t, "it is a bad request", func(t *testing.T) {
			testutil.AssertFailure(t, rr, http.StatusBadRequest, "AI service unavailable")
		})
	})
}
