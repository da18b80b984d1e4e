package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/visitsafe-api/internal/domain"
)

type mockActionSvc struct{ mock.Mock }

func (m *mockActionSvc) Act(ctx context.Context, req domain.ActionRequest) (*domain.ActionResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*domain.ActionResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

var approveReq = domain.ActionRequest{
	Action:      domain.ActionApprove,
	RequestID:   "req1",
	ResidencyID: "res1",
	ResidentID:  "r1",
	Token:       "tok",
}

func approvedResult() *domain.ActionResult {
	return &domain.ActionResult{Success: true, Status: domain.StatusApproved, InputAction: domain.ActionApprove}
}

func TestAction_ProgrammaticJSONBody(t *testing.T) {
	svc := &mockActionSvc{}
	svc.On("Act", mock.Anything, approveReq).Return(approvedResult(), nil)

	body := `{"action":"approve","requestId":"req1","residencyId":"res1","residentId":"r1","token":"tok"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"status":"approved","inputAction":"approve"}`, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestAction_BodyOverridesQuery(t *testing.T) {
	svc := &mockActionSvc{}
	svc.On("Act", mock.Anything, approveReq).Return(approvedResult(), nil)

	r := httptest.NewRequest(http.MethodPost,
		"/v1/visitor-action?action=reject&requestId=req1&residencyId=res1&residentId=r1&token=old",
		strings.NewReader("action=APPROVE_VISITOR&approvalToken=tok"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAction_DoubleEncodedJSONBody(t *testing.T) {
	svc := &mockActionSvc{}
	svc.On("Act", mock.Anything, approveReq).Return(approvedResult(), nil)

	body := `"{\"action\":\"approve\",\"requestId\":\"req1\",\"residencyId\":\"res1\",\"residentId\":\"r1\",\"token\":\"tok\"}"`
	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action", strings.NewReader(body))
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAction_QueryTextBody(t *testing.T) {
	svc := &mockActionSvc{}
	svc.On("Act", mock.Anything, approveReq).Return(approvedResult(), nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action",
		strings.NewReader("action=approve&requestId=req1&residencyId=res1&residentId=r1&token=tok"))
	r.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAction_UsernameAlias(t *testing.T) {
	svc := &mockActionSvc{}
	want := domain.ActionRequest{Action: domain.ActionReject, RequestID: "req1", ResidencyID: "res1", ActionBy: "guard"}
	svc.On("Act", mock.Anything, want).
		Return(&domain.ActionResult{Success: true, Status: domain.StatusRejected, InputAction: domain.ActionReject}, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action",
		strings.NewReader(`{"action":"deny","requestId":"req1","residencyId":"res1","username":"guard"}`))
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAction_InvalidActionIsBadRequest(t *testing.T) {
	svc := &mockActionSvc{}
	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action?action=maybe&requestId=req1&residencyId=res1", nil)
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Act", mock.Anything, mock.Anything)
}

func TestAction_MissingIdentifiersIsBadRequest(t *testing.T) {
	svc := &mockActionSvc{}
	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action?action=approve", nil)
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAction_ServiceErrorsMapToStatus(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("visitor request not found: %w", domain.ErrNotFound): http.StatusNotFound,
		fmt.Errorf("not allowed: %w", domain.ErrForbidden):               http.StatusForbidden,
		fmt.Errorf("raced: %w", domain.ErrConflict):                      http.StatusConflict,
		fmt.Errorf("boom"):                                               http.StatusInternalServerError,
	}
	for err, status := range cases {
		svc := &mockActionSvc{}
		svc.On("Act", mock.Anything, mock.Anything).Return(nil, err)
		r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action?action=approve&requestId=req1&residencyId=res1", nil)
		rr := httptest.NewRecorder()
		NewVisitorActionHandler(svc).Handle(rr, r)
		assert.Equal(t, status, rr.Code, err.Error())
	}
}

func TestAction_AlreadyProcessedIsSuccess(t *testing.T) {
	svc := &mockActionSvc{}
	svc.On("Act", mock.Anything, mock.Anything).Return(&domain.ActionResult{
		Success: true, Status: domain.StatusRejected, InputAction: domain.ActionApprove,
		AlreadyProcessed: true, Message: "Request already processed",
	}, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action?action=approve&requestId=req1&residencyId=res1", nil)
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"alreadyProcessed":true`)
	assert.Contains(t, rr.Body.String(), `"status":"rejected"`)
}

func TestAction_DirectNavigationAlwaysRedirects(t *testing.T) {
	link := "/v1/visitor-action?action=approve&requestId=req1&residencyId=res1&residentId=r1&token=tok"

	t.Run("success", func(t *testing.T) {
		svc := &mockActionSvc{}
		svc.On("Act", mock.Anything, approveReq).Return(approvedResult(), nil)
		rr := httptest.NewRecorder()
		NewVisitorActionHandler(svc).Handle(rr, httptest.NewRequest(http.MethodGet, link, nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
		svc.AssertExpectations(t)
	})

	t.Run("failure", func(t *testing.T) {
		svc := &mockActionSvc{}
		svc.On("Act", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("nope: %w", domain.ErrForbidden))
		rr := httptest.NewRecorder()
		NewVisitorActionHandler(svc).Handle(rr, httptest.NewRequest(http.MethodGet, link, nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.NotContains(t, rr.Body.String(), "nope")
	})

	t.Run("malformed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewVisitorActionHandler(&mockActionSvc{}).Handle(rr, httptest.NewRequest(http.MethodGet, "/v1/visitor-action", nil))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
	})
}

func TestAction_GetWithJSONAcceptIsProgrammatic(t *testing.T) {
	svc := &mockActionSvc{}
	svc.On("Act", mock.Anything, approveReq).Return(approvedResult(), nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/visitor-action?action=approve&requestId=req1&residencyId=res1&residentId=r1&token=tok", nil)
	r.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	NewVisitorActionHandler(svc).Handle(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestDecodeActionBody(t *testing.T) {
	cases := []struct {
		name, contentType, body string
		want                    map[string]string
	}{
		{"json", "application/json", `{"action":"approve","requestId":42,"flag":true,"skip":null}`,
			map[string]string{"action": "approve", "requestId": "42", "flag": "true"}},
		{"form", "application/x-www-form-urlencoded; charset=utf-8", "action=reject&token=a%2Bb",
			map[string]string{"action": "reject", "token": "a+b"}},
		{"double encoded", "", `"{\"action\":\"approve\"}"`, map[string]string{"action": "approve"}},
		{"query text", "text/plain", "action=approve&requestId=req1", map[string]string{"action": "approve", "requestId": "req1"}},
		{"garbage", "text/plain", "hello", nil},
		{"empty", "application/json", "  ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeActionBody(tc.contentType, []byte(tc.body))
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			for k, v := range tc.want {
				assert.Equal(t, v, got.Get(k), k)
			}
			assert.False(t, got.Has("skip"))
		})
	}
}

func TestDecodeActionBody_NestingIsBounded(t *testing.T) {
	doc := `{"action":"approve"}`
	for i := 0; i < maxJSONNesting+1; i++ {
		doc = fmt.Sprintf("%q", doc)
	}
	assert.Empty(t, decodeActionBody("application/json", []byte(doc)))
}

func TestParseActionRequest_OversizedBodyIsTruncated(t *testing.T) {
	big := `{"action":"approve","requestId":"req1","residencyId":"res1","pad":"` + strings.Repeat("x", maxActionBody) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/visitor-action", strings.NewReader(big))
	_, err := parseActionRequest(r)
	require.Error(t, err, "truncated JSON is not decoded")
}
