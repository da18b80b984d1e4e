package broadcast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/visitsafe-api/internal/domain"
)

type mockResidentStore struct{ mock.Mock }

func (m *mockResidentStore) ListWithDeviceToken(ctx context.Context, residencyID string) ([]domain.Resident, error) {
	args := m.Called(ctx, residencyID)
	rs, _ := args.Get(0).([]domain.Resident)
	return rs, args.Error(1)
}
func (m *mockResidentStore) RemoveDeviceTokens(ctx context.Context, residencyID string, residentIDs []string) error {
	return m.Called(ctx, residencyID, residentIDs).Error(0)
}

type mockMulticaster struct {
	mock.Mock
	unconfigured bool
}

func (m *mockMulticaster) Configured() bool { return !m.unconfigured }

func (m *mockMulticaster) SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) []domain.PushResult {
	return m.Called(ctx, tokens, msg).Get(0).([]domain.PushResult)
}

func ptr[T any](v T) *T { return &v }

func withToken(id, tok string) domain.Resident {
	return domain.Resident{ResidentID: id, ResidencyID: "res1", DeviceToken: ptr(tok)}
}

func newService(rs *mockResidentStore, mc *mockMulticaster) *service {
	s := NewService(ServiceDeps{ResidentRepo: rs, Pusher: mc}).(*service)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func baseReq() domain.BroadcastRequest {
	return domain.BroadcastRequest{ResidencyID: "res1", Title: "Water", Body: "Supply off 2-4pm"}
}

func TestSend_MissingFields_BadRequest(t *testing.T) {
	svc := newService(&mockResidentStore{}, &mockMulticaster{})
	_, err := svc.Send(context.Background(), domain.BroadcastRequest{ResidencyID: "res1"})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestSend_NoDevices(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return([]domain.Resident{}, nil)

	res, err := newService(rs, mc).Send(context.Background(), baseReq())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, res.SentCount)
	assert.NotEmpty(t, res.Message)
	mc.AssertNotCalled(t, "SendMulticast", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_EvictsFailedTokens(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return([]domain.Resident{
		withToken("r1", "good"), withToken("r2", "bad"), withToken("r3", "bad"), withToken("r4", "good2"),
	}, nil)
	mc.On("SendMulticast", mock.Anything, []string{"good", "bad", "good2"}, mock.MatchedBy(func(m domain.PushMessage) bool {
		return m.Title == "Water" && m.Body == "Supply off 2-4pm" &&
			m.Data["type"] == "admin-broadcast" && m.Data["click_action"] == "/" &&
			m.Data["timestamp"] == "1700000000000"
	})).Return([]domain.PushResult{
		{Token: "good"}, {Token: "bad", Err: fmt.Errorf("unregistered: %w", domain.ErrStaleToken)}, {Token: "good2"},
	})
	rs.On("RemoveDeviceTokens", mock.Anything, "res1", []string{"r2", "r3"}).Return(nil)

	res, err := newService(rs, mc).Send(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, &domain.BroadcastResult{Success: true, SentCount: 2, FailureCount: 1}, res)
	rs.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestSend_AllDelivered_NoEviction(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return([]domain.Resident{withToken("r1", "t1")}, nil)
	mc.On("SendMulticast", mock.Anything, []string{"t1"}, mock.Anything).Return([]domain.PushResult{{Token: "t1"}})

	res, err := newService(rs, mc).Send(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, 1, res.SentCount)
	rs.AssertNotCalled(t, "RemoveDeviceTokens", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_EvictionFailure_StillReportsCounts(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return([]domain.Resident{withToken("r1", "t1")}, nil)
	mc.On("SendMulticast", mock.Anything, []string{"t1"}, mock.Anything).Return([]domain.PushResult{{Token: "t1", Err: domain.ErrStaleToken}})
	rs.On("RemoveDeviceTokens", mock.Anything, "res1", []string{"r1"}).Return(errors.New("transaction cancelled"))

	res, err := newService(rs, mc).Send(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
}

func TestSend_ListFailure_Propagates(t *testing.T) {
	rs := &mockResidentStore{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return(nil, domain.ErrUnavailable)

	_, err := newService(rs, &mockMulticaster{}).Send(context.Background(), baseReq())
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestSend_TransportNotConfigured_Unavailable(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{unconfigured: true}

	_, err := newService(rs, mc).Send(context.Background(), baseReq())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	rs.AssertNotCalled(t, "ListWithDeviceToken", mock.Anything, mock.Anything)
	mc.AssertNotCalled(t, "SendMulticast", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_TransientFailures_KeepTokens(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return([]domain.Resident{
		withToken("r1", "t1"), withToken("r2", "t2"), withToken("r3", "t3"),
	}, nil)
	mc.On("SendMulticast", mock.Anything, []string{"t1", "t2", "t3"}, mock.Anything).Return([]domain.PushResult{
		{Token: "t1", Err: errors.New("sns publish: throttled")},
		{Token: "t2", Err: fmt.Errorf("platform application not configured: %w", domain.ErrUnavailable)},
		{Token: "t3", Err: context.DeadlineExceeded},
	})

	res, err := newService(rs, mc).Send(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, &domain.BroadcastResult{Success: true, FailureCount: 3}, res)
	rs.AssertNotCalled(t, "RemoveDeviceTokens", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_MixedFailures_EvictsOnlyStale(t *testing.T) {
	rs, mc := &mockResidentStore{}, &mockMulticaster{}
	rs.On("ListWithDeviceToken", mock.Anything, "res1").Return([]domain.Resident{
		withToken("r1", "dead"), withToken("r2", "slow"),
	}, nil)
	mc.On("SendMulticast", mock.Anything, []string{"dead", "slow"}, mock.Anything).Return([]domain.PushResult{
		{Token: "dead", Err: fmt.Errorf("endpoint disabled: %w", domain.ErrStaleToken)},
		{Token: "slow", Err: errors.New("i/o timeout")},
	})
	rs.On("RemoveDeviceTokens", mock.Anything, "res1", []string{"r1"}).Return(nil)

	res, err := newService(rs, mc).Send(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, 2, res.FailureCount)
	rs.AssertExpectations(t)
}
