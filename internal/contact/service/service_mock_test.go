package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"contactlink/internal/contact/models"
	"contactlink/internal/contact/service"
	"contactlink/internal/contact/service/mocks"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/platform/sentinel"
)

type mockDeps struct {
	store  *mocks.MockStore
	tx     *mocks.MockContactStoreTx
	locker *mocks.MockKeyLocker
	svc    *service.Service
}

func newMockService(t *testing.T) mockDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	d := mockDeps{
		store:  mocks.NewMockStore(ctrl),
		tx:     mocks.NewMockContactStoreTx(ctrl),
		locker: mocks.NewMockKeyLocker(ctrl),
	}
	svc, err := service.New(d.tx, service.WithLocker(d.locker), service.WithLogger(discardLogger()))
	require.NoError(t, err)
	d.svc = svc
	return d
}

// passThroughTx makes RunInTx invoke fn once with the mock store.
func (d mockDeps) passThroughTx() {
	d.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, service.Store) error) error {
			return fn(ctx, d.store)
		})
}

func (d mockDeps) lockOK(keys []string, unlocked *bool) {
	d.locker.EXPECT().Lock(gomock.Any(), keys).Return(func() { *unlocked = true }, nil)
}

func TestIdentifyRejectsEmptyInputBeforeLockOrStore(t *testing.T) {
	d := newMockService(t)

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{Email: strPtr(" ")})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestIdentifyCreatesPrimaryWhenNothingMatches(t *testing.T) {
	d := newMockService(t)
	unlocked := false
	d.lockOK([]string{"email:a@x.com", "phone:111"}, &unlocked)
	d.passThroughTx()
	d.store.EXPECT().FindMatching(gomock.Any(), strPtr("a@x.com"), strPtr("111")).Return([]*models.Contact{}, nil)
	d.store.EXPECT().Create(gomock.Any(), models.NewPrimary(strPtr("a@x.com"), strPtr("111"))).Return(&models.Contact{
		ID: 7, Email: strPtr("a@x.com"), PhoneNumber: strPtr("111"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: t0,
	}, nil)

	identity, err := d.svc.Identify(context.Background(), service.IdentifyInput{Email: strPtr("a@x.com"), PhoneNumber: strPtr("111")})

	require.NoError(t, err)
	assert.Equal(t, models.ContactID(7), identity.PrimaryContactID)
	assert.True(t, unlocked)
}

func TestIdentifyStoreFailureIsInternal(t *testing.T) {
	d := newMockService(t)
	unlocked := false
	boom := errors.New("connection reset by peer")
	d.lockOK([]string{"phone:111"}, &unlocked)
	d.passThroughTx()
	d.store.EXPECT().FindMatching(gomock.Any(), nil, strPtr("111")).Return(nil, boom)

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{PhoneNumber: strPtr("111")})

	require.ErrorIs(t, err, boom)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.True(t, unlocked, "lock must be released on failure")
}

func TestIdentifyAbortsWhenSecondaryCreateFails(t *testing.T) {
	d := newMockService(t)
	unlocked := false
	boom := errors.New("insert failed")
	primary := &models.Contact{ID: 1, Email: strPtr("a@x.com"), PhoneNumber: strPtr("111"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: t0}
	d.lockOK([]string{"email:a@x.com", "phone:222"}, &unlocked)
	d.passThroughTx()
	gomock.InOrder(
		d.store.EXPECT().FindMatching(gomock.Any(), strPtr("a@x.com"), strPtr("222")).Return([]*models.Contact{primary}, nil),
		d.store.EXPECT().FindByIDsOrLinkedIDs(gomock.Any(), []models.ContactID{1}, []models.ContactID{}).Return([]*models.Contact{primary}, nil),
		d.store.EXPECT().Create(gomock.Any(), models.NewSecondary(strPtr("a@x.com"), strPtr("222"), 1)).Return(nil, boom),
	)

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{Email: strPtr("a@x.com"), PhoneNumber: strPtr("222")})

	require.ErrorIs(t, err, boom)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestIdentifyRelinkFailureStopsPipeline(t *testing.T) {
	d := newMockService(t)
	unlocked := false
	boom := errors.New("update failed")
	older := &models.Contact{ID: 1, Email: strPtr("a@x.com"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: t0}
	newer := &models.Contact{ID: 2, PhoneNumber: strPtr("222"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: t0.Add(1)}
	d.lockOK([]string{"email:a@x.com", "phone:222"}, &unlocked)
	d.passThroughTx()
	d.store.EXPECT().FindMatching(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*models.Contact{older, newer}, nil)
	d.store.EXPECT().FindByIDsOrLinkedIDs(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*models.Contact{older, newer}, nil)
	d.store.EXPECT().Update(gomock.Any(), models.ContactID(2), models.SecondaryOf(1)).Return(boom)

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{Email: strPtr("a@x.com"), PhoneNumber: strPtr("222")})

	require.ErrorIs(t, err, boom)
	assert.True(t, unlocked)
}

func TestIdentifyLockTimeout(t *testing.T) {
	d := newMockService(t)
	d.locker.EXPECT().Lock(gomock.Any(), []string{"email:a@x.com"}).Return(nil, context.DeadlineExceeded)

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{Email: strPtr("a@x.com")})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestIdentifyPassesTxErrorThrough(t *testing.T) {
	d := newMockService(t)
	unlocked := false
	d.lockOK([]string{"email:a@x.com"}, &unlocked)
	txErr := dErrors.New(dErrors.CodeTimeout, "transaction aborted: context cancelled")
	d.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(txErr)

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{Email: strPtr("a@x.com")})

	assert.Equal(t, txErr, err)
	assert.True(t, unlocked)
}

func TestIdentifyExhaustedRetriesAreConflicts(t *testing.T) {
	d := newMockService(t)
	unlocked := false
	d.lockOK([]string{"phone:111"}, &unlocked)
	lost := errors.New("could not serialize access")
	d.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("contact transaction gave up after 4 attempts: %w", errors.Join(sentinel.ErrConflict, lost)))

	_, err := d.svc.Identify(context.Background(), service.IdentifyInput{PhoneNumber: strPtr("111")})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.ErrorIs(t, err, lost)
	assert.True(t, unlocked)
}

func TestCheckIntegrityStoreFailure(t *testing.T) {
	d := newMockService(t)
	d.passThroughTx()
	d.store.EXPECT().FindLinkViolations(gomock.Any()).Return(nil, errors.New("boom"))

	_, err := d.svc.CheckIntegrity(context.Background())

	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
