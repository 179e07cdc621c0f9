package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/logging"
	"github.com/dmitrijs2005/glowup/internal/server/auth"
	"github.com/dmitrijs2005/glowup/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/glowup/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/glowup/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeUsersRepo struct {
	findOut   *models.User
	findErr   error
	byIDErr   error
	createOut *models.User
	createErr error
}

func (f *fakeUsersRepo) Create(context.Context, string, string, string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) FindByEmail(context.Context, string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeUsersRepo) FindByID(context.Context, int64) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.findOut, nil
}

type fakeRefreshRepo struct {
	findOut   *models.RefreshToken
	findErr   error
	delErr    error
	createErr error
	sweepErr  error
	swept     int64

	created []string
	deleted []string
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, token)
	return &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

func (f *fakeRefreshRepo) Find(context.Context, string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.deleted = append(f.deleted, token)
	return f.findOut, nil
}

func (f *fakeRefreshRepo) DeleteExpired(context.Context, time.Time) (int64, error) {
	return f.swept, f.sweepErr
}

func (f *fakeRefreshRepo) DeleteByUser(context.Context, int64) (int64, error) {
	return 0, f.delErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }

type failingCodec struct {
	*auth.TokenCodec
}

func (failingCodec) IssueRefreshToken(int64, string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("sign failed")
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error)        { return "", errBoom{} }
func (failingHasher) Verify(string, string) (bool, error) { return false, errBoom{} }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// newFakeManager returns a manager over fakes whose transactions go through sqlmock.
func newFakeManager(t *testing.T, rm *fakeRepoManager) (*SessionManager, sqlmock.Sqlmock, *auth.TokenCodec) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	clock := newTestClock()
	codec := newCodec(t, clock)
	return newManager(t, db, dbx.NewSQLTransactor(db, nil), rm, codec, clock), mock, codec
}

func liveRecord(clock time.Time) *models.RefreshToken {
	return &models.RefreshToken{UserID: 1, ExpiresAt: clock.Add(time.Hour)}
}

func TestNewSessionManager_HasherFailure(t *testing.T) {
	_, err := NewSessionManager(nil, nil, &fakeRepoManager{}, nil, failingHasher{}, logging.Discard())
	assert.Error(t, err)
}

func TestRegister_StorageFailures(t *testing.T) {
	ctx := context.Background()

	s, _, _ := newFakeManager(t, &fakeRepoManager{u: &fakeUsersRepo{findErr: errBoom{}}})
	_, err := s.Register(ctx, "John", "john@example.com", "Password1")
	require.ErrorIs(t, err, common.ErrStorageFailure)
	assert.Regexp(t, regexp.MustCompile(`find user by email: boom`), err.Error())

	s, _, _ = newFakeManager(t, &fakeRepoManager{u: &fakeUsersRepo{findErr: common.ErrNotFound, createErr: errBoom{}}})
	_, err = s.Register(ctx, "John", "john@example.com", "Password1")
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestRegister_ConflictAtInsertIsAlreadyExists(t *testing.T) {
	s, _, _ := newFakeManager(t, &fakeRepoManager{u: &fakeUsersRepo{findErr: common.ErrNotFound, createErr: common.ErrConflict}})

	_, err := s.Register(context.Background(), "John", "john@example.com", "Password1")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestLogin_StorageFailures(t *testing.T) {
	ctx := context.Background()

	s, _, _ := newFakeManager(t, &fakeRepoManager{u: &fakeUsersRepo{findErr: errBoom{}}})
	_, err := s.Login(ctx, "john@example.com", "Password1")
	assert.ErrorIs(t, err, common.ErrStorageFailure)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)

	hash, err := newHasher(t).Hash("Password1")
	require.NoError(t, err)
	user := &models.User{ID: 1, Email: "john@example.com", PasswordHash: hash}

	s, _, _ = newFakeManager(t, &fakeRepoManager{
		u: &fakeUsersRepo{findOut: user},
		r: &fakeRefreshRepo{createErr: errBoom{}},
	})
	_, err = s.Login(ctx, "john@example.com", "Password1")
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestRefresh_SuccessCommits(t *testing.T) {
	clock := newTestClock()
	rr := &fakeRefreshRepo{findOut: liveRecord(clock.Now())}
	s, mock, codec := newFakeManager(t, &fakeRepoManager{r: rr})

	tok, _, err := codec.IssueRefreshToken(1, "john@example.com")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	pair, err := s.Refresh(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, []string{tok}, rr.deleted)
	assert.Equal(t, []string{pair.RefreshToken}, rr.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_LostRaceRollsBack(t *testing.T) {
	clock := newTestClock()
	rr := &fakeRefreshRepo{findOut: liveRecord(clock.Now()), delErr: common.ErrNotFound}
	s, mock, codec := newFakeManager(t, &fakeRepoManager{r: rr})

	tok, _, err := codec.IssueRefreshToken(1, "john@example.com")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = s.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrTokenNotFound)
	assert.Empty(t, rr.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_InsertFailureRollsBack(t *testing.T) {
	clock := newTestClock()
	rr := &fakeRefreshRepo{findOut: liveRecord(clock.Now()), createErr: errBoom{}}
	s, mock, codec := newFakeManager(t, &fakeRepoManager{r: rr})

	tok, _, err := codec.IssueRefreshToken(1, "john@example.com")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = s.Refresh(context.Background(), tok)
	require.ErrorIs(t, err, common.ErrStorageFailure)
	assert.Regexp(t, regexp.MustCompile(`store refresh token: boom`), err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_BeginFailureIsStorageFailure(t *testing.T) {
	clock := newTestClock()
	rr := &fakeRefreshRepo{findOut: liveRecord(clock.Now())}
	s, mock, codec := newFakeManager(t, &fakeRepoManager{r: rr})

	tok, _, err := codec.IssueRefreshToken(1, "john@example.com")
	require.NoError(t, err)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err = s.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrStorageFailure)
	assert.Empty(t, rr.deleted)
}

func TestRefresh_IssueFailureLeavesTokenUntouched(t *testing.T) {
	db, mock := newSQLMockDB(t)
	clock := newTestClock()
	codec := newCodec(t, clock)
	rr := &fakeRefreshRepo{findOut: liveRecord(clock.Now())}
	s := newManager(t, db, dbx.NewSQLTransactor(db, nil), &fakeRepoManager{r: rr}, failingCodec{codec}, clock)

	tok, _, err := codec.IssueRefreshToken(1, "john@example.com")
	require.NoError(t, err)

	_, err = s.Refresh(context.Background(), tok)
	assert.EqualError(t, err, "sign failed")
	assert.Empty(t, rr.deleted)
	require.NoError(t, mock.ExpectationsWereMet(), "no transaction may start")
}

func TestRefresh_FindFailure(t *testing.T) {
	s, _, codec := newFakeManager(t, &fakeRepoManager{r: &fakeRefreshRepo{findErr: errBoom{}}})

	tok, _, err := codec.IssueRefreshToken(1, "john@example.com")
	require.NoError(t, err)

	_, err = s.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestLogout_StorageFailure(t *testing.T) {
	s, _, _ := newFakeManager(t, &fakeRepoManager{r: &fakeRefreshRepo{delErr: errBoom{}}})

	err := s.Logout(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestGetIdentityAndRevokeAll_StorageFailure(t *testing.T) {
	s, _, _ := newFakeManager(t, &fakeRepoManager{
		u: &fakeUsersRepo{byIDErr: errBoom{}},
		r: &fakeRefreshRepo{delErr: errBoom{}},
	})

	_, found, err := s.GetIdentity(context.Background(), 1)
	assert.False(t, found)
	assert.ErrorIs(t, err, common.ErrStorageFailure)

	_, err = s.RevokeAll(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}
