package record

import (
	"context"
	"testing"
	"time"

	"github.com/asistio/core/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FileStoreSuite struct {
	suite.Suite
	store *FileStore
	ctx   context.Context
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) SetupTest() {
	store, err := NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *FileStoreSuite) session(id, token string, created time.Time) *models.TrainingSession {
	return &models.TrainingSession{
		ID:        id,
		Token:     token,
		Topic:     "Workplace Safety",
		Date:      "2025-03-10",
		OwnerID:   "owner-1",
		CreatedAt: created,
	}
}

func (s *FileStoreSuite) TestSessionCreateAndGet() {
	sess := s.session("s1", "AB12CD34", time.Now())
	s.Require().NoError(s.store.Sessions().Create(s.ctx, sess))

	got, err := s.store.Sessions().Get(s.ctx, "s1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("AB12CD34", got.Token)

	byToken, err := s.store.Sessions().GetByToken(s.ctx, "AB12CD34")
	s.Require().NoError(err)
	s.Require().NotNil(byToken)
	s.Equal("s1", byToken.ID)
}

func (s *FileStoreSuite) TestSessionAbsentReadReturnsNilNil() {
	got, err := s.store.Sessions().Get(s.ctx, "missing")
	s.Require().NoError(err)
	s.Nil(got)

	byToken, err := s.store.Sessions().GetByToken(s.ctx, "FFFFFFFF")
	s.Require().NoError(err)
	s.Nil(byToken)
}

func (s *FileStoreSuite) TestSessionDuplicateTokenConflicts() {
	s.Require().NoError(s.store.Sessions().Create(s.ctx, s.session("s1", "AB12CD34", time.Now())))

	err := s.store.Sessions().Create(s.ctx, s.session("s2", "AB12CD34", time.Now()))
	s.Require().ErrorIs(err, ErrConflict)
}

func (s *FileStoreSuite) TestSessionListNewestFirstWithOwnerFilter() {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Sessions().Create(s.ctx, s.session("old", "AAAA1111", base)))
	s.Require().NoError(s.store.Sessions().Create(s.ctx, s.session("new", "BBBB2222", base.Add(time.Hour))))

	other := s.session("other", "CCCC3333", base.Add(2*time.Hour))
	other.OwnerID = "owner-2"
	s.Require().NoError(s.store.Sessions().Create(s.ctx, other))

	all, err := s.store.Sessions().List(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("other", all[0].ID)

	mine, err := s.store.Sessions().List(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal("new", mine[0].ID)
	s.Equal("old", mine[1].ID)
}

func (s *FileStoreSuite) TestSessionReplaceAndDelete() {
	sess := s.session("s1", "AB12CD34", time.Now())
	s.Require().NoError(s.store.Sessions().Create(s.ctx, sess))

	sess.Topic = "Fire Drill"
	s.Require().NoError(s.store.Sessions().Replace(s.ctx, sess))

	got, err := s.store.Sessions().Get(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal("Fire Drill", got.Topic)

	removed, err := s.store.Sessions().Delete(s.ctx, "s1")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.store.Sessions().Delete(s.ctx, "s1")
	s.Require().NoError(err)
	s.False(removed)
}

func (s *FileStoreSuite) TestSessionReplaceMissingIsNotFound() {
	err := s.store.Sessions().Replace(s.ctx, s.session("ghost", "DDDD4444", time.Now()))
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *FileStoreSuite) TestAttendeeDuplicateIdentityTokenConflicts() {
	a := &models.Attendee{ID: "a1", SessionID: "s1", Token: "AB12CD34", IdentityNumber: "123456"}
	s.Require().NoError(s.store.Attendees().Create(s.ctx, a))

	dup := &models.Attendee{ID: "a2", SessionID: "s1", Token: "AB12CD34", IdentityNumber: "123456"}
	s.Require().ErrorIs(s.store.Attendees().Create(s.ctx, dup), ErrConflict)

	// Same identity against a different token is a different registration.
	other := &models.Attendee{ID: "a3", SessionID: "s2", Token: "EEEE5555", IdentityNumber: "123456"}
	s.Require().NoError(s.store.Attendees().Create(s.ctx, other))
}

func (s *FileStoreSuite) TestAttendeeListCountAndDeleteBySession() {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "a2"} {
		a := &models.Attendee{
			ID: id, SessionID: "s1", Token: "AB12CD34",
			IdentityNumber: "10000" + id, RegisteredAt: base.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.Attendees().Create(s.ctx, a))
	}
	s.Require().NoError(s.store.Attendees().Create(s.ctx, &models.Attendee{
		ID: "b1", SessionID: "s2", Token: "EEEE5555", IdentityNumber: "200001",
	}))

	list, err := s.store.Attendees().ListBySession(s.ctx, "s1")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("a1", list[0].ID)

	count, err := s.store.Attendees().CountBySession(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal(2, count)

	found, err := s.store.Attendees().FindByIdentityToken(s.ctx, "10000a2", "AB12CD34")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("a2", found.ID)

	removed, err := s.store.Attendees().DeleteBySession(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal(2, removed)

	count, err = s.store.Attendees().CountBySession(s.ctx, "s1")
	s.Require().NoError(err)
	s.Zero(count)

	// s2 untouched.
	count, err = s.store.Attendees().CountBySession(s.ctx, "s2")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *FileStoreSuite) TestUserLifecycle() {
	u := &models.PlatformUser{ID: "u1", Name: "Ana", Role: models.RoleMember, JoinedAt: time.Now()}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))
	s.Require().ErrorIs(s.store.Users().Create(s.ctx, u), ErrConflict)

	got, err := s.store.Users().Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(models.RoleMember, got.Role)

	got.Role = models.RoleEditor
	s.Require().NoError(s.store.Users().Replace(s.ctx, got))

	all, err := s.store.Users().List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(models.RoleEditor, all[0].Role)

	removed, err := s.store.Users().Delete(s.ctx, "u1")
	s.Require().NoError(err)
	s.True(removed)
}

func (s *FileStoreSuite) TestAdjustFormsCreatedClampsAtZero() {
	u := &models.PlatformUser{ID: "u1", Name: "Ana", Role: models.RoleMember}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))

	s.Require().NoError(s.store.Users().AdjustFormsCreated(s.ctx, "u1", +1))
	s.Require().NoError(s.store.Users().AdjustFormsCreated(s.ctx, "u1", +1))
	s.Require().NoError(s.store.Users().AdjustFormsCreated(s.ctx, "u1", -1))

	got, err := s.store.Users().Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(1, got.FormsCreated)

	s.Require().NoError(s.store.Users().AdjustFormsCreated(s.ctx, "u1", -5))
	got, err = s.store.Users().Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Zero(got.FormsCreated)

	s.Require().ErrorIs(s.store.Users().AdjustFormsCreated(s.ctx, "ghost", +1), ErrNotFound)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Sessions().Create(ctx, &models.TrainingSession{ID: "s1", Token: "AB12CD34"}))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
}
