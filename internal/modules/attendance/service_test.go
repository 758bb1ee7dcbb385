package attendance

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asistio/core/internal/models"
	"github.com/asistio/core/internal/modules/session"
	"github.com/asistio/core/internal/store/record"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// fixedClock pins Now for timestamp assertions.
type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

// stubResolver maps tokens to sessions or errors.
type stubResolver struct {
	sessions map[string]*models.TrainingSession
	err      error
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*models.TrainingSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	sess, ok := s.sessions[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return nil, session.ErrTokenNotFound
	}
	return sess, nil
}

// memObjects is a minimal in-memory object store.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (m *memObjects) SaveQR(_ context.Context, png []byte, owner, name string) (string, error) {
	ref := "qr/" + owner + "_" + name
	m.mu.Lock()
	m.objects[ref] = png
	m.mu.Unlock()
	return ref, nil
}

func (m *memObjects) SaveSignature(_ context.Context, image []byte, owner, name, identity string) (string, error) {
	ref := "sig/" + owner + "_" + name + "_" + identity + ".png"
	m.mu.Lock()
	m.objects[ref] = image
	m.mu.Unlock()
	return ref, nil
}

func (m *memObjects) QRURL(ref string) string        { return "/static/" + ref }
func (m *memObjects) SignatureURL(ref string) string { return "/static/" + ref }

func (m *memObjects) DeleteQR(_ context.Context, ref string) bool        { return m.remove(ref) }
func (m *memObjects) DeleteSignature(_ context.Context, ref string) bool { return m.remove(ref) }

func (m *memObjects) DeleteSessionAssets(context.Context, string, string) bool { return true }

func (m *memObjects) remove(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[ref]; !ok {
		return false
	}
	delete(m.objects, ref)
	return true
}

func (m *memObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type RegistrarSuite struct {
	suite.Suite
	store    *record.FileStore
	objects  *memObjects
	resolver *stubResolver
	svc      *Service
	sess     *models.TrainingSession
	ctx      context.Context
}

func TestRegistrarSuite(t *testing.T) {
	suite.Run(t, new(RegistrarSuite))
}

func (s *RegistrarSuite) SetupTest() {
	store, err := record.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	s.store = store
	s.objects = newMemObjects()
	s.ctx = context.Background()

	s.sess = &models.TrainingSession{
		ID: "sess-1", Token: "ABCD1234", Topic: "Workplace Safety",
		OwnerID: "owner-1", TokenActive: true,
	}
	s.resolver = &stubResolver{sessions: map[string]*models.TrainingSession{"ABCD1234": s.sess}}

	bogota, err := time.LoadLocation("America/Bogota")
	s.Require().NoError(err)
	s.svc = NewService(store.Attendees(), s.objects, s.resolver,
		fixedClock{now: time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)},
		bogota, 1<<20, zap.NewNop())
}

func signaturePayload() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake-png"))
}

func (s *RegistrarSuite) register(identity string) (*models.Attendee, error) {
	return s.svc.Register(s.ctx, RegisterInput{
		Token:          "ABCD1234",
		IdentityNumber: identity,
		Name:           "Carlos Pérez",
		Role:           "Operator",
		Unit:           "Plant 2",
		Email:          "Carlos.Perez@Example.COM",
		Signature:      signaturePayload(),
		SourceIP:       "10.0.0.9",
	})
}

func (s *RegistrarSuite) TestRegisterHappyPath() {
	a, err := s.register("123456")
	s.Require().NoError(err)

	s.Equal("sess-1", a.SessionID)
	s.Equal("ABCD1234", a.Token)
	s.Equal("carlos.perez@example.com", a.Email, "email lower-cased")
	s.NotEmpty(a.ID)
	s.NotEmpty(a.SignatureObject)
	s.Equal(1, s.objects.count())

	// Timestamp carries the business zone, not UTC.
	s.Equal("America/Bogota", a.RegisteredAt.Location().String())
	s.Equal(8, a.RegisteredAt.Hour(), "13:00 UTC is 08:00 in Bogotá")

	stored, err := s.store.Attendees().FindByIdentityToken(s.ctx, "123456", "ABCD1234")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
}

func (s *RegistrarSuite) TestRegisterDuplicateIdentityRejected() {
	_, err := s.register("123456")
	s.Require().NoError(err)

	_, err = s.register("123456")
	s.Require().ErrorIs(err, ErrDuplicateRegistration)
	s.Equal(1, s.objects.count(), "no second signature stored")
}

func (s *RegistrarSuite) TestRegisterBadSignatureWinsOverDuplicate() {
	_, err := s.register("123456")
	s.Require().NoError(err)

	// The signature is vetted before the duplicate lookup, so a repeat
	// submission with a broken image reports the image problem.
	_, err = s.svc.Register(s.ctx, RegisterInput{
		Token: "ABCD1234", IdentityNumber: "123456", Name: "Carlos Pérez",
		Signature: "data:image/png;base64,!!!not-base64!!!",
	})
	s.Require().ErrorIs(err, ErrInvalidAsset)
	s.Require().NotErrorIs(err, ErrDuplicateRegistration)
}

func (s *RegistrarSuite) TestRegisterSameTopicSessionsKeepSeparateSignatures() {
	twin := &models.TrainingSession{
		ID: "sess-2", Token: "EE99FF00", Topic: "Workplace Safety",
		OwnerID: "owner-1", TokenActive: true,
	}
	s.resolver.sessions["EE99FF00"] = twin

	a1, err := s.register("123456")
	s.Require().NoError(err)
	a2, err := s.svc.Register(s.ctx, RegisterInput{
		Token: "EE99FF00", IdentityNumber: "123456", Name: "Carlos Pérez",
		Signature: signaturePayload(),
	})
	s.Require().NoError(err)

	s.NotEqual(a1.SignatureObject, a2.SignatureObject)
	s.Equal(2, s.objects.count())

	// Tearing down one session must not sweep the twin's signature.
	_, err = s.svc.RemoveBySession(s.ctx, s.sess)
	s.Require().NoError(err)
	s.Equal(1, s.objects.count())
}

func (s *RegistrarSuite) TestRegisterSameIdentityDifferentToken() {
	_, err := s.register("123456")
	s.Require().NoError(err)

	other := &models.TrainingSession{ID: "sess-2", Token: "00FF00FF", Topic: "Other", OwnerID: "owner-1"}
	s.resolver.sessions["00FF00FF"] = other

	a, err := s.svc.Register(s.ctx, RegisterInput{
		Token:          "00FF00FF",
		IdentityNumber: "123456",
		Name:           "Carlos Pérez",
		Signature:      signaturePayload(),
	})
	s.Require().NoError(err)
	s.Equal("sess-2", a.SessionID)
}

func (s *RegistrarSuite) TestRegisterTokenErrorsPropagate() {
	s.resolver.err = session.ErrTokenExpired
	_, err := s.register("123456")
	s.Require().ErrorIs(err, session.ErrTokenExpired)
	s.Zero(s.objects.count())
}

func (s *RegistrarSuite) TestRegisterIdentityValidation() {
	for _, identity := range []string{"", "12345", "12345678901", "12A456"} {
		_, err := s.register(identity)
		s.Require().ErrorIs(err, ErrInvalidAsset, "identity %q", identity)
	}
}

func (s *RegistrarSuite) TestRegisterSignatureValidation() {
	cases := map[string]string{
		"empty":          "",
		"not base64":     "data:image/png;base64,!!!not-base64!!!",
		"malformed data": "data:image/png;base64",
	}
	for name, sig := range cases {
		_, err := s.svc.Register(s.ctx, RegisterInput{
			Token: "ABCD1234", IdentityNumber: "654321", Name: "X", Signature: sig,
		})
		s.Require().ErrorIs(err, ErrInvalidAsset, name)
	}
}

func (s *RegistrarSuite) TestRegisterRawBase64Accepted() {
	_, err := s.svc.Register(s.ctx, RegisterInput{
		Token: "ABCD1234", IdentityNumber: "654321", Name: "X",
		Signature: base64.StdEncoding.EncodeToString([]byte("raw-png")),
	})
	s.Require().NoError(err)
}

func (s *RegistrarSuite) TestRegisterSizeCap() {
	small := NewService(s.store.Attendees(), s.objects, s.resolver,
		fixedClock{now: time.Now()}, time.UTC, 4, zap.NewNop())

	_, err := small.Register(s.ctx, RegisterInput{
		Token: "ABCD1234", IdentityNumber: "654321", Name: "X",
		Signature: base64.StdEncoding.EncodeToString([]byte("way too large")),
	})
	s.Require().ErrorIs(err, ErrInvalidAsset)
}

// racingAttendees hides an existing record from the duplicate pre-check so
// the insert has to lose against the uniqueness constraint.
type racingAttendees struct {
	record.AttendeeStore
}

func (racingAttendees) FindByIdentityToken(context.Context, string, string) (*models.Attendee, error) {
	return nil, nil
}

func (s *RegistrarSuite) TestRegisterConflictBackstopCleansSignature() {
	s.Require().NoError(s.store.Attendees().Create(s.ctx, &models.Attendee{
		ID: "prior", SessionID: "sess-1", Token: "ABCD1234", IdentityNumber: "777777",
	}))

	racing := NewService(racingAttendees{s.store.Attendees()}, s.objects, s.resolver,
		fixedClock{now: time.Now()}, time.UTC, 1<<20, zap.NewNop())

	_, err := racing.Register(s.ctx, RegisterInput{
		Token: "ABCD1234", IdentityNumber: "777777", Name: "X",
		Signature: signaturePayload(),
	})
	s.Require().ErrorIs(err, ErrDuplicateRegistration)
	s.Zero(s.objects.count(), "orphaned signature removed after the lost race")
}

func (s *RegistrarSuite) TestRemoveBySessionDeletesSignatures() {
	_, err := s.register("123456")
	s.Require().NoError(err)
	_, err = s.register("654321")
	s.Require().NoError(err)
	s.Equal(2, s.objects.count())

	removed, err := s.svc.RemoveBySession(s.ctx, s.sess)
	s.Require().NoError(err)
	s.Equal(2, removed)
	s.Zero(s.objects.count())

	count, err := s.svc.CountBySession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Zero(count)
}

// rejectingNormalizer refuses every image.
type rejectingNormalizer struct{}

func (rejectingNormalizer) Normalize([]byte) ([]byte, error) {
	return nil, errors.New("unreadable raster")
}

func (s *RegistrarSuite) TestNormalizerFailureIsInvalidAsset() {
	s.svc.SetNormalizer(rejectingNormalizer{})
	_, err := s.register("123456")
	s.Require().ErrorIs(err, ErrInvalidAsset)
	s.Zero(s.objects.count())
}
