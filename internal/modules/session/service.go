package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asistio/core/internal/models"
	"github.com/asistio/core/internal/pkg/clock"
	"github.com/asistio/core/internal/pkg/qr"
	"github.com/asistio/core/internal/store/object"
	"github.com/asistio/core/internal/store/record"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenLength = 8

// tokenAttempts bounds the collision-retry loop on issue. An 8-hex token
// space holds ~4.3e9 values, so a second collision in a row means something
// is wrong with the backend, not with luck.
const tokenAttempts = 5

// Service owns the session lifecycle: issuance, the token validation state
// machine, ownership checks, and the cascade that removes a session together
// with its registrations and stored assets.
type Service struct {
	sessions  record.SessionStore
	objects   object.Store
	encoder   qr.Encoder
	clock     clock.Clock
	baseURL   string
	expiry    time.Duration
	attendees AttendeeRemover
	log       *zap.Logger
}

// NewService wires the session service. The attendee remover is attached
// later via SetAttendeeRemover because the registrar is constructed after
// this service.
func NewService(sessions record.SessionStore, objects object.Store, encoder qr.Encoder, clk clock.Clock, baseURL string, expiry time.Duration, log *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		objects:  objects,
		encoder:  encoder,
		clock:    clk,
		baseURL:  strings.TrimRight(baseURL, "/"),
		expiry:   expiry,
		log:      log,
	}
}

// SetAttendeeRemover attaches the registrar used by the delete cascade and
// by listings for attendee counts.
func (s *Service) SetAttendeeRemover(r AttendeeRemover) { s.attendees = r }

// Issue creates a session owned by ownerID. The token is an 8-character
// uppercase hex draw, retried on collision against the store's unique token
// constraint. The QR image is rendered and stored after the record exists so
// a token collision never leaves an orphaned asset behind.
func (s *Service) Issue(ctx context.Context, in CreateInput, ownerID string) (*models.TrainingSession, error) {
	now := s.clock.Now()
	sess := &models.TrainingSession{
		ID:           uuid.NewString(),
		Topic:        in.Topic,
		Date:         in.Date,
		ActivityType: in.ActivityType,
		Facilitator:  in.Facilitator,
		Responsible:  in.Responsible,
		Role:         in.Role,
		Content:      in.Content,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		TokenExpiry:  now.Add(s.expiry),
		TokenActive:  true,
		OwnerID:      ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var created bool
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		sess.Token = newToken()
		sess.Link = s.registrationLink(sess.Token)
		err := s.sessions.Create(ctx, sess)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, record.ErrConflict) {
			s.log.Warn("session token collision, regenerating",
				zap.String("session_id", sess.ID), zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: token generation exhausted %d attempts", record.ErrConflict, tokenAttempts)
	}

	png, err := s.encoder.Encode(sess.Link)
	if err == nil {
		var ref string
		ref, err = s.objects.SaveQR(ctx, png, sess.OwnerID, sess.AssetFolder())
		if err == nil {
			sess.QRObject = ref
			err = s.sessions.Replace(ctx, sess)
		}
	}
	if err != nil {
		// The session must not exist half-issued: undo the record.
		if _, delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			s.log.Error("rollback of half-issued session failed",
				zap.String("session_id", sess.ID), zap.Error(delErr))
		}
		if sess.QRObject != "" {
			s.objects.DeleteQR(ctx, sess.QRObject)
		}
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return sess, nil
}

// Resolve validates a token and returns its session. The check order is
// fixed: existence, then active flag, then expiry.
func (s *Service) Resolve(ctx context.Context, token string) (*models.TrainingSession, error) {
	sess, err := s.sessions.GetByToken(ctx, NormalizeToken(token))
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrTokenNotFound
	}
	if !sess.TokenActive {
		return nil, ErrTokenInactive
	}
	if s.clock.Now().After(sess.TokenExpiry) {
		return nil, ErrTokenExpired
	}
	return sess, nil
}

// Get returns a session with its attendee count.
func (s *Service) Get(ctx context.Context, id string) (*WithCount, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	count, err := s.attendees.CountBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return &WithCount{TrainingSession: *sess, TotalAttendees: count}, nil
}

// List returns sessions newest first with attendee counts, optionally
// restricted to one owner.
func (s *Service) List(ctx context.Context, ownerID string) ([]WithCount, error) {
	sessions, err := s.sessions.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]WithCount, 0, len(sessions))
	for i := range sessions {
		count, err := s.attendees.CountBySession(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, WithCount{TrainingSession: sessions[i], TotalAttendees: count})
	}
	return out, nil
}

// Update applies a merge-patch after the ownership check. Derived fields
// (token, link, expiry, QR) are never recomputed here.
func (s *Service) Update(ctx context.Context, id string, patch UpdateInput, requesterID string) (*models.TrainingSession, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if sess.OwnerID != "" && sess.OwnerID != requesterID {
		return nil, ErrForbidden
	}

	applyPatch(sess, patch)
	sess.UpdatedAt = s.clock.Now()
	if err := s.sessions.Replace(ctx, sess); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// Delete removes a session and everything hanging off it: attendee records
// with their signature images, the QR image, any leftover objects under the
// session's storage prefix, and finally the record itself. Children already
// gone are treated as removed, so a partially failed delete can be retried.
func (s *Service) Delete(ctx context.Context, id string, requesterID string) error {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotFound
	}
	if sess.OwnerID != "" && sess.OwnerID != requesterID {
		return ErrForbidden
	}
	return s.cascade(ctx, sess)
}

// cascade performs the child-first teardown for a session already cleared by
// the ownership check.
func (s *Service) cascade(ctx context.Context, sess *models.TrainingSession) error {
	if err := s.removeAttendees(ctx, sess); err != nil {
		// Attendee cleanup failure is recorded but does not block removal of
		// the session itself; leftover attendee records are unreachable once
		// the session is gone and a retry sweeps them.
		s.log.Warn("attendee cleanup failed during session delete",
			zap.String("session_id", sess.ID), zap.Error(err))
	}
	return s.removeSessionRecord(ctx, sess)
}

// removeAttendees deletes the session's registrations and their signature
// objects.
func (s *Service) removeAttendees(ctx context.Context, sess *models.TrainingSession) error {
	_, err := s.attendees.RemoveBySession(ctx, sess)
	return err
}

// removeSessionRecord deletes the session's stored assets and then the
// record itself. A record already gone counts as removed so retried
// cascades stay idempotent.
func (s *Service) removeSessionRecord(ctx context.Context, sess *models.TrainingSession) error {
	if sess.QRObject != "" && !s.objects.DeleteQR(ctx, sess.QRObject) {
		s.log.Warn("qr object delete failed", zap.String("session_id", sess.ID), zap.String("ref", sess.QRObject))
	}
	if !s.objects.DeleteSessionAssets(ctx, sess.OwnerID, sess.AssetFolder()) {
		s.log.Warn("session asset sweep failed", zap.String("session_id", sess.ID))
	}

	removed, err := s.sessions.Delete(ctx, sess.ID)
	if err != nil {
		return err
	}
	if !removed {
		// Already gone: a concurrent or retried cascade beat us to it.
		s.log.Info("session record already absent at final delete", zap.String("session_id", sess.ID))
	}
	return nil
}

func applyPatch(sess *models.TrainingSession, patch UpdateInput) {
	if patch.Topic != nil {
		sess.Topic = *patch.Topic
	}
	if patch.Date != nil {
		sess.Date = *patch.Date
	}
	if patch.ActivityType != nil {
		sess.ActivityType = *patch.ActivityType
	}
	if patch.Facilitator != nil {
		sess.Facilitator = *patch.Facilitator
	}
	if patch.Responsible != nil {
		sess.Responsible = *patch.Responsible
	}
	if patch.Role != nil {
		sess.Role = *patch.Role
	}
	if patch.Content != nil {
		sess.Content = *patch.Content
	}
	if patch.StartTime != nil {
		sess.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		sess.EndTime = *patch.EndTime
	}
	if patch.TokenActive != nil {
		sess.TokenActive = *patch.TokenActive
	}
}

func (s *Service) registrationLink(token string) string {
	return s.baseURL + "/registro?token=" + token
}

// NormalizeToken upper-cases a token so lookups are case-insensitive.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// newToken draws 8 uppercase hex characters from a fresh UUID.
func newToken() string {
	hexed := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hexed[:tokenLength])
}
