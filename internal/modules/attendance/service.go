package attendance

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/asistio/core/internal/models"
	"github.com/asistio/core/internal/pkg/clock"
	"github.com/asistio/core/internal/store/object"
	"github.com/asistio/core/internal/store/record"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var identityPattern = regexp.MustCompile(`^\d{6,10}$`)

// Service registers attendees against token-resolved sessions and cleans
// them up when a session is deleted. Registration timestamps are taken in
// the business reporting zone, not the server zone.
type Service struct {
	attendees  record.AttendeeStore
	objects    object.Store
	resolver   TokenResolver
	normalizer ImageNormalizer
	clock      clock.Clock
	location   *time.Location
	maxBytes   int
	log        *zap.Logger
}

func NewService(attendees record.AttendeeStore, objects object.Store, resolver TokenResolver, clk clock.Clock, location *time.Location, maxBytes int, log *zap.Logger) *Service {
	return &Service{
		attendees:  attendees,
		objects:    objects,
		resolver:   resolver,
		normalizer: noopNormalizer{},
		clock:      clk,
		location:   location,
		maxBytes:   maxBytes,
		log:        log,
	}
}

// SetNormalizer swaps in a signature post-processor.
func (s *Service) SetNormalizer(n ImageNormalizer) {
	if n != nil {
		s.normalizer = n
	}
}

// Register validates the token, decodes and normalizes the signature, then
// rejects duplicate identity numbers for the same token before the image is
// stored and the attendee record created. The store's uniqueness constraint
// backstops the duplicate pre-check, so two racing submissions cannot both
// land.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Attendee, error) {
	sess, err := s.resolver.Resolve(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	identity := strings.TrimSpace(in.IdentityNumber)
	if !identityPattern.MatchString(identity) {
		return nil, fmt.Errorf("%w: identity number must be 6 to 10 digits", ErrInvalidAsset)
	}

	png, err := s.decodeSignature(in.Signature)
	if err != nil {
		return nil, err
	}
	png, err = s.normalizer.Normalize(png)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	existing, err := s.attendees.FindByIdentityToken(ctx, identity, sess.Token)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateRegistration
	}

	ref, err := s.objects.SaveSignature(ctx, png, sess.OwnerID, sess.AssetFolder(), identity)
	if err != nil {
		return nil, fmt.Errorf("store signature: %w", err)
	}

	attendee := &models.Attendee{
		ID:              uuid.NewString(),
		SessionID:       sess.ID,
		Token:           sess.Token,
		IdentityNumber:  identity,
		Name:            strings.TrimSpace(in.Name),
		Role:            strings.TrimSpace(in.Role),
		Unit:            strings.TrimSpace(in.Unit),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		SignatureObject: ref,
		RegisteredAt:    s.clock.Now().In(s.location),
		SourceIP:        in.SourceIP,
	}

	if err := s.attendees.Create(ctx, attendee); err != nil {
		// A racing registration won the unique constraint. The stored
		// signature is now orphaned, so take it back out.
		if !s.objects.DeleteSignature(ctx, ref) {
			s.log.Warn("orphaned signature left behind after registration race",
				zap.String("ref", ref))
		}
		if errors.Is(err, record.ErrConflict) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}

	return attendee, nil
}

// ListBySession returns the registrations for one session.
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]models.Attendee, error) {
	return s.attendees.ListBySession(ctx, sessionID)
}

// CountBySession returns how many attendees a session has.
func (s *Service) CountBySession(ctx context.Context, sessionID string) (int, error) {
	return s.attendees.CountBySession(ctx, sessionID)
}

// RemoveBySession deletes a session's attendee records and their signature
// objects, returning how many records went away. Missing signature objects
// are logged, not fatal.
func (s *Service) RemoveBySession(ctx context.Context, sess *models.TrainingSession) (int, error) {
	attendees, err := s.attendees.ListBySession(ctx, sess.ID)
	if err != nil {
		return 0, err
	}
	for _, a := range attendees {
		if a.SignatureObject == "" {
			continue
		}
		if !s.objects.DeleteSignature(ctx, a.SignatureObject) {
			s.log.Warn("signature object delete failed",
				zap.String("session_id", sess.ID), zap.String("ref", a.SignatureObject))
		}
	}
	return s.attendees.DeleteBySession(ctx, sess.ID)
}

// decodeSignature accepts either a data URL or raw base64 and enforces the
// configured size cap on the decoded bytes.
func (s *Service) decodeSignature(raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: signature is required", ErrInvalidAsset)
	}
	if strings.HasPrefix(payload, "data:") {
		_, after, found := strings.Cut(payload, ",")
		if !found {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidAsset)
		}
		payload = after
	}

	png, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64", ErrInvalidAsset)
	}
	if len(png) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidAsset)
	}
	if len(png) > s.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidAsset, s.maxBytes)
	}
	return png, nil
}
