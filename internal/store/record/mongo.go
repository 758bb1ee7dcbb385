package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asistio/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionsCollection  = "sessions"
	attendeesCollection = "attendees"
	usersCollection     = "users"
)

// MongoStore maps each record kind onto its own collection. Sessions and
// users are keyed by _id for point lookups; attendees carry session_id so
// per-session listings stay on one partition while duplicate lookups by
// (identity_number, token) fan out. Unique indexes on the session token and
// on the attendee identity pair push both uniqueness invariants into the
// backend, closing the application-level check-then-insert window.
type MongoStore struct {
	db *mongo.Database
}

// ConnectMongo opens a client, verifies connectivity, and ensures indexes.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	store := &MongoStore{db: client.Database(dbName)}
	if err := store.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// NewMongoStore wraps an existing database handle (tests, custom clients).
func NewMongoStore(db *mongo.Database) *MongoStore { return &MongoStore{db: db} }

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: session token index: %v", ErrUnavailable, err)
	}
	_, err = m.db.Collection(attendeesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identity_number", Value: 1}, {Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: attendee indexes: %v", ErrUnavailable, err)
	}
	return nil
}

func (m *MongoStore) Sessions() SessionStore   { return &mongoSessions{c: m.db.Collection(sessionsCollection)} }
func (m *MongoStore) Attendees() AttendeeStore { return &mongoAttendees{c: m.db.Collection(attendeesCollection)} }
func (m *MongoStore) Users() UserStore         { return &mongoUsers{c: m.db.Collection(usersCollection)} }

// translate maps driver failures onto the store error taxonomy.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrConflict, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func decodeOne[T any](res *mongo.SingleResult, op string) (*T, error) {
	var out T
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate(op, err)
	}
	return &out, nil
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, err error, op string) ([]T, error) {
	if err != nil {
		return nil, translate(op, err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(op, err)
	}
	return out, nil
}

type mongoSessions struct{ c *mongo.Collection }

func (m *mongoSessions) Create(ctx context.Context, s *models.TrainingSession) error {
	_, err := m.c.InsertOne(ctx, s)
	return translate("create session", err)
}

func (m *mongoSessions) Get(ctx context.Context, id string) (*models.TrainingSession, error) {
	return decodeOne[models.TrainingSession](m.c.FindOne(ctx, bson.M{"_id": id}), "get session")
}

func (m *mongoSessions) GetByToken(ctx context.Context, token string) (*models.TrainingSession, error) {
	return decodeOne[models.TrainingSession](m.c.FindOne(ctx, bson.M{"token": token}), "get session by token")
}

func (m *mongoSessions) List(ctx context.Context, ownerID string) ([]models.TrainingSession, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}
	cur, err := m.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	return decodeAll[models.TrainingSession](ctx, cur, err, "list sessions")
}

func (m *mongoSessions) Replace(ctx context.Context, s *models.TrainingSession) error {
	res, err := m.c.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return translate("replace session", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoSessions) Delete(ctx context.Context, id string) (bool, error) {
	res, err := m.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, translate("delete session", err)
	}
	return res.DeletedCount > 0, nil
}

type mongoAttendees struct{ c *mongo.Collection }

func (m *mongoAttendees) Create(ctx context.Context, a *models.Attendee) error {
	_, err := m.c.InsertOne(ctx, a)
	return translate("create attendee", err)
}

func (m *mongoAttendees) ListBySession(ctx context.Context, sessionID string) ([]models.Attendee, error) {
	cur, err := m.c.Find(ctx, bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "registered_at", Value: 1}}))
	return decodeAll[models.Attendee](ctx, cur, err, "list attendees")
}

func (m *mongoAttendees) CountBySession(ctx context.Context, sessionID string) (int, error) {
	n, err := m.c.CountDocuments(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, translate("count attendees", err)
	}
	return int(n), nil
}

func (m *mongoAttendees) FindByIdentityToken(ctx context.Context, identityNumber, token string) (*models.Attendee, error) {
	filter := bson.M{"identity_number": identityNumber, "token": token}
	return decodeOne[models.Attendee](m.c.FindOne(ctx, filter), "find attendee by identity")
}

func (m *mongoAttendees) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	res, err := m.c.DeleteMany(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, translate("delete attendees", err)
	}
	return int(res.DeletedCount), nil
}

type mongoUsers struct{ c *mongo.Collection }

func (m *mongoUsers) Create(ctx context.Context, u *models.PlatformUser) error {
	_, err := m.c.InsertOne(ctx, u)
	return translate("create user", err)
}

func (m *mongoUsers) Get(ctx context.Context, id string) (*models.PlatformUser, error) {
	return decodeOne[models.PlatformUser](m.c.FindOne(ctx, bson.M{"_id": id}), "get user")
}

func (m *mongoUsers) List(ctx context.Context) ([]models.PlatformUser, error) {
	cur, err := m.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}}))
	return decodeAll[models.PlatformUser](ctx, cur, err, "list users")
}

func (m *mongoUsers) Replace(ctx context.Context, u *models.PlatformUser) error {
	res, err := m.c.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate("replace user", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoUsers) Delete(ctx context.Context, id string) (bool, error) {
	res, err := m.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, translate("delete user", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *mongoUsers) AdjustFormsCreated(ctx context.Context, id string, delta int) error {
	res, err := m.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"forms_created": delta}})
	if err != nil {
		return translate("adjust forms counter", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	// Clamp in case repeated compensations ran the counter below zero.
	_, _ = m.c.UpdateOne(ctx,
		bson.M{"_id": id, "forms_created": bson.M{"$lt": 0}},
		bson.M{"$set": bson.M{"forms_created": 0}})
	return nil
}
