package students

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// collection is the part of *mongo.Collection the store uses.
type collection interface {
	InsertOne(ctx context.Context, doc any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
}

// studentDoc is the stored shape: Student fields plus the ObjectID key.
type studentDoc struct {
	ID      bson.ObjectID `bson:"_id"`
	Student `bson:",inline"`
}

func (d studentDoc) student() Student {
	s := d.Student
	s.ID = d.ID.Hex()
	return s
}

type MongoStore struct {
	coll collection
	now  func() time.Time
}

// Connect dials uri, pings it and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// NewMongoStore wraps coll and ensures the unique email index.
func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure email index: %w", err)
	}
	return newMongoStore(coll), nil
}

func newMongoStore(coll collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

func (m *MongoStore) Create(ctx context.Context, s Student) (Student, error) {
	s.Email = NormalizeEmail(s.Email)
	if s.SignupDate.IsZero() {
		s.SignupDate = m.now().UTC()
	}
	if s.JobPlacementStatus == "" {
		s.JobPlacementStatus = PlacementNotApplied
	}
	doc := studentDoc{ID: bson.NewObjectID(), Student: s}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Student{}, ErrDuplicate
		}
		return Student{}, fmt.Errorf("insert student: %w", err)
	}
	return doc.student(), nil
}

func (m *MongoStore) FindByEmail(ctx context.Context, email string) (Student, error) {
	var d studentDoc
	err := m.coll.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Student{}, ErrNotFound
	}
	if err != nil {
		return Student{}, fmt.Errorf("find student: %w", err)
	}
	return d.student(), nil
}

func (m *MongoStore) SetPassword(ctx context.Context, email, hash string, resetAt *time.Time) error {
	set := bson.M{"password": hash}
	if resetAt != nil {
		set["password_reset_date"] = resetAt.UTC()
	}
	res, err := m.coll.UpdateOne(ctx, bson.M{"email": NormalizeEmail(email)}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertGoogle returns the student for email, creating an active Google
// account when none exists. An existing course is only filled when empty.
func (m *MongoStore) UpsertGoogle(ctx context.Context, email, name, course string) (Student, error) {
	email = NormalizeEmail(email)
	existing, err := m.FindByEmail(ctx, email)
	switch {
	case err == nil:
		set := bson.M{}
		if existing.Course == "" && course != "" {
			set["course"] = course
			existing.Course = course
		}
		if existing.Name == "" && name != "" {
			set["name"] = name
			existing.Name = name
		}
		if len(set) > 0 {
			if _, err := m.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set}); err != nil {
				return Student{}, fmt.Errorf("update google student: %w", err)
			}
		}
		return existing, nil
	case errors.Is(err, ErrNotFound):
		s, err := m.Create(ctx, Student{
			Email:    email,
			Name:     name,
			Course:   course,
			Provider: ProviderGoogle,
			IsActive: true,
		})
		if errors.Is(err, ErrDuplicate) {
			// lost a race with a concurrent sign-in
			return m.FindByEmail(ctx, email)
		}
		return s, err
	default:
		return Student{}, err
	}
}
