package students

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fakeCollection keeps documents by email and enforces the unique email
// index the real collection has.
type fakeCollection struct {
	mu   sync.Mutex
	docs map[string]studentDoc

	// missFinds makes the next n FindOne calls report no document.
	missFinds int
	// raceInsert stores this document just before the next InsertOne, as a
	// concurrent sign-in would.
	raceInsert *studentDoc
	inserted   []any
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: map[string]studentDoc{}}
}

func (f *fakeCollection) InsertOne(_ context.Context, doc any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, doc)
	if f.raceInsert != nil {
		f.docs[f.raceInsert.Email] = *f.raceInsert
		f.raceInsert = nil
	}
	d := doc.(studentDoc)
	if _, ok := f.docs[d.Email]; ok {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
	}
	f.docs[d.Email] = d
	return &mongo.InsertOneResult{InsertedID: d.ID, Acknowledged: true}, nil
}

func (f *fakeCollection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, _ := filter.(bson.M)["email"].(string)
	d, ok := f.docs[email]
	if f.missFinds > 0 {
		f.missFinds--
		ok = false
	}
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(d, nil, nil)
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter, update any, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, _ := filter.(bson.M)["email"].(string)
	d, ok := f.docs[email]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	for k, v := range update.(bson.M)["$set"].(bson.M) {
		switch k {
		case "password":
			d.PasswordHash = v.(string)
		case "password_reset_date":
			ts := v.(time.Time)
			d.PasswordResetDate = &ts
		case "course":
			d.Course = v.(string)
		case "name":
			d.Name = v.(string)
		}
	}
	f.docs[email] = d
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func TestMongoStore_CreateStoresObjectID(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	st := newMongoStore(coll)

	s, err := st.Create(ctx, Student{Email: " Ada@Example.com", Provider: ProviderPassword, IsActive: true})
	require.NoError(t, err)

	require.Len(t, coll.inserted, 1)
	doc := coll.inserted[0].(studentDoc)
	assert.False(t, doc.ID.IsZero())
	assert.Equal(t, doc.ID.Hex(), s.ID)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.Equal(t, PlacementNotApplied, s.JobPlacementStatus)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var stored bson.M
	require.NoError(t, bson.Unmarshal(raw, &stored))
	assert.IsType(t, bson.ObjectID{}, stored["_id"])
	assert.Equal(t, "ada@example.com", stored["email"])

	got, err := st.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.True(t, got.IsActive)
}

func TestMongoStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st := newMongoStore(newFakeCollection())

	_, err := st.Create(ctx, Student{Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = st.Create(ctx, Student{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = st.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoStore_SetPassword(t *testing.T) {
	ctx := context.Background()
	st := newMongoStore(newFakeCollection())
	_, err := st.Create(ctx, Student{Email: "ada@example.com"})
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.SetPassword(ctx, "ada@example.com", "hash", &at))
	got, err := st.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	require.NotNil(t, got.PasswordResetDate)
	assert.True(t, at.Equal(*got.PasswordResetDate))

	assert.ErrorIs(t, st.SetPassword(ctx, "nobody@example.com", "x", nil), ErrNotFound)
}

func TestMongoStore_UpsertGoogleFillsBlanks(t *testing.T) {
	ctx := context.Background()
	st := newMongoStore(newFakeCollection())
	created, err := st.Create(ctx, Student{Email: "ada@example.com", Course: "React"})
	require.NoError(t, err)

	got, err := st.UpsertGoogle(ctx, "ada@example.com", "Ada", "Flutter")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "React", got.Course)
	assert.Equal(t, "Ada", got.Name)

	fresh, err := st.UpsertGoogle(ctx, "grace@example.com", "Grace", "Django")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, fresh.Provider)
	assert.True(t, fresh.IsActive)
}

func TestMongoStore_UpsertGoogleLostRace(t *testing.T) {
	ctx := context.Background()
	coll := newFakeCollection()
	st := newMongoStore(coll)

	winner := studentDoc{ID: bson.NewObjectID(), Student: Student{
		Email:    "ada@example.com",
		Name:     "Ada",
		Provider: ProviderGoogle,
		IsActive: true,
	}}
	coll.missFinds = 1
	coll.raceInsert = &winner

	got, err := st.UpsertGoogle(ctx, "ada@example.com", "Ada L", "React")
	require.NoError(t, err)
	assert.Equal(t, winner.ID.Hex(), got.ID)
	assert.Equal(t, "Ada", got.Name)
}

func TestMongoStore_FindWrapsDriverErrors(t *testing.T) {
	st := newMongoStore(errCollection{err: errors.New("connection reset")})
	_, err := st.FindByEmail(context.Background(), "ada@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "find student")
}

type errCollection struct{ err error }

func (c errCollection) InsertOne(context.Context, any, ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	return nil, c.err
}

func (c errCollection) FindOne(context.Context, any, ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, c.err, nil)
}

func (c errCollection) UpdateOne(context.Context, any, any, ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	return nil, c.err
}
