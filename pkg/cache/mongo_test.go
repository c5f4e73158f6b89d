package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeMongoColl implements mongoCollection in memory. With fail set,
// every operation reports a broken connection.
type fakeMongoColl struct {
	docs map[string]mongoEntry
	fail bool
}

func (f *fakeMongoColl) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	if f.fail {
		return mongo.NewSingleResultFromDocument(bson.D{}, errors.New("socket closed"), nil)
	}
	entry, ok := f.docs[filter.(bson.M)["_id"].(string)]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(entry, nil, nil)
}

func (f *fakeMongoColl) ReplaceOne(_ context.Context, _, replacement interface{}, _ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if f.fail {
		return nil, errors.New("socket closed")
	}
	entry := replacement.(mongoEntry)
	f.docs[entry.Key] = entry
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func (f *fakeMongoColl) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if f.fail {
		return nil, errors.New("socket closed")
	}
	delete(f.docs, filter.(bson.M)["_id"].(string))
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func newFakeMongoCache(fail bool) (*MongoCache, *fakeMongoColl) {
	coll := &fakeMongoColl{docs: make(map[string]mongoEntry), fail: fail}
	return &MongoCache{coll: coll}, coll
}

func TestMongoCacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newFakeMongoCache(false)

	if err := c.Set(ctx, "k", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !hit {
		t.Fatal("Get() should hit after Set()")
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want %q", data, "value")
	}
}

func TestMongoCacheMiss(t *testing.T) {
	c, _ := newFakeMongoCache(false)

	data, hit, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() on missing key should not error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = (%q, %v), want miss", data, hit)
	}
}

func TestMongoCacheZeroTTL(t *testing.T) {
	ctx := context.Background()
	c, coll := newFakeMongoCache(false)

	if err := c.Set(ctx, "k", []byte("value"), 0); err != nil {
		t.Fatal(err)
	}
	if !coll.docs["k"].ExpiresAt.IsZero() {
		t.Error("zero TTL should store without expiry")
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry without expiry should stay retrievable")
	}
}

func TestMongoCacheExpiredEntry(t *testing.T) {
	ctx := context.Background()
	c, coll := newFakeMongoCache(false)

	// The TTL index reaps lazily; an expired document may still be
	// present and must read as a miss.
	coll.docs["k"] = mongoEntry{
		Key:       "k",
		Data:      []byte("stale"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get() = (%q, %v), want miss for expired entry", data, hit)
	}
	if _, ok := coll.docs["k"]; ok {
		t.Error("expired entry should be deleted on read")
	}
}

func TestMongoCacheBackendError(t *testing.T) {
	// A cancelled context stops the retry loop after the first attempt,
	// so the backend failure surfaces without waiting out the backoff.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := newFakeMongoCache(true)

	_, hit, err := c.Get(ctx, "k")
	if err == nil {
		t.Fatal("Get() should surface a backend failure")
	}
	if !errors.Is(err, ErrBackend) {
		t.Errorf("Get() error = %v, want ErrBackend", err)
	}
	if hit {
		t.Error("Get() must not report a hit on backend failure")
	}

	if err := c.Set(ctx, "k", []byte("value"), 0); !errors.Is(err, ErrBackend) {
		t.Errorf("Set() error = %v, want ErrBackend", err)
	}
}
