package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoIDField     = "_id"
	mongoParentField = "_parent"
)

// MongoStore maps the document tree onto MongoDB. Every collection chain
// (users/*/ownEvents) becomes one Mongo collection ("users.ownEvents"); the full
// path is the _id and the parent collection path is kept in _parent.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database

	indexed sync.Map
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string) (*MongoStore, error) {
	opts := options.Client().ApplyURI(mongoURI)
	if strings.HasPrefix(mongoURI, "mongodb+srv://") {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) collection(ctx context.Context, path string) *mongo.Collection {
	name := collectionOf(path)
	col := s.db.Collection(name)
	if _, loaded := s.indexed.LoadOrStore(name, struct{}{}); !loaded {
		// Best-effort index.
		_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: mongoParentField, Value: 1}},
		})
	}
	return col
}

func (s *MongoStore) Get(ctx context.Context, path string) (*Document, error) {
	_, id, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	err = s.collection(ctx, path).FindOne(ctx, bson.M{mongoIDField: path}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Path: path, Data: fromBSON(raw)}, nil
}

func (s *MongoStore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	parent, _, err := splitDocPath(path)
	if err != nil {
		return err
	}
	col := s.collection(ctx, path)
	filter := bson.M{mongoIDField: path}

	if !merge {
		doc := toBSON(data, path, parent)
		_, err = col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
		return err
	}

	set := bson.M{mongoParentField: parent}
	flatten("", data, set)
	_, err = col.UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) Create(ctx context.Context, path string, data map[string]any) error {
	parent, _, err := splitDocPath(path)
	if err != nil {
		return err
	}
	_, err = s.collection(ctx, path).InsertOne(ctx, toBSON(data, path, parent))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	return err
}

func (s *MongoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := checkCollectionPath(collection); err != nil {
		return "", err
	}
	id := uuid.NewString()
	path := collection + "/" + id
	if _, err := s.collection(ctx, path).InsertOne(ctx, toBSON(data, path, collection)); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) UpdateIf(ctx context.Context, path string, conds []Filter, data map[string]any) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	col := s.collection(ctx, path)

	filter := bson.M{mongoIDField: path}
	for _, c := range conds {
		filter[c.Field] = c.Value
	}
	set := bson.M{}
	flatten("", data, set)

	res, err := col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := col.CountDocuments(ctx, bson.M{mongoIDField: path})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("%w: %s", ErrConditionFailed, path)
}

func (s *MongoStore) Delete(ctx context.Context, path string) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	_, err := s.collection(ctx, path).DeleteOne(ctx, bson.M{mongoIDField: path})
	return err
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := checkCollectionPath(collection); err != nil {
		return nil, err
	}
	// any child path resolves to the same Mongo collection
	col := s.collection(ctx, collection+"/_")

	filter := bson.M{mongoParentField: collection}
	for _, f := range q.Where {
		filter[f.Field] = f.Value
	}
	opts := options.Find()
	if q.OrderBy != "" {
		if _, ok := filter[q.OrderBy]; !ok {
			filter[q.OrderBy] = bson.M{"$exists": true}
		}
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: mongoIDField, Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		path, _ := raw[mongoIDField].(string)
		out = append(out, &Document{
			ID:   path[strings.LastIndex(path, "/")+1:],
			Path: path,
			Data: fromBSON(raw),
		})
	}
	return out, cur.Err()
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toBSON(data map[string]any, path, parent string) bson.M {
	doc := bson.M{mongoIDField: path, mongoParentField: parent}
	for k, v := range data {
		doc[k] = v
	}
	return doc
}

// flatten turns nested maps into dotted $set keys so merges only touch leaves.
func flatten(prefix string, data map[string]any, out bson.M) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

func fromBSON(raw bson.M) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == mongoIDField || k == mongoParentField {
			continue
		}
		out[k] = normalizeBSON(v)
	}
	return out
}

func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalizeBSON(e)
		}
		return m
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeBSON(e.Value)
		}
		return m
	case primitive.A:
		a := make([]any, len(t))
		for i, e := range t {
			a[i] = normalizeBSON(e)
		}
		return a
	}
	return v
}
