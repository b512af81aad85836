package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	originKey       = "_origin"
	updatedKey      = "_updatedAt"
	stampsKey       = "_stamps"

	connectTimeout = 10 * time.Second
)

// Mongo is a Store backed by a "users" collection, one document per user
// keyed by _id. Each write also sets _stamps.<field> to its origin and a
// nanosecond version. Watch needs a replica set for change streams.
type Mongo struct {
	client *mongo.Client
	users  *mongo.Collection
}

// OpenMongo connects to uri and uses database dbName.
func OpenMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Mongo{
		client: client,
		users:  client.Database(dbName).Collection(usersCollection),
	}, nil
}

func (m *Mongo) Load(ctx context.Context, userID string) (Document, error) {
	var raw bson.M
	err := m.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return documentFromBSON(raw)
}

func (m *Mongo) Save(ctx context.Context, userID string, field Field, value any, origin string) error {
	v, err := bsonValue(field, value)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	stampPath := stampsKey + "." + string(field)
	update := bson.M{"$set": bson.M{
		string(field): v,
		stampPath:     bson.M{"origin": origin, "version": now.UnixNano()},
		originKey:     origin,
		updatedKey:    now,
	}}
	_, err = m.users.UpdateOne(ctx, bson.M{"_id": userID}, update,
		options.Update().SetUpsert(true))
	return err
}

func (m *Mongo) Watch(ctx context.Context, userID string, fn func(Snapshot)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": userID}}},
	}
	stream, err := m.users.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return fmt.Errorf("change stream: %w", err)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event struct {
			FullDocument bson.M `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			return err
		}
		if event.FullDocument == nil {
			continue
		}
		doc, err := documentFromBSON(event.FullDocument)
		if err != nil {
			return err
		}
		fn(Snapshot{Document: doc, Stamps: stampsFromBSON(event.FullDocument)})
	}
	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// bsonValue converts value to the generic maps and slices the driver
// encodes, so stored keys follow the JSON field names.
func bsonValue(field Field, value any) (any, error) {
	if _, err := (&Document{}).Value(field); err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func documentFromBSON(raw bson.M) (Document, error) {
	var doc Document
	for _, f := range Fields {
		v, ok := raw[string(f)]
		if !ok || v == nil {
			continue
		}
		data, err := json.Marshal(plain(v))
		if err != nil {
			return Document{}, fmt.Errorf("encode %s: %w", f, err)
		}
		if err := doc.SetJSON(f, data); err != nil {
			return Document{}, fmt.Errorf("decode %s: %w", f, err)
		}
	}
	return doc, nil
}

// stampsFromBSON reads _stamps. Documents written before stamps existed
// fall back to the document-wide _origin for every present field.
func stampsFromBSON(raw bson.M) map[Field]Stamp {
	stamps := make(map[Field]Stamp)
	byField, _ := plain(raw[stampsKey]).(map[string]any)
	fallback, _ := raw[originKey].(string)
	for _, f := range Fields {
		if entry, ok := byField[string(f)].(map[string]any); ok {
			origin, _ := entry["origin"].(string)
			stamps[f] = Stamp{Origin: origin, Version: asInt64(entry["version"])}
			continue
		}
		if v, ok := raw[string(f)]; ok && v != nil {
			stamps[f] = Stamp{Origin: fallback}
		}
	}
	return stamps
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// plain turns decoded BSON into maps and slices encoding/json understands.
func plain(v any) any {
	switch x := v.(type) {
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = plain(e)
		}
		return m
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// Verify Mongo implements Store at compile time.
var _ Store = (*Mongo)(nil)
