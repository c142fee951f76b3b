package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"clio/internal/domain"
)

// MongoGateway stores each entity kind in its own collection, keyed by
// _id = entity ID. Commit is one ordered BulkWrite per collection, so it is
// atomic per collection only.
type MongoGateway struct {
	client *mongo.Client
	db     *mongo.Database

	mu      sync.Mutex
	pending []mongoOp
}

type mongoOp struct {
	collection string
	model      mongo.WriteModel
}

var _ domain.Gateway = (*MongoGateway)(nil)

var collectionFor = map[domain.EntityKind]string{
	domain.KindWorkspace: "workspaces",
	domain.KindFolder:    "folders",
	domain.KindPage:      "pages",
	domain.KindBlock:     "blocks",
}

// collection write order: owners before children on upsert
var collectionOrder = []string{"workspaces", "folders", "pages", "blocks"}

// OpenMongo connects to uri and uses database dbName.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoGateway, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoGateway{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the client.
func (g *MongoGateway) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}

func (g *MongoGateway) Insert(e domain.Entity) { g.upsert(e) }

func (g *MongoGateway) Update(e domain.Entity) { g.upsert(e) }

func (g *MongoGateway) Delete(e domain.Entity) {
	model := mongo.NewDeleteOneModel().SetFilter(bson.D{{Key: "_id", Value: e.EntityID()}})
	g.append(e.Kind(), model)
}

func (g *MongoGateway) upsert(e domain.Entity) {
	// Marshal now so later edits to e do not reach this write.
	raw, err := bson.Marshal(e)
	if err != nil {
		panic(fmt.Sprintf("storage: marshal %s %s: %v", e.Kind(), e.EntityID(), err))
	}
	model := mongo.NewReplaceOneModel().
		SetFilter(bson.D{{Key: "_id", Value: e.EntityID()}}).
		SetReplacement(bson.Raw(raw)).
		SetUpsert(true)
	g.append(e.Kind(), model)
}

func (g *MongoGateway) append(kind domain.EntityKind, model mongo.WriteModel) {
	g.mu.Lock()
	g.pending = append(g.pending, mongoOp{collection: collectionFor[kind], model: model})
	g.mu.Unlock()
}

// Commit flushes pending writes. The pending set is cleared either way.
func (g *MongoGateway) Commit(ctx context.Context) error {
	g.mu.Lock()
	ops := g.pending
	g.pending = nil
	g.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	grouped := make(map[string][]mongo.WriteModel)
	for _, op := range ops {
		grouped[op.collection] = append(grouped[op.collection], op.model)
	}
	for _, name := range collectionOrder {
		models := grouped[name]
		if len(models) == 0 {
			continue
		}
		if _, err := g.db.Collection(name).BulkWrite(ctx, models); err != nil {
			return fmt.Errorf("bulk write %s: %w", name, err)
		}
	}
	return nil
}

// Load reads every collection into a snapshot.
func (g *MongoGateway) Load(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := g.findAll(ctx, "workspaces", &snap.Workspaces); err != nil {
		return nil, err
	}
	if err := g.findAll(ctx, "folders", &snap.Folders); err != nil {
		return nil, err
	}
	if err := g.findAll(ctx, "pages", &snap.Pages); err != nil {
		return nil, err
	}
	if err := g.findAll(ctx, "blocks", &snap.Blocks); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (g *MongoGateway) findAll(ctx context.Context, collection string, out any) error {
	cursor, err := g.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}
