package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

const (
	defaultMongoDatabase = "simpg"
	mongoCollection      = "walks"
)

// walkDocument is the MongoDB form of one record. Nodes are stored as
// "s12+" strings so documents stay readable in the shell.
type walkDocument struct {
	Run     string   `bson:"run"`
	Seq     int64    `bson:"seq"`
	Sample  string   `bson:"sample"`
	Missing bool     `bson:"missing,omitempty"`
	Nodes   []string `bson:"nodes"`
}

func toDocument(run string, seq int64, sample string, walk pangraph.Walk) walkDocument {
	doc := walkDocument{Run: run, Seq: seq, Sample: sample, Missing: walk == nil, Nodes: make([]string, len(walk))}
	for i, n := range walk {
		doc.Nodes[i] = n.String()
	}
	return doc
}

func (d walkDocument) walk() (pangraph.Walk, error) {
	if d.Missing {
		return nil, nil
	}
	w := make(pangraph.Walk, len(d.Nodes))
	for i, s := range d.Nodes {
		n, err := pangraph.ParseNode(s)
		if err != nil {
			return nil, err
		}
		w[i] = n
	}
	return w, nil
}

// MongoStore writes one document per sample into the "walks" collection,
// tagged with the run id and an append sequence number.
type MongoStore struct {
	coll  *mongo.Collection
	run   string
	owned *mongo.Client

	mu  sync.Mutex
	seq int64
}

// NewMongoStore uses an existing collection. Close leaves the client open.
func NewMongoStore(coll *mongo.Collection, runID string) *MongoStore {
	return &MongoStore{coll: coll, run: runID}
}

// DialMongo connects to uri and creates the (run, seq) index.
func DialMongo(ctx context.Context, uri, database, runID string) (*MongoStore, error) {
	if database == "" {
		database = defaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageError(err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, storageError(err, "connect to mongo")
	}
	coll := client.Database(database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "run", Value: 1}, {Key: "seq", Value: 1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, storageError(err, "create walk index")
	}
	s := NewMongoStore(coll, runID)
	s.owned = client
	return s, nil
}

// Append inserts one document.
func (s *MongoStore) Append(ctx context.Context, sample string, walk pangraph.Walk) error {
	s.mu.Lock()
	seq := s.seq
	s.seq++
	s.mu.Unlock()
	_, err := s.coll.InsertOne(ctx, toDocument(s.run, seq, sample, walk))
	return storageError(err, "insert walk of %s", sample)
}

// Iterate streams the run's documents by sequence number.
func (s *MongoStore) Iterate(ctx context.Context, fn func(string, pangraph.Walk) error) error {
	cur, err := s.coll.Find(ctx, bson.D{{Key: "run", Value: s.run}},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return storageError(err, "query walks")
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc walkDocument
		if err := cur.Decode(&doc); err != nil {
			return storageError(err, "decode walk")
		}
		w, err := doc.walk()
		if err != nil {
			return storageError(err, "decode walk of %s", doc.Sample)
		}
		if err := fn(doc.Sample, w); err != nil {
			return err
		}
	}
	return storageError(cur.Err(), "read walks")
}

// Close disconnects the client when the store created it.
func (s *MongoStore) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Disconnect(context.Background())
}

var _ WalkStore = (*MongoStore)(nil)
