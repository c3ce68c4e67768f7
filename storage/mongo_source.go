package storage

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"listing-analytics/config"
	"listing-analytics/models"
	"listing-analytics/utils"
)

// replica set member state reported by replSetGetStatus for a primary
const mongoStatePrimary = 1

// mongoConn is a client connected to a single deployment
type mongoConn struct {
	client *mongo.Client
}

// IsPrimary runs replSetGetStatus against the admin database
func (c *mongoConn) IsPrimary(ctx context.Context) (bool, error) {
	var status struct {
		MyState int    `bson:"myState"`
		Set     string `bson:"set"`
	}
	cmd := bson.D{{Key: "replSetGetStatus", Value: 1}}
	if err := c.client.Database("admin").RunCommand(ctx, cmd).Decode(&status); err != nil {
		return false, errors.WithStack(err)
	}
	return status.MyState == mongoStatePrimary, nil
}

func (c *mongoConn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// NewMongoDialer returns a DialFunc that connects with the configured URI
// and pings the server before handing the client out
func NewMongoDialer(cfg *config.Config) DialFunc {
	return func(ctx context.Context) (Connection, error) {
		opts := options.Client().
			ApplyURI(cfg.MongoURI()).
			SetServerSelectionTimeout(cfg.ServerSelectionTimeoutDuration())

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return nil, errors.Wrap(err, "open mongo client")
		}
		if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, errors.Wrap(err, "ping mongo")
		}
		return &mongoConn{client: client}, nil
	}
}

// MongoSource reads listings from a MongoDB collection
type MongoSource struct {
	conn       *mongoConn
	collection *mongo.Collection
	logger     *utils.Logger
}

// OpenMongoSource acquires a connection with the configured strategy and
// binds it to the listing collection
func OpenMongoSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*MongoSource, error) {
	strategy, err := ParseStrategy(cfg.ConnectStrategy)
	if err != nil {
		return nil, err
	}

	conn, err := Acquire(ctx, NewMongoDialer(cfg), AcquireOptions{
		Strategy:   strategy,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelayDuration(),
	}, logger)
	if err != nil {
		return nil, err
	}

	mc := conn.(*mongoConn)
	logger.Info("Connected to MongoDB %s:%d (%s)", cfg.MongoHost, cfg.MongoPort, strategy)
	return &MongoSource{
		conn:       mc,
		collection: mc.client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

// Find runs a find with projection and returns every matching document
func (s *MongoSource) Find(ctx context.Context, q models.Query) ([]models.Document, error) {
	opts := options.Find()
	if len(q.Projection) > 0 {
		opts.SetProjection(mongoProjection(q.Projection))
	}

	cursor, err := s.collection.Find(ctx, mongoFilter(q.Filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "find listings")
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, errors.Wrap(err, "decode listings")
	}

	docs := make([]models.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, models.Document(m))
	}
	s.logger.Debug("Fetched %d documents (projection %v)", len(docs), q.Projection)
	return docs, nil
}

// EstimatedCount returns the collection's document count from metadata
func (s *MongoSource) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "estimate document count")
	}
	return n, nil
}

// Close disconnects the client
func (s *MongoSource) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// mongoFilter translates conditions to a filter document. Conditions on the
// same field are merged into one operator document.
func mongoFilter(conds []models.Condition) bson.D {
	filter := bson.D{}
	index := make(map[string]int)

	for _, c := range conds {
		var op bson.E
		switch c.Op {
		case models.OpExists:
			op = bson.E{Key: "$exists", Value: true}
		case models.OpNotIn:
			op = bson.E{Key: "$nin", Value: bson.A(c.Values)}
		case models.OpEq:
			op = bson.E{Key: "$eq", Value: c.Values[0]}
		default:
			continue
		}

		if i, ok := index[c.Field]; ok {
			filter[i].Value = append(filter[i].Value.(bson.D), op)
			continue
		}
		index[c.Field] = len(filter)
		filter = append(filter, bson.E{Key: c.Field, Value: bson.D{op}})
	}
	return filter
}

func mongoProjection(fields []string) bson.D {
	proj := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		proj = append(proj, bson.E{Key: f, Value: 1})
	}
	return append(proj, bson.E{Key: "_id", Value: 0})
}
