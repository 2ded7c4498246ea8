package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autosolutionsai-didac/Falcon/internal/config"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

// MongoDBClient wraps the MongoDB client used to cache finished analysis
// results. A re-trigger on an unchanged document set can be answered
// from the cache without a new run.
type MongoDBClient struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
}

// CachedAnalysis is one cached analysis outcome keyed by the case and a
// digest of its document snapshot.
type CachedAnalysis struct {
	CacheKey     string                 `bson:"_id" json:"cacheKey"`
	CaseID       uint                   `bson:"caseId" json:"caseId"`
	Result       *models.AnalysisResult `bson:"result" json:"result"`
	CreatedAt    time.Time              `bson:"createdAt" json:"createdAt"`
	LastAccessed time.Time              `bson:"lastAccessed" json:"lastAccessed"`
}

// NewMongoDBClient creates a new MongoDB client for the analysis cache
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uri := cfg.URI
	if uri == "" {
		if cfg.Username != "" && cfg.Password != "" {
			userInfo := url.UserPassword(cfg.Username, cfg.Password)
			uri = fmt.Sprintf("mongodb://%s@%s:%s/%s?authSource=%s",
				userInfo.String(),
				cfg.Host,
				cfg.Port,
				cfg.Database,
				url.QueryEscape(cfg.AuthSource),
			)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%s/%s", cfg.Host, cfg.Port, cfg.Database)
		}
	}

	// Mask the password when logging the connection target.
	logURI := uri
	if cfg.Password != "" && cfg.Username != "" {
		logURI = fmt.Sprintf("mongodb://%s:***@%s:%s/%s",
			url.User(cfg.Username).String(), cfg.Host, cfg.Port, cfg.Database)
	}
	log.Printf("Attempting to connect to MongoDB at %s", logURI)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", logURI, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", logURI, err)
	}

	database := client.Database(cfg.Database)
	collection := database.Collection(cfg.Collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "caseId", Value: 1}},
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Index might already exist, that's okay
		log.Printf("Note: MongoDB index creation: %v", err)
	}

	return &MongoDBClient{
		client:     client,
		database:   database,
		collection: collection,
	}, nil
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// AnalysisCacheKey digests the case and its document snapshot into a
// stable cache key. Documents are sorted by ID so upload order does not
// change the key; extracted data participates so a re-processed
// document invalidates the cached result.
func AnalysisCacheKey(request models.AnalysisRequest) string {
	sorted := make([]models.DocumentSnapshot, len(request.Documents))
	copy(sorted, request.Documents)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	hash := sha256.New()
	fmt.Fprintf(hash, "%d:%s", request.CaseID, request.Jurisdiction)
	for _, doc := range sorted {
		data, _ := json.Marshal(doc.ExtractedData)
		fmt.Fprintf(hash, ":%s:%s:%s:%s", doc.ID, doc.Type, doc.Status, data)
	}
	return hex.EncodeToString(hash.Sum(nil))
}

// StoreResult caches a completed task's result. Tasks without a result
// are skipped.
func (c *MongoDBClient) StoreResult(task *models.AnalysisTask) error {
	if task.Result == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	cached := CachedAnalysis{
		CacheKey:     AnalysisCacheKey(task.Request),
		CaseID:       task.Request.CaseID,
		Result:       task.Result,
		CreatedAt:    now,
		LastAccessed: now,
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": cached.CacheKey}
	update := bson.M{"$set": cached}

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to cache analysis result: %w", err)
	}
	return nil
}

// GetCachedResult looks up a cached result for an identical analysis
// request. A nil result with nil error means cache miss.
func (c *MongoDBClient) GetCachedResult(request models.AnalysisRequest) (*models.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cacheKey := AnalysisCacheKey(request)

	var cached CachedAnalysis
	err := c.collection.FindOne(ctx, bson.M{"_id": cacheKey}).Decode(&cached)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cached analysis: %w", err)
	}

	update := bson.M{"$set": bson.M{"lastAccessed": time.Now()}}
	if _, err := c.collection.UpdateOne(ctx, bson.M{"_id": cacheKey}, update); err != nil {
		// Log but don't fail - the cached result is still valid
		log.Printf("WARNING: failed to update lastAccessed for cache key %s: %v", cacheKey, err)
	}

	return cached.Result, nil
}

// InvalidateCase drops all cached results for a case, used when its
// documents change.
func (c *MongoDBClient) InvalidateCase(caseID uint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.collection.DeleteMany(ctx, bson.M{"caseId": caseID}); err != nil {
		return fmt.Errorf("failed to invalidate cached results: %w", err)
	}
	return nil
}
