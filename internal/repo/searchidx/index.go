package searchidx

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/shop-assistant/internal/models"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// GetOptions narrows a document query. Fields, when set, projects only the
// named bson fields; Limit of zero means no limit.
type GetOptions struct {
	Limit  int64
	Fields []string
}

// Index is the catalog search index. UpsertDocuments is idempotent by
// document id, so overlapping sync runs converge instead of conflicting.
type Index interface {
	UpsertDocuments(ctx context.Context, indexName string, docs []models.CatalogDocument) error
	GetDocuments(ctx context.Context, indexName string, opts GetOptions) ([]models.CatalogDocument, error)
	CountDocuments(ctx context.Context, indexName string) (int64, error)
}

type index struct {
	db *DB
}

func NewIndex(db *DB) Index {
	return &index{db: db}
}

func (i *index) UpsertDocuments(ctx context.Context, indexName string, docs []models.CatalogDocument) error {
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		model := mongo.
			NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true)
		writes = append(writes, model)
	}

	if _, err := i.collection(indexName).BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	return nil
}

func (i *index) GetDocuments(ctx context.Context, indexName string, opts GetOptions) ([]models.CatalogDocument, error) {
	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Fields) > 0 {
		projection := bson.M{}
		for _, field := range opts.Fields {
			projection[field] = 1
		}
		findOpts.SetProjection(projection)
	}

	cursor, err := i.collection(indexName).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	var docs []models.CatalogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

func (i *index) CountDocuments(ctx context.Context, indexName string) (int64, error) {
	return i.collection(indexName).CountDocuments(ctx, bson.M{})
}

func (i *index) collection(indexName string) *mongo.Collection {
	return i.db.Database.Collection(indexName)
}
