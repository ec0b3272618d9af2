package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cppla/blogpub/models"
)

// PublicationsCollection is the collection holding publication documents.
const PublicationsCollection = "publications"

// MongoPublicationRepository stores each publication as one document with its
// comments embedded, newest first.
type MongoPublicationRepository struct {
	coll *mongo.Collection
}

// NewMongoPublicationRepository creates a repository over db.publications.
func NewMongoPublicationRepository(db *mongo.Database) *MongoPublicationRepository {
	return &MongoPublicationRepository{coll: db.Collection(PublicationsCollection)}
}

// EnsureIndexes creates the indexes list and filter queries rely on.
func (r *MongoPublicationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "course", Value: 1}}},
		{Keys: bson.D{{Key: "image", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create publication indexes: %w", err)
	}
	return nil
}

func (r *MongoPublicationRepository) Create(ctx context.Context, p *models.Publication) error {
	p.AssignDefaults(time.Now())
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create publication: %w", err)
	}
	p.InLocation()
	return nil
}

func (r *MongoPublicationRepository) List(ctx context.Context, offset, limit int) ([]models.Publication, int64, error) {
	query := bson.M{"status": true}
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	items, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list publications: %w", err)
	}
	return items, total, nil
}

func (r *MongoPublicationRepository) FindByID(ctx context.Context, id string) (*models.Publication, error) {
	var p models.Publication
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get publication %s: %w", id, err)
	}
	p.InLocation()
	return &p, nil
}

func (r *MongoPublicationRepository) Filter(ctx context.Context, f PublicationFilter) ([]models.Publication, error) {
	query := bson.M{"status": true}
	if f.Course != "" {
		query["course"] = f.Course
	}
	if f.Title != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Title), Options: "i"}
	}
	if f.Date != nil {
		upper := "$lt"
		if f.Date.IncludeTo {
			upper = "$lte"
		}
		query["date"] = bson.M{"$gte": f.Date.From, upper: f.Date.To}
	}

	direction := -1
	if f.Ascending {
		direction = 1
	}
	items, err := r.find(ctx, query, options.Find().SetSort(bson.D{{Key: "date", Value: direction}}))
	if err != nil {
		return nil, fmt.Errorf("failed to filter publications: %w", err)
	}
	return items, nil
}

// AddComment pushes the comment at position 0 in one update filtered on
// status, so a deleted publication is never modified.
func (r *MongoPublicationRepository) AddComment(ctx context.Context, id string, c models.Comment) (*models.Publication, error) {
	now := time.Now()
	c.AssignDefaults(now)
	update := bson.M{
		"$push": bson.M{"comments": bson.M{
			"$each":     []models.Comment{c},
			"$position": 0,
		}},
		"$set": bson.M{"updatedAt": now},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id, "status": true}, update)
}

func (r *MongoPublicationRepository) SoftDelete(ctx context.Context, id string) (*models.Publication, error) {
	update := bson.M{"$set": bson.M{"status": false, "updatedAt": time.Now()}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *MongoPublicationRepository) ImageInUse(ctx context.Context, image string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"image": image}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up image %s: %w", image, err)
	}
	return n > 0, nil
}

func (r *MongoPublicationRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *MongoPublicationRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Publication, error) {
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	items := []models.Publication{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].InLocation()
	}
	return items, nil
}

func (r *MongoPublicationRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Publication, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Publication
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update publication %v: %w", filter["_id"], err)
	}
	p.InLocation()
	return &p, nil
}
