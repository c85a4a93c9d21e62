package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TuhinPramanik4/Civicsolve/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const issuesCollection = "issues"

// issueDocument is the Mongo shape of model.Issue; verification is kept as a
// subdocument instead of raw JSON bytes.
type issueDocument struct {
	ID           int64                    `bson:"_id"`
	Title        string                   `bson:"title"`
	Category     string                   `bson:"category"`
	Priority     string                   `bson:"priority"`
	Description  string                   `bson:"description"`
	Img          *string                  `bson:"img"`
	Latitude     float64                  `bson:"latitude"`
	Longitude    float64                  `bson:"longitude"`
	City         *string                  `bson:"city"`
	District     *string                  `bson:"district"`
	Region       *string                  `bson:"region"`
	PostalCode   *string                  `bson:"postalcode"`
	Country      *string                  `bson:"country"`
	ReporterID   *string                  `bson:"reporter_id,omitempty"`
	Verification *model.VerificationAudit `bson:"verification,omitempty"`
	CreatedAt    time.Time                `bson:"created_at"`
}

// MongoReportStore writes reports to a Mongo collection
type MongoReportStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// ConnectMongo connects, pings and ensures the listing indexes
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoReportStore, error) {
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := &MongoReportStore{client: client, col: client.Database(dbName).Collection(issuesCollection)}

	_, err = store.col.Indexes().CreateMany(dctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}

	return store, nil
}

func (s *MongoReportStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoReportStore) Insert(ctx context.Context, issue *model.Issue) error {
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now().UTC()
	}
	if issue.ID == 0 {
		// no sequences in Mongo; microsecond timestamps keep ids ordered
		issue.ID = issue.CreatedAt.UnixMicro()
	}

	doc, err := toDocument(issue)
	if err != nil {
		return err
	}

	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

func (s *MongoReportStore) List(ctx context.Context, filter ListFilter) ([]model.Issue, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cur, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer cur.Close(ctx)

	var docs []issueDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode issues: %w", err)
	}

	issues := make([]model.Issue, 0, len(docs))
	for _, doc := range docs {
		issues = append(issues, fromDocument(doc))
	}
	return issues, nil
}

func toDocument(issue *model.Issue) (issueDocument, error) {
	doc := issueDocument{
		ID:          issue.ID,
		Title:       issue.Title,
		Category:    issue.Category,
		Priority:    issue.Priority,
		Description: issue.Description,
		Img:         issue.Img,
		Latitude:    issue.Latitude,
		Longitude:   issue.Longitude,
		City:        issue.City,
		District:    issue.District,
		Region:      issue.Region,
		PostalCode:  issue.PostalCode,
		Country:     issue.Country,
		ReporterID:  issue.ReporterID,
		CreatedAt:   issue.CreatedAt,
	}
	if len(issue.Verification) > 0 {
		var audit model.VerificationAudit
		if err := json.Unmarshal(issue.Verification, &audit); err != nil {
			return doc, fmt.Errorf("invalid verification audit: %w", err)
		}
		doc.Verification = &audit
	}
	return doc, nil
}

func fromDocument(doc issueDocument) model.Issue {
	issue := model.Issue{
		ID:          doc.ID,
		Title:       doc.Title,
		Category:    doc.Category,
		Priority:    doc.Priority,
		Description: doc.Description,
		Img:         doc.Img,
		Latitude:    doc.Latitude,
		Longitude:   doc.Longitude,
		City:        doc.City,
		District:    doc.District,
		Region:      doc.Region,
		PostalCode:  doc.PostalCode,
		Country:     doc.Country,
		ReporterID:  doc.ReporterID,
		CreatedAt:   doc.CreatedAt,
	}
	if doc.Verification != nil {
		issue.Verification = model.AuditJSON(*doc.Verification)
	}
	return issue
}
