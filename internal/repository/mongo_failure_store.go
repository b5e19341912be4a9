package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/northfield/backend/internal/notify"
)

// DefaultFailureCollection is the collection failed notifications are written to.
const DefaultFailureCollection = "failed_notifications"

// inserter is the subset of *mongo.Collection used by MongoFailureStore.
type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoFailureStore keeps failed notification attempts for later replay.
type MongoFailureStore struct {
	coll inserter
}

// NewMongoFailureStore creates a MongoFailureStore writing to coll.
func NewMongoFailureStore(coll inserter) *MongoFailureStore {
	return &MongoFailureStore{coll: coll}
}

var _ notify.FailureRecorder = (*MongoFailureStore)(nil)

type failedNotificationDocument struct {
	InquiryID    string    `bson:"inquiryId"`
	Kind         string    `bson:"kind"`
	Channel      string    `bson:"channel"`
	Error        string    `bson:"error"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"phone,omitempty"`
	Organization string    `bson:"organization"`
	Role         string    `bson:"role,omitempty"`
	Service      string    `bson:"service,omitempty"`
	Message      string    `bson:"message"`
	ReceivedAt   time.Time `bson:"receivedAt"`
	FailedAt     time.Time `bson:"failedAt"`
	Replayed     bool      `bson:"replayed"`
}

// RecordFailure inserts one failed_notifications document.
func (s *MongoFailureStore) RecordFailure(ctx context.Context, f notify.FailedAttempt) error {
	doc := failedNotificationDocument{
		InquiryID:    f.Inquiry.ID,
		Kind:         string(f.Inquiry.Kind),
		Channel:      f.Channel,
		Error:        f.Error,
		Name:         f.Inquiry.Name,
		Email:        f.Inquiry.Email,
		Phone:        f.Inquiry.Phone,
		Organization: f.Inquiry.Organization,
		Role:         f.Inquiry.Role,
		Service:      f.Inquiry.Service,
		Message:      f.Inquiry.Message,
		ReceivedAt:   f.Inquiry.ReceivedAt.UTC(),
		FailedAt:     f.At.UTC(),
	}
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

// FailureIndexes returns the indexes MongoFailureStore queries rely on.
func FailureIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "failedAt", Value: -1}}},
		{Keys: bson.D{{Key: "replayed", Value: 1}, {Key: "channel", Value: 1}}},
	}
}
