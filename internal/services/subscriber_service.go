package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"doesitwork/internal/database"
	"doesitwork/internal/models"
)

// ErrInvalidEmail is returned when a signup address fails validation
var ErrInvalidEmail = errors.New("invalid email address")

// SubscriberService manages email signups from the public site
type SubscriberService struct {
	subscribers *mongo.Collection
}

// NewSubscriberService creates a new subscriber service
func NewSubscriberService(mongoDB *database.MongoDB) *SubscriberService {
	return &SubscriberService{
		subscribers: mongoDB.Collection(database.CollectionSubscribers),
	}
}

// Subscribe stores an email address. Re-subscribing an existing address is
// a no-op, not an error.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	_, err := s.subscribers.InsertOne(ctx, models.Subscriber{
		ID:        primitive.NewObjectID(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to store subscriber: %w", err)
	}
	return nil
}
