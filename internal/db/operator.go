package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/metro-telemetry/internal/models"
)

// ErrOperatorNotFound is returned when no operator has the requested username.
var ErrOperatorNotFound = errors.New("operator not found")

// MongoOperatorCollection implements OperatorCollection for MongoDB
type MongoOperatorCollection struct {
	Collection *mongo.Collection
}

// FindOperatorByUsername finds an operator by their username
func (c *MongoOperatorCollection) FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var op models.Operator
	err := c.Collection.FindOne(ctx, bson.M{"_id": username}).Decode(&op)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

// UpsertOperator creates or replaces an operator account
func (c *MongoOperatorCollection) UpsertOperator(ctx context.Context, op models.Operator) error {
	if c.Collection == nil {
		return errNilCollection
	}
	op.UpdatedAt = time.Now().UTC()
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": op.Username}, op, options.Replace().SetUpsert(true))
	return err
}

// MemoryOperatorCollection is an in-process OperatorCollection, used when no database
// is configured.
type MemoryOperatorCollection struct {
	mu        sync.RWMutex
	operators map[string]models.Operator
}

func NewMemoryOperatorCollection(ops ...models.Operator) *MemoryOperatorCollection {
	c := &MemoryOperatorCollection{operators: make(map[string]models.Operator, len(ops))}
	for _, op := range ops {
		c.operators[op.Username] = op
	}
	return c
}

func (c *MemoryOperatorCollection) FindOperatorByUsername(_ context.Context, username string) (*models.Operator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.operators[username]
	if !ok {
		return nil, ErrOperatorNotFound
	}
	return &op, nil
}

func (c *MemoryOperatorCollection) UpsertOperator(_ context.Context, op models.Operator) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	op.UpdatedAt = time.Now().UTC()
	c.operators[op.Username] = op
	return nil
}
