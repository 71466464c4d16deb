package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates the indexes every collection relies on. Failures are
// returned so the caller can decide whether to keep running.
func EnsureIndexes(db *mongo.Database, logger *zap.Logger) error {
	if err := EnsureProductIndexes(db, logger); err != nil {
		return err
	}
	if err := EnsureUserIndexes(db, logger); err != nil {
		return err
	}
	return EnsureOrderIndexes(db, logger)
}

func EnsureProductIndexes(db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "productCode", Value: 1}},
			Options: options.Index().
				SetName("productCode_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"productCode": bson.M{"$type": "string"},
				}),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_index"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	}

	logger.Info("ensuring product indexes", zap.Int("count", len(models)))
	if _, err := indexes.CreateMany(ctx, models); err != nil {
		logger.Error("product index error", zap.Error(err))
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	logger.Info("ensuring user indexes")
	if _, err := indexes.CreateOne(ctx, emailIndex); err != nil {
		logger.Error("user index error", zap.Error(err))
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("userId_createdAt"),
	}

	logger.Info("ensuring order indexes")
	if _, err := indexes.CreateOne(ctx, userIDIndex); err != nil {
		logger.Error("order index error", zap.Error(err))
		return err
	}
	return nil
}
