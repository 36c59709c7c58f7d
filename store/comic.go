package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mbenve9198/exit-wounds/models"
)

func (db *DB) InsertComic(ctx context.Context, comic *models.Comic) (primitive.ObjectID, error) {
	res, err := db.Comics().InsertOne(ctx, comic, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// AllComics returns every comic, newest first (admin listing).
func (db *DB) AllComics(ctx context.Context) ([]models.Comic, error) {
	cur, err := db.Comics().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var comics []models.Comic
	if err := cur.All(ctx, &comics); err != nil {
		return nil, err
	}
	return comics, nil
}

// PublishedComics returns comics visible on the public listing and reader.
func (db *DB) PublishedComics(ctx context.Context) ([]models.Comic, error) {
	cur, err := db.Comics().Find(ctx, bson.M{"published": true}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var comics []models.Comic
	if err := cur.All(ctx, &comics); err != nil {
		return nil, err
	}
	return comics, nil
}

func (db *DB) ComicByID(ctx context.Context, id primitive.ObjectID) (*models.Comic, error) {
	var comic models.Comic
	err := db.Comics().FindOne(ctx, bson.M{"_id": id}).Decode(&comic)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comic, nil
}

// UpdateComic sets title, description, and published when provided. Documents
// are updated last-write-wins; no optimistic concurrency checks exist.
func (db *DB) UpdateComic(ctx context.Context, id primitive.ObjectID, title, description *string, published *bool) error {
	updates := bson.M{"updatedAt": time.Now()}
	if title != nil {
		updates["title"] = *title
	}
	if description != nil {
		updates["description"] = *description
	}
	if published != nil {
		updates["published"] = *published
	}
	res, err := db.Comics().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateImageCensors replaces the censor list of one image, addressed by its
// order position.
func (db *DB) UpdateImageCensors(ctx context.Context, id primitive.ObjectID, imageOrder int, censors []models.Censor) error {
	res, err := db.Comics().UpdateOne(ctx,
		bson.M{"_id": id, "images.order": imageOrder},
		bson.M{"$set": bson.M{
			"images.$.censors": censors,
			"updatedAt":        time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// StampSend overwrites the comic's send bookkeeping. Only the most recent
// send's outcome is ever queryable from comic metadata.
func (db *DB) StampSend(ctx context.Context, id primitive.ObjectID, sentAt time.Time, recipients int) error {
	_, err := db.Comics().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"sentAt":     sentAt,
		"recipients": recipients,
		"updatedAt":  time.Now(),
	}})
	return err
}

// DeleteComic removes a comic and returns the storage keys of its images so
// the caller can clean up the image host.
func (db *DB) DeleteComic(ctx context.Context, id primitive.ObjectID) ([]string, error) {
	var comic models.Comic
	err := db.Comics().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&comic)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(comic.Images))
	for _, img := range comic.Images {
		if img.StorageKey != "" {
			keys = append(keys, img.StorageKey)
		}
	}
	return keys, nil
}
