package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoStore keeps each user as one document with embedded clothes and collections.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// ConnectMongo initializes the MongoDB connection
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{client: client, users: client.Database(dbName).Collection(usersCollection)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "google_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertGoogleUser finds the user by email or creates it, refreshing profile fields.
func (s *MongoStore) UpsertGoogleUser(ctx context.Context, u models.User) (*models.User, error) {
	if u.Email == "" {
		return nil, ErrEmailMissing
	}
	set := bson.M{"name": u.Name, "image": u.Image}
	// google_id is unique among documents that have it, so it is never written empty
	if u.GoogleID != "" {
		set["google_id"] = u.GoogleID
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"created_at":  time.Now(),
			"clothes":     bson.A{},
			"collections": bson.A{},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var user models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"email": u.Email}, update, opts).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) AddClothes(ctx context.Context, userID string, items []models.ClothingItem) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"clothes": bson.M{"$each": items}}})
	return checkUpdate(res, err)
}

// SetBottom stores the lower garment of clothes[index] and extends the top's model prompt.
func (s *MongoStore) SetBottom(ctx context.Context, userID string, index int, bottom models.GarmentImage) (*models.ClothingItem, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(user.Clothes) {
		return nil, ErrOutOfRange
	}
	item := user.Clothes[index]
	item.Bottom = &bottom
	item.Top.ModelDescription = joinPrompt(item.Top.ModelDescription, bottom.Description)

	prefix := fmt.Sprintf("clothes.%d", index)
	// the _id guard fails the write if clothes changed since the read
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": user.ID, prefix + "._id": item.ID},
		bson.M{"$set": bson.M{
			prefix + ".bottom":                bottom,
			prefix + ".top.model_description": item.Top.ModelDescription,
		}})
	if err := checkUpdate(res, err); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveBottom unsets the lower garment and returns what was removed.
func (s *MongoStore) RemoveBottom(ctx context.Context, userID, itemID string) (*models.GarmentImage, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	iid, err := parseID(itemID)
	if err != nil {
		return nil, err
	}
	var before models.User
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": uid, "clothes._id": iid},
		bson.M{"$set": bson.M{"clothes.$.bottom": nil}},
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, c := range before.Clothes {
		if c.ID == iid {
			return c.Bottom, nil
		}
	}
	return nil, nil
}

// RemoveClothes pulls every clothing item whose top image is imageURL.
func (s *MongoStore) RemoveClothes(ctx context.Context, userID, imageURL string) ([]models.ClothingItem, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	var before models.User
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": uid},
		bson.M{"$pull": bson.M{"clothes": bson.M{"top.image_url": imageURL}}},
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var removed []models.ClothingItem
	for _, c := range before.Clothes {
		if c.Top.ImageURL == imageURL {
			removed = append(removed, c)
		}
	}
	return removed, nil
}

// CreateCollection pushes a new empty collection onto the user's list.
func (s *MongoStore) CreateCollection(ctx context.Context, userID string) (models.Collection, error) {
	uid, err := parseID(userID)
	if err != nil {
		return models.Collection{}, err
	}
	col := newCollection(time.Now())
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": uid},
		bson.M{"$push": bson.M{"collections": col}})
	if err := checkUpdate(res, err); err != nil {
		return models.Collection{}, err
	}
	return col, nil
}

// AppendItem pushes one outfit into the collection's items without rewriting the user document.
func (s *MongoStore) AppendItem(ctx context.Context, userID string, collectionID primitive.ObjectID, item models.OutfitResult) error {
	uid, err := parseID(userID)
	if err != nil {
		return err
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"c._id": collectionID}},
	})
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": uid, "collections._id": collectionID},
		bson.M{"$push": bson.M{"collections.$[c].items": item}},
		opts)
	return checkUpdate(res, err)
}

// checkUpdate maps an update that matched no document to ErrNotFound.
func checkUpdate(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res == nil || res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Collections, nil
}

// RenameCollection sets the collection's name. An unknown id leaves the list untouched.
func (s *MongoStore) RenameCollection(ctx context.Context, userID string, collectionID primitive.ObjectID, name string) ([]models.Collection, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	_, err = s.users.UpdateOne(ctx,
		bson.M{"_id": uid, "collections._id": collectionID},
		bson.M{"$set": bson.M{"collections.$.name": name}})
	if err != nil {
		return nil, err
	}
	return s.ListCollections(ctx, userID)
}

func (s *MongoStore) DeleteCollection(ctx context.Context, userID string, collectionID primitive.ObjectID) ([]models.Collection, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": uid},
		bson.M{"$pull": bson.M{"collections": bson.M{"_id": collectionID}}})
	if err != nil {
		return nil, err
	}
	return s.ListCollections(ctx, userID)
}
