package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

const collectionUsers = "users"

// CredentialRepository implements ports.CredentialRepository on the users collection.
type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(collectionUsers)}
}

// Documents written by earlier versions of the tool carry no timestamps, so
// both are optional on read.
type mongoCredential struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Username           string             `bson:"username"`
	Role               string             `bson:"role"`
	PasswordHash       string             `bson:"password_hash"`
	MustChangePassword bool               `bson:"must_change_pw"`
	CreatedAt          time.Time          `bson:"created_at,omitempty"`
	UpdatedAt          time.Time          `bson:"updated_at,omitempty"`
}

func (r *CredentialRepository) FindByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoCredential
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeError("find user", err)
	}

	return &domain.Credential{
		ID:                 mc.ID.Hex(),
		Username:           mc.Username,
		Role:               mc.Role,
		PasswordHash:       mc.PasswordHash,
		MustChangePassword: mc.MustChangePassword,
		CreatedAt:          mc.CreatedAt,
		UpdatedAt:          mc.UpdatedAt,
	}, nil
}

func (r *CredentialRepository) Exists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeError("count user", err)
	}
	return n > 0, nil
}

func (r *CredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoCredential{
		Username:           cred.Username,
		Role:               cred.Role,
		PasswordHash:       cred.PasswordHash,
		MustChangePassword: cred.MustChangePassword,
		CreatedAt:          cred.CreatedAt,
		UpdatedAt:          cred.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return storeError("insert user", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		cred.ID = oid.Hex()
	}
	return nil
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"password_hash":  passwordHash,
		"must_change_pw": false,
		"updated_at":     time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return storeError("update password", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique username index.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
