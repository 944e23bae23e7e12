package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "authcodelab/internal/errors"
	"authcodelab/internal/model"
)

const (
	usersCollection = "users"
	maxUpdateTries  = 3
)

// ErrConcurrentUpdate is returned when optimistic updates keep colliding.
var ErrConcurrentUpdate = errors.New("user was modified concurrently")

type mongoUserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMongoUserRepository builds a Mongo-backed repository and ensures its indexes.
func NewMongoUserRepository(ctx context.Context, db *mongo.Database) (UserRepository, error) {
	col := db.Collection(usersCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}
	return &mongoUserRepository{col: col, now: time.Now}, nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := r.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *mongoUserRepository) Update(ctx context.Context, id uuid.UUID, fn MutateFunc) (*model.User, error) {
	return r.update(ctx, bson.M{"_id": id}, fn)
}

func (r *mongoUserRepository) UpdateByEmail(ctx context.Context, email string, fn MutateFunc) (*model.User, error) {
	return r.update(ctx, bson.M{"email": email}, fn)
}

// update is a compare-and-swap on the version field: the replacement only
// lands if nobody else wrote the document since it was read.
func (r *mongoUserRepository) update(ctx context.Context, filter bson.M, fn MutateFunc) (*model.User, error) {
	for try := 0; try < maxUpdateTries; try++ {
		u, err := r.findOne(ctx, filter)
		if err != nil {
			return nil, err
		}
		prev := u.Version
		if err := fn(u); err != nil {
			return nil, err
		}
		u.Version = prev + 1
		u.UpdatedAt = r.now().UTC()

		res, err := r.col.ReplaceOne(ctx, bson.M{"_id": u.ID, "version": prev}, u)
		if err != nil {
			return nil, fmt.Errorf("replace user: %w", err)
		}
		if res.MatchedCount == 1 {
			return u, nil
		}
	}
	return nil, ErrConcurrentUpdate
}

func (r *mongoUserRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bsonFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *mongoUserRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$role"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer cur.Close(ctx)

	out := make(map[model.Role]int64, len(model.Roles))
	for _, role := range model.Roles {
		out[role] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Role  model.Role `bson:"_id"`
			Count int64      `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode role count: %w", err)
		}
		out[row.Role] = row.Count
	}
	return out, cur.Err()
}

func (r *mongoUserRepository) List(ctx context.Context, limit int) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func bsonFilter(f UserFilter) bson.M {
	m := bson.M{}
	if f.Verified != nil {
		m["is_account_verified"] = *f.Verified
	}
	if f.TwoFactor != nil {
		m["two_factor_enabled"] = *f.TwoFactor
	}
	if f.Role != nil {
		m["role"] = *f.Role
	}
	if f.CreatedSince != nil {
		m["created_at"] = bson.M{"$gte": *f.CreatedSince}
	}
	return m
}
