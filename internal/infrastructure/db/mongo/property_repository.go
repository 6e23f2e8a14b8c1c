package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// PropertyRepository lists properties a user can reach, either as the owner
// or through a tenant membership.
type PropertyRepository struct {
	properties  *mongo.Collection
	memberships *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{
		properties:  db.Collection(collectionProperties),
		memberships: db.Collection(collectionMemberships),
	}
}

type membership struct {
	UserID   string `bson:"user_id"`
	TenantID string `bson:"tenant_id"`
}

// ListForUser returns the accessible properties sorted by name.
func (r *PropertyRepository) ListForUser(ctx context.Context, userID string) ([]domain.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tenantIDs, err := r.tenantsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	cur, err := r.properties.Find(ctx, propertyFilter(userID, tenantIDs), options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	defer cur.Close(ctx)

	props := make([]domain.Property, 0)
	if err := cur.All(ctx, &props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return props, nil
}

// propertyFilter matches properties owned by userID or belonging to one of
// tenantIDs.
func propertyFilter(userID string, tenantIDs []string) bson.M {
	if len(tenantIDs) == 0 {
		return bson.M{"owner_user_id": userID}
	}
	return bson.M{"$or": bson.A{
		bson.M{"owner_user_id": userID},
		bson.M{"tenant_id": bson.M{"$in": tenantIDs}},
	}}
}

func (r *PropertyRepository) tenantsOf(ctx context.Context, userID string) ([]string, error) {
	cur, err := r.memberships.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find memberships: %w", err)
	}
	defer cur.Close(ctx)

	var rows []membership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.TenantID)
	}
	return ids, nil
}

// EnsureIndexes creates the lookup indexes for properties and memberships.
func (r *PropertyRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.properties.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_user_id", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := r.memberships.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tenant_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
