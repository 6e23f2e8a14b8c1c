package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/porchlite/porchlite/internal/core/domain"
)

// RoleRepository reads profile roles and the role_permissions table.
type RoleRepository struct {
	profiles    *mongo.Collection
	permissions *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{
		profiles:    db.Collection(collectionProfiles),
		permissions: db.Collection(collectionRolePermissions),
	}
}

type profile struct {
	UserID    string `bson:"_id"`
	Role      string `bson:"role"`
	UpdatedAt int64  `bson:"updated_at"`
}

type rolePermission struct {
	Role       string `bson:"role"`
	Capability string `bson:"capability"`
	Allowed    bool   `bson:"allowed"`
}

// RoleFor returns the profile role of userID, or "" without a profile.
func (r *RoleRepository) RoleFor(ctx context.Context, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p profile
	if err := r.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("find profile: %w", err)
	}
	return p.Role, nil
}

// SetRole upserts the profile role of userID.
func (r *RoleRepository) SetRole(ctx context.Context, userID, role string) error {
	if !domain.IsValidRole(role) {
		return domain.ErrInvalidRole
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.profiles.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC().Unix()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// CapabilityTable builds the role to capability table from allowed rows.
func (r *RoleRepository) CapabilityTable(ctx context.Context) (domain.CapabilityTable, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.permissions.Find(ctx, bson.M{"allowed": true})
	if err != nil {
		return nil, fmt.Errorf("find role permissions: %w", err)
	}
	defer cur.Close(ctx)

	var rows []rolePermission
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode role permissions: %w", err)
	}

	return buildCapabilityTable(rows), nil
}

// buildCapabilityTable groups allowed rows by role. Denied rows and
// duplicates are skipped.
func buildCapabilityTable(rows []rolePermission) domain.CapabilityTable {
	table := make(domain.CapabilityTable)
	for _, row := range rows {
		if !row.Allowed || row.Role == "" || row.Capability == "" {
			continue
		}
		if slices.Contains(table[row.Role], row.Capability) {
			continue
		}
		table[row.Role] = append(table[row.Role], row.Capability)
	}
	return table
}

// EnsureIndexes creates the unique (role, capability) index.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.permissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}, {Key: "capability", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
