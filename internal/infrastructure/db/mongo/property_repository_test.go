package mongo

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestPropertyFilter(t *testing.T) {
	tests := []struct {
		name      string
		tenantIDs []string
		want      bson.M
	}{
		{
			name: "owner only without memberships",
			want: bson.M{"owner_user_id": "u1"},
		},
		{
			name:      "owner or member tenants",
			tenantIDs: []string{"t1", "t2"},
			want: bson.M{"$or": bson.A{
				bson.M{"owner_user_id": "u1"},
				bson.M{"tenant_id": bson.M{"$in": []string{"t1", "t2"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := propertyFilter("u1", tt.tenantIDs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if _, err := bson.Marshal(got); err != nil {
				t.Fatalf("filter does not encode: %v", err)
			}
		})
	}
}

func TestPropertyFilter_EncodesOwnerAndTenantBranches(t *testing.T) {
	raw, err := bson.Marshal(propertyFilter("u1", []string{"t1"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	branches, err := bson.Raw(raw).Lookup("$or").Array().Values()
	if err != nil {
		t.Fatalf("read $or: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected two $or branches, got %d", len(branches))
	}
	if owner := branches[0].Document().Lookup("owner_user_id").StringValue(); owner != "u1" {
		t.Fatalf("first branch must match the owner, got %q", owner)
	}
	ids, err := branches[1].Document().Lookup("tenant_id", "$in").Array().Values()
	if err != nil {
		t.Fatalf("read $in: %v", err)
	}
	if len(ids) != 1 || ids[0].StringValue() != "t1" {
		t.Fatalf("unexpected $in clause %v", ids)
	}
}
