package domain

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Tenant is an organizational account that owns one or more properties.
type Tenant struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// Property is a single managed rental unit within a tenant.
type Property struct {
	ID          string      `json:"id" bson:"_id"`
	TenantID    string      `json:"tenant_id" bson:"tenant_id"`
	Name        string      `json:"name" bson:"name"`
	Address     string      `json:"address" bson:"address"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	OwnerUserID string      `json:"owner_user_id" bson:"owner_user_id"`
}

// PropertyState is the observable state of the property store.
//
// CurrentPropertyID, when non-empty, always references an element of
// Properties. UserID is the user the list was fetched for.
type PropertyState struct {
	UserID            string     `json:"user_id"`
	Properties        []Property `json:"properties"`
	CurrentPropertyID string     `json:"current_property_id,omitempty"`
	CurrentTenantID   string     `json:"current_tenant_id,omitempty"`
	Loading           bool       `json:"loading"`
	Initialized       bool       `json:"initialized"`
	Err               error      `json:"-"`
}

// Find returns the property with the given id, or nil.
func (s PropertyState) Find(id string) *Property {
	if id == "" {
		return nil
	}
	for i := range s.Properties {
		if s.Properties[i].ID == id {
			p := s.Properties[i]
			return &p
		}
	}
	return nil
}

// Current returns the selected property, or nil when nothing is selected.
func (s PropertyState) Current() *Property {
	return s.Find(s.CurrentPropertyID)
}
