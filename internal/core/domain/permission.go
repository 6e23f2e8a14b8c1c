package domain

import "sort"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleCleaner = "cleaner"
)

// Capability names checked through the permission resolver.
const (
	CapPropertyManagement        = "property_management"
	CapInventoryManagement       = "inventory_management"
	CapTaskManagement            = "task_management"
	CapCalendarManagement        = "calendar_management"
	CapRecommendationsManagement = "recommendations_management"
	CapUserManagement            = "user_management"
	CapViewInventory             = "view_inventory"
	CapViewTasks                 = "view_tasks"
	CapViewCalendar              = "view_calendar"
)

// AllCapabilities is the full capability set granted to property owners.
var AllCapabilities = []string{
	CapPropertyManagement,
	CapInventoryManagement,
	CapTaskManagement,
	CapCalendarManagement,
	CapRecommendationsManagement,
	CapUserManagement,
	CapViewInventory,
	CapViewTasks,
	CapViewCalendar,
}

// CapabilityTable maps a role to the capabilities it grants.
type CapabilityTable map[string][]string

// DefaultCapabilityTable is used unless role_permissions rows replace it.
func DefaultCapabilityTable() CapabilityTable {
	return CapabilityTable{
		RoleAdmin: append([]string(nil), AllCapabilities...),
		RoleManager: {
			CapPropertyManagement,
			CapInventoryManagement,
			CapTaskManagement,
			CapCalendarManagement,
			CapRecommendationsManagement,
			CapViewInventory,
			CapViewTasks,
			CapViewCalendar,
		},
		RoleStaff:   {CapInventoryManagement, CapTaskManagement, CapViewInventory, CapViewTasks, CapViewCalendar},
		RoleCleaner: {CapViewTasks, CapViewInventory},
	}
}

// PermissionSet is derived from the session and the current property. It is
// never stored.
type PermissionSet struct {
	Role         string          `json:"role"`
	Owner        bool            `json:"owner"`
	Capabilities map[string]bool `json:"capabilities"`
}

// Can reports whether capability is granted. Unknown names are denied.
func (p PermissionSet) Can(capability string) bool {
	return p.Capabilities[capability]
}

// List returns the granted capabilities in sorted order.
func (p PermissionSet) List() []string {
	out := make([]string, 0, len(p.Capabilities))
	for c, ok := range p.Capabilities {
		if ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
