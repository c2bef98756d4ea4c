package access

const (
	ResourceClients      = "clients"
	ResourceLeads        = "leads"
	ResourcePackages     = "packages"
	ResourceInvoices     = "invoices"
	ResourceEmployees    = "employees"
	ResourceRoles        = "roles"
	ResourceFinance      = "finance"
	ResourceWorkTracking = "work_tracking"
	ResourceCalendar     = "calendar"
	ResourceSettings     = "settings"
)

const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionArchive = "archive"
	ActionConvert = "convert"
	ActionExport  = "export"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type ResourceActions struct {
	Resource string
	Actions  []string
}

// Catalog is the closed resource -> actions vocabulary. Order is stable and
// drives AllPermissions.
var Catalog = []ResourceActions{
	{ResourceClients, []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionArchive}},
	{ResourceLeads, []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionConvert}},
	{ResourcePackages, []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
	{ResourceInvoices, []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
	{ResourceEmployees, []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
	{ResourceRoles, []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
	{ResourceFinance, []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}},
	{ResourceWorkTracking, []string{ActionView, ActionEdit}},
	{ResourceCalendar, []string{ActionView, ActionCreate, ActionEdit, ActionDelete}},
	{ResourceSettings, []string{ActionView, ActionEdit}},
}

var allPermissions = buildAllPermissions()

func buildAllPermissions() []string {
	var out []string
	for _, entry := range Catalog {
		for _, action := range entry.Actions {
			out = append(out, Permission(entry.Resource, action))
		}
	}
	return out
}

func Permission(resource, action string) string {
	return resource + ":" + action
}

// AllPermissions returns a copy of the full catalog flattened to
// "resource:action" strings.
func AllPermissions() []string {
	out := make([]string, len(allPermissions))
	copy(out, allPermissions)
	return out
}

func IsKnown(permission string) bool {
	for _, p := range allPermissions {
		if p == permission {
			return true
		}
	}
	return false
}
