package ckan

// Extra is one key/value pair in a record's extras mapping. The sync
// tool stores its bookkeeping (url, last_sync, last_sync_hash,
// last_sync_dcat_url) here.
type Extra struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Extras keys written by the sync tool.
const (
	ExtraURL          = "url"
	ExtraLastSync     = "last_sync"
	ExtraLastSyncHash = "last_sync_hash"
	ExtraLastSyncDcat = "last_sync_dcat_url"
)

// Organization is the backend's view of an organization record.
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"` // the slug
	Title        string    `json:"title"`
	State        string    `json:"state,omitempty"`
	PackageCount int       `json:"package_count,omitempty"`
	Extras       []Extra   `json:"extras,omitempty"`
	Users        []OrgUser `json:"users,omitempty"`
	Packages     []Package `json:"packages,omitempty"`
}

// Extra returns the value for key in the organization's extras.
func (o *Organization) Extra(key string) (string, bool) {
	for _, e := range o.Extras {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// OrgUser is an organization membership entry as returned by the
// backend's organization_show.
type OrgUser struct {
	Name     string `json:"name"`
	Capacity string `json:"capacity,omitempty"`
}

// User is a backend user record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Package is a dataset owned by an organization.
type Package struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HarvestSource is a backend record describing where to periodically
// pull an organization's datasets from.
type HarvestSource struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	OwnerOrg   string `json:"owner_org"`
	Frequency  string `json:"frequency,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// Harvest source settings used for feed organizations.
const (
	FrequencyWeekly   = "WEEKLY"
	SourceTypeDCATRDF = "dcat_rdf"
)

// RoleAdmin is the role granted by sync-issued user invitations.
const RoleAdmin = "admin"
