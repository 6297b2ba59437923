package sync

import (
	"context"
	"net/http"

	"github.com/oppnadata/orgsync/pkg/ckan"
	"github.com/oppnadata/orgsync/pkg/errors"
)

// fakeBackend is an in-memory stand-in for the backend action API.
// Every mutation appends to calls so tests can assert on exactly which
// remote operations a run issued, and in what order.
type fakeBackend struct {
	orgs    map[string]*ckan.Organization
	sources map[string]*ckan.HarvestSource // keyed by source name
	users   map[string]*ckan.User          // keyed by user name
	calls   []string
	invites []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		orgs:    map[string]*ckan.Organization{},
		sources: map[string]*ckan.HarvestSource{},
		users:   map[string]*ckan.User{},
	}
}

func (b *fakeBackend) Organizations() ckan.Organizations   { return fakeOrgs{b} }
func (b *fakeBackend) HarvestSources() ckan.HarvestSources { return fakeSources{b} }
func (b *fakeBackend) Users() ckan.Users                   { return fakeUsers{b} }
func (b *fakeBackend) Packages() ckan.Packages             { return fakePackages{b} }

func notFound(action string) error {
	return errors.NewAPIError(action, http.StatusNotFound, "not found")
}

type fakeOrgs struct{ b *fakeBackend }

func (f fakeOrgs) Show(ctx context.Context, slug string, opts ckan.ShowOptions) (*ckan.Organization, error) {
	f.b.calls = append(f.b.calls, "organization_show:"+slug)
	org, ok := f.b.orgs[slug]
	if !ok {
		return nil, notFound("organization_show")
	}
	copied := *org
	return &copied, nil
}

func (f fakeOrgs) Create(ctx context.Context, req ckan.OrganizationCreate) (*ckan.Organization, error) {
	f.b.calls = append(f.b.calls, "organization_create:"+req.Name)
	if _, exists := f.b.orgs[req.Name]; exists {
		return nil, errors.NewAPIError("organization_create", http.StatusConflict, "name already in use")
	}
	org := &ckan.Organization{
		ID:     "id-" + req.Name,
		Name:   req.Name,
		Title:  req.Title,
		Extras: req.Extras,
	}
	f.b.orgs[req.Name] = org
	copied := *org
	return &copied, nil
}

func (f fakeOrgs) Patch(ctx context.Context, req ckan.OrganizationPatch) (*ckan.Organization, error) {
	f.b.calls = append(f.b.calls, "organization_patch:"+req.ID)
	org, ok := f.b.orgs[req.ID]
	if !ok {
		return nil, notFound("organization_patch")
	}
	if req.Title != "" {
		org.Title = req.Title
	}
	org.Extras = req.Extras
	copied := *org
	return &copied, nil
}

func (f fakeOrgs) Delete(ctx context.Context, slug string) error {
	f.b.calls = append(f.b.calls, "organization_delete:"+slug)
	if _, ok := f.b.orgs[slug]; !ok {
		return notFound("organization_delete")
	}
	delete(f.b.orgs, slug)
	return nil
}

func (f fakeOrgs) List(ctx context.Context) ([]ckan.Organization, error) {
	f.b.calls = append(f.b.calls, "organization_list")
	list := make([]ckan.Organization, 0, len(f.b.orgs))
	for _, org := range f.b.orgs {
		list = append(list, *org)
	}
	return list, nil
}

type fakeSources struct{ b *fakeBackend }

func (f fakeSources) Show(ctx context.Context, req ckan.HarvestSourceShow) (*ckan.HarvestSource, error) {
	f.b.calls = append(f.b.calls, "harvest_source_show")
	for _, src := range f.b.sources {
		if (req.ID != "" && src.Name == req.ID) || (req.URL != "" && src.URL == req.URL) {
			copied := *src
			return &copied, nil
		}
	}
	return nil, notFound("harvest_source_show")
}

func (f fakeSources) Create(ctx context.Context, req ckan.HarvestSourceCreate) (*ckan.HarvestSource, error) {
	f.b.calls = append(f.b.calls, "harvest_source_create:"+req.Name)
	src := &ckan.HarvestSource{
		ID:         "src-" + req.Name,
		Name:       req.Name,
		Title:      req.Title,
		URL:        req.URL,
		OwnerOrg:   req.OwnerOrg,
		Frequency:  req.Frequency,
		SourceType: req.SourceType,
	}
	f.b.sources[req.Name] = src
	copied := *src
	return &copied, nil
}

func (f fakeSources) Patch(ctx context.Context, req ckan.HarvestSourcePatch) error {
	f.b.calls = append(f.b.calls, "harvest_source_patch:"+req.ID)
	for _, src := range f.b.sources {
		if src.Name == req.ID || src.ID == req.ID {
			src.URL = req.URL
			if req.OwnerOrg != "" {
				src.OwnerOrg = req.OwnerOrg
			}
			return nil
		}
	}
	return notFound("harvest_source_patch")
}

func (f fakeSources) Clear(ctx context.Context, id string) error {
	f.b.calls = append(f.b.calls, "harvest_source_clear:"+id)
	return nil
}

func (f fakeSources) Delete(ctx context.Context, id string) error {
	f.b.calls = append(f.b.calls, "harvest_source_delete:"+id)
	for name, src := range f.b.sources {
		if src.ID == id {
			delete(f.b.sources, name)
			return nil
		}
	}
	return nil
}

func (f fakeSources) CreateJob(ctx context.Context, sourceID string) error {
	f.b.calls = append(f.b.calls, "harvest_job_create:"+sourceID)
	return nil
}

type fakeUsers struct{ b *fakeBackend }

func (f fakeUsers) Show(ctx context.Context, name string) (*ckan.User, error) {
	f.b.calls = append(f.b.calls, "user_show:"+name)
	user, ok := f.b.users[name]
	if !ok {
		return nil, notFound("user_show")
	}
	copied := *user
	return &copied, nil
}

func (f fakeUsers) Invite(ctx context.Context, email, groupID, role string) error {
	f.b.calls = append(f.b.calls, "user_invite:"+email)
	f.b.invites = append(f.b.invites, email)
	return nil
}

type fakePackages struct{ b *fakeBackend }

func (f fakePackages) Delete(ctx context.Context, id string) error {
	f.b.calls = append(f.b.calls, "package_delete:"+id)
	return nil
}

// fakeFetcher serves a fixed feed body or a fixed error.
type fakeFetcher struct {
	body []byte
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.body, f.err
}
