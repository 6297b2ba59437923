package ckan

import "context"

type organizationsClient struct{ c *HTTPClient }

func (o organizationsClient) Show(ctx context.Context, slug string, opts ShowOptions) (*Organization, error) {
	params := map[string]any{"id": slug}
	if opts.IncludeExtras {
		params["include_extras"] = true
	}
	if opts.AllFields {
		params["all_fields"] = true
	}
	if opts.IncludeDatasets {
		params["include_datasets"] = true
	}
	var org Organization
	if err := o.c.call(ctx, "organization_show", params, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (o organizationsClient) Create(ctx context.Context, req OrganizationCreate) (*Organization, error) {
	var org Organization
	if err := o.c.call(ctx, "organization_create", req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (o organizationsClient) Patch(ctx context.Context, req OrganizationPatch) (*Organization, error) {
	var org Organization
	if err := o.c.call(ctx, "organization_patch", req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (o organizationsClient) Delete(ctx context.Context, slug string) error {
	return o.c.call(ctx, "organization_delete", map[string]any{"id": slug}, nil)
}

func (o organizationsClient) List(ctx context.Context) ([]Organization, error) {
	params := map[string]any{"include_extras": true, "all_fields": true}
	var list []Organization
	if err := o.c.call(ctx, "organization_list", params, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type harvestSourcesClient struct{ c *HTTPClient }

func (h harvestSourcesClient) Show(ctx context.Context, req HarvestSourceShow) (*HarvestSource, error) {
	var src HarvestSource
	if err := h.c.call(ctx, "harvest_source_show", req, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

func (h harvestSourcesClient) Create(ctx context.Context, req HarvestSourceCreate) (*HarvestSource, error) {
	var src HarvestSource
	if err := h.c.call(ctx, "harvest_source_create", req, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

func (h harvestSourcesClient) Patch(ctx context.Context, req HarvestSourcePatch) error {
	return h.c.call(ctx, "harvest_source_patch", req, nil)
}

func (h harvestSourcesClient) Clear(ctx context.Context, id string) error {
	return h.c.call(ctx, "harvest_source_clear", map[string]any{"id": id}, nil)
}

func (h harvestSourcesClient) Delete(ctx context.Context, id string) error {
	return h.c.call(ctx, "harvest_source_delete", map[string]any{"id": id}, nil)
}

func (h harvestSourcesClient) CreateJob(ctx context.Context, sourceID string) error {
	return h.c.call(ctx, "harvest_job_create", map[string]any{"source_id": sourceID}, nil)
}

type usersClient struct{ c *HTTPClient }

func (u usersClient) Show(ctx context.Context, name string) (*User, error) {
	var user User
	if err := u.c.call(ctx, "user_show", map[string]any{"id": name}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u usersClient) Invite(ctx context.Context, email, groupID, role string) error {
	params := map[string]any{"email": email, "group_id": groupID, "role": role}
	return u.c.call(ctx, "user_invite", params, nil)
}

type packagesClient struct{ c *HTTPClient }

func (p packagesClient) Delete(ctx context.Context, id string) error {
	return p.c.call(ctx, "package_delete", map[string]any{"id": id}, nil)
}
