// Package sync implements the reconciliation engine. One invocation
// fetches the feed, normalizes it, classifies every record, applies
// creates, updates and deletes, and writes a run report, converging
// the backend toward the feed with the minimal set of remote mutations.
package sync

import (
	"context"
	"time"

	"github.com/oppnadata/orgsync/internal/config"
	"github.com/oppnadata/orgsync/pkg/ckan"
	"github.com/oppnadata/orgsync/pkg/errors"
	"github.com/oppnadata/orgsync/pkg/feed"
	"github.com/oppnadata/orgsync/pkg/logging"
	"github.com/oppnadata/orgsync/pkg/orgs"
)

// TimeFormat is the timestamp format stored in the last_sync extra.
const TimeFormat = "2006-01-02 15:04"

// Fetcher retrieves the raw feed document. Satisfied by feed.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Syncer reconciles the organization feed against the backend. The
// mutation phases run strictly in order (create, update, delete)
// because delete eligibility depends on the last_sync timestamps the
// earlier phases write.
type Syncer struct {
	cfg     *config.Config
	client  ckan.Client
	fetcher Fetcher
	now     func() time.Time
}

// New creates a Syncer.
func New(cfg *config.Config, client ckan.Client, fetcher Fetcher) *Syncer {
	return &Syncer{cfg: cfg, client: client, fetcher: fetcher, now: time.Now}
}

// Run performs one full sync. It returns an error only for fatal
// conditions (feed fetch or parse failure); individual organization
// failures are logged, counted in the report, and never abort the run.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	log := logging.Ctx(ctx)
	report := &Report{
		StartedAt: s.now().UTC().Format(TimeFormat),
		FeedURL:   s.cfg.OrgsURL,
		DryRun:    s.cfg.DryRun,
	}

	body, err := s.fetcher.Fetch(ctx, s.cfg.OrgsURL)
	if err != nil {
		log.Error().Err(err).Msg("unable to fetch organization feed")
		return nil, err
	}
	raws, err := feed.Parse(body)
	if err != nil {
		log.Error().Err(err).Msg("unable to parse feed response")
		return nil, err
	}

	log.Debug().Int("organizations", len(raws)).Msg("feed loaded, starting synchronization")

	normalized := make([]orgs.Organization, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		org, err := orgs.Normalize(raw, s.cfg.DefaultEmail)
		if err != nil {
			log.Warn().Err(err).Str("name", raw.Name).Msg("invalid organization record, skipping")
			report.Rejected++
			continue
		}
		normalized = append(normalized, org)
		seen[org.Slug] = true
	}

	createSet, updateSet := s.classify(ctx, normalized, report)

	if s.cfg.DryRun {
		s.planOnly(ctx, createSet, updateSet, normalized, report)
		log.Info().Str("summary", report.Summary()).Msg("dry run complete, no mutations issued")
		s.writeReport(ctx, report)
		return report, nil
	}

	for _, org := range createSet {
		if err := s.create(ctx, org); err != nil {
			log.Error().Err(err).Str("org", org.Slug).Msg("create failed")
			report.fail(org.Slug, "create", err)
			continue
		}
		report.Created++
	}

	for _, org := range updateSet {
		changed, err := s.update(ctx, org)
		if err != nil {
			log.Error().Err(err).Str("org", org.Slug).Msg("update failed")
			report.fail(org.Slug, "update", err)
			continue
		}
		if changed {
			report.Updated++
		} else {
			report.Unchanged++
		}
	}

	s.deleteStale(ctx, seen, report)

	log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("deleted", report.Deleted).
		Msg(report.Summary())

	s.writeReport(ctx, report)

	return report, nil
}

// classify partitions the normalized records into create and update
// sets by probing the backend for an existing record per slug.
func (s *Syncer) classify(ctx context.Context, normalized []orgs.Organization, report *Report) (createSet, updateSet []orgs.Organization) {
	log := logging.Ctx(ctx)

	for _, org := range normalized {
		_, err := s.client.Organizations().Show(ctx, org.Slug, ckan.ShowOptions{})
		switch {
		case err == nil:
			log.Debug().Str("org", org.Slug).Msg("organization exists, will update")
			updateSet = append(updateSet, org)
		case errors.IsNotFound(err):
			log.Debug().Str("org", org.Slug).Msg("organization does not exist, will create")
			createSet = append(createSet, org)
		default:
			log.Error().Err(err).Str("org", org.Slug).Msg("existence check failed")
			report.fail(org.Slug, "classify", err)
		}
	}
	return createSet, updateSet
}

// create issues the organization create, ensures its harvest source
// exists with one queued harvest job, and provisions the admin user.
func (s *Syncer) create(ctx context.Context, org orgs.Organization) error {
	log := logging.Ctx(ctx)

	created, err := s.client.Organizations().Create(ctx, ckan.OrganizationCreate{
		Title:  org.Title,
		Name:   org.Slug,
		Extras: s.syncExtras(org),
	})
	if err != nil {
		return errors.NewSyncError(org.Slug, "create", err)
	}
	log.Info().Str("org", org.Slug).Msg("organization created")

	if err := s.ensureHarvestSource(ctx, created, org); err != nil {
		return errors.NewSyncError(org.Slug, "create", err)
	}
	return s.provisionUser(ctx, created, org)
}

// update compares fingerprints and patches the organization and its
// harvest source only when the record actually changed. User
// provisioning always runs; invitations are not content-tracked.
func (s *Syncer) update(ctx context.Context, org orgs.Organization) (changed bool, err error) {
	log := logging.Ctx(ctx)

	existing, err := s.client.Organizations().Show(ctx, org.Slug, ckan.ShowOptions{IncludeExtras: true, AllFields: true})
	if err != nil {
		return false, errors.NewSyncError(org.Slug, "update", err)
	}

	fingerprint := orgs.Fingerprint(org)
	stored, _ := existing.Extra(ckan.ExtraLastSyncHash)
	if stored == fingerprint {
		log.Info().Str("org", org.Slug).Msg("no change in organization, skipping update")
		return false, s.provisionUser(ctx, existing, org)
	}

	log.Info().Str("org", org.Slug).Msg("detected change in organization, performing update")

	if err := s.client.HarvestSources().Patch(ctx, ckan.HarvestSourcePatch{
		ID:       org.Slug,
		OwnerOrg: existing.ID,
		URL:      org.HarvestURL,
	}); err != nil {
		return false, errors.NewSyncError(org.Slug, "update", err)
	}

	if _, err := s.client.Organizations().Patch(ctx, ckan.OrganizationPatch{
		ID:     org.Slug,
		Title:  org.Title,
		Extras: s.syncExtras(org),
	}); err != nil {
		return false, errors.NewSyncError(org.Slug, "update", err)
	}

	return true, s.provisionUser(ctx, existing, org)
}

// syncExtras builds the bookkeeping extras written on create and on a
// changed update. The url extra is what makes a later hard delete able
// to re-derive the harvest endpoint.
func (s *Syncer) syncExtras(org orgs.Organization) []ckan.Extra {
	return []ckan.Extra{
		{Key: ckan.ExtraURL, Value: org.URL},
		{Key: ckan.ExtraLastSync, Value: s.now().UTC().Format(TimeFormat)},
		{Key: ckan.ExtraLastSyncHash, Value: orgs.Fingerprint(org)},
		{Key: ckan.ExtraLastSyncDcat, Value: org.HarvestURL},
	}
}

// ensureHarvestSource patches the harvest source for org when one
// already exists for its slug and endpoint, and otherwise creates it
// and queues an initial harvest job.
func (s *Syncer) ensureHarvestSource(ctx context.Context, created *ckan.Organization, org orgs.Organization) error {
	log := logging.Ctx(ctx)

	_, err := s.client.HarvestSources().Show(ctx, ckan.HarvestSourceShow{ID: org.Slug, URL: org.HarvestURL})
	switch {
	case err == nil:
		log.Info().Str("org", org.Slug).Msg("harvest source already exists, updating")
		return s.client.HarvestSources().Patch(ctx, ckan.HarvestSourcePatch{
			ID:       org.Slug,
			OwnerOrg: created.ID,
			URL:      org.HarvestURL,
		})
	case errors.IsNotFound(err):
		src, err := s.client.HarvestSources().Create(ctx, ckan.HarvestSourceCreate{
			Title:      created.Title,
			Name:       created.Name,
			URL:        org.HarvestURL,
			OwnerOrg:   created.ID,
			Frequency:  ckan.FrequencyWeekly,
			SourceType: ckan.SourceTypeDCATRDF,
		})
		if err != nil {
			return err
		}
		log.Info().Str("org", org.Slug).Msg("harvest source created")

		if err := s.client.HarvestSources().CreateJob(ctx, src.ID); err != nil {
			return err
		}
		log.Info().Str("org", org.Slug).Msg("harvest job queued")
		return nil
	default:
		return err
	}
}

// provisionUser sends an admin invitation for the record's contact
// email unless some current admin of the organization already has it.
// Additive and idempotent; existing admins are never revoked.
func (s *Syncer) provisionUser(ctx context.Context, backendOrg *ckan.Organization, org orgs.Organization) error {
	log := logging.Ctx(ctx)

	if org.ContactEmail == "" {
		return nil
	}

	for _, member := range backendOrg.Users {
		if member.Capacity != "" && member.Capacity != ckan.RoleAdmin {
			continue
		}
		user, err := s.client.Users().Show(ctx, member.Name)
		if err != nil {
			log.Warn().Err(err).Str("user", member.Name).Msg("unable to look up organization member")
			continue
		}
		if user.Email == org.ContactEmail {
			log.Info().Str("org", org.Slug).Str("email", org.ContactEmail).
				Msg("user already an admin, skipping invite")
			return nil
		}
	}

	if err := s.client.Users().Invite(ctx, org.ContactEmail, backendOrg.ID, ckan.RoleAdmin); err != nil {
		return errors.NewSyncError(org.Slug, "invite", err)
	}
	log.Info().Str("org", org.Slug).Str("email", org.ContactEmail).
		Msg("admin user invited")
	return nil
}
