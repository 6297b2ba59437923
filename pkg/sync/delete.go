package sync

import (
	"context"
	"time"

	"github.com/oppnadata/orgsync/pkg/ckan"
	"github.com/oppnadata/orgsync/pkg/errors"
	"github.com/oppnadata/orgsync/pkg/logging"
)

// deleteStale removes every backend organization this run did not
// refresh. Eligibility comes from the backend's own listing, never from
// the feed: an organization with no last_sync extra was never written
// by this tool, and one whose last_sync date is strictly before today
// disappeared from the feed. Both go. Organizations whose slug appeared
// in this run's feed are never candidates, since an unchanged update
// deliberately leaves last_sync untouched.
func (s *Syncer) deleteStale(ctx context.Context, seen map[string]bool, report *Report) {
	log := logging.Ctx(ctx)

	list, err := s.client.Organizations().List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("unable to list backend organizations, skipping delete phase")
		report.fail("", "delete", err)
		return
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	for i := range list {
		org := &list[i]
		if seen[org.Name] {
			continue
		}
		if !s.staleSince(org, today) {
			continue
		}
		if err := s.delete(ctx, org); err != nil {
			log.Error().Err(err).Str("org", org.Name).Msg("delete failed")
			report.fail(org.Name, "delete", err)
			continue
		}
		log.Info().Str("org", org.Name).Bool("hard", s.cfg.HardDelete).Msg("organization deleted")
		report.Deleted++
	}
}

// staleSince reports whether org qualifies for deletion: no last_sync
// extra at all, an unparseable one, or a last_sync date before today.
func (s *Syncer) staleSince(org *ckan.Organization, today time.Time) bool {
	value, ok := org.Extra(ckan.ExtraLastSync)
	if !ok {
		return true
	}
	lastSync, err := time.Parse(TimeFormat, value)
	if err != nil {
		return true
	}
	return lastSync.UTC().Truncate(24 * time.Hour).Before(today)
}

// delete removes one organization. Soft delete marks it inactive and
// never touches datasets. Hard delete has to unwind the backend's
// referential constraints first: clear and remove the harvest source,
// then every owned dataset, then the organization itself.
func (s *Syncer) delete(ctx context.Context, org *ckan.Organization) error {
	log := logging.Ctx(ctx)

	if !s.cfg.HardDelete {
		return s.client.Organizations().Delete(ctx, org.Name)
	}

	dcatURL, ok := org.Extra(ckan.ExtraLastSyncDcat)
	if !ok || dcatURL == "" {
		url, _ := org.Extra(ckan.ExtraURL)
		dcatURL = url + "/datasets/dcat"
	}

	src, err := s.client.HarvestSources().Show(ctx, ckan.HarvestSourceShow{URL: dcatURL})
	switch {
	case errors.IsNotFound(err):
		log.Info().Str("org", org.Name).Str("url", dcatURL).
			Msg("harvest source not found, skipping its removal")
	case err != nil:
		return err
	default:
		if err := s.client.HarvestSources().Clear(ctx, src.ID); err != nil {
			return err
		}
		if err := s.client.HarvestSources().Delete(ctx, src.ID); err != nil {
			return err
		}
	}

	if org.PackageCount > 0 {
		full, err := s.client.Organizations().Show(ctx, org.Name, ckan.ShowOptions{
			IncludeDatasets: true,
			AllFields:       true,
		})
		if err != nil {
			return err
		}
		for _, pkg := range full.Packages {
			if err := s.client.Packages().Delete(ctx, pkg.Name); err != nil {
				return err
			}
		}
	}

	return s.client.Organizations().Delete(ctx, org.Name)
}
