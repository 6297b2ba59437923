package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/oppnadata/orgsync/pkg/ckan"
	"github.com/oppnadata/orgsync/pkg/logging"
	"github.com/oppnadata/orgsync/pkg/orgs"
)

// Failure records one non-fatal per-organization error.
type Failure struct {
	Org   string `yaml:"org,omitempty"`
	Phase string `yaml:"phase"`
	Error string `yaml:"error"`
}

// Report summarizes one sync run: what changed, what was skipped, and
// which organizations failed without aborting the run.
type Report struct {
	StartedAt string    `yaml:"started_at"`
	FeedURL   string    `yaml:"feed_url"`
	DryRun    bool      `yaml:"dry_run,omitempty"`
	Created   int       `yaml:"created"`
	Updated   int       `yaml:"updated"`
	Unchanged int       `yaml:"unchanged"`
	Deleted   int       `yaml:"deleted"`
	Rejected  int       `yaml:"rejected"`
	Failures  []Failure `yaml:"failures,omitempty"`
}

// fail records one per-organization failure.
func (r *Report) fail(org, phase string, err error) {
	r.Failures = append(r.Failures, Failure{Org: org, Phase: phase, Error: err.Error()})
}

// Summary returns the one-line run summary emitted at the end of a run.
func (r *Report) Summary() string {
	return fmt.Sprintf("create:%d | update:%d | delete:%d", r.Created, r.Updated, r.Deleted)
}

// WriteFile writes the report as YAML into dir and returns the path.
func (r *Report) WriteFile(dir string, now time.Time) (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("orgsync-report-%s.yaml", now.UTC().Format("2006-01-02T15-04-05"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// writeReport persists the run report next to the run log. Failure to
// write it never fails the run.
func (s *Syncer) writeReport(ctx context.Context, report *Report) {
	if s.cfg.LogPath == "" {
		return
	}
	log := logging.Ctx(ctx)
	path, err := report.WriteFile(s.cfg.LogPath, s.now())
	if err != nil {
		log.Warn().Err(err).Msg("unable to write run report")
		return
	}
	log.Debug().Str("path", path).Msg("run report written")
}

// planOnly fills the report with what a real run would do, using only
// read calls. The delete estimate cannot rely on freshly written
// last_sync timestamps, so it intersects the staleness rule with
// absence from the feed.
func (s *Syncer) planOnly(ctx context.Context, createSet, updateSet, normalized []orgs.Organization, report *Report) {
	log := logging.Ctx(ctx)

	report.Created = len(createSet)

	for _, org := range updateSet {
		existing, err := s.client.Organizations().Show(ctx, org.Slug, ckan.ShowOptions{IncludeExtras: true, AllFields: true})
		if err != nil {
			report.fail(org.Slug, "plan", err)
			continue
		}
		stored, _ := existing.Extra(ckan.ExtraLastSyncHash)
		if stored == orgs.Fingerprint(org) {
			report.Unchanged++
		} else {
			report.Updated++
		}
	}

	inFeed := make(map[string]bool, len(normalized))
	for _, org := range normalized {
		inFeed[org.Slug] = true
	}

	list, err := s.client.Organizations().List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("unable to list backend organizations for delete estimate")
		report.fail("", "plan", err)
		return
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	for i := range list {
		if inFeed[list[i].Name] {
			continue
		}
		if s.staleSince(&list[i], today) {
			report.Deleted++
		}
	}
}
