// Package orgs turns raw feed entries into the canonical organization
// records the reconciler operates on. Normalization is deterministic:
// the same raw input always yields the same record, including the
// derived slug and harvest URL.
package orgs

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/oppnadata/orgsync/pkg/errors"
	"github.com/oppnadata/orgsync/pkg/feed"
)

// Organization is the validated, canonical unit the rest of the system
// operates on. Values are immutable once produced. The JSON tags define
// the canonical serialization the fingerprint is computed over.
type Organization struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Slug         string `json:"name"`
	HarvestURL   string `json:"dcat_url"`
	ContactEmail string `json:"email"`
}

// Normalize validates and canonicalizes one raw feed entry.
// A record lacking a title or URL, or carrying text whose encoding
// cannot be repaired, is rejected with a ValidationError; rejection is
// non-fatal and only excludes this record from the run.
func Normalize(raw feed.RawOrganization, defaultEmail string) (Organization, error) {
	title, err := resolveText(raw.Name)
	if err != nil {
		return Organization{}, errors.NewValidationError("name", err.Error())
	}
	url, err := resolveText(raw.URL)
	if err != nil {
		return Organization{}, errors.NewValidationError("url", err.Error())
	}
	dctURL, err := resolveText(raw.DctURL)
	if err != nil {
		return Organization{}, errors.NewValidationError("dct_url", err.Error())
	}
	email, err := resolveText(raw.Email)
	if err != nil {
		return Organization{}, errors.NewValidationError("email", err.Error())
	}

	if title == "" {
		return Organization{}, errors.NewValidationError("name", "required field missing")
	}
	if url == "" {
		return Organization{}, errors.NewValidationError("url", "required field missing")
	}

	// Feed data is known to contain stray spaces inside URLs.
	url = strings.ReplaceAll(url, " ", "")
	dctURL = strings.ReplaceAll(dctURL, " ", "")

	if dctURL == "" {
		dctURL = url + "/datasets/dcat"
	}
	if email == "" {
		email = defaultEmail
	}

	return Organization{
		Title:        title,
		URL:          url,
		Slug:         Slugify(title),
		HarvestURL:   dctURL,
		ContactEmail: email,
	}, nil
}

// Fingerprint computes a stable content hash of the canonical JSON
// serialization of org. Equal fingerprints mean no remote mutation is
// needed; any change in any field changes the fingerprint.
func Fingerprint(org Organization) string {
	// Struct field order fixes the key order, making the serialization
	// canonical regardless of how the record was assembled.
	b, _ := json.Marshal(org)
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
