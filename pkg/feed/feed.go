// Package feed retrieves and parses the remote organization feed.
// The feed is the authoritative source of truth for which organizations
// should exist in the backend; a failure to fetch or parse it is fatal
// to the whole sync run.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/cenkalti/backoff"

	"github.com/oppnadata/orgsync/pkg/errors"
	"github.com/oppnadata/orgsync/pkg/logging"
)

// RawOrganization is one entry straight from the feed. Every key is
// optional and the value may be malformed; validation happens during
// normalization, not here.
type RawOrganization struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	DctURL string `json:"dct_url"`
	Email  string `json:"email"`
}

// Fetcher retrieves the feed over HTTP with bounded retry.
type Fetcher struct {
	client   *http.Client
	retries  int
	interval time.Duration // initial backoff interval
}

// NewFetcher creates a Fetcher with the given per-call timeout and
// number of retries after the initial attempt.
func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		retries:  retries,
		interval: 250 * time.Millisecond,
	}
}

// Fetch performs a GET against url, retrying transport-level failures
// with exponential backoff and jitter. A completed response with a
// non-200 status is not retried. Exhausted retries yield a FetchError
// wrapping ErrUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	log := logging.Ctx(ctx)

	var body []byte
	attempts := 0

	op := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempts).Str("url", url).
				Msg("feed fetch failed, retrying")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&errors.FetchError{URL: url, StatusCode: resp.StatusCode})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.interval
	bo.MaxInterval = 10 * time.Second

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(f.retries)), ctx))
	if err != nil {
		if fe, ok := err.(*errors.FetchError); ok {
			return nil, fe
		}
		return nil, errors.NewFetchError(url, attempts, err)
	}
	return body, nil
}

// Parse decodes the feed body into raw organization entries.
// Malformed JSON is a ParseError, which aborts the run; it is distinct
// from per-record validation failures, which only skip one record.
//
// String fields are extracted from the raw message bytes rather than
// decoded by encoding/json, which would replace invalid UTF-8 with
// U+FFFD and destroy the evidence the normalizer's encoding repair
// needs. Feeds are known to occasionally carry Latin-1 bytes.
func Parse(body []byte) ([]RawOrganization, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, errors.NewParseError("json", "unable to parse feed response", err)
	}

	raws := make([]RawOrganization, 0, len(elems))
	for _, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			return nil, errors.NewParseError("json", "unable to parse feed entry", err)
		}
		raws = append(raws, RawOrganization{
			Name:   rawString(fields["name"]),
			URL:    rawString(fields["url"]),
			DctURL: rawString(fields["dct_url"]),
			Email:  rawString(fields["email"]),
		})
	}
	return raws, nil
}

// rawString decodes a JSON string literal into its byte content,
// preserving sequences that are not valid UTF-8. Missing fields and
// non-string values decode to the empty string.
func rawString(raw json.RawMessage) string {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return ""
	}
	b := raw[1 : len(raw)-1]
	if bytes.IndexByte(b, '\\') < 0 {
		return string(b)
	}
	return unescape(b)
}

// unescape resolves JSON backslash escapes in b. Bytes outside escape
// sequences pass through unmodified, valid UTF-8 or not.
func unescape(b []byte) string {
	var out strings.Builder
	out.Grow(len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' {
			out.WriteByte(b[i])
			continue
		}
		i++
		if i >= len(b) {
			break
		}
		switch b[i] {
		case '"', '\\', '/':
			out.WriteByte(b[i])
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 't':
			out.WriteByte('\t')
		case 'u':
			if i+4 >= len(b) {
				return out.String()
			}
			r := rune(hex4(b[i+1 : i+5]))
			i += 4
			if utf16.IsSurrogate(r) {
				if i+7 <= len(b) && b[i+1] == '\\' && b[i+2] == 'u' {
					if dec := utf16.DecodeRune(r, rune(hex4(b[i+3:i+7]))); dec != unicode.ReplacementChar {
						out.WriteRune(dec)
						i += 6
						continue
					}
				}
				r = unicode.ReplacementChar
			}
			out.WriteRune(r)
		}
	}
	return out.String()
}

// hex4 parses four hex digits. The scanner has already validated the
// document, so malformed digits only appear in truncated input.
func hex4(b []byte) uint16 {
	var v uint16
	for _, c := range b[:4] {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint16(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint16(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint16(c-'A') + 10
		}
	}
	return v
}
