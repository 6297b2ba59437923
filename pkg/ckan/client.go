// Package ckan is a typed client for the backend's action API. Every
// operation the sync tool issues is an explicit method with explicit
// required and optional fields; "not found" surfaces as a sentinel
// error the caller branches on, never as an exception-style failure.
package ckan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oppnadata/orgsync/pkg/errors"
)

// Client groups the backend's resources behind typed interfaces so the
// reconciler can be exercised against fakes in tests.
type Client interface {
	Organizations() Organizations
	HarvestSources() HarvestSources
	Users() Users
	Packages() Packages
}

// Organizations exposes the backend's organization operations.
type Organizations interface {
	Show(ctx context.Context, slug string, opts ShowOptions) (*Organization, error)
	Create(ctx context.Context, req OrganizationCreate) (*Organization, error)
	Patch(ctx context.Context, req OrganizationPatch) (*Organization, error)
	Delete(ctx context.Context, slug string) error
	List(ctx context.Context) ([]Organization, error)
}

// HarvestSources exposes the backend's harvest source operations.
type HarvestSources interface {
	Show(ctx context.Context, req HarvestSourceShow) (*HarvestSource, error)
	Create(ctx context.Context, req HarvestSourceCreate) (*HarvestSource, error)
	Patch(ctx context.Context, req HarvestSourcePatch) error
	Clear(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CreateJob(ctx context.Context, sourceID string) error
}

// Users exposes the backend's user operations.
type Users interface {
	Show(ctx context.Context, name string) (*User, error)
	Invite(ctx context.Context, email, groupID, role string) error
}

// Packages exposes the backend's dataset operations.
type Packages interface {
	Delete(ctx context.Context, id string) error
}

// ShowOptions selects how much of an organization record to return.
type ShowOptions struct {
	IncludeExtras   bool
	AllFields       bool
	IncludeDatasets bool
}

// OrganizationCreate carries the fields of an organization_create call.
type OrganizationCreate struct {
	Title  string  `json:"title"`
	Name   string  `json:"name"`
	Extras []Extra `json:"extras"`
}

// OrganizationPatch carries the fields of an organization_patch call.
// Title is only sent when non-empty.
type OrganizationPatch struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Extras []Extra `json:"extras"`
}

// HarvestSourceShow looks a source up by id (slug) and/or URL.
type HarvestSourceShow struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// HarvestSourceCreate carries the fields of a harvest_source_create call.
type HarvestSourceCreate struct {
	Title      string `json:"title"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	OwnerOrg   string `json:"owner_org"`
	Frequency  string `json:"frequency"`
	SourceType string `json:"source_type"`
}

// HarvestSourcePatch carries the fields of a harvest_source_patch call.
type HarvestSourcePatch struct {
	ID       string `json:"id"`
	OwnerOrg string `json:"owner_org,omitempty"`
	URL      string `json:"url"`
}

// HTTPClient talks to a live backend over its action API endpoint
// (POST {site}/api/3/action/{action}).
type HTTPClient struct {
	site   string
	apiKey string
	http   *http.Client

	organizations  organizationsClient
	harvestSources harvestSourcesClient
	users          usersClient
	packages       packagesClient
}

// New creates an HTTPClient for the backend at site.
func New(site, apiKey string, timeout time.Duration) *HTTPClient {
	c := &HTTPClient{
		site:   strings.TrimRight(site, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
	c.organizations = organizationsClient{c}
	c.harvestSources = harvestSourcesClient{c}
	c.users = usersClient{c}
	c.packages = packagesClient{c}
	return c
}

// Organizations returns the organization operations.
func (c *HTTPClient) Organizations() Organizations { return c.organizations }

// HarvestSources returns the harvest source operations.
func (c *HTTPClient) HarvestSources() HarvestSources { return c.harvestSources }

// Users returns the user operations.
func (c *HTTPClient) Users() Users { return c.users }

// Packages returns the dataset operations.
func (c *HTTPClient) Packages() Packages { return c.packages }

// envelope is the backend's standard action response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *fault          `json:"error"`
}

// fault is the error body inside a failed action response.
type fault struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// call issues one action against the backend and decodes its result
// into out (which may be nil when the result is irrelevant).
func (c *HTTPClient) call(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding %s params: %w", action, err)
	}

	url := c.site + "/api/3/action/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.APIError{Action: action, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.APIError{Action: action, StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}

	var env envelope
	if decErr := json.Unmarshal(respBody, &env); decErr != nil && resp.StatusCode == http.StatusOK {
		return &errors.APIError{Action: action, StatusCode: resp.StatusCode, Message: "malformed response", Err: decErr}
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := http.StatusText(resp.StatusCode)
		if env.Error != nil {
			msg = env.Error.Message
		}
		return errors.NewAPIError(action, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &errors.APIError{Action: action, StatusCode: resp.StatusCode, Message: "decoding result", Err: err}
	}
	return nil
}
