// internal/tracker/tracker.go
//
// Sendero – Issue tracker client.
//
// Context
//   Feedback from the site widget becomes an issue in Linear.  Linear
//   exposes a single GraphQL endpoint; CreateIssue posts the issueCreate
//   mutation and returns the human identifier (e.g. "SND-42") and URL.
//   Both transport errors and GraphQL "errors" arrays surface as Go
//   errors so the handler can answer 500 and log the cause.
//
//------------------------------------------------------------------------------

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is Linear's public GraphQL API.
const DefaultEndpoint = "https://api.linear.app/graphql"

// Issue is the tracker-neutral input.
type Issue struct {
	Title       string
	Description string // markdown
	TeamID      string
	ProjectID   string // optional
	LabelIDs    []string
}

// Created identifies the new issue.
type Created struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	URL        string `json:"url"`
}

// Client creates issues.
type Client interface {
	CreateIssue(ctx context.Context, in Issue) (Created, error)
}

// ErrRejected is wrapped when the API answers but does not create the issue.
var ErrRejected = errors.New("tracker: issue not created")

// Linear talks to the Linear GraphQL API.
type Linear struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewLinear returns a client.  An empty endpoint selects DefaultEndpoint
// and a nil hc gets a 15 s timeout client.
func NewLinear(endpoint, apiKey string, hc *http.Client) *Linear {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Linear{endpoint: endpoint, apiKey: apiKey, http: hc}
}

const issueCreateMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { id identifier url }
  }
}`

type issueInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	TeamID      string   `json:"teamId"`
	ProjectID   string   `json:"projectId,omitempty"`
	LabelIDs    []string `json:"labelIds,omitempty"`
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		IssueCreate struct {
			Success bool     `json:"success"`
			Issue   *Created `json:"issue"`
		} `json:"issueCreate"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateIssue runs the issueCreate mutation.
func (l *Linear) CreateIssue(ctx context.Context, in Issue) (Created, error) {
	payload, err := json.Marshal(gqlRequest{
		Query: issueCreateMutation,
		Variables: map[string]any{"input": issueInput{
			Title:       in.Title,
			Description: in.Description,
			TeamID:      in.TeamID,
			ProjectID:   in.ProjectID,
			LabelIDs:    in.LabelIDs,
		}},
	})
	if err != nil {
		return Created{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Created{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return Created{}, fmt.Errorf("linear request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return Created{}, fmt.Errorf("linear returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out gqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Created{}, fmt.Errorf("parse linear response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return Created{}, fmt.Errorf("%w: %s", ErrRejected, strings.Join(msgs, "; "))
	}
	if !out.Data.IssueCreate.Success || out.Data.IssueCreate.Issue == nil {
		return Created{}, ErrRejected
	}
	return *out.Data.IssueCreate.Issue, nil
}
