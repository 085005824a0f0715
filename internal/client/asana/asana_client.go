package asana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
)

const (
	defaultBaseURL = "https://app.asana.com/api/1.0"
	pageSize       = 100

	userFields = "name,email"
	taskFields = "name,completed,completed_at,created_at,due_on,assignee,assignee.name,assignee.email," +
		"followers,followers.name,projects,projects.name,custom_fields,custom_fields.name," +
		"custom_fields.enum_value,custom_fields.enum_value.name"
)

type AsanaClient struct {
	baseUrl    string
	token      string
	httpClient *http.Client
}

func NewAsanaClient(token string) *AsanaClient {
	return &AsanaClient{
		baseUrl:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the client at another API root, e.g. a test server.
func (c *AsanaClient) WithBaseURL(baseURL string) *AsanaClient {
	c.baseUrl = strings.TrimRight(baseURL, "/")
	return c
}

// RateLimitError is returned when Asana answers 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (asana), retry after %v", e.RetryAfter)
}

// IsRateLimitError unwraps a *RateLimitError from err.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

func (c *AsanaClient) GetTeamUsers(ctx context.Context, teamGid string) ([]models.Assignee, error) {
	users, err := getAll[AsanaUser](ctx, c, "/teams/"+teamGid+"/users", userFields)
	if err != nil {
		return nil, fmt.Errorf("get team users (asana): %w", err)
	}

	assignees := make([]models.Assignee, 0, len(users))
	for _, u := range users {
		assignees = append(assignees, toAssignee(u))
	}
	return assignees, nil
}

func (c *AsanaClient) GetSections(ctx context.Context, projectGid string) ([]models.Section, error) {
	sections, err := getAll[AsanaSection](ctx, c, "/projects/"+projectGid+"/sections", "name")
	if err != nil {
		return nil, fmt.Errorf("get sections (asana): %w", err)
	}

	out := make([]models.Section, 0, len(sections))
	for _, s := range sections {
		out = append(out, models.Section{Gid: s.Gid, Name: s.Name, Tasks: []*models.Task{}})
	}
	return out, nil
}

func (c *AsanaClient) GetSectionTasks(ctx context.Context, sectionGid string) ([]*models.Task, error) {
	raw, err := getAll[AsanaTask](ctx, c, "/sections/"+sectionGid+"/tasks", taskFields)
	if err != nil {
		return nil, fmt.Errorf("get section tasks (asana): %w", err)
	}

	tasks := make([]*models.Task, 0, len(raw))
	for _, t := range raw {
		tasks = append(tasks, toTask(t))
	}
	return tasks, nil
}

func (c *AsanaClient) GetSubtasks(ctx context.Context, taskGid string) ([]*models.Subtask, error) {
	raw, err := getAll[AsanaTask](ctx, c, "/tasks/"+taskGid+"/subtasks", taskFields)
	if err != nil {
		return nil, fmt.Errorf("get subtasks (asana): %w", err)
	}

	subtasks := make([]*models.Subtask, 0, len(raw))
	for _, t := range raw {
		subtasks = append(subtasks, toSubtask(t))
	}
	return subtasks, nil
}

// getAll follows next_page offsets until the collection is exhausted.
func getAll[T any](ctx context.Context, c *AsanaClient, path, optFields string) ([]T, error) {
	var all []T
	offset := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("opt_fields", optFields)
		if offset != "" {
			q.Set("offset", offset)
		}

		var page AsanaResponse[T]
		if err := c.get(ctx, path+"?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)

		if page.NextPage == nil || page.NextPage.Offset == "" {
			return all, nil
		}
		offset = page.NextPage.Offset
	}
}

func (c *AsanaClient) get(ctx context.Context, pathAndQuery string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl+pathAndQuery, nil)
	if err != nil {
		return fmt.Errorf("build request (asana): %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request (asana): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode != http.StatusOK {
		errorBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error body (asana): %w", err)
		}

		var asanaErr AsanaErrors
		if err := json.Unmarshal(errorBody, &asanaErr); err != nil {
			return fmt.Errorf("error status (asana): %d", resp.StatusCode)
		}
		if len(asanaErr.Errors) > 0 {
			return fmt.Errorf("Asana error (status %d): %s", resp.StatusCode, asanaErr.Errors[0].Message)
		}
		return fmt.Errorf("API error status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body (asana): %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response (asana): %w", err)
	}
	return nil
}

// parseRetryAfter accepts seconds or an HTTP date and defaults to a minute.
func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 60 * time.Second
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}
	return 60 * time.Second
}

func toAssignee(u AsanaUser) models.Assignee {
	return models.Assignee{Gid: u.Gid, Name: u.Name, Email: models.NormalizeEmail(u.Email)}
}

func toAssigneeRef(u *AsanaUser) *models.Assignee {
	if u == nil || u.Gid == "" {
		return nil
	}
	a := toAssignee(*u)
	return &a
}

func priorityOf(fields []AsanaCustomField) string {
	for _, cf := range fields {
		if cf.Name == "Priority" && cf.EnumValue != nil {
			return strings.ToLower(cf.EnumValue.Name)
		}
	}
	return ""
}

func projectOf(projects []AsanaProjectRef) string {
	if len(projects) == 0 {
		return ""
	}
	return projects[0].Name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toTask(t AsanaTask) *models.Task {
	return &models.Task{
		Gid:         t.Gid,
		Name:        t.Name,
		Assignee:    toAssigneeRef(t.Assignee),
		Completed:   t.Completed,
		CompletedAt: deref(t.CompletedAt),
		CreatedAt:   t.CreatedAt,
		DueOn:       deref(t.DueOn),
		Priority:    priorityOf(t.CustomFields),
		Project:     projectOf(t.Projects),
		Subtasks:    []*models.Subtask{},
	}
}

func toSubtask(t AsanaTask) *models.Subtask {
	followers := make([]models.Follower, 0, len(t.Followers))
	for _, f := range t.Followers {
		followers = append(followers, models.Follower{Gid: f.Gid, Name: f.Name})
	}
	return &models.Subtask{
		Gid:         t.Gid,
		Name:        t.Name,
		Assignee:    toAssigneeRef(t.Assignee),
		Followers:   followers,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		CompletedAt: deref(t.CompletedAt),
		DueOn:       deref(t.DueOn),
		Project:     projectOf(t.Projects),
		Priority:    priorityOf(t.CustomFields),
	}
}
