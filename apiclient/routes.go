package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"prism-sync/domain"
)

// ListProjects fetches every project visible to the session.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches one project with its tasks and collaborators.
func (c *Client) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var p domain.Project
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &p)
	return p, err
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, draft domain.ProjectDraft) (domain.Project, error) {
	var p domain.Project
	err := c.do(ctx, http.MethodPost, "/projects", draft, &p)
	return p, err
}

// UpdateProject replaces the editable fields of a project.
func (c *Client) UpdateProject(ctx context.Context, id string, draft domain.ProjectDraft) (domain.Project, error) {
	var p domain.Project
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), draft, &p)
	return p, err
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) (domain.Ack, error) {
	var ack domain.Ack
	err := c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, &ack)
	return ack, err
}

// FindCollaborator resolves an email to a collaborator candidate.
func (c *Client) FindCollaborator(ctx context.Context, email string) (domain.Collaborator, error) {
	var col domain.Collaborator
	err := c.do(ctx, http.MethodPost, "/projects/collaborators", map[string]string{"email": email}, &col)
	return col, err
}

// AddCollaborator attaches the user with email to the project.
func (c *Client) AddCollaborator(ctx context.Context, projectID, email string) (domain.Ack, error) {
	var ack domain.Ack
	err := c.do(ctx, http.MethodPost, "/projects/collaborators/"+url.PathEscape(projectID), map[string]string{"email": email}, &ack)
	return ack, err
}

// RemoveCollaborator detaches a collaborator from the project.
func (c *Client) RemoveCollaborator(ctx context.Context, projectID, collaboratorID string) (domain.Ack, error) {
	var ack domain.Ack
	err := c.do(ctx, http.MethodPost, "/projects/remove-collaborators/"+url.PathEscape(projectID), map[string]string{"id": collaboratorID}, &ack)
	return ack, err
}

// CreateTask creates a task in draft.Project.
func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	var t domain.Task
	err := c.do(ctx, http.MethodPost, "/tasks", draft, &t)
	return t, err
}

// UpdateTask replaces the editable fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id string, draft domain.TaskDraft) (domain.Task, error) {
	var t domain.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), draft, &t)
	return t, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) (domain.Ack, error) {
	var ack domain.Ack
	err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, &ack)
	return ack, err
}

// ToggleTask flips the completion state of a task server side.
func (c *Client) ToggleTask(ctx context.Context, id string) (domain.Task, error) {
	var t domain.Task
	err := c.do(ctx, http.MethodPost, "/tasks/state/"+url.PathEscape(id), nil, &t)
	return t, err
}
