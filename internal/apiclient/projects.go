package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/auberge/internal/model"
)

// ListProjects returns all client projects.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.do(ctx, http.MethodGet, "/admin/projects", "/admin/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns one project with its milestones, files and updates.
func (c *Client) GetProject(ctx context.Context, id int64) (model.Project, error) {
	var p model.Project
	path := fmt.Sprintf("/admin/projects/%d", id)
	if err := c.do(ctx, http.MethodGet, "/admin/projects/{id}", path, nil, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// UpdateProjectStatus changes a project's status.
func (c *Client) UpdateProjectStatus(ctx context.Context, id int64, status string) (model.Project, error) {
	req := struct {
		Status string `json:"status"`
	}{status}
	var p model.Project
	path := fmt.Sprintf("/admin/projects/%d", id)
	if err := c.do(ctx, http.MethodPatch, "/admin/projects/{id}", path, req, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// SetMilestoneCompleted sets a milestone's completion flag.
func (c *Client) SetMilestoneCompleted(ctx context.Context, projectID, milestoneID int64, completed bool) (model.Milestone, error) {
	req := struct {
		Completed bool `json:"completed"`
	}{completed}
	var m model.Milestone
	path := fmt.Sprintf("/admin/projects/%d/milestones/%d", projectID, milestoneID)
	if err := c.do(ctx, http.MethodPatch, "/admin/projects/{id}/milestones/{mid}", path, req, &m); err != nil {
		return model.Milestone{}, err
	}
	return m, nil
}

// AddProjectFile attaches an uploaded file to a project.
func (c *Client) AddProjectFile(ctx context.Context, projectID int64, upload model.Upload) (model.ProjectFile, error) {
	req := struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}{upload.Name, upload.URL, upload.MimeType}
	var f model.ProjectFile
	path := fmt.Sprintf("/admin/projects/%d/files", projectID)
	if err := c.do(ctx, http.MethodPost, "/admin/projects/{id}/files", path, req, &f); err != nil {
		return model.ProjectFile{}, err
	}
	return f, nil
}
