// Package projects tracks client projects and their milestones.
package projects

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrInvalidStatus     = errors.New("invalid project status")
)

// Backend is the part of the API the board needs.
type Backend interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id int64) (model.Project, error)
	UpdateProjectStatus(ctx context.Context, id int64, status string) (model.Project, error)
	SetMilestoneCompleted(ctx context.Context, projectID, milestoneID int64, completed bool) (model.Milestone, error)
	Upload(ctx context.Context, name, mimeType string, data []byte) (model.Upload, error)
	AddProjectFile(ctx context.Context, projectID int64, upload model.Upload) (model.ProjectFile, error)
}

// Board holds the project list. It is safe for concurrent use.
type Board struct {
	backend Backend

	mu       sync.Mutex
	projects []model.Project
	loading  bool
}

// NewBoard creates an empty board.
func NewBoard(backend Backend) *Board {
	return &Board{backend: backend}
}

// Load replaces the project list.
func (b *Board) Load(ctx context.Context, mode loader.Mode) error {
	if mode == loader.Visible {
		b.setLoading(true)
		defer b.setLoading(false)
	}
	var projects []model.Project
	l := loader.New("projects")
	loader.Required(l, "projects", &projects, b.backend.ListProjects)
	if _, err := l.Run(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	b.projects = projects
	b.mu.Unlock()
	return nil
}

// LoadOne fetches a single project and splices it into the list.
func (b *Board) LoadOne(ctx context.Context, id int64) (model.Project, error) {
	p, err := b.backend.GetProject(ctx, id)
	if err != nil {
		return model.Project{}, fmt.Errorf("loading project %d: %w", id, err)
	}
	b.splice(p)
	return p, nil
}

func (b *Board) setLoading(v bool) {
	b.mu.Lock()
	b.loading = v
	b.mu.Unlock()
}

// Loading reports whether a visible load is in progress.
func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Projects returns a copy of the list.
func (b *Board) Projects() []model.Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.projects)
}

// Project returns a project from the list.
func (b *Board) Project(id int64) (model.Project, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// Filter matches projects by title and client. An empty status keeps all.
func (b *Board) Filter(query, status string) []model.Project {
	q := filter.Parse(query)
	b.mu.Lock()
	defer b.mu.Unlock()
	return filter.Apply(b.projects, func(p model.Project) bool {
		if status != "" && p.Status != status {
			return false
		}
		return q.Match(p.Title, p.ClientName, p.ClientEmail)
	})
}

// ToggleMilestone flips a milestone's completion with exactly one backend
// call and splices the returned milestone into its project.
func (b *Board) ToggleMilestone(ctx context.Context, projectID, milestoneID int64) (model.Milestone, error) {
	b.mu.Lock()
	current, err := b.milestoneLocked(projectID, milestoneID)
	b.mu.Unlock()
	if err != nil {
		return model.Milestone{}, err
	}

	updated, err := b.backend.SetMilestoneCompleted(ctx, projectID, milestoneID, !current.Completed)
	if err != nil {
		return model.Milestone{}, fmt.Errorf("toggling milestone %d: %w", milestoneID, err)
	}
	if updated.ID == 0 {
		updated = current
		updated.Completed = !current.Completed
	}
	if updated.Completed && updated.CompletedAt.IsZero() {
		updated.CompletedAt = model.At(time.Now())
	}
	if !updated.Completed {
		updated.CompletedAt = model.Time{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.projects {
		if b.projects[i].ID != projectID {
			continue
		}
		p := &b.projects[i]
		for j := range p.Milestones {
			if p.Milestones[j].ID == milestoneID {
				p.Milestones[j] = updated
			}
		}
		p.Progress = Progress(p.Milestones)
	}
	return updated, nil
}

func (b *Board) milestoneLocked(projectID, milestoneID int64) (model.Milestone, error) {
	for _, p := range b.projects {
		if p.ID != projectID {
			continue
		}
		for _, m := range p.Milestones {
			if m.ID == milestoneID {
				return m, nil
			}
		}
		return model.Milestone{}, ErrMilestoneNotFound
	}
	return model.Milestone{}, ErrProjectNotFound
}

// UpdateStatus changes a project's status and splices the result.
func (b *Board) UpdateStatus(ctx context.Context, id int64, status string) (model.Project, error) {
	if !slices.Contains(model.ProjectStatuses, status) {
		return model.Project{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	p, err := b.backend.UpdateProjectStatus(ctx, id, status)
	if err != nil {
		return model.Project{}, fmt.Errorf("updating project %d: %w", id, err)
	}
	if p.ID != 0 {
		b.splice(p)
		return p, nil
	}

	// An empty reply confirms the change without echoing the project.
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.projects {
		if b.projects[i].ID == id {
			b.projects[i].Status = status
			return b.projects[i], nil
		}
	}
	return model.Project{ID: id, Status: status}, nil
}

// AttachFile uploads data and attaches it to a project.
func (b *Board) AttachFile(ctx context.Context, projectID int64, name, mimeType string, data []byte) (model.ProjectFile, error) {
	up, err := b.backend.Upload(ctx, name, mimeType, data)
	if err != nil {
		return model.ProjectFile{}, fmt.Errorf("uploading %s: %w", name, err)
	}
	f, err := b.backend.AddProjectFile(ctx, projectID, up)
	if err != nil {
		return model.ProjectFile{}, fmt.Errorf("attaching %s to project %d: %w", name, projectID, err)
	}
	b.mu.Lock()
	for i := range b.projects {
		if b.projects[i].ID == projectID {
			b.projects[i].Files = append(b.projects[i].Files, f)
		}
	}
	b.mu.Unlock()
	return f, nil
}

func (b *Board) splice(p model.Project) {
	if p.ID == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.projects {
		if b.projects[i].ID == p.ID {
			b.projects[i] = p
			return
		}
	}
	b.projects = append(b.projects, p)
}

// Progress is the rounded percentage of completed milestones.
func Progress(milestones []model.Milestone) int {
	if len(milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(milestones))))
}

// MilestoneBadge labels a milestone as done, overdue or in progress.
func MilestoneBadge(m model.Milestone, now time.Time) model.Badge {
	return model.MilestoneBadge(m, now)
}
