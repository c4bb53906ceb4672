package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

type patch struct {
	project, milestone int64
	completed          bool
}

type fakeBackend struct {
	projects  []model.Project
	patches   []patch
	patchErr  error
	uploads   []string
	statusErr error
	// emptyReply makes mutations succeed without echoing the record.
	emptyReply bool
}

func (f *fakeBackend) ListProjects(ctx context.Context) ([]model.Project, error) {
	return f.projects, nil
}

func (f *fakeBackend) GetProject(ctx context.Context, id int64) (model.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Project{}, errors.New("not found")
}

func (f *fakeBackend) UpdateProjectStatus(ctx context.Context, id int64, status string) (model.Project, error) {
	if f.statusErr != nil {
		return model.Project{}, f.statusErr
	}
	if f.emptyReply {
		return model.Project{}, nil
	}
	p, _ := f.GetProject(ctx, id)
	p.Status = status
	return p, nil
}

func (f *fakeBackend) SetMilestoneCompleted(ctx context.Context, projectID, milestoneID int64, completed bool) (model.Milestone, error) {
	f.patches = append(f.patches, patch{projectID, milestoneID, completed})
	if f.patchErr != nil {
		return model.Milestone{}, f.patchErr
	}
	return model.Milestone{ID: milestoneID, ProjectID: projectID, Title: "m", Completed: completed}, nil
}

func (f *fakeBackend) Upload(ctx context.Context, name, mimeType string, data []byte) (model.Upload, error) {
	f.uploads = append(f.uploads, name)
	return model.Upload{ID: "u1", URL: "https://files/" + name, Name: name, MimeType: mimeType}, nil
}

func (f *fakeBackend) AddProjectFile(ctx context.Context, projectID int64, up model.Upload) (model.ProjectFile, error) {
	return model.ProjectFile{ID: 1, Name: up.Name, URL: up.URL, MimeType: up.MimeType}, nil
}

func newBoard(t *testing.T) (*Board, *fakeBackend) {
	t.Helper()
	f := &fakeBackend{projects: []model.Project{
		{ID: 1, Title: "Site vitrine", ClientName: "Boulangerie Lefèvre", Status: model.ProjectInProgress, Milestones: []model.Milestone{
			{ID: 11, Title: "Maquettes", Completed: true},
			{ID: 12, Title: "Intégration"},
			{ID: 13, Title: "Recette"},
			{ID: 14, Title: "Mise en ligne"},
		}},
		{ID: 2, Title: "Boutique", ClientName: "Café du Port", Status: model.ProjectPending},
	}}
	b := NewBoard(f)
	require.NoError(t, b.Load(context.Background(), loader.Visible))
	return b, f
}

func TestToggleMilestoneMakesOnePatch(t *testing.T) {
	b, f := newBoard(t)

	m, err := b.ToggleMilestone(context.Background(), 1, 12)
	require.NoError(t, err)
	assert.True(t, m.Completed)
	require.Len(t, f.patches, 1)
	assert.Equal(t, patch{1, 12, true}, f.patches[0])

	p, ok := b.Project(1)
	require.True(t, ok)
	assert.Equal(t, 50, p.Progress)
	assert.True(t, p.Milestones[1].Completed)
	assert.False(t, p.Milestones[1].CompletedAt.IsZero())

	_, err = b.ToggleMilestone(context.Background(), 1, 11)
	require.NoError(t, err)
	require.Len(t, f.patches, 2)
	assert.Equal(t, patch{1, 11, false}, f.patches[1])
	p, _ = b.Project(1)
	assert.Equal(t, 25, p.Progress)
	assert.True(t, p.Milestones[0].CompletedAt.IsZero())
}

func TestToggleMilestoneFailureLeavesState(t *testing.T) {
	b, f := newBoard(t)
	f.patchErr = errors.New("backend down")

	_, err := b.ToggleMilestone(context.Background(), 1, 12)
	require.Error(t, err)
	p, _ := b.Project(1)
	assert.False(t, p.Milestones[1].Completed)
	assert.Len(t, f.patches, 1)
}

func TestToggleUnknownMilestone(t *testing.T) {
	b, f := newBoard(t)
	_, err := b.ToggleMilestone(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrMilestoneNotFound)
	_, err = b.ToggleMilestone(context.Background(), 9, 11)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.Empty(t, f.patches)
}

func TestUpdateStatus(t *testing.T) {
	b, _ := newBoard(t)
	_, err := b.UpdateStatus(context.Background(), 2, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	p, err := b.UpdateStatus(context.Background(), 2, model.ProjectPlanning)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectPlanning, p.Status)
	got, _ := b.Project(2)
	assert.Equal(t, model.ProjectPlanning, got.Status)
}

func TestUpdateStatusEmptyReply(t *testing.T) {
	b, f := newBoard(t)
	f.emptyReply = true

	p, err := b.UpdateStatus(context.Background(), 2, model.ProjectReview)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "Boutique", p.Title)
	assert.Equal(t, model.ProjectReview, p.Status)

	projects := b.Projects()
	require.Len(t, projects, 2)
	for _, p := range projects {
		assert.NotZero(t, p.ID)
	}
	got, _ := b.Project(2)
	assert.Equal(t, model.ProjectReview, got.Status)
}

func TestAttachFile(t *testing.T) {
	b, f := newBoard(t)
	file, err := b.AttachFile(context.Background(), 2, "devis.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "devis.pdf", file.Name)
	assert.Equal(t, []string{"devis.pdf"}, f.uploads)
	p, _ := b.Project(2)
	assert.Len(t, p.Files, 1)
}

func TestFilter(t *testing.T) {
	b, _ := newBoard(t)
	assert.Len(t, b.Filter("lefevre", ""), 1)
	assert.Len(t, b.Filter("", model.ProjectPending), 1)
	assert.Len(t, b.Filter("", ""), 2)
	assert.Empty(t, b.Filter("cafe", model.ProjectInProgress))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(nil))
	assert.Equal(t, 33, Progress([]model.Milestone{{Completed: true}, {}, {}}))
	assert.Equal(t, 67, Progress([]model.Milestone{{Completed: true}, {Completed: true}, {}}))
	assert.Equal(t, 100, Progress([]model.Milestone{{Completed: true}}))
}

func TestMilestoneBadge(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "Terminé", MilestoneBadge(model.Milestone{Completed: true}, now).Label)
	assert.Equal(t, "En retard", MilestoneBadge(model.Milestone{DueDate: model.At(now.Add(-time.Hour))}, now).Label)
	assert.Equal(t, "En cours", MilestoneBadge(model.Milestone{DueDate: model.At(now.Add(time.Hour))}, now).Label)
}
