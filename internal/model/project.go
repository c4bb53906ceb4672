package model

// Project is a client project tracked by the back-office.
type Project struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	ClientName  string          `json:"client_name,omitempty"`
	ClientEmail string          `json:"client_email,omitempty"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	StartDate   Time            `json:"start_date"`
	DueDate     Time            `json:"due_date"`
	Milestones  []Milestone     `json:"milestones"`
	Files       []ProjectFile   `json:"files"`
	Updates     []ProjectUpdate `json:"updates"`
}

// Project statuses, in lifecycle order.
const (
	ProjectPending    = "pending"
	ProjectPlanning   = "planning"
	ProjectInProgress = "in_progress"
	ProjectReview     = "review"
	ProjectCompleted  = "completed"
	ProjectOnHold     = "on_hold"
	ProjectCancelled  = "cancelled"
)

// ProjectStatuses lists every valid project status.
var ProjectStatuses = []string{
	ProjectPending, ProjectPlanning, ProjectInProgress, ProjectReview,
	ProjectCompleted, ProjectOnHold, ProjectCancelled,
}

// Milestone is a checkpoint inside a project.
type Milestone struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Title       string `json:"title"`
	DueDate     Time   `json:"due_date"`
	Completed   bool   `json:"completed"`
	CompletedAt Time   `json:"completed_at"`
}

// ProjectFile is a document attached to a project.
type ProjectFile struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	MimeType  string `json:"mime_type,omitempty"`
	CreatedAt Time   `json:"created_at"`
}

// ProjectUpdate is a progress note posted on a project.
type ProjectUpdate struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author,omitempty"`
	CreatedAt Time   `json:"created_at"`
}

// CompletedMilestones counts finished milestones.
func (p Project) CompletedMilestones() int {
	n := 0
	for _, m := range p.Milestones {
		if m.Completed {
			n++
		}
	}
	return n
}
