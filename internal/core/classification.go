package core

// ClassificationHints are optional caller-supplied nudges for the
// classifier (e.g. a forwarded email already known to be about a person).
type ClassificationHints struct {
	Category Category `json:"category,omitempty"`
	Name     string   `json:"name,omitempty"`
}

// ClassificationInput is the immutable per-call input to the classifier.
type ClassificationInput struct {
	Text    string
	Hints   *ClassificationHints
	Context *ConversationContext
}

// PeopleFields holds the people-category structured fields.
type PeopleFields struct {
	Role        string   `json:"role,omitempty"`
	Company     string   `json:"company,omitempty"`
	LastContact string   `json:"last_contact,omitempty"`
	FollowUps   []string `json:"follow_ups,omitempty"`
}

// ProjectsFields holds the projects-category structured fields.
type ProjectsFields struct {
	Status     string   `json:"status,omitempty"`
	NextAction string   `json:"next_action,omitempty"`
	DueDate    string   `json:"due_date,omitempty"`
	People     []string `json:"people,omitempty"`
}

// IdeasFields holds the ideas-category structured fields.
type IdeasFields struct {
	Tags            []string `json:"tags,omitempty"`
	RelatedProjects []string `json:"related_projects,omitempty"`
}

// TaskFields holds the task-category structured fields. The legacy
// "admin" category normalizes to task and shares this shape.
type TaskFields struct {
	Status          string `json:"status,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	Priority        int    `json:"priority,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// ProjectStatuses is the enumerated set for projects.status. Values
// outside it default to "active" during normalization.
var ProjectStatuses = []string{"active", "waiting", "blocked", "someday"}

// ActiveTaskStatuses are the states a reopened task may move back to.
var ActiveTaskStatuses = []string{"pending", "active", "waiting", "blocked"}

const TaskStatusDone = "done"

// Fields is a tagged union keyed by category: exactly one variant is
// non-nil, chosen at construction time.
type Fields struct {
	People   *PeopleFields   `json:"people,omitempty"`
	Projects *ProjectsFields `json:"projects,omitempty"`
	Ideas    *IdeasFields    `json:"ideas,omitempty"`
	Task     *TaskFields     `json:"task,omitempty"`
}

// Matches reports whether the populated variant agrees with the category.
func (f Fields) Matches(c Category) bool {
	switch c {
	case CategoryPeople:
		return f.People != nil
	case CategoryProjects:
		return f.Projects != nil
	case CategoryIdeas:
		return f.Ideas != nil
	case CategoryTask:
		return f.Task != nil
	}
	return false
}

// ClassificationResult is the normalized output of one classifier call.
// Invariant: Fields shape always matches Category.
type ClassificationResult struct {
	Category       Category `json:"category"`
	Confidence     float64  `json:"confidence"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Fields         Fields   `json:"fields"`
	RelatedEntries []string `json:"related_entries,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
	BodyContent    string   `json:"body_content,omitempty"`
}

// ExtractedAction is one concrete next-action mined from raw text by the
// action-extraction call.
type ExtractedAction struct {
	Action  string `json:"action"`
	DueDate string `json:"due_date,omitempty"`
}

// GuardrailDecision is the binary outcome of the pre-mutation intent check.
type GuardrailDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// UpdateIntent is what the intent-analysis call inferred the user actually
// asked for in an update request.
type UpdateIntent struct {
	Title           string   `json:"title,omitempty"`
	Note            string   `json:"note,omitempty"`
	Status          string   `json:"status,omitempty"`
	StatusRequested bool     `json:"status_requested"`
	RelatedPeople   []string `json:"related_people,omitempty"`
}
