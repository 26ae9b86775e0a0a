package types

import "time"

// Contribution statuses. Pending is the initial state; the only allowed
// transition is pending -> selected|rejected, after which the record is
// immutable to the status operation and to student edits.
const (
	ContributionPending  = "pending"
	ContributionSelected = "selected"
	ContributionRejected = "rejected"
)

// Asset types. A contribution carries exactly one article asset and zero or
// more image assets.
const (
	AssetArticle = "article"
	AssetImage   = "image"
)

// Contribution is a student's magazine submission.
type Contribution struct {
	// ID is the unique identifier of the contribution.
	ID string `json:"id" db:"id"`

	// Title and Description are the student-supplied metadata.
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// StudentID is the author. FacultyID is denormalized from the author
	// at creation time so a later faculty change does not move history.
	StudentID string `json:"student_id" db:"student_id"`
	FacultyID string `json:"faculty_id" db:"faculty_id"`

	// AcademicYearID is the year whose window contained the submission.
	AcademicYearID string `json:"academic_year_id" db:"academic_year_id"`

	// SubmissionDate is when the contribution was first submitted.
	SubmissionDate time.Time `json:"submission_date" db:"submission_date"`

	// Status is pending, selected or rejected.
	Status string `json:"status" db:"status"`

	// ViewCount is a fire-and-forget counter, incremented by its own
	// endpoint rather than by reads.
	ViewCount int `json:"view_count" db:"view_count"`

	// FeedbackGiven flips to true on the first non-student comment. Used
	// by coordinator reports.
	FeedbackGiven bool `json:"feedback_given" db:"feedback_given"`

	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ContributionAsset is a file belonging to a contribution. FilePath is the
// object-storage key; URL is a time-limited presigned download link filled in
// by the service layer.
type ContributionAsset struct {
	ID             string    `json:"id" db:"id"`
	ContributionID string    `json:"contribution_id" db:"contribution_id"`
	Type           string    `json:"type" db:"type"`
	FilePath       string    `json:"file_path" db:"file_path"`
	URL            string    `json:"url,omitempty" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Comment is one entry of a contribution's feedback thread.
type Comment struct {
	ID             string    `json:"id" db:"id"`
	ContributionID string    `json:"contribution_id" db:"contribution_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	// By is the commenter's display name when the thread is returned.
	By        string    `json:"by,omitempty" db:"-"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContributionDetail is a contribution enriched for API responses.
type ContributionDetail struct {
	Contribution
	Assets       []ContributionAsset `json:"assets"`
	Comments     []Comment           `json:"comments,omitempty"`
	StudentName  string              `json:"student_name,omitempty"`
	StudentEmail string              `json:"student_email,omitempty"`
	FacultyName  string              `json:"faculty_name,omitempty"`
	AcademicYear string              `json:"academic_year,omitempty"`
}
