package domain

import "time"

// Session is the durable per-user dialog record.
type Session struct {
	UserID          int64     `json:"user_id" yaml:"user_id"`
	CurrentStep     StepID    `json:"current_step" yaml:"current_step"`
	StepHistory     []StepID  `json:"step_history,omitempty" yaml:"step_history,omitempty"`
	Answers         Answers   `json:"answers,omitempty" yaml:"answers,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at" yaml:"last_updated_at"`
	StartedAt       time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	SubmissionIDs   []int64   `json:"submission_ids,omitempty" yaml:"submission_ids,omitempty"`
	LastSubmittedAt time.Time `json:"last_submitted_at,omitempty" yaml:"last_submitted_at,omitempty"`

	// Dirty is set on any mutation and cleared once the session is persisted.
	Dirty bool `json:"-" yaml:"-"`
}

// NewSession returns a session positioned at the initial step.
func NewSession(userID int64, initial StepID, now time.Time) *Session {
	return &Session{
		UserID:      userID,
		CurrentStep: initial,
		Answers:     make(Answers),
		CreatedAt:   now,
	}
}

// IsNew reports whether the session has never been mutated.
func (s *Session) IsNew() bool {
	return s.LastUpdatedAt.IsZero()
}

// Touch records a mutation.
func (s *Session) Touch(now time.Time) {
	s.LastUpdatedAt = now
	s.Dirty = true
}

// Reset returns the session to the initial step, dropping collected answers
// and history. Submission history and the first-contact time are kept.
func (s *Session) Reset(initial StepID, now time.Time) {
	s.CurrentStep = initial
	s.StepHistory = nil
	s.Answers = make(Answers)
	s.Touch(now)
}

// HasSubmission reports whether id is one of the session's submissions.
func (s *Session) HasSubmission(id int64) bool {
	for _, sid := range s.SubmissionIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. The copy always has a non-nil Answers map.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.StepHistory != nil {
		out.StepHistory = append([]StepID(nil), s.StepHistory...)
	}
	if s.SubmissionIDs != nil {
		out.SubmissionIDs = append([]int64(nil), s.SubmissionIDs...)
	}
	out.Answers = s.Answers.Clone()
	return &out
}
