package domain

import "time"

// Submission is a finalized report ready for the moderation channel.
type Submission struct {
	AuthorID    int64
	ContentHash string
	Text        string
	Media       *Media
	Location    *Location
}

// PendingSubmission is a recently published report kept for deduplication.
type PendingSubmission struct {
	ContentHash  string
	SubmissionID int64
	AuthorID     int64
	CreatedAt    time.Time
}
