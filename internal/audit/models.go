package audit

import (
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

var schemaVersion = "0.1.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type FileArchivedEntity string

const (
	EntitySubmission FileArchivedEntity = "submission"
)

type EventType string

const (
	EvtDistributionRun    EventType = "distribution_run"
	EvtScoreSubmitted     EventType = "score_submitted"
	EvtParticipantLocked  EventType = "participant_locked"
	EvtSubmissionReceived EventType = "submission_received"
	EvtFileArchived       EventType = "file_archived"
)

type Message struct {
	JudgeID       *string     `json:"judge_id"`
	ParticipantID *string     `json:"participant_id"`
	LogContext    string      `json:"log_context"    validate:"required"`
	SchemaVersion string      `json:"version"        validate:"required"`
	CompetitionID string      `json:"competition_id" validate:"required"`
	Disposition   Disposition `json:"disposition"    validate:"required"`
	Type          EventType   `json:"event_type"     validate:"required"`

	Timestamp types.UnixMilli `json:"timestamp" validate:"required"`
}

type FileArchivedEvent struct {
	BucketName   string             `json:"bucket_name"   validate:"required"`
	ObjectName   string             `json:"object_name"   validate:"required"`
	FileArchived types.ArchivedFile `json:"file_archived" validate:"required"`
	Entity       FileArchivedEntity `json:"entity"        validate:"required"`
	EntityID     string             `json:"entity_id"     validate:"required"`
}

type FileArchived struct {
	Event FileArchivedEvent `json:"event" validate:"required"`
	Message
}

type DistributionRunEvent struct {
	RunID           string         `json:"run_id"           validate:"required"`
	Strategy        types.Strategy `json:"strategy"         validate:"required"`
	TopN            int            `json:"top_n"            validate:"required"`
	AssignedCount   int            `json:"assigned_count"`
	UnassignedCount int            `json:"unassigned_count"`
	JudgeIDs        []string       `json:"judge_ids"        validate:"required"`
}

type DistributionRun struct {
	Event DistributionRunEvent `json:"event" validate:"required"`
	Message
}

type ScoreSubmittedEvent struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	Score        int    `json:"score"         validate:"required"`
}

type ScoreSubmitted struct {
	Event ScoreSubmittedEvent `json:"event" validate:"required"`
	Message
}

type ParticipantLockedEvent struct {
	SubmissionsCompleted int `json:"submissions_completed"`
}

type ParticipantLocked struct {
	Event ParticipantLockedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionReceivedEvent struct {
	SubmissionID  string `json:"submission_id"            validate:"required"`
	ChallengeID   string `json:"challenge_id"             validate:"required"`
	RecordingPath string `json:"recording_path,omitempty"`
}

type SubmissionReceived struct {
	Event SubmissionReceivedEvent `json:"event" validate:"required"`
	Message
}
