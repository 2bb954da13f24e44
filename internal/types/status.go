package types

type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"          // Awaiting judge review
	SubmissionStatusComplete  SubmissionStatus = "judgement_complete" // Owning participant locked, scores frozen
)

type Strategy string

const (
	StrategyRoundRobin Strategy = "round-robin" // Cyclic, order preserving, no capacity awareness
	StrategyWeighted   Strategy = "weighted"    // Capacity bounded, first fit in declared judge order
)

// ShortfallPolicy decides what happens when total declared capacity is less
// than the number of selected participants on a weighted run.
type ShortfallPolicy string

const (
	// Trailing participants are left unassigned. The caller must compare
	// assigned_count against top_n to detect the shortfall.
	ShortfallTruncate ShortfallPolicy = "truncate"
	// The run is rejected before anything is written.
	ShortfallReject ShortfallPolicy = "reject"
)

// Confirmation text required by the participant lock endpoint. Locking is
// irreversible so the caller has to type this back verbatim.
const LockConfirmation string = "CONFIRM LOCK"
