package errors

import "errors"

// Workflow error taxonomy. Every error returned by a stage or the engine
// matches exactly one of these with errors.Is.
var (
	// ErrInputValidation indicates missing or malformed keywords or essences.
	// Nothing was mutated.
	ErrInputValidation = errors.New("input validation failed")

	// ErrExternalLookup indicates the web search or similarity search
	// collaborator was unreachable or returned an error.
	ErrExternalLookup = errors.New("external lookup failed")

	// ErrGeneration indicates the drafting or scoring collaborator failed.
	ErrGeneration = errors.New("generation failed")

	// ErrScoringContract indicates sub-scores outside their bounds or a total
	// that does not equal their sum.
	ErrScoringContract = errors.New("scoring contract violation")

	// ErrPersistence indicates a save or load against the article store failed.
	ErrPersistence = errors.New("persistence failed")

	// ErrArticleBusy indicates another run or resume holds the article.
	ErrArticleBusy = errors.New("article is busy")

	// ErrNotFound indicates the article does not exist.
	ErrNotFound = errors.New("article not found")

	// ErrConnectionFailed indicates a remote service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")
)

// Kind names an error class for logs and notifications.
type Kind string

// Error kinds, one per taxonomy sentinel.
const (
	KindInputValidation Kind = "input_validation"
	KindExternalLookup  Kind = "external_lookup"
	KindGeneration      Kind = "generation"
	KindScoringContract Kind = "scoring_contract"
	KindPersistence     Kind = "persistence"
	KindBusy            Kind = "busy"
	KindNotFound        Kind = "not_found"
	KindUnknown         Kind = "unknown"
)

var kindSentinels = map[Kind]error{
	KindInputValidation: ErrInputValidation,
	KindExternalLookup:  ErrExternalLookup,
	KindGeneration:      ErrGeneration,
	KindScoringContract: ErrScoringContract,
	KindPersistence:     ErrPersistence,
	KindBusy:            ErrArticleBusy,
	KindNotFound:        ErrNotFound,
}

// Sentinel returns the sentinel error for a kind, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	return kindSentinels[k]
}

// KindOf classifies err. Sentinels are checked in taxonomy order so a
// persistence failure wrapped inside a stage error still reports its own kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	for _, k := range []Kind{
		KindInputValidation,
		KindScoringContract,
		KindPersistence,
		KindExternalLookup,
		KindGeneration,
		KindBusy,
		KindNotFound,
	} {
		if errors.Is(err, kindSentinels[k]) {
			return k
		}
	}
	return KindUnknown
}
