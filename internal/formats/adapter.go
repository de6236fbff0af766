package formats

import "sort"

// Adapter supplies the marking defaults and validation rules of one exam profile
// (standard, JEE, ...).
type Adapter interface {
	// Defaults returns the policy applied when the uploader does not override it.
	Defaults() Policy
	// Validate enforces profile-specific constraints on the exam+policy.
	Validate(ex ExamLike, pol Policy) error
}

// ExamLike is the minimal surface we need from the exam model.
// (Prevents import cycles: the formats layer doesn't depend on the exam pkg.)
type ExamLike interface {
	GetID() string
	GetTitle() string
	GetQuestions() []QuestionLike
}

type QuestionLike interface {
	GetNumber() int
	GetChoices() []string // option letters
}

// DefaultProfile is used when an upload names no profile.
const DefaultProfile = "standard.v1"

// Registry of adapters by profile key (e.g., "standard.v1", "jee.v1")
var registry = map[string]Adapter{}

// Register a profile adapter. Call from init() in subpackages.
func Register(profile string, a Adapter) { registry[profile] = a }

// Lookup returns a registered adapter for a profile.
func Lookup(profile string) (Adapter, bool) { a, ok := registry[profile]; return a, ok }

// Profiles lists the registered profile keys.
func Profiles() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
