package llm

// Kind names the purpose of an LLM call. Each kind has its own provider
// policy and generation parameters.
type Kind string

const (
	KindResponse       Kind = "response"
	KindFeedback       Kind = "feedback"
	KindClassification Kind = "classification"
	KindContext        Kind = "context"
)

// Kinds lists every call kind in a stable order.
var Kinds = []Kind{KindResponse, KindFeedback, KindClassification, KindContext}

// Params holds the generation parameters used for a kind.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// ParamsFor returns the generation parameters for a kind. Classification
// and context checks are short deterministic labels; everything else is
// conversational text.
func ParamsFor(k Kind) Params {
	switch k {
	case KindClassification:
		return Params{Temperature: 0, MaxTokens: 20}
	case KindContext:
		return Params{Temperature: 0, MaxTokens: 10}
	default:
		return Params{Temperature: 0.7, MaxTokens: 400}
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}
