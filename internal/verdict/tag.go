package verdict

import "fmt"

// Tag is a solution's declared expected-behavior classification.
type Tag int

const (
	TagMainCorrect Tag = iota
	TagAlternativeCorrect
	TagWrongAnswer
	TagRejected
	TagTimeLimit
	TagIdlenessLimit
	TagMemoryLimit
	TagRuntimeError
	TagPresentationError
)

var tagNames = []string{
	"main-correct",
	"alternative-correct",
	"wrong-answer",
	"rejected",
	"time-limit",
	"idleness-limit",
	"memory-limit",
	"runtime-error",
	"presentation-error",
}

func (t Tag) String() string {
	i := int(t)
	if i >= 0 && i < len(tagNames) {
		return tagNames[i]
	}
	return "unknown"
}

var tagAliases = map[string]Tag{
	"main-correct":        TagMainCorrect,
	"main":                TagMainCorrect,
	"ma":                  TagMainCorrect,
	"alternative-correct": TagAlternativeCorrect,
	"correct":             TagAlternativeCorrect,
	"ok":                  TagAlternativeCorrect,
	"wrong-answer":        TagWrongAnswer,
	"wa":                  TagWrongAnswer,
	"rejected":            TagRejected,
	"rj":                  TagRejected,
	"time-limit":          TagTimeLimit,
	"tl":                  TagTimeLimit,
	"idleness-limit":      TagIdlenessLimit,
	"il":                  TagIdlenessLimit,
	"memory-limit":        TagMemoryLimit,
	"ml":                  TagMemoryLimit,
	"runtime-error":       TagRuntimeError,
	"re":                  TagRuntimeError,
	"presentation-error":  TagPresentationError,
	"pe":                  TagPresentationError,
}

// ParseTag accepts the canonical kebab-case tag names and their usual short
// aliases.
func ParseTag(s string) (Tag, error) {
	tag, ok := tagAliases[s]
	if !ok {
		return 0, fmt.Errorf("unknown solution tag: %q", s)
	}
	return tag, nil
}
