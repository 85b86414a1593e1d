package gosearch

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dl/gosearch/filter"
	"github.com/dl/gosearch/internal/matcher"
	"github.com/dl/gosearch/internal/walker"
)

// Kind classifies the errors returned by a search.
type Kind int

const (
	KindInvalidPattern Kind = iota + 1
	KindInvalidGlob
	KindInvalidType
	KindWalk
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPattern:
		return "invalid pattern"
	case KindInvalidGlob:
		return "invalid glob"
	case KindInvalidType:
		return "invalid type"
	case KindWalk:
		return "walk error"
	case KindIO:
		return "io error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is. Every *Error matches the one of its Kind.
var (
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrInvalidGlob    = errors.New("invalid glob")
	ErrInvalidType    = errors.New("invalid type")
	ErrWalk           = errors.New("walk error")
	ErrIO             = errors.New("io error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidPattern:
		return ErrInvalidPattern
	case KindInvalidGlob:
		return ErrInvalidGlob
	case KindInvalidType:
		return ErrInvalidType
	case KindWalk:
		return ErrWalk
	case KindIO:
		return ErrIO
	}
	return nil
}

// Error is the only error type returned by a search. Err holds the cause:
// a *walker.WalkError for walk failures and usually a *fs.PathError for
// I/O failures.
type Error struct {
	Kind Kind
	Path string // the file or directory involved, if any
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// wrapError maps an error from the collaborators onto an *Error. path
// names the source being scanned when the error did not come from the
// walker. Errors that are already an *Error pass through.
func wrapError(err error, path string) error {
	if err == nil {
		return nil
	}
	var (
		se  *Error
		pe  *matcher.PatternError
		ge  *filter.GlobError
		te  *filter.TypeError
		we  *walker.WalkError
		ppe *fs.PathError
	)
	switch {
	case errors.As(err, &se):
		return se
	case errors.As(err, &pe):
		return &Error{Kind: KindInvalidPattern, Err: err}
	case errors.As(err, &ge):
		return &Error{Kind: KindInvalidGlob, Err: err}
	case errors.As(err, &te):
		return &Error{Kind: KindInvalidType, Err: err}
	case errors.As(err, &we):
		return &Error{Kind: KindWalk, Path: we.Path, Err: err}
	case errors.As(err, &ppe):
		return &Error{Kind: KindIO, Path: ppe.Path, Err: err}
	}
	return &Error{Kind: KindIO, Path: path, Err: err}
}
