package curriculum

import (
	"github.com/goliatone/go-curriculum/internal/di"
	"github.com/goliatone/go-curriculum/internal/index"
	"github.com/goliatone/go-curriculum/internal/quizdoc"
	"github.com/goliatone/go-curriculum/internal/resolver"
	"github.com/goliatone/go-curriculum/internal/runtimeconfig"
	"github.com/goliatone/go-curriculum/internal/scanner"
	"github.com/goliatone/go-curriculum/internal/source"
	"github.com/goliatone/go-curriculum/internal/storage"
	"github.com/goliatone/go-curriculum/internal/title"
)

var (
	ErrScan                = scanner.ErrScan
	ErrDuplicateTitle      = index.ErrDuplicateTitle
	ErrRecordNotFound      = index.ErrRecordNotFound
	ErrTitleExtraction     = title.ErrTitleExtraction
	ErrUnsupportedFormat   = title.ErrUnsupportedFormat
	ErrContentNotFound     = source.ErrContentNotFound
	ErrContentRead         = source.ErrContentRead
	ErrContentUnavailable  = resolver.ErrContentUnavailable
	ErrParse               = quizdoc.ErrParse
	ErrLessonNotFound      = resolver.ErrLessonNotFound
	ErrLessonTitleNotFound = resolver.ErrLessonTitleNotFound
	ErrQuizNotFound        = resolver.ErrQuizNotFound
	ErrConfigRead          = runtimeconfig.ErrConfigRead
	ErrInvalidEnv          = runtimeconfig.ErrInvalidEnv
	ErrUnsupportedStorage  = storage.ErrUnsupportedStorage
	ErrWatchUnsupported    = di.ErrWatchUnsupported
)

// NotFoundError reports a lookup that matched no index record.
type NotFoundError = resolver.NotFoundError

// ContentUnavailableError reports an indexed document that could not be loaded.
type ContentUnavailableError = resolver.ContentUnavailableError
