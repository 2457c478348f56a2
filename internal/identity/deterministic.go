// Package identity derives stable record identifiers from canonical titles.
package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const namespace = "go-curriculum"

// UUID derives a deterministic UUID from key. Keys are hashed verbatim, so
// callers must prefix them by content class to avoid cross-class collisions.
// An empty key yields uuid.Nil.
func UUID(key string) uuid.UUID {
	if strings.TrimSpace(key) == "" {
		return uuid.Nil
	}
	// Normalisation stays off: canonical titles are case-sensitive keys.
	uid, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(false))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return uid
}

// QuizUUID returns the index id for the quiz with the given canonical title.
func QuizUUID(title string) uuid.UUID {
	return classUUID("quiz", title)
}

// LessonUUID returns the index id for the lesson with the given canonical title.
func LessonUUID(title string) uuid.UUID {
	return classUUID("lesson", title)
}

func classUUID(class, title string) uuid.UUID {
	title = strings.TrimSpace(title)
	if title == "" {
		return uuid.Nil
	}
	return UUID(namespace + ":" + class + ":" + title)
}
