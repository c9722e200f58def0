package service

import (
	"strings"

	"github.com/smitebuilds/backend/internal/domain"
	"go.uber.org/zap"
)

// fixGods repairs corrupted god name fields. The upstream site occasionally
// emits an internal numeric identifier instead of a display name, so any god
// name containing a digit is treated as suspect. Empirically the corrupted
// field always belongs to the most recently released god, so every suspect
// is replaced with the roster's newest god. When the roster lookup failed,
// suspects are reported and left alone.
func fixGods(drafts []*buildDraft, newestGod string, log *zap.Logger) {
	type suspect struct {
		draft *buildDraft
		field *string
		name  string
	}
	var suspects []suspect
	for _, d := range drafts {
		if containsDigit(d.god1) {
			suspects = append(suspects, suspect{d, &d.god1, "god1"})
		}
		if containsDigit(d.god2) {
			suspects = append(suspects, suspect{d, &d.god2, "god2"})
		}
	}
	if len(suspects) == 0 {
		return
	}

	if newestGod == "" {
		log.Warn("newest god unknown, cannot fix suspicious gods")
		for _, s := range suspects {
			log.Warn("suspicious god left unfixed",
				zap.String("game", s.draft.game()),
				zap.String("field", s.name), zap.String("god", *s.field))
		}
		return
	}

	for _, s := range suspects {
		log.Info("god fixed",
			zap.String("game", s.draft.game()),
			zap.String("field", s.name),
			zap.String("from", *s.field), zap.String("to", newestGod))
		*s.field = newestGod
	}
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

// annotateClasses stamps each build with its god's class. Lookup failures
// leave the class null rather than aborting; a build with an unknown class
// is still worth storing.
func annotateClasses(drafts []*buildDraft, classes map[string]domain.GodClass, log *zap.Logger) {
	if classes == nil {
		log.Warn("god classes unknown, cannot annotate builds")
		return
	}
	for _, d := range drafts {
		class, ok := classes[d.god1]
		if !ok {
			log.Warn("no class for god",
				zap.String("game", d.game()), zap.String("god", d.god1))
			continue
		}
		s := string(class)
		d.godClass = &s
	}
}
