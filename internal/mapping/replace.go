package mapping

import (
	"maps"
	"slices"
	"strings"
)

// mentionURLPrefix is the host-side form user mentions take in task
// notes and comments on the source tracker.
const mentionURLPrefix = "https://app.asana.com/0/"

// ReplaceUsers rewrites the serialized dump before it is parsed:
// mention URLs of the exact form <prefix><mention_id>/<mention_id>
// become @<username>, and every occurrence of a source user id token
// becomes its pivotal id.
//
// Known limitation: this is plain text substitution, so a source user
// id that happens to appear as a substring of an unrelated number (a
// timestamp, another record's id) is rewritten too. That behavior is
// part of the documented contract of the substitution stage; callers
// must not feed it data where such collisions matter.
func ReplaceUsers(raw []byte, cfg *Config) []byte {
	s := string(raw)

	// deterministic application order
	for _, sourceID := range slices.Sorted(maps.Keys(cfg.Users)) {
		user := cfg.Users[sourceID]

		if user.MentionID != "" && user.Username != "" {
			mention := mentionURLPrefix + user.MentionID.String() + "/" + user.MentionID.String()
			s = strings.ReplaceAll(s, mention, "@"+user.Username)
		}

		if user.PivotalID != "" {
			s = strings.ReplaceAll(s, sourceID, user.PivotalID.String())
		}
	}
	return []byte(s)
}
