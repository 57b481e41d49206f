package memory

import "strings"

// Entity detection is key-pattern based, never content based: content
// keywords can belong to a third party ("my son Ali") and must not steer
// whose fact this is. Order matters — family/friend/pet keywords are
// checked before the generic name match so "son_name" is family, not user.

var userKeys = map[string]bool{
	"user_name":  true,
	"my_name":    true,
	"name":       true,
	"username":   true,
	"user_age":   true,
	"my_age":     true,
	"age":        true,
	"user_grade": true,
	"my_grade":   true,
}

var familyKeywords = []string{
	"son", "daughter", "mother", "father", "mom", "dad",
	"wife", "husband", "spouse", "partner",
	"brother", "sister", "sibling",
	"grandmother", "grandfather", "grandma", "grandpa",
	"aunt", "uncle", "cousin", "child", "kid", "parent", "family",
}

var friendKeywords = []string{
	"friend", "colleague", "classmate", "buddy", "roommate",
}

var petKeywords = []string{
	"pet", "dog", "cat", "bird", "hamster", "rabbit", "fish",
}

// DetectEntityType classifies whose fact a memory key names. Keywords are
// matched against whole key segments, not raw substrings, so "lesson_plan"
// does not trip the "son" keyword.
func DetectEntityType(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	segments := splitKey(k)

	for _, kw := range familyKeywords {
		if segments[kw] {
			return EntityFamily
		}
	}
	for _, kw := range friendKeywords {
		if segments[kw] {
			return EntityFriend
		}
	}
	for _, kw := range petKeywords {
		if segments[kw] {
			return EntityPet
		}
	}
	if userKeys[k] {
		return EntityUser
	}
	return EntityGeneral
}

func splitKey(key string) map[string]bool {
	segments := map[string]bool{}
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	}) {
		segments[seg] = true
	}
	return segments
}

// CategoryForKey derives a record category from the entity type and key.
// Person-scoped facts carry their entity type as category; in particular
// the category is forced to `user` whenever the entity is the user, so a
// family member's name can never overwrite the user's own identity.
func CategoryForKey(entityType, key string) string {
	switch entityType {
	case EntityUser:
		return CategoryUser
	case EntityFamily:
		return CategoryFamily
	case EntityFriend:
		return CategoryFriend
	case EntityPet:
		return CategoryPet
	}

	k := strings.ToLower(key)
	switch {
	case containsAny(k, "prefer", "favorite", "favourite", "like", "dislike"):
		return CategoryPreference
	case containsAny(k, "goal", "target", "aspiration", "plan"):
		return CategoryGoal
	case containsAny(k, "course", "class", "subject", "lesson", "study", "learn", "grade", "school"):
		return CategoryEducation
	case containsAny(k, "activity", "session", "game", "played", "visit"):
		return CategoryActivity
	case strings.Contains(k, "canvas"):
		return CategoryCanvas
	}
	return CategoryGeneral
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
