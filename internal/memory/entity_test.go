package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEntityType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"user_name", EntityUser},
		{"my_name", EntityUser},
		{"username", EntityUser},
		{"user_age", EntityUser},
		{"son_name", EntityFamily},
		{"daughter_age", EntityFamily},
		{"wife_name", EntityFamily},
		{"grandma_birthday", EntityFamily},
		{"friend_name", EntityFriend},
		{"best_friend", EntityFriend},
		{"dog_name", EntityPet},
		{"pet_hamster", EntityPet},
		{"favorite_color", EntityGeneral},
		{"math_course", EntityGeneral},
		{"", EntityGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEntityType(tt.key))
		})
	}
}

// Keys like lesson_plan contain family keywords as substrings; only whole
// segments may match.
func TestDetectEntityType_SegmentBoundaries(t *testing.T) {
	assert.Equal(t, EntityGeneral, DetectEntityType("lesson_plan"))
	assert.Equal(t, EntityUser, DetectEntityType("username"))
	assert.Equal(t, EntityGeneral, DetectEntityType("comparison_chart"))
}

func TestDetectEntityType_FamilyBeatsGenericName(t *testing.T) {
	// "son_name" ends in a name-ish suffix but belongs to the son.
	assert.Equal(t, EntityFamily, DetectEntityType("son_name"))
	assert.Equal(t, EntityUser, DetectEntityType("user_name"))
}

func TestCategoryForKey_PersonScoped(t *testing.T) {
	assert.Equal(t, CategoryUser, CategoryForKey(EntityUser, "user_name"))
	assert.Equal(t, CategoryFamily, CategoryForKey(EntityFamily, "wife_name"))
	assert.Equal(t, CategoryFriend, CategoryForKey(EntityFriend, "friend_name"))
	assert.Equal(t, CategoryPet, CategoryForKey(EntityPet, "dog_name"))
}

func TestCategoryForKey_Inferred(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"favorite_color", CategoryPreference},
		{"learning_goal", CategoryGoal},
		{"math_course", CategoryEducation},
		{"lesson_history", CategoryEducation},
		{"study_plan", CategoryGoal},
		{"last_game_session", CategoryActivity},
		{"canvas_notes", CategoryCanvas},
		{"random_fact", CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryForKey(EntityGeneral, tt.key))
		})
	}
}
