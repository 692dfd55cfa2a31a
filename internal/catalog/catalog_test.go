package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyTranslator struct{}

func (keyTranslator) T(key string, args ...interface{}) string { return "<" + key + ">" }

func TestLookupKnownAndUnknown(t *testing.T) {
	o, ok := Lookup(GroupLocation, LocationStreet)
	require.True(t, ok)
	assert.Equal(t, "location_street", o.MessageID)

	_, ok = Lookup(GroupLocation, "moon")
	assert.False(t, ok)

	assert.Panics(t, func() { MustLookup(GroupStyle, "disco") })
}

func TestKeysUniqueWithinGroup(t *testing.T) {
	for _, g := range Groups {
		seen := map[string]bool{}
		for _, o := range Options(g) {
			assert.False(t, seen[o.Key], "duplicate key %q in %s", o.Key, g)
			seen[o.Key] = true
			assert.True(t, o.MessageID != "" || o.Literal != "", "option %q in %s has no label", o.Key, g)
		}
		assert.NotEmpty(t, seen, "group %s is empty", g)
	}
}

func TestCategoryBranches(t *testing.T) {
	assert.True(t, IsModelCategory(CategoryWomen))
	assert.True(t, IsModelCategory(CategoryKids))
	assert.False(t, IsModelCategory(CategoryDisplay))
	assert.False(t, IsModelCategory(CategoryWhiteBG))

	assert.True(t, SkipsSize(CategoryKids))
	assert.False(t, SkipsSize(CategoryMen))
}

func TestAgesFor(t *testing.T) {
	kids := AgesFor(CategoryKids)
	assert.True(t, Offers(kids, "2-4"))
	assert.False(t, Offers(kids, "22-28"))

	adults := AgesFor(CategoryWomen)
	assert.True(t, Offers(adults, "22-28"))
	assert.False(t, Offers(adults, "0.3-1"))
}

func TestStylesFor(t *testing.T) {
	assert.Len(t, StylesFor(LocationStreet), len(Options(GroupStyle)))

	studio := StylesFor(LocationStudio)
	assert.True(t, Offers(studio, StyleSummer))
	assert.False(t, Offers(studio, StyleCar))

	floor := StylesFor(LocationFloor)
	assert.Equal(t, []string{StyleRegular, StyleNewYear}, []string{floor[0].Key, floor[1].Key})
	assert.Len(t, floor, 2)
}

func TestOptionsReturnsCopy(t *testing.T) {
	opts := Options(GroupPose)
	opts[0].Key = "mutated"
	assert.Equal(t, PoseSitting, Options(GroupPose)[0].Key)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "🧍 <pose_standing>", MustLookup(GroupPose, PoseStanding).Label(keyTranslator{}))
	assert.Equal(t, "42-46", MustLookup(GroupSize, "42-46").Label(keyTranslator{}))
}
