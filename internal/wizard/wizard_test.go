package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
)

func newPad() *Scratchpad {
	return &Scratchpad{UserID: 1, ChatID: 1, Step: StepCategory}
}

func mustApply(t *testing.T, m *Machine, pad *Scratchpad, in Input, want Step) {
	t.Helper()
	tr := m.Apply(pad, in)
	require.True(t, tr.Accepted, "input %+v rejected at %s: %s", in, tr.From, tr.Reason)
	require.Equal(t, want, tr.To)
	require.Equal(t, want, pad.Step)
}

func TestFullWomenRun(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := newPad()

	mustApply(t, m, pad, Choice(catalog.GroupCategory, catalog.CategoryWomen), StepPhoto)
	mustApply(t, m, pad, Photo("/tmp/p.jpg"), StepHeight)
	mustApply(t, m, pad, Text("170"), StepLength)
	mustApply(t, m, pad, Text(" 70 "), StepLocation)
	mustApply(t, m, pad, Choice(catalog.GroupLocation, catalog.LocationStreet), StepAge)
	mustApply(t, m, pad, Choice(catalog.GroupAge, "22-28"), StepSize)
	mustApply(t, m, pad, Choice(catalog.GroupSize, "42-46"), StepStyle)
	mustApply(t, m, pad, Choice(catalog.GroupStyle, catalog.StyleRegular), StepPose)
	mustApply(t, m, pad, Choice(catalog.GroupPose, catalog.PoseStanding), StepView)
	mustApply(t, m, pad, Choice(catalog.GroupView, catalog.ViewFront), StepConfirmation)

	assert.Equal(t, 170, pad.Height)
	assert.Equal(t, 70, pad.Length)
	assert.Equal(t, "22-28", pad.Age)
	assert.Equal(t, "42-46", pad.Size)
	assert.Equal(t, "/tmp/p.jpg", pad.PhotoPath)
}

func TestKidsSkipSize(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := newPad()

	mustApply(t, m, pad, Choice(catalog.GroupCategory, catalog.CategoryKids), StepPhoto)
	mustApply(t, m, pad, Photo("/tmp/k.jpg"), StepHeight)
	mustApply(t, m, pad, Text("110"), StepLength)
	mustApply(t, m, pad, Skip(), StepLocation)
	mustApply(t, m, pad, Choice(catalog.GroupLocation, catalog.LocationStudio), StepAge)

	// adult bracket is not offered for children
	tr := m.Apply(pad, Choice(catalog.GroupAge, "22-28"))
	assert.False(t, tr.Accepted)
	assert.Equal(t, RejectUnavailable, tr.Reason)

	mustApply(t, m, pad, Choice(catalog.GroupAge, "2-4"), StepStyle)

	// a size button from an old keyboard is the wrong input here
	tr = m.Apply(pad, Choice(catalog.GroupSize, "42-46"))
	assert.Equal(t, RejectWrongInput, tr.Reason)

	mustApply(t, m, pad, Choice(catalog.GroupStyle, catalog.StyleSummer), StepPose)
	mustApply(t, m, pad, Choice(catalog.GroupPose, catalog.PoseSitting), StepView)
	mustApply(t, m, pad, Choice(catalog.GroupView, catalog.ViewBack), StepConfirmation)

	assert.Empty(t, pad.Size)
	assert.True(t, pad.LengthSkipped)
	assert.Zero(t, pad.Length)
}

func TestProductCategoriesJumpToConfirmation(t *testing.T) {
	for _, category := range []string{catalog.CategoryDisplay, catalog.CategoryWhiteBG} {
		t.Run(category, func(t *testing.T) {
			m := NewMachine(DefaultPolicy())
			pad := newPad()
			mustApply(t, m, pad, Choice(catalog.GroupCategory, category), StepPhoto)
			mustApply(t, m, pad, Photo("/tmp/d.jpg"), StepConfirmation)

			assert.Zero(t, pad.Height)
			assert.Empty(t, pad.Location)
			assert.Empty(t, pad.Age)
			assert.Empty(t, pad.Pose)
			assert.Empty(t, pad.View)
			assert.Empty(t, pad.Size)
		})
	}
}

func TestHeightRejections(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := &Scratchpad{Step: StepHeight, Category: catalog.CategoryMen}

	cases := []struct {
		in   Input
		want Rejection
	}{
		{Text("tall"), RejectNotNumber},
		{Text("17O"), RejectNotNumber},
		{Text("-5"), RejectNotNumber},
		{Text(""), RejectNotNumber},
		{Text("10"), RejectOutOfRange},
		{Text("300"), RejectOutOfRange},
		{Text("99999999999999999999"), RejectOutOfRange},
		{Photo("/tmp/x.jpg"), RejectWrongInput},
		{Choice(catalog.GroupPose, catalog.PoseSitting), RejectWrongInput},
	}
	for _, tc := range cases {
		tr := m.Apply(pad, tc.in)
		assert.False(t, tr.Accepted)
		assert.Equal(t, tc.want, tr.Reason, "input %+v", tc.in)
		assert.Equal(t, StepHeight, pad.Step)
		assert.Zero(t, pad.Height)
	}

	mustApply(t, m, pad, Text("50"), StepLength)
}

func TestPhotoStepRejectsNonPhoto(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := &Scratchpad{Step: StepPhoto, Category: catalog.CategoryWomen}

	for _, in := range []Input{Text("here it is"), Skip(), Choice(catalog.GroupCategory, catalog.CategoryMen)} {
		tr := m.Apply(pad, in)
		assert.Equal(t, RejectWrongInput, tr.Reason)
		assert.Equal(t, StepPhoto, pad.Step)
	}
}

func TestStyleFilteredByLocation(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := &Scratchpad{Step: StepStyle, Category: catalog.CategoryWomen, Location: catalog.LocationFloor}

	tr := m.Apply(pad, Choice(catalog.GroupStyle, catalog.StyleCar))
	assert.Equal(t, RejectUnavailable, tr.Reason)
	mustApply(t, m, pad, Choice(catalog.GroupStyle, catalog.StyleNewYear), StepPose)
}

func TestUnknownCatalogKeyPanics(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := &Scratchpad{Step: StepLocation, Category: catalog.CategoryWomen}
	assert.Panics(t, func() { m.Apply(pad, Choice(catalog.GroupLocation, "moon")) })
}

func TestRefinementLoop(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := &Scratchpad{Step: StepConfirmation, Category: catalog.CategoryDisplay, PhotoPath: "/tmp/x"}

	assert.Equal(t, RejectWrongInput, m.Apply(pad, Text("brighter")).Reason)
	mustApply(t, m, pad, Refine(), StepRefinement)
	assert.Equal(t, RejectEmptyText, m.Apply(pad, Text("   ")).Reason)
	mustApply(t, m, pad, Text("  warmer light  "), StepConfirmation)
	assert.Equal(t, "warmer light", pad.Refinement)
}

func TestCategoryResetsPreviousAnswers(t *testing.T) {
	m := NewMachine(DefaultPolicy())
	pad := &Scratchpad{UserID: 5, ChatID: 6, Step: StepCategory, Height: 180, Size: "50-54"}
	mustApply(t, m, pad, Choice(catalog.GroupCategory, catalog.CategoryKids), StepPhoto)
	assert.Equal(t, int64(5), pad.UserID)
	assert.Equal(t, int64(6), pad.ChatID)
	assert.Zero(t, pad.Height)
	assert.Empty(t, pad.Size)
}
