// Package catalog holds the closed option sets offered by the photo wizard.
//
// Every key emitted into a keyboard originates here, so a key that fails to
// resolve is a programming error rather than user input.
package catalog

import (
	"fmt"
)

type Group string

const (
	GroupCategory Group = "category"
	GroupLocation Group = "location"
	GroupAge      Group = "age"
	GroupSize     Group = "size"
	GroupStyle    Group = "style"
	GroupPose     Group = "pose"
	GroupView     Group = "view"
)

// Groups lists every group in wizard order.
var Groups = []Group{GroupCategory, GroupLocation, GroupAge, GroupSize, GroupStyle, GroupPose, GroupView}

// Option is one selectable value. MessageID names the localized label;
// Literal is used verbatim when the label needs no translation (sizes, ages).
type Option struct {
	Key       string
	MessageID string
	Literal   string
	Emoji     string
}

// Translator is the subset of the i18n localizer the catalog needs.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Label renders the option for display.
func (o Option) Label(tr Translator) string {
	text := o.Literal
	if text == "" {
		text = tr.T(o.MessageID)
	}
	if o.Emoji == "" {
		return text
	}
	return o.Emoji + " " + text
}

const (
	CategoryWomen   = "women"
	CategoryMen     = "men"
	CategoryKids    = "kids"
	CategoryDisplay = "display"
	CategoryWhiteBG = "white_bg"

	LocationStreet = "street"
	LocationStudio = "studio"
	LocationFloor  = "floor"

	StyleRegular    = "regular"
	StyleNewYear    = "new_year"
	StyleSummer     = "summer"
	StyleNature     = "nature"
	StyleParkWinter = "park_winter"
	StyleParkSummer = "park_summer"
	StyleCar        = "car"

	PoseSitting  = "sitting"
	PoseStanding = "standing"

	ViewFront = "front"
	ViewBack  = "back"
)

var (
	categories = []Option{
		{Key: CategoryWomen, MessageID: "category_women", Emoji: "👚"},
		{Key: CategoryMen, MessageID: "category_men", Emoji: "👔"},
		{Key: CategoryKids, MessageID: "category_kids", Emoji: "👶"},
		{Key: CategoryDisplay, MessageID: "category_display", Emoji: "🖼"},
		{Key: CategoryWhiteBG, MessageID: "category_white_bg", Emoji: "⚪"},
	}

	locations = []Option{
		{Key: LocationStreet, MessageID: "location_street", Emoji: "🏙"},
		{Key: LocationStudio, MessageID: "location_studio", Emoji: "📸"},
		{Key: LocationFloor, MessageID: "location_floor", Emoji: "📐"},
	}

	adultAges = []Option{
		{Key: "18-20", Literal: "18-20"},
		{Key: "22-28", Literal: "22-28"},
		{Key: "32-40", Literal: "32-40"},
		{Key: "42-55", Literal: "42-55"},
	}

	childAges = []Option{
		{Key: "0.3-1", Literal: "0.3-1"},
		{Key: "2-4", Literal: "2-4"},
		{Key: "7-10", Literal: "7-10"},
		{Key: "13-17", Literal: "13-17"},
	}

	sizes = []Option{
		{Key: "42-46", Literal: "42-46"},
		{Key: "50-54", Literal: "50-54"},
		{Key: "58-64", Literal: "58-64"},
		{Key: "64-68", Literal: "64-68"},
	}

	styles = []Option{
		{Key: StyleRegular, MessageID: "style_regular", Emoji: "🏢"},
		{Key: StyleNewYear, MessageID: "style_new_year", Emoji: "🎄"},
		{Key: StyleSummer, MessageID: "style_summer", Emoji: "☀️"},
		{Key: StyleNature, MessageID: "style_nature", Emoji: "🌳"},
		{Key: StyleParkWinter, MessageID: "style_park_winter", Emoji: "🏞"},
		{Key: StyleParkSummer, MessageID: "style_park_summer", Emoji: "🌲"},
		{Key: StyleCar, MessageID: "style_car", Emoji: "🚗"},
	}

	poses = []Option{
		{Key: PoseSitting, MessageID: "pose_sitting", Emoji: "🪑"},
		{Key: PoseStanding, MessageID: "pose_standing", Emoji: "🧍"},
	}

	views = []Option{
		{Key: ViewFront, MessageID: "view_front", Emoji: "👤"},
		{Key: ViewBack, MessageID: "view_back", Emoji: "🔙"},
	}

	// Studio and floor zones only fit neutral or seasonal themes.
	stylesByLocation = map[string][]string{
		LocationStreet: {StyleRegular, StyleNewYear, StyleSummer, StyleNature, StyleParkWinter, StyleParkSummer, StyleCar},
		LocationStudio: {StyleRegular, StyleNewYear, StyleSummer},
		LocationFloor:  {StyleRegular, StyleNewYear},
	}
)

// Options enumerates a group. Ages are the union of adult and child brackets.
func Options(g Group) []Option {
	var src []Option
	switch g {
	case GroupCategory:
		src = categories
	case GroupLocation:
		src = locations
	case GroupAge:
		src = append(append([]Option{}, adultAges...), childAges...)
	case GroupSize:
		src = sizes
	case GroupStyle:
		src = styles
	case GroupPose:
		src = poses
	case GroupView:
		src = views
	default:
		return nil
	}
	out := make([]Option, len(src))
	copy(out, src)
	return out
}

// Lookup resolves a key within a group.
func Lookup(g Group, key string) (Option, bool) {
	for _, o := range Options(g) {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// MustLookup panics on an unknown key.
func MustLookup(g Group, key string) Option {
	o, ok := Lookup(g, key)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown %s key %q", g, key))
	}
	return o
}

// IsModelCategory reports whether the category places the garment on a model
// and therefore walks the full attribute chain.
func IsModelCategory(category string) bool {
	MustLookup(GroupCategory, category)
	switch category {
	case CategoryWomen, CategoryMen, CategoryKids:
		return true
	default:
		return false
	}
}

// SkipsSize reports whether the category never asks for a clothing size.
func SkipsSize(category string) bool {
	MustLookup(GroupCategory, category)
	return category == CategoryKids
}

// AgesFor returns the age brackets offered for a model category.
func AgesFor(category string) []Option {
	MustLookup(GroupCategory, category)
	src := adultAges
	if category == CategoryKids {
		src = childAges
	}
	out := make([]Option, len(src))
	copy(out, src)
	return out
}

// StylesFor returns the themes offered for a location.
func StylesFor(location string) []Option {
	MustLookup(GroupLocation, location)
	keys := stylesByLocation[location]
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		out = append(out, MustLookup(GroupStyle, k))
	}
	return out
}

// Offers reports whether key is among opts.
func Offers(opts []Option, key string) bool {
	for _, o := range opts {
		if o.Key == key {
			return true
		}
	}
	return false
}
