// Package prompt turns a completed scratchpad into the confirmation summary
// shown to the user and the English prompt sent to the image model.
//
// Assemble is pure: the same scratchpad always yields byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
	"github.com/nerdneilsfield/telegram-fashion-bot/internal/wizard"
)

type Localizer interface {
	T(key string, args ...interface{}) string
}

type Options struct {
	AspectRatio string
	Cost        int64
}

type Assembly struct {
	Summary string
	Prompt  string
}

const DefaultAspectRatio = "3:4"

const (
	modelOpening = "Generate a hyper-realistic, high-quality professional fashion photo for e-commerce."

	modelBoilerplate = "Use the input image only as a reference for the garment, its cut, color and texture; " +
		"reproduce the garment faithfully without changing its design. " +
		"The generated photo must look like a real photograph taken by a professional fashion photographer. " +
		"Natural skin, realistic hands, perfect lighting. " +
		"The clothing must be perfectly ironed, without wrinkles or creases. " +
		"Remove the background from the input image and perfectly integrate the garment onto the model. " +
		"Do not use cartoon, 3D render, or drawing styles. " +
		"No text, logos or watermarks. " +
		"The final image should be a single, stunning photograph."

	displayPrompt = "Replace the background of this product image with a stylish, modern, minimalist display zone, " +
		"like a smooth white floor or a light-colored wooden table, focused on the product. " +
		"Ensure the product is clearly the main subject and keep it exactly as it is. " +
		"Remove any distractions like shadows or wrinkles from the background. " +
		"The image should be high-resolution and professionally lit for e-commerce. " +
		"Do not add any human model. No text, logos or watermarks."

	whiteBackgroundPrompt = "Place this product on a pure white background (#FFFFFF) for a marketplace catalog. " +
		"Show the product from the front view, neatly shaped as if worn by an invisible mannequin, " +
		"with a clean three-dimensional product visualization and a soft natural shadow beneath it. " +
		"Keep the product's color, texture and details exactly as in the input image; the product must look perfectly ironed. " +
		"Do not add any human model, props or decorations. No text, logos or watermarks."
)

var (
	subjectFragments = map[string]string{
		catalog.CategoryWomen: "a realistic female model wearing the garment",
		catalog.CategoryMen:   "a realistic male model wearing the garment",
		catalog.CategoryKids:  "a realistic child model (age %s) wearing the garment",
	}

	locationFragments = map[string]string{
		catalog.LocationStreet: "Location: urban street photography style background, high-end commercial photo.",
		catalog.LocationStudio: "Location: professional photo studio, solid light background, soft lighting.",
		catalog.LocationFloor:  "Location: styled floor photo zone, flat lay composition or model sitting on the floor.",
	}

	styleFragments = map[string]string{
		catalog.StyleRegular:    "Theme: neutral fashion theme.",
		catalog.StyleNewYear:    "Theme: luxury Christmas/New Year setting, festive decorations, warm lights.",
		catalog.StyleSummer:     "Theme: vibrant summer atmosphere, bright sunlight, beach or sunny city setting.",
		catalog.StyleNature:     "Theme: natural outdoor setting, green foliage, soft natural light.",
		catalog.StyleParkWinter: "Theme: winter park scene, soft snow, cold colors.",
		catalog.StyleParkSummer: "Theme: lush green park, sunny day.",
		catalog.StyleCar:        "Theme: next to a luxury car, high-fashion editorial style.",
	}

	bodyTypeFragments = map[string]string{
		"42-46": "slim build",
		"50-54": "average build, slightly full figure",
		"58-64": "full figure, large build",
		"64-68": "very full figure, plus-size build",
	}

	poseFragments = map[string]string{
		catalog.PoseSitting:  "Pose: sitting, relaxed natural posture.",
		catalog.PoseStanding: "Pose: standing, confident natural posture.",
	}

	viewFragments = map[string]string{
		catalog.ViewFront: "View: front view, the garment fully visible from the front.",
		catalog.ViewBack:  "View: back view, the model turned away so the back of the garment is fully visible.",
	}
)

const (
	defaultSubject  = "a realistic model wearing the garment"
	defaultLocation = "Location: professional photo environment."
	defaultStyle    = "Theme: neutral fashion theme."
	defaultBodyType = "average build"
	defaultPose     = "Pose: natural posture."
	defaultView     = "View: front view."
)

func fragment(table map[string]string, key, fallback string) string {
	if f, ok := table[key]; ok {
		return f
	}
	return fallback
}

// Assemble builds the summary and the prompt for pad.
func Assemble(pad wizard.Scratchpad, loc Localizer, opts Options) Assembly {
	return Assembly{
		Summary: Summary(pad, loc, opts),
		Prompt:  Prompt(pad, opts),
	}
}

// Prompt renders the English generation prompt.
func Prompt(pad wizard.Scratchpad, opts Options) string {
	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = DefaultAspectRatio
	}

	parts := make([]string, 0, 16)
	switch pad.Category {
	case catalog.CategoryDisplay:
		parts = append(parts, displayPrompt)
	case catalog.CategoryWhiteBG:
		parts = append(parts, whiteBackgroundPrompt)
	default:
		parts = append(parts, modelOpening)

		subject := fragment(subjectFragments, pad.Category, defaultSubject)
		if strings.Contains(subject, "%s") {
			subject = fmt.Sprintf(subject, pad.Age)
		}
		parts = append(parts, "Subject: "+subject+".")

		if pad.Height > 0 {
			parts = append(parts, fmt.Sprintf("Model height: %dcm.", pad.Height))
		}
		if pad.Size != "" {
			parts = append(parts, fmt.Sprintf("Model garment size: %s (%s).", pad.Size, fragment(bodyTypeFragments, pad.Size, defaultBodyType)))
		}
		if pad.Age != "" && !catalog.SkipsSize(pad.Category) {
			parts = append(parts, fmt.Sprintf("Model appearance age: %s years.", pad.Age))
		}
		if pad.Length > 0 {
			parts = append(parts, fmt.Sprintf("Garment length: %dcm, keep the proportions true to this length.", pad.Length))
		}
		parts = append(parts,
			fragment(poseFragments, pad.Pose, defaultPose),
			fragment(viewFragments, pad.View, defaultView),
			fragment(locationFragments, pad.Location, defaultLocation),
			fragment(styleFragments, pad.Style, defaultStyle),
			modelBoilerplate,
		)
	}

	if pad.Refinement != "" {
		parts = append(parts, "Additional user requirements: "+pad.Refinement)
	}
	parts = append(parts, fmt.Sprintf("Aspect ratio: %s.", aspect))
	return strings.Join(parts, " ")
}

// Summary renders the localized confirmation listing. Lines for fields that
// do not apply to the category are omitted.
func Summary(pad wizard.Scratchpad, loc Localizer, opts Options) string {
	label := func(g catalog.Group, key string) string {
		return catalog.MustLookup(g, key).Label(loc)
	}

	lines := []string{
		loc.T("summary_header"),
		"",
		loc.T("summary_category", "value", label(catalog.GroupCategory, pad.Category)),
	}

	if catalog.IsModelCategory(pad.Category) {
		lines = append(lines, loc.T("summary_height", "value", pad.Height))
		if pad.Length > 0 {
			lines = append(lines, loc.T("summary_length", "value", pad.Length))
		} else {
			lines = append(lines, loc.T("summary_length_skipped"))
		}
		lines = append(lines,
			loc.T("summary_location", "value", label(catalog.GroupLocation, pad.Location)),
			loc.T("summary_age", "value", label(catalog.GroupAge, pad.Age)),
		)
		if !catalog.SkipsSize(pad.Category) {
			lines = append(lines, loc.T("summary_size", "value", label(catalog.GroupSize, pad.Size)))
		}
		lines = append(lines,
			loc.T("summary_style", "value", label(catalog.GroupStyle, pad.Style)),
			loc.T("summary_pose", "value", label(catalog.GroupPose, pad.Pose)),
			loc.T("summary_view", "value", label(catalog.GroupView, pad.View)),
		)
	}

	if pad.Refinement != "" {
		lines = append(lines, loc.T("summary_refinement", "value", pad.Refinement))
	}
	if opts.Cost > 0 {
		lines = append(lines, "", loc.T("summary_cost", "value", opts.Cost))
	}
	return strings.Join(lines, "\n")
}
