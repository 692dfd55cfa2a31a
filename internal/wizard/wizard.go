// Package wizard implements the step-by-step parameter collection that
// precedes a generation.
package wizard

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/telegram-fashion-bot/internal/catalog"
)

type Step string

const (
	StepCategory     Step = "awaiting_category"
	StepPhoto        Step = "awaiting_photo"
	StepHeight       Step = "awaiting_height"
	StepLength       Step = "awaiting_length"
	StepLocation     Step = "awaiting_location"
	StepAge          Step = "awaiting_age"
	StepSize         Step = "awaiting_size"
	StepStyle        Step = "awaiting_style"
	StepPose         Step = "awaiting_pose"
	StepView         Step = "awaiting_view"
	StepConfirmation Step = "awaiting_confirmation"
	StepRefinement   Step = "awaiting_refinement"
)

// Scratchpad collects one wizard run. Fields are filled strictly in step
// order; fields that do not apply to the category stay empty.
type Scratchpad struct {
	UserID int64
	ChatID int64
	Step   Step

	Category      string
	PhotoPath     string
	Height        int
	Length        int
	LengthSkipped bool
	Location      string
	Age           string
	Size          string
	Style         string
	Pose          string
	View          string
	Refinement    string

	Summary string
	Prompt  string

	UpdatedAt time.Time
}

type InputKind int

const (
	InputText InputKind = iota
	InputChoice
	InputPhoto
	InputSkip
	InputRefine
)

// Input is one user action. Choice inputs name the catalog group they were
// rendered from so a stale button from another step can be told apart.
type Input struct {
	Kind      InputKind
	Text      string
	Group     catalog.Group
	Key       string
	PhotoPath string
}

func Text(s string) Input { return Input{Kind: InputText, Text: s} }
func Choice(g catalog.Group, key string) Input { return Input{Kind: InputChoice, Group: g, Key: key} }
func Photo(path string) Input { return Input{Kind: InputPhoto, PhotoPath: path} }
func Skip() Input { return Input{Kind: InputSkip} }
func Refine() Input { return Input{Kind: InputRefine} }

type Rejection string

const (
	RejectNone        Rejection = ""
	RejectWrongInput  Rejection = "wrong_input"
	RejectNotNumber   Rejection = "not_a_number"
	RejectOutOfRange  Rejection = "out_of_range"
	RejectUnavailable Rejection = "unavailable_option"
	RejectEmptyText   Rejection = "empty_text"
)

// Transition reports the outcome of one Apply. A rejected input leaves the
// scratchpad untouched and From == To.
type Transition struct {
	From     Step
	To       Step
	Accepted bool
	Reason   Rejection
}

// Policy bounds the free-text numeric answers.
type Policy struct {
	MinHeight        int
	MaxHeight        int
	MinLength        int
	MaxLength        int
	MaxRefinementLen int
}

func DefaultPolicy() Policy {
	return Policy{
		MinHeight:        50,
		MaxHeight:        220,
		MinLength:        10,
		MaxLength:        250,
		MaxRefinementLen: 500,
	}
}

type Machine struct {
	policy Policy
}

func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy}
}

func (m *Machine) Policy() Policy { return m.policy }

// ExpectedGroup is the catalog group a choice step accepts.
func ExpectedGroup(step Step) (catalog.Group, bool) {
	switch step {
	case StepCategory:
		return catalog.GroupCategory, true
	case StepLocation:
		return catalog.GroupLocation, true
	case StepAge:
		return catalog.GroupAge, true
	case StepSize:
		return catalog.GroupSize, true
	case StepStyle:
		return catalog.GroupStyle, true
	case StepPose:
		return catalog.GroupPose, true
	case StepView:
		return catalog.GroupView, true
	}
	return "", false
}

// Apply consumes one input. It panics if a choice carries a key that is
// not in the catalog at all.
func (m *Machine) Apply(pad *Scratchpad, in Input) Transition {
	from := pad.Step
	reject := func(r Rejection) Transition {
		return Transition{From: from, To: from, Reason: r}
	}
	advance := func(to Step) Transition {
		pad.Step = to
		pad.UpdatedAt = time.Now()
		return Transition{From: from, To: to, Accepted: true}
	}

	if group, ok := ExpectedGroup(from); ok {
		if in.Kind != InputChoice || in.Group != group {
			return reject(RejectWrongInput)
		}
		catalog.MustLookup(group, in.Key)
	}

	switch from {
	case StepCategory:
		*pad = Scratchpad{UserID: pad.UserID, ChatID: pad.ChatID, Step: from, Category: in.Key}
		return advance(StepPhoto)

	case StepPhoto:
		if in.Kind != InputPhoto || in.PhotoPath == "" {
			return reject(RejectWrongInput)
		}
		pad.PhotoPath = in.PhotoPath
		if catalog.IsModelCategory(pad.Category) {
			return advance(StepHeight)
		}
		return advance(StepConfirmation)

	case StepHeight:
		n, r := m.number(in, m.policy.MinHeight, m.policy.MaxHeight)
		if r != RejectNone {
			return reject(r)
		}
		pad.Height = n
		return advance(StepLength)

	case StepLength:
		if in.Kind == InputSkip {
			pad.Length = 0
			pad.LengthSkipped = true
			return advance(StepLocation)
		}
		n, r := m.number(in, m.policy.MinLength, m.policy.MaxLength)
		if r != RejectNone {
			return reject(r)
		}
		pad.Length = n
		pad.LengthSkipped = false
		return advance(StepLocation)

	case StepLocation:
		pad.Location = in.Key
		return advance(StepAge)

	case StepAge:
		if !catalog.Offers(catalog.AgesFor(pad.Category), in.Key) {
			return reject(RejectUnavailable)
		}
		pad.Age = in.Key
		if catalog.SkipsSize(pad.Category) {
			return advance(StepStyle)
		}
		return advance(StepSize)

	case StepSize:
		pad.Size = in.Key
		return advance(StepStyle)

	case StepStyle:
		if !catalog.Offers(catalog.StylesFor(pad.Location), in.Key) {
			return reject(RejectUnavailable)
		}
		pad.Style = in.Key
		return advance(StepPose)

	case StepPose:
		pad.Pose = in.Key
		return advance(StepView)

	case StepView:
		pad.View = in.Key
		return advance(StepConfirmation)

	case StepConfirmation:
		if in.Kind != InputRefine {
			return reject(RejectWrongInput)
		}
		return advance(StepRefinement)

	case StepRefinement:
		if in.Kind != InputText {
			return reject(RejectWrongInput)
		}
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return reject(RejectEmptyText)
		}
		if limit := m.policy.MaxRefinementLen; limit > 0 && utf8.RuneCountInString(text) > limit {
			text = string([]rune(text)[:limit])
		}
		pad.Refinement = text
		return advance(StepConfirmation)
	}

	return reject(RejectWrongInput)
}

func (m *Machine) number(in Input, lo, hi int) (int, Rejection) {
	if in.Kind != InputText {
		return 0, RejectWrongInput
	}
	s := strings.TrimSpace(in.Text)
	if s == "" {
		return 0, RejectNotNumber
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, RejectNotNumber
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, RejectOutOfRange
	}
	if n < lo || n > hi {
		return 0, RejectOutOfRange
	}
	return n, RejectNone
}
