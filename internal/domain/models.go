package domain

import "fmt"

// CalendarDays is the number of doors on the calendar.
const CalendarDays = 24

// NoSelection marks an empty option selection.
const NoSelection = -1

// Day is the content behind one calendar door. It is loaded once and never
// mutated afterwards.
type Day struct {
	ID            int      `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Content       string   `json:"content" yaml:"content"`
	Colors        []string `json:"colors" yaml:"colors"`
	LogoURL       string   `json:"logoUrl,omitempty" yaml:"logoUrl,omitempty"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer"`
}

// Validate checks the catalogue invariants of a day.
func (d Day) Validate() error {
	switch {
	case d.ID < 1 || d.ID > CalendarDays:
		return fmt.Errorf("%w: id %d outside 1..%d", ErrInvalidDay, d.ID, CalendarDays)
	case d.Question == "":
		return fmt.Errorf("%w: day %d has no question", ErrInvalidDay, d.ID)
	case len(d.Options) == 0:
		return fmt.Errorf("%w: day %d has no options", ErrInvalidDay, d.ID)
	case !d.hasValidAnswer():
		return fmt.Errorf("%w: day %d correct answer %d out of range [0,%d)", ErrInvalidDay, d.ID, d.CorrectAnswer, len(d.Options))
	}
	return nil
}

// IsCorrect reports whether option index i is the right answer. A day whose
// stored answer is out of range never matches.
func (d Day) IsCorrect(i int) bool {
	return d.hasValidAnswer() && i == d.CorrectAnswer
}

func (d Day) hasValidAnswer() bool {
	return d.CorrectAnswer >= 0 && d.CorrectAnswer < len(d.Options)
}

// ViewState is the two-state machine governing what the modal shows.
type ViewState string

const (
	ViewQuestion ViewState = "question"
	ViewSuccess  ViewState = "success"
)

// OptionView is one answer button as rendered for the client.
type OptionView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	Wrong    bool   `json:"wrong"`
	Correct  bool   `json:"correct"`
}

// View is the snapshot of an open modal. The question state never carries the
// answer index or the story content.
type View struct {
	DayID    int          `json:"dayId"`
	State    ViewState    `json:"state"`
	Colors   []string     `json:"colors"`
	LogoURL  string       `json:"logoUrl,omitempty"`
	Question string       `json:"question,omitempty"`
	Options  []OptionView `json:"options,omitempty"`
	Title    string       `json:"title,omitempty"`
	Content  string       `json:"content,omitempty"`
}

// Tile is one door of the calendar grid.
type Tile struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Colors    []string `json:"colors"`
	LogoURL   string   `json:"logoUrl,omitempty"`
	Completed bool     `json:"completed"`
	Locked    bool     `json:"locked"`
}

// Progress counts completed doors.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Grid is the calendar as seen by one user.
type Grid struct {
	UserID   string   `json:"userId"`
	Tiles    []Tile   `json:"tiles"`
	Progress Progress `json:"progress"`
}

// UpdateType tags a ModalUpdate.
type UpdateType string

const (
	UpdateView      UpdateType = "view"
	UpdateCompleted UpdateType = "completed"
	UpdateClosed    UpdateType = "closed"
)

// ModalUpdate is pushed to subscribers whenever a session's modal changes.
type ModalUpdate struct {
	Type  UpdateType `json:"type"`
	DayID int        `json:"dayId"`
	View  *View      `json:"view,omitempty"`
}
