package format

import (
	"fmt"
	"strings"
	"time"
)

// Locale holds the wording of every notification.
type Locale struct {
	Code     string
	Weekdays [7]string // indexed by time.Weekday

	Homework       string
	ClassCancelled string
	StudyHall      string
	Gradebook      string

	NewGrade       [2]string // singular, plural
	NewObservation [2]string
	DatePrefix     string // "On" in "On 02/01/06 at 15:04:05"
	At             string
	From           string
	objectsOfType  func(n int, kinds string) string
	markLabels     map[string]string
}

var locales = map[string]*Locale{
	"en": {
		Code:           "en",
		Weekdays:       [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Homework:       "Homework",
		ClassCancelled: "Class Cancelled",
		StudyHall:      "Study Hall",
		Gradebook:      "Gradebook",
		NewGrade:       [2]string{"New Grade", "New Grades"},
		NewObservation: [2]string{"New Observation", "New Observations"},
		DatePrefix:     "On",
		At:             "at",
		From:           "from",
		objectsOfType: func(n int, kinds string) string {
			return fmt.Sprintf("%d object%s of type %s", n, plural(n, "s"), kinds)
		},
		markLabels: map[string]string{
			"absent":     "Absent",
			"exempted":   "Exempted",
			"not_graded": "Not graded",
			"unfit":      "Unfit",
			"unreturned": "Not returned",
		},
	},
	"fr": {
		Code:           "fr",
		Weekdays:       [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		Homework:       "Devoirs",
		ClassCancelled: "Cours Annulé",
		StudyHall:      "Permanence",
		Gradebook:      "Bulletin",
		NewGrade:       [2]string{"Nouvelle Note", "Nouvelles Notes"},
		NewObservation: [2]string{"Nouvelle Observation", "Nouvelles Observations"},
		DatePrefix:     "Le",
		At:             "à",
		From:           "de",
		objectsOfType: func(n int, kinds string) string {
			return fmt.Sprintf("%d objet%s de type %s", n, plural(n, "s"), kinds)
		},
		markLabels: map[string]string{
			"absent":     "Absent",
			"exempted":   "Dispensé",
			"not_graded": "Non noté",
			"unfit":      "Inapte",
			"unreturned": "Non rendu",
		},
	},
}

// DefaultLocale is used when the configured code is unknown.
const DefaultLocale = "en"

// LocaleFor returns the locale for code, falling back to DefaultLocale.
func LocaleFor(code string) *Locale {
	if l, ok := locales[strings.ToLower(strings.TrimSpace(code))]; ok {
		return l
	}
	return locales[DefaultLocale]
}

func (l *Locale) Weekday(t time.Time) string { return l.Weekdays[t.Weekday()] }

// Plural picks the singular or plural form for n items.
func (l *Locale) Plural(forms [2]string, n int) string {
	if n > 1 {
		return forms[1]
	}
	return forms[0]
}

func plural(n int, suffix string) string {
	if n > 1 {
		return suffix
	}
	return ""
}
