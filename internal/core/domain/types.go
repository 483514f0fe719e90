// Package domain holds the data model of the incident report bot: sessions,
// answers, inbound input and outbound effects.
package domain

import "strconv"

// StepID identifies a node of the dialog step graph.
type StepID string

// FieldKey names an answer slot in a session.
type FieldKey string

const (
	FieldCategory    FieldKey = "category"
	FieldStreet      FieldKey = "street"
	FieldHouse       FieldKey = "house"
	FieldArea        FieldKey = "area"
	FieldSection     FieldKey = "section"
	FieldFloor       FieldKey = "floor"
	FieldFlat        FieldKey = "flat"
	FieldStoreroom   FieldKey = "storeroom"
	FieldParking     FieldKey = "parking"
	FieldDescription FieldKey = "description"
	FieldMedia       FieldKey = "media"
	FieldLocation    FieldKey = "location"
)

// AnswerKind tags the variant held by an Answer.
type AnswerKind string

const (
	AnswerText     AnswerKind = "text"
	AnswerChoice   AnswerKind = "choice"
	AnswerNumber   AnswerKind = "number"
	AnswerMedia    AnswerKind = "media"
	AnswerLocation AnswerKind = "location"
)

// MediaKind is the kind of an attachment accepted by media steps.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaAnimation MediaKind = "animation"
	MediaVideo     MediaKind = "video"
)

// Media references an attachment already stored by the messaging transport.
type Media struct {
	Kind         MediaKind `json:"kind" yaml:"kind"`
	FileID       string    `json:"file_id" yaml:"file_id"`
	FileUniqueID string    `json:"file_unique_id,omitempty" yaml:"file_unique_id,omitempty"`
	FileSize     int64     `json:"file_size,omitempty" yaml:"file_size,omitempty"`
	Width        int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int       `json:"height,omitempty" yaml:"height,omitempty"`
	Duration     int       `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Location is a geographic point shared by the user.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Answer is a tagged variant. Only the fields matching Kind are meaningful:
// Value for text and choice, Number for number, Media and Location for
// their kinds.
type Answer struct {
	Kind     AnswerKind `json:"kind" yaml:"kind"`
	Value    string     `json:"value,omitempty" yaml:"value,omitempty"`
	Number   int        `json:"number,omitempty" yaml:"number,omitempty"`
	Media    *Media     `json:"media,omitempty" yaml:"media,omitempty"`
	Location *Location  `json:"location,omitempty" yaml:"location,omitempty"`
}

func TextAnswer(s string) Answer   { return Answer{Kind: AnswerText, Value: s} }
func ChoiceAnswer(s string) Answer { return Answer{Kind: AnswerChoice, Value: s} }
func NumberAnswer(n int) Answer    { return Answer{Kind: AnswerNumber, Number: n} }

func MediaAnswer(m Media) Answer {
	return Answer{Kind: AnswerMedia, Media: &m}
}

func LocationAnswer(l Location) Answer {
	return Answer{Kind: AnswerLocation, Location: &l}
}

// String renders the answer the way it appears in a report.
func (a Answer) String() string {
	switch a.Kind {
	case AnswerNumber:
		return strconv.Itoa(a.Number)
	case AnswerText, AnswerChoice:
		return a.Value
	case AnswerMedia:
		if a.Media != nil {
			return string(a.Media.Kind)
		}
	case AnswerLocation:
		if a.Location != nil {
			return strconv.FormatFloat(a.Location.Latitude, 'f', 6, 64) + "," +
				strconv.FormatFloat(a.Location.Longitude, 'f', 6, 64)
		}
	}
	return ""
}

func (a Answer) clone() Answer {
	out := a
	if a.Media != nil {
		m := *a.Media
		out.Media = &m
	}
	if a.Location != nil {
		l := *a.Location
		out.Location = &l
	}
	return out
}

// Answers maps field keys to recorded answers.
type Answers map[FieldKey]Answer

// Has reports whether the field was set. Zero-valued answers (floor 0) count
// as set.
func (a Answers) Has(key FieldKey) bool {
	_, ok := a[key]
	return ok
}

// Get returns the answer for key and whether it was set.
func (a Answers) Get(key FieldKey) (Answer, bool) {
	ans, ok := a[key]
	return ans, ok
}

// Text returns the string form of the answer, or "" when unset.
func (a Answers) Text(key FieldKey) string {
	if ans, ok := a[key]; ok {
		return ans.String()
	}
	return ""
}

// Clone returns a deep copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v.clone()
	}
	return out
}
