package gift

import (
	"strings"
	"time"

	"github.com/hpungsan/curatr/internal/errors"
)

// DateLayout is the calendar date format for occasion dates.
const DateLayout = "2006-01-02"

// OccasionType is one of the fixed occasion kinds.
type OccasionType string

const (
	OccasionBirthday    OccasionType = "birthday"
	OccasionAnniversary OccasionType = "anniversary"
	OccasionHoliday     OccasionType = "holiday"
	OccasionGraduation  OccasionType = "graduation"
	OccasionThankYou    OccasionType = "thank_you"
	OccasionJustBecause OccasionType = "just_because"
	OccasionCustom      OccasionType = "custom"
)

// Occasion describes why a gift was saved.
type Occasion struct {
	Type  OccasionType `json:"type"`
	Label string       `json:"label"`
	// Date is a YYYY-MM-DD calendar date, or empty
	Date  string `json:"date"`
	Notes string `json:"notes"`
	Color string `json:"color"`
}

// OccasionKind is the display metadata for a predefined type.
type OccasionKind struct {
	Type  OccasionType `json:"type"`
	Label string       `json:"label"`
	Color string       `json:"color"`
}

// CustomColor tags custom occasions.
const CustomColor = "gray"

var occasionKinds = []OccasionKind{
	{OccasionBirthday, "Birthday", "pink"},
	{OccasionAnniversary, "Anniversary", "red"},
	{OccasionHoliday, "Holiday", "green"},
	{OccasionGraduation, "Graduation", "blue"},
	{OccasionThankYou, "Thank You", "purple"},
	{OccasionJustBecause, "Just Because", "orange"},
}

// OccasionKinds lists the predefined occasion types in display order.
func OccasionKinds() []OccasionKind {
	return append([]OccasionKind(nil), occasionKinds...)
}

func lookupKind(t OccasionType) (OccasionKind, bool) {
	for _, k := range occasionKinds {
		if k.Type == t {
			return k, true
		}
	}
	return OccasionKind{}, false
}

// BuildOccasion resolves an occasion record. Predefined types take their
// fixed label; custom requires a non-empty trimmed customLabel. The date is
// copied as given (see ValidateOccasionDate for the input-layer check).
func BuildOccasion(typ OccasionType, customLabel, date, notes string) (Occasion, error) {
	typ = OccasionType(strings.ToLower(strings.TrimSpace(string(typ))))
	occ := Occasion{
		Type:  typ,
		Date:  strings.TrimSpace(date),
		Notes: strings.TrimSpace(notes),
	}

	if typ == OccasionCustom {
		label := strings.TrimSpace(customLabel)
		if label == "" {
			return Occasion{}, errors.NewInvalidRequest("custom occasion requires a label")
		}
		occ.Label = label
		occ.Color = CustomColor
		return occ, nil
	}

	kind, ok := lookupKind(typ)
	if !ok {
		return Occasion{}, errors.NewInvalidRequest(
			"occasion type must be one of: birthday, anniversary, holiday, graduation, thank_you, just_because, custom")
	}
	occ.Label = kind.Label
	occ.Color = kind.Color
	return occ, nil
}

// ParseOccasionDate parses a YYYY-MM-DD date as midnight UTC.
func ParseOccasionDate(date string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidateOccasionDate is the input-layer check for occasion dates: empty is
// allowed, otherwise the date must parse and must not be before today in
// now's location.
func ValidateOccasionDate(date string, now time.Time) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil
	}
	if _, ok := ParseOccasionDate(date); !ok {
		return errors.NewInvalidRequest("occasion date must be YYYY-MM-DD")
	}
	// Lexical comparison is exact for zero-padded YYYY-MM-DD.
	if date < now.Format(DateLayout) {
		return errors.NewInvalidRequest("occasion date must not be in the past")
	}
	return nil
}
