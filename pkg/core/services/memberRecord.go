package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

const unknownMonth = "unknown"

// Birthday layouts tried in order, day-first before month-first
var birthdayLayouts = []string{
	"2/1/2006",
	"1/2/2006",
	"2006-1-2",
	"2-1-2006",
	"1-2-2006",
	"2.1.2006",
	"1.2.2006",
	"2006/1/2",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ParseMonth returns the lowercased English month of a free-text birthday, or "unknown"
func ParseMonth(birthday string) string {
	text := strings.TrimSpace(birthday)
	if text == "" {
		return unknownMonth
	}

	if month, ok := parseDateMonth(text); ok {
		return month
	}
	// Timestamps such as "15/03/1999 10:30:00" carry the date in the first field
	if fields := strings.Fields(text); len(fields) > 1 {
		if month, ok := parseDateMonth(fields[0]); ok {
			return month
		}
	}

	lower := strings.ToLower(text)
	for _, month := range monthNames {
		if strings.Contains(lower, month[:3]) {
			return month
		}
	}

	return unknownMonth
}

func parseDateMonth(text string) (string, bool) {
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return strings.ToLower(t.Month().String()), true
		}
	}
	return "", false
}

// Slugify lowercases name, strips accents and joins the remaining letters and digits with underscores
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(stripped) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}

	if b.Len() == 0 {
		return "member"
	}
	return b.String()
}

// MemberID builds slug_rowIndex_unixMillis. The timestamp makes ids differ between runs.
func MemberID(name string, rowIndex int, now time.Time) string {
	return fmt.Sprintf("%s_%d_%d", Slugify(name), rowIndex, now.UnixMilli())
}

// ToMemberRecord converts a sheet row into a member record
func ToMemberRecord(row model.SheetRow, now time.Time) (*model.MemberRecord, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: row %d has no name", ErrConversion, row.Index)
	}

	return &model.MemberRecord{
		ID:            MemberID(name, row.Index, now),
		Name:          name,
		Course:        row.Course,
		Birthday:      row.Birthday,
		Month:         ParseMonth(row.Birthday),
		Phone:         row.Phone,
		Residence:     row.Residence,
		Email:         row.Email,
		Participation: row.Participation,
		PhotoURL:      row.PhotoURL,
		VideoURL:      row.VideoURL,
		RowIndex:      row.Index,
	}, nil
}
