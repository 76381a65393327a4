package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name     string
		birthday string
		want     string
	}{
		{"day first slashes", "15/03/1999", "march"},
		{"month first slashes", "03/15/1999", "march"},
		{"iso", "1999-07-04", "july"},
		{"day first dashes", "25-12-2001", "december"},
		{"month first dashes", "12-25-2001", "december"},
		{"day first dots", "15.03.1999", "march"},
		{"year first slashes", "1999/03/15", "march"},
		{"date with time", "15/03/1999 10:30:00", "march"},
		{"iso with time", "2001-11-05 08:00", "november"},
		{"day month name", "2 Feb 2005", "february"},
		{"short month name", "Aug 9, 2010", "august"},
		{"long month name", "September 30, 1998", "september"},
		{"substring fallback", "xyz Jan 2020", "january"},
		{"substring fallback case", "born in OCTOBER", "october"},
		{"unparseable", "not-a-date", "unknown"},
		{"blank", "   ", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMonth(tt.birthday))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Alice Smith", "alice_smith"},
		{"accents", "José Ñúñez", "jose_nunez"},
		{"punctuation", "  O'Brien, Mary-Kate ", "o_brien_mary_kate"},
		{"digits", "Team 2", "team_2"},
		{"nothing usable", "李雷", "member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestMemberID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "alice_smith_3_1700000000123", MemberID("Alice Smith", 3, now))
}

func TestToMemberRecord(t *testing.T) {
	row := model.SheetRow{
		Index:         2,
		Name:          " Alice ",
		Course:        "Year 10",
		Birthday:      "15/03/1999",
		Phone:         "0123",
		Residence:     "North",
		Email:         "alice@example.org",
		Participation: "Yes",
		PhotoURL:      "https://example.com/alice.jpg",
		VideoURL:      "https://example.com/alice.mp4",
	}

	record, err := ToMemberRecord(row, time.UnixMilli(42))
	require.NoError(t, err)

	assert.Equal(t, "alice_2_42", record.ID)
	assert.Equal(t, "Alice", record.Name)
	assert.Equal(t, "march", record.Month)
	assert.Equal(t, 2, record.RowIndex)
	assert.Equal(t, "https://example.com/alice.mp4", record.VideoURL)
}

func TestToMemberRecord_BlankName(t *testing.T) {
	_, err := ToMemberRecord(model.SheetRow{Index: 4, Name: "  "}, time.Now())
	assert.ErrorIs(t, err, ErrConversion)
}
