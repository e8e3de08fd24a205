package datefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPtBR(t *testing.T) {
	ts, err := time.Parse(time.RFC3339, "2021-03-15T10:00:00Z")
	require.NoError(t, err)

	tests := []struct {
		pattern string
		want    string
	}{
		{"d MMM y", "15 mar 2021"},
		{"dd/MM/yyyy", "15/03/2021"},
		{"d 'de' MMMM 'de' y", "15 de março de 2021"},
		{"HH:mm", "10:00"},
		{"yy", "21"},
		{"'it''s' d", "it's 15"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(ts, tt.pattern, PtBR), tt.pattern)
	}
}

func TestFormatSingleDigitDay(t *testing.T) {
	ts := time.Date(2021, time.February, 5, 7, 4, 0, 0, time.UTC)
	assert.Equal(t, "5 fev 2021", Format(ts, "d MMM y", PtBR))
	assert.Equal(t, "07:04", Format(ts, "HH:mm", PtBR))
	assert.Equal(t, "5 Feb 2021", Format(ts, "d MMM y", EnUS))
	assert.Equal(t, "7:04", Format(ts, "H:mm", PtBR))
}

func TestFormatLiteralsAreNotLayouts(t *testing.T) {
	ts := time.Date(2021, time.March, 19, 15, 49, 0, 0, time.UTC)
	assert.Equal(t, "* editado em 19 mar 2021 às 15:49", Format(ts, "'* editado em' d MMM y' às' HH:mm", PtBR))
	assert.Equal(t, "Mon Jan 2 -> 19", Format(ts, "'Mon Jan 2 ->' d", EnUS))
}

func TestMonthNames(t *testing.T) {
	short := PtBR.ShortMonths()
	require.Len(t, short, 12)
	assert.Equal(t, []string{"jan", "fev", "mar"}, short[:3])
	assert.Equal(t, "dez", short[11])
	assert.Equal(t, "março", PtBR.LongMonths()[2])
	assert.Equal(t, "Sep", EnUS.ShortMonths()[8])
	assert.Equal(t, "September", EnUS.LongMonths()[8])
}

func TestLookup(t *testing.T) {
	tests := []struct {
		tag  string
		want Locale
	}{
		{"pt-BR", PtBR},
		{"pt", PtBR},
		{"en-US", EnUS},
		{"en-GB", EnUS},
		{"not a tag!", PtBR},
		{"", PtBR},
	}
	for _, tt := range tests {
		got := Lookup(tt.tag)
		assert.Equal(t, tt.want.Tag, got.Tag, tt.tag)
	}
}
