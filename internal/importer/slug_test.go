package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Westlands", "westlands"},
		{"two words", "Upper Hill", "upper-hill"},
		{"surrounding whitespace", "  Karen  ", "karen"},
		{"whitespace run collapses", "Nyali   Beach", "nyali-beach"},
		{"punctuation stripped", "St. John's Wood", "st-johns-wood"},
		{"digits kept", "Area 51", "area-51"},
		{"non-ascii stripped", "Hôtel District", "htel-district"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	assert.Equal(t, Slugify("Upper Hill"), Slugify("  upper   HILL "))
}
