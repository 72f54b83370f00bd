package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := map[string]string{
		"  call back   tomorrow ":                 "call back tomorrow",
		"<b>Asha</b> Rao":                         "Asha Rao",
		"&lt;script&gt;alert(1)&lt;/script&gt;ok": "alert(1)ok",
		"fish &amp; chips":                        "fish & chips",
	}

	for in, want := range cases {
		assert.Equal(t, want, Text(in), "Text(%q)", in)
	}
}
