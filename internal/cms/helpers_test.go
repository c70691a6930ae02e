package cms

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageURL(t *testing.T) {
	u, err := ImageURL("h35sm18t", "production", "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg", ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.sanity.io/images/h35sm18t/production/Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000.jpg", u)

	u, err = ImageURL("h35sm18t", "production", "image-abc-100x100-png", ImageOptions{Width: 400, Fit: "max"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.sanity.io/images/h35sm18t/production/abc-100x100.png?fit=max&w=400", u)
}

func TestImageURL_Malformed(t *testing.T) {
	for _, ref := range []string{"", "file-abc-pdf", "image-abc-100-png", "image-abc-0x10-png", "image--10x10-png", "image-a-b-c-d"} {
		_, err := ImageURL("p", "d", ref, ImageOptions{})
		assert.Error(t, err, ref)
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "", PlainText(nil))
	assert.Equal(t, "", PlainText(json.RawMessage(`null`)))
	assert.Equal(t, "hello", PlainText(json.RawMessage(`" hello "`)))
	assert.Equal(t, "one\n\ntwo", PlainText(json.RawMessage(`[
		{"_type":"block","children":[{"_type":"span","text":"one"}]},
		{"_type":"image","asset":{"_ref":"image-x-1x1-png"}},
		{"_type":"block","children":[{"_type":"span","text":"  "}]},
		{"_type":"block","children":[{"_type":"span","text":"two"}]}
	]`)))
	assert.Equal(t, "", PlainText(json.RawMessage(`42`)))
}

func TestPriceToCents(t *testing.T) {
	tests := map[string]int64{
		"0":      0,
		"799":    79900,
		"799.99": 79999,
		"0.005":  1,
		"19.994": 1999,
		"1099.5": 109950,
	}
	for in, want := range tests {
		got, err := PriceToCents(decimal.RequireFromString(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := PriceToCents(decimal.RequireFromString("-1"))
	assert.Error(t, err)
}
