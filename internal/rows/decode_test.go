package rows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSplitTextLastWriteWins(t *testing.T) {
	doc := `<data><name>Ali<!-- note -->ce</name><age>7</age></data>`
	out := convert(t, "Submissions", doc, Options{})
	require.Len(t, out, 1)

	name, _ := out[0].Get("name")
	assert.Equal(t, "ce", name)
	assert.Equal(t, []string{IDKey, "name", "age"}, out[0].Keys())
}

func TestDecodeNamespacePrefixes(t *testing.T) {
	doc := `<h:data xmlns:h="http://example.org/h"><h:name>Alice</h:name></h:data>`
	out := convert(t, "Submissions", doc, Options{})
	require.Len(t, out, 1)

	name, _ := out[0].Get("name")
	assert.Equal(t, "Alice", name)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"mismatched tags", `<data><name>x</data>`, ErrMalformed},
		{"truncated", `<data><name>x</name>`, ErrMalformed},
		{"not xml", `<<>>`, ErrMalformed},
		{"empty", ``, ErrIncomplete},
		{"whitespace only", "  \n", ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decode(context.Background(), strings.NewReader(tt.doc), censusSchema(), "uuid:1", "Submissions", Options{})
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeStopsAtEnvelopeClose(t *testing.T) {
	// Anything after the envelope is never read.
	doc := `<data><name>Alice</name></data><garbage`
	out, err := Decode(context.Background(), strings.NewReader(doc), censusSchema(), "uuid:1", "Submissions", Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestDecodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decode(ctx, strings.NewReader(householdXML), censusSchema(), "uuid:1", "Submissions", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttachments(t *testing.T) {
	doc := `<data>
  <photo>front.jpg</photo>
  <household><photo> ann.jpg </photo></household>
  <household><photo>front.jpg</photo></household>
  <household><photo></photo></household>
  <name>not-a-file.jpg</name>
</data>`

	names, err := Attachments(context.Background(), censusSchema(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"front.jpg", "ann.jpg"}, names)
}

func TestAttachmentsMalformed(t *testing.T) {
	_, err := Attachments(context.Background(), censusSchema(), `<data><photo>x</data>`)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestInstanceID(t *testing.T) {
	doc := `<data><meta><instanceID> uuid:9 </instanceID></meta><household><meta><instanceID>nested</instanceID></meta></household></data>`
	id, err := InstanceID(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "uuid:9", id)

	_, err = InstanceID(context.Background(), `<data><name>x</name></data>`)
	assert.Error(t, err)
}
