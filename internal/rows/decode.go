package rows

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dbsmedya/formrows/internal/schema"
)

var (
	// ErrMalformed wraps XML syntax errors.
	ErrMalformed = errors.New("malformed submission xml")

	// ErrIncomplete is returned when the input ends before the envelope closes.
	ErrIncomplete = errors.New("submission xml ended before its envelope closed")
)

// Submission is one stored form response.
type Submission struct {
	InstanceID string
	XML        string
}

// Handler receives the tag events of a document. Close reports whether the
// handler is finished; Scan stops reading at that point.
type Handler interface {
	Open(tag string)
	Text(text string)
	Close() bool
}

// Scan reads r incrementally and feeds h until h reports completion.
// Cancellation is checked between tokens.
func Scan(ctx context.Context, r io.Reader, h Handler) error {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tok, err := dec.Token()
		if err == io.EOF {
			return ErrIncomplete
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			h.Open(t.Name.Local)
		case xml.CharData:
			h.Text(string(t))
		case xml.EndElement:
			if h.Close() {
				return nil
			}
		}
	}
}

// Decode builds the rows of table from the submission XML in r.
func Decode(ctx context.Context, r io.Reader, root *schema.Field, instanceID, table string, opts Options) ([]*Row, error) {
	w := NewWalker(root, table, instanceID, opts)
	if err := Scan(ctx, r, w); err != nil {
		return nil, err
	}
	out, _ := w.Rows()
	return out, nil
}

// Convert builds the rows of table from an in-memory submission.
func Convert(ctx context.Context, root *schema.Field, sub Submission, table string, opts Options) ([]*Row, error) {
	return Decode(ctx, strings.NewReader(sub.XML), root, sub.InstanceID, table, opts)
}

// attachmentCollector gathers binary field values across the whole document.
type attachmentCollector struct {
	fields  []*schema.Field
	started bool
	names   []string
	seen    map[string]bool
}

func (c *attachmentCollector) Open(tag string) {
	if !c.started {
		c.started = true
		return
	}
	top := c.fields[len(c.fields)-1]
	c.fields = append(c.fields, top.Child(LocalName(tag)))
}

func (c *attachmentCollector) Text(text string) {
	if !c.started {
		return
	}
	top := c.fields[len(c.fields)-1]
	if top == nil || top.Kind != schema.Binary {
		return
	}
	name := strings.TrimSpace(text)
	if name == "" || c.seen[name] {
		return
	}
	c.seen[name] = true
	c.names = append(c.names, name)
}

func (c *attachmentCollector) Close() bool {
	c.fields = c.fields[:len(c.fields)-1]
	return len(c.fields) == 0
}

// Attachments returns the file names referenced by binary fields anywhere in
// the submission, in document order without duplicates.
func Attachments(ctx context.Context, root *schema.Field, doc string) ([]string, error) {
	c := &attachmentCollector{
		fields: []*schema.Field{root},
		seen:   make(map[string]bool),
	}
	if err := Scan(ctx, strings.NewReader(doc), c); err != nil {
		return nil, err
	}
	return c.names, nil
}

// instanceIDReader picks the text of meta/instanceID directly under the
// envelope.
type instanceIDReader struct {
	path []string
	id   strings.Builder
}

func (r *instanceIDReader) Open(tag string) {
	r.path = append(r.path, LocalName(tag))
}

func (r *instanceIDReader) Text(text string) {
	if len(r.path) == 3 && r.path[1] == "meta" && r.path[2] == "instanceID" {
		r.id.WriteString(text)
	}
}

func (r *instanceIDReader) Close() bool {
	r.path = r.path[:len(r.path)-1]
	return len(r.path) == 0
}

// InstanceID reads the submission's own instance id from meta/instanceID.
func InstanceID(ctx context.Context, doc string) (string, error) {
	r := &instanceIDReader{}
	if err := Scan(ctx, strings.NewReader(doc), r); err != nil {
		return "", err
	}
	id := strings.TrimSpace(r.id.String())
	if id == "" {
		return "", errors.New("submission has no meta/instanceID")
	}
	return id, nil
}
