package multipart

import (
	"bytes"
	"strings"

	"github.com/google/uuid"
)

const (
	crlf = "\r\n"

	// DefaultFileContentType is used for a [File] without a ContentType.
	DefaultFileContentType = "application/octet-stream"
)

// Field is a single part of a multipart body. It is implemented by [Text]
// and [File] only.
type Field interface {
	write(buf *bytes.Buffer)
	contains(token []byte) bool
}

// Text is a plain form value. Its part carries no Content-Type line.
type Text struct {
	Name  string
	Value string
}

func (t Text) write(buf *bytes.Buffer) {
	buf.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(t.Name) + `"` + crlf)
	buf.WriteString(crlf)
	buf.WriteString(t.Value)
	buf.WriteString(crlf)
}

func (t Text) contains(token []byte) bool {
	return strings.Contains(t.Value, string(token))
}

// File is a binary attachment. Data is written to the body as-is.
type File struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

func (f File) write(buf *bytes.Buffer) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = DefaultFileContentType
	}

	buf.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(f.Name) + `"; filename="` + escapeQuotes(f.Filename) + `"` + crlf)
	buf.WriteString("Content-Type: " + contentType + crlf)
	buf.WriteString(crlf)
	buf.Write(f.Data)
	buf.WriteString(crlf)
}

func (f File) contains(token []byte) bool {
	return bytes.Contains(f.Data, token)
}

// JPEG returns a File part named name holding a JPEG image,
// sent as "image.jpg".
func JPEG(name string, data []byte) File {
	return File{
		Name:        name,
		Filename:    "image.jpg",
		ContentType: "image/jpeg",
		Data:        data,
	}
}

// Encode writes fields, in order, into a multipart/form-data body and
// returns it together with the boundary used. An empty fields slice yields
// a body holding only the closing boundary line.
func Encode(fields []Field) ([]byte, string) {
	boundary := newBoundary(fields)

	var buf bytes.Buffer
	for _, f := range fields {
		buf.WriteString("--" + boundary + crlf)
		f.write(&buf)
	}
	buf.WriteString("--" + boundary + "--" + crlf)

	return buf.Bytes(), boundary
}

// ContentType returns the Content-Type header value for a body
// encoded with boundary.
func ContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}

// newBoundary draws uuids until one does not occur inside any field value.
func newBoundary(fields []Field) string {
	for {
		boundary := uuid.NewString()
		if !collides(fields, []byte(boundary)) {
			return boundary
		}
	}
}

func collides(fields []Field, token []byte) bool {
	for _, f := range fields {
		if f.contains(token) {
			return true
		}
	}

	return false
}

// quoteEscaper escapes quotes and backslashes and percent-encodes line
// breaks, which would otherwise end the Content-Disposition line.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "%0D", "\n", "%0A")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
