// Package multipart encodes ordered form fields and file attachments into a
// multipart/form-data body.
//
// # Encoding
//
// Build the fields in the order the server expects them and pass them to
// [Encode]:
//
//	body, boundary := multipart.Encode([]multipart.Field{
//		multipart.Text{Name: "username", Value: "alice"},
//		multipart.JPEG("image", jpegBytes),
//	})
//	contentType := multipart.ContentType(boundary)
//
// Every call generates a fresh boundary, so a body must be re-encoded for
// each attempt rather than reused.
//
// Most callers should not need this package directly; the
// [github.com/adamwoolhether/reqkit/client.Multipart] builder encodes the
// fields and sets the Content-Type header in one step.
package multipart
