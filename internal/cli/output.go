package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/adamwoolhether/reqkit/client"
)

// printBody writes a JSON body indented, any other body verbatim.
func printBody(w io.Writer, body []byte) error {
	if len(body) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		buf.Reset()
		buf.Write(body)
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())

	return err
}

// printFailure renders err with its kind, status and any raw body.
func printFailure(w io.Writer, err error, noColor bool) {
	red := paint(w, noColor, color.FgRed, color.Bold)
	dim := paint(w, noColor, color.Faint)

	e, ok := errors.AsType[*client.Error](err)
	if !ok {
		fmt.Fprintf(w, "%s %v\n", red.Sprint("error:"), err)
		return
	}

	fmt.Fprintf(w, "%s %s", red.Sprint(e.Kind.String()+":"), e.Error())
	if e.StatusCode != 0 {
		fmt.Fprint(w, dim.Sprintf(" (status %d)", e.StatusCode))
	}
	fmt.Fprintln(w)

	if e.Body != "" {
		fmt.Fprintln(w, dim.Sprint(e.Body))
	}
}

// paint returns a color that stays plain unless w is a file and color is
// allowed.
func paint(w io.Writer, noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if _, ok := w.(*os.File); noColor || !ok {
		c.DisableColor()
	}

	return c
}
