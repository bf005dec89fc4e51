package flex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Export renders c as indented JSON, the form accepted by the Flex Message
// Simulator.
func Export(c Container) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nothing to export", ErrInvalidFlex)
	}
	return json.MarshalIndent(c, "", "  ")
}

// Print writes the export of c followed by a newline.
func Print(w io.Writer, c Container) error {
	out, err := Export(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// Indent validates raw flex JSON and re-indents it for display.
func Indent(data []byte) ([]byte, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
