package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// promptLine reads one line from in after printing the label. Commands that
// run with --non-interactive must not reach this; callers check first.
func promptLine(out io.Writer, in io.Reader, label string) (string, error) {
	_, _ = fmt.Fprintf(out, "%s: ", label)
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
