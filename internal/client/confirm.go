package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotConfirmed is returned when the typed name differs from the target's.
var ErrNotConfirmed = errors.New("confirmation did not match, nothing deleted")

// ConfirmName asks the user to retype name exactly before a destructive
// action on the kind of thing named. Only the line terminator is stripped.
func ConfirmName(in io.Reader, out io.Writer, kind, name string) error {
	fmt.Fprintf(out, "This permanently deletes the %s %q.\nType its name to confirm: ", kind, name)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimRight(line, "\r\n") != name {
		return ErrNotConfirmed
	}
	return nil
}
