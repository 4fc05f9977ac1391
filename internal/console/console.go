// Package console keeps a transient console window open long enough to read
// the result.
package console

import (
	"bufio"
	"fmt"
	"io"
)

// Pause prints a prompt to w and waits for a line on r.
func Pause(w io.Writer, r io.Reader) {
	_, _ = fmt.Fprint(w, "Press Enter to close this window...")
	_, _ = bufio.NewReader(r).ReadString('\n')
}
