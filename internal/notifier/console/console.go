// Package console prints announcements to a stream.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// Header precedes every batch of announcement lines.
const Header = "Open leagues:"

// Notifier writes one line per league to w.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ league.Notifier = (*Notifier)(nil)

// New returns a Notifier writing to w.
func New(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Notify writes the header followed by the formatted lines. The header is
// printed even when there is nothing to announce.
func (n *Notifier) Notify(_ context.Context, leagues []league.League) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	bw := bufio.NewWriter(n.w)
	fmt.Fprintln(bw, Header)
	for _, l := range leagues {
		fmt.Fprintln(bw, league.FormatLine(l))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write announcements: %w", err)
	}
	return nil
}
