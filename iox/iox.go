// Package iox provides small I/O cleanup helpers.
//
// Deferred Close calls on response bodies, store backends, and adapters
// return errors that no caller can act on; these helpers make the discard
// explicit instead of hiding it behind a bare `_ =`.
package iox

import "io"

// DiscardClose closes c and discards the error:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c, shaped for
// t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(backend))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and discards the returned error. For non-Close
// cleanup such as a deferred Flush:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }
