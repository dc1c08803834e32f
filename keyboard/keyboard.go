// Package keyboard adapts atomicgo.dev/keyboard's asynchronous key listener
// into the poll/drain contract the engine's blocks expect: keys pile up in
// the background, and a block sees only "what was pressed since the last
// Reset."
package keyboard

import (
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
)

// keyBufSize bounds how many keypresses can queue between two Reset calls
// before new ones are dropped. A human typing during a 256-sample cycle
// (~5.8ms at 44.1kHz) will never get close to this.
const keyBufSize = 64

// Keyboard buffers raw terminal keypresses from a background listener
// goroutine and exposes them to the single-threaded engine loop as the set
// of runes seen since the last Reset.
type Keyboard struct {
	// Keys holds the runes pressed since the last call to Reset.
	Keys []rune

	pressed chan rune
	closing chan struct{}
	done    chan error
}

// New starts a background goroutine listening for keypresses on stdin. The
// listener runs until Close is called.
func New() *Keyboard {
	kb := &Keyboard{
		Keys:    make([]rune, 0, 8),
		pressed: make(chan rune, keyBufSize),
		closing: make(chan struct{}),
		done:    make(chan error, 1),
	}

	go func() {
		kb.done <- keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			select {
			case <-kb.closing:
				return true, nil
			default:
			}

			if key.Code == keys.RuneKey {
				for _, r := range key.Runes {
					select {
					case kb.pressed <- r:
					default:
						// Buffer full; drop the keypress rather than
						// block the listener goroutine.
					}
				}
			}
			return false, nil
		})
	}()

	return kb
}

// Reset clears Keys and refills it with every rune buffered since the
// previous Reset, preserving press order. Non-blocking: it never waits for
// new input.
func (kb *Keyboard) Reset() {
	kb.Keys = kb.Keys[:0]
	for {
		select {
		case r := <-kb.pressed:
			kb.Keys = append(kb.Keys, r)
		default:
			return
		}
	}
}

// Close asks the background listener to stop and waits briefly for it to
// exit and restore terminal state. The listener only notices the close
// request on its next keypress, so Close gives up after a short timeout
// rather than blocking forever on a key that may never come.
func (kb *Keyboard) Close() error {
	close(kb.closing)
	select {
	case err := <-kb.done:
		return err
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}
