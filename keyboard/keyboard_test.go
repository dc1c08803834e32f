package keyboard

import "testing"

// newForTest builds a Keyboard without starting the real terminal listener,
// so Reset's drain logic can be exercised in isolation.
func newForTest() *Keyboard {
	return &Keyboard{
		Keys:    make([]rune, 0, 8),
		pressed: make(chan rune, keyBufSize),
		closing: make(chan struct{}),
		done:    make(chan error, 1),
	}
}

func TestResetDrainsInOrder(t *testing.T) {
	kb := newForTest()
	kb.pressed <- 'a'
	kb.pressed <- 'b'
	kb.pressed <- 'c'

	kb.Reset()

	want := []rune{'a', 'b', 'c'}
	if len(kb.Keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", kb.Keys, want)
	}
	for i, r := range want {
		if kb.Keys[i] != r {
			t.Errorf("Keys[%d] = %q, want %q", i, kb.Keys[i], r)
		}
	}
}

func TestResetClearsPreviousKeys(t *testing.T) {
	kb := newForTest()
	kb.pressed <- 'x'
	kb.Reset()
	if len(kb.Keys) != 1 {
		t.Fatalf("expected 1 key after first Reset, got %d", len(kb.Keys))
	}

	kb.Reset()
	if len(kb.Keys) != 0 {
		t.Errorf("expected Reset with no new input to clear Keys, got %v", kb.Keys)
	}
}

func TestResetNonBlockingWhenEmpty(t *testing.T) {
	kb := newForTest()
	kb.Reset()
	if len(kb.Keys) != 0 {
		t.Errorf("expected no keys, got %v", kb.Keys)
	}
}
