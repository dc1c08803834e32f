package combiner

import (
	"testing"

	"github.com/bwoodbury3/looper/config"
	"github.com/bwoodbury3/looper/stream"
)

func newBlockConfig(t *testing.T, yamlDoc string) *config.BlockConfig {
	t.Helper()
	pc, err := config.Parse([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	if len(pc.Blocks) != 1 {
		t.Fatalf("expected exactly one block, got %d", len(pc.Blocks))
	}
	return pc.Blocks[0]
}

func TestCombinerSumsInputs(t *testing.T) {
	catalog := stream.NewCatalog()
	a, _ := catalog.CreateSource("a")
	b, _ := catalog.CreateSource("b")

	cfg := newBlockConfig(t, `
devices:
  - name: c1
    type: Combiner
    input_channels: [a, b]
    output_channel: out
`)

	c, err := New(cfg, catalog)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bufA := a.Borrow()
	bufA.Fill(0.25)
	a.Release()

	bufB := b.Borrow()
	bufB.Fill(-0.1)
	b.Release()

	c.Transform(nil)

	reader, err := catalog.BindSink("out")
	if err != nil {
		t.Fatalf("BindSink: %v", err)
	}
	out := reader.Borrow()
	for i, v := range out {
		if v < 0.149999 || v > 0.150001 {
			t.Fatalf("out[%d] = %v, want ~0.15", i, v)
		}
	}
	reader.Release()
}
