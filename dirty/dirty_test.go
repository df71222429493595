package dirty

import "testing"

func TestWidenGrowsInterval(t *testing.T) {
	tr := New()
	tr.Widen(5)
	tr.Widen(2)
	tr.Widen(8)
	iv := tr.Consume()
	if iv.Empty() || *iv.Smallest != 2 || *iv.Largest != 8 {
		t.Fatalf("expected [2,8], got %+v", iv)
	}
}

func TestConsumeResetsInterval(t *testing.T) {
	tr := New()
	tr.Widen(3)
	tr.Consume()
	iv := tr.Consume()
	if !iv.Empty() {
		t.Errorf("expected empty interval after consume, got %+v", iv)
	}
}

func TestNeedsRenderCoalesces(t *testing.T) {
	tr := New()
	if tr.NeedsRender() {
		t.Fatal("fresh tracker should not need render")
	}
	tr.Widen(1)
	tr.Widen(1)
	tr.Widen(2)
	if !tr.NeedsRender() {
		t.Error("expected needs-render after widen")
	}
	tr.ClearNeedsRender()
	if tr.NeedsRender() {
		t.Error("expected needs-render cleared")
	}
}

func TestEmptyIntervalInitially(t *testing.T) {
	tr := New()
	iv := tr.Consume()
	if !iv.Empty() {
		t.Errorf("expected empty interval on fresh tracker, got %+v", iv)
	}
}
