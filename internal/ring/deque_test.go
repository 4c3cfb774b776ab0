package ring

import "testing"

func TestDeque_FIFOOrderAcrossGrowth(t *testing.T) {
	var d Deque[int]

	for i := 0; i < 100; i++ {
		d.PushBack(i)
	}
	if d.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", d.Len())
	}

	for i := 0; i < 100; i++ {
		v, ok := d.PopFront()
		if !ok || v != i {
			t.Fatalf("PopFront() = (%d, %v), want (%d, true)", v, ok, i)
		}
	}

	if _, ok := d.PopFront(); ok {
		t.Error("PopFront() on empty deque returned ok")
	}
}

func TestDeque_WrapAround(t *testing.T) {
	d := New[int](8)

	// Advance head so that later pushes wrap past the end of buf.
	for i := 0; i < 6; i++ {
		d.PushBack(i)
	}
	for i := 0; i < 6; i++ {
		d.PopFront()
	}
	for i := 0; i < 12; i++ {
		d.PushBack(i)
	}

	for i := 0; i < 12; i++ {
		if got := d.At(i); got != i {
			t.Errorf("At(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestDeque_BothEnds(t *testing.T) {
	var d Deque[string]
	d.PushBack("b")
	d.PushFront("a")
	d.PushBack("c")

	if v, _ := d.Front(); v != "a" {
		t.Errorf("Front() = %q, want %q", v, "a")
	}
	if v, _ := d.Back(); v != "c" {
		t.Errorf("Back() = %q, want %q", v, "c")
	}
	if v, _ := d.PopBack(); v != "c" {
		t.Errorf("PopBack() = %q, want %q", v, "c")
	}

	d.Clear()
	if d.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", d.Len())
	}
	if _, ok := d.Front(); ok {
		t.Error("Front() after Clear returned ok")
	}
}

func TestDeque_AtOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("At() out of range did not panic")
		}
	}()

	var d Deque[int]
	d.PushBack(1)
	_ = d.At(1)
}

func TestDeque_DeleteFunc(t *testing.T) {
	d := New[int](4)
	// Force a wrapped layout before deleting.
	for i := 0; i < 6; i++ {
		d.PushBack(i)
	}
	d.PopFront()
	d.PopFront()
	for i := 6; i < 10; i++ {
		d.PushBack(i)
	}

	removed := d.DeleteFunc(func(v int) bool { return v%2 == 1 })
	if removed != 4 {
		t.Errorf("DeleteFunc() = %d, want 4", removed)
	}

	want := []int{2, 4, 6, 8}
	if d.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", d.Len(), len(want))
	}
	for i, w := range want {
		if got := d.At(i); got != w {
			t.Errorf("At(%d) = %d, want %d", i, got, w)
		}
	}

	d.PushBack(10)
	if v, _ := d.Back(); v != 10 {
		t.Errorf("Back() = %d, want 10", v)
	}
	if d.DeleteFunc(func(int) bool { return true }) != 5 || d.Len() != 0 {
		t.Errorf("DeleteFunc(all) left Len() = %d", d.Len())
	}
}
