package math

import "testing"

func TestEmptyBox3(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox3 should be empty")
	}
	if b.Center() != (Vec3{}) || b.Half() != (Vec3{}) {
		t.Errorf("empty box center/half = %v/%v, want zero", b.Center(), b.Half())
	}

	b.ExpandByPoint(Vec3{1, 2, 3})
	if b.IsEmpty() {
		t.Fatal("box with one point should not be empty")
	}
	if b.Min != b.Max {
		t.Errorf("single point box: min %v != max %v", b.Min, b.Max)
	}
}

func TestBox3CenterHalf(t *testing.T) {
	b := EmptyBox3()
	b.ExpandByPoint(Vec3{-1, 0, 2})
	b.ExpandByPoint(Vec3{3, 4, 6})

	if got, want := b.Center(), (Vec3{1, 2, 4}); got != want {
		t.Errorf("Center() = %v, want %v", got, want)
	}
	if got, want := b.Half(), (Vec3{2, 2, 2}); got != want {
		t.Errorf("Half() = %v, want %v", got, want)
	}
	if got, want := b.Size(), (Vec3{4, 4, 4}); got != want {
		t.Errorf("Size() = %v, want %v", got, want)
	}
	if BoxAround(b.Center(), b.Half()) != b {
		t.Errorf("BoxAround(center, half) = %v, want %v", BoxAround(b.Center(), b.Half()), b)
	}
}

func TestBox3ContainsIntersects(t *testing.T) {
	b := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}

	tests := []struct {
		name string
		p    Vec3
		want bool
	}{
		{"inside", Vec3{0.5, 0.5, 0.5}, true},
		{"on min corner", Vec3{0, 0, 0}, true},
		{"on max face", Vec3{1, 0.5, 0.5}, true},
		{"outside", Vec3{1.5, 0.5, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	touching := Box3{Min: Vec3{1, 1, 1}, Max: Vec3{2, 2, 2}}
	if !b.Intersects(touching) {
		t.Error("boxes sharing a corner should intersect")
	}
	apart := Box3{Min: Vec3{1.1, 0, 0}, Max: Vec3{2, 1, 1}}
	if b.Intersects(apart) {
		t.Error("separated boxes should not intersect")
	}
	degenerate := Box3{Min: Vec3{0.5, 0.5, 0.5}, Max: Vec3{0.5, 0.5, 0.5}}
	if !b.Intersects(degenerate) {
		t.Error("a point box inside should intersect")
	}
}
