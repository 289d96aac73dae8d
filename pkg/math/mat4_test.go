package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"scale then translate", Translate(1, 1, 1).Mul(Scale(2, 3, 4)), Vec3{1, 1, 1}, Vec3{3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.p)
			if got != tt.want {
				t.Errorf("TransformPoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(math32.Pi / 2)
	result := m.TransformPoint(Vec3{1, 0, 0})

	// After 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if abs(result.X) > 0.001 || abs(result.Y) > 0.001 || abs(result.Z+1) > 0.001 {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", result)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math32.Pi/4, 1.0, 0.1, 100.0)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})

	// The eye lands on the view-space origin.
	got := m.TransformPoint(eye)
	if got.Length() > 0.0001 {
		t.Errorf("LookAt eye = %v, want origin", got)
	}
	// The target sits straight down -Z.
	target := m.TransformPoint(Vec3{})
	if abs(target.Z+5) > 0.0001 {
		t.Errorf("LookAt target = %v, want (0, 0, -5)", target)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestInverse(t *testing.T) {
	m := Translate(3, -2, 5).Mul(RotateY(0.7)).Mul(Scale(2, 4, 0.5))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse() reported singular matrix")
	}

	got := m.Mul(inv)
	want := Identity()
	for i := range got {
		if math32.Abs(got[i]-want[i]) > 1e-5 {
			t.Errorf("m*inv[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	p := Vec3{X: 1, Y: 2, Z: 3}
	back := inv.TransformPoint(m.TransformPoint(p))
	if back.Distance(p) > 1e-4 {
		t.Errorf("roundtrip point = %v, want %v", back, p)
	}
}

func TestInverseSingular(t *testing.T) {
	_, ok := Scale(1, 0, 1).Inverse()
	if ok {
		t.Error("Inverse() of a flattening scale should fail")
	}
}
