package scenewatch

import (
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264}
	p2 := Point{X: 421, Y: 427}
	correctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
	}
}

func TestRectangleCenter(t *testing.T) {
	rect := NewRect(10, 20, 30, 40)
	center := rect.Center()
	if center.X != 25 || center.Y != 40 {
		t.Errorf("Expected center (25, 40), got (%v, %v)", center.X, center.Y)
	}
}

func TestIoU(t *testing.T) {
	r1 := NewRect(0, 0, 10, 10)
	r2 := NewRect(0, 0, 10, 10)
	if math.Abs(IoU(r1, r2)-1.0) > eps {
		t.Errorf("Expected IoU 1.0 for identical rectangles, got %f", IoU(r1, r2))
	}

	r3 := NewRect(20, 20, 10, 10)
	if IoU(r1, r3) != 0.0 {
		t.Errorf("Expected IoU 0.0 for disjoint rectangles, got %f", IoU(r1, r3))
	}

	// Half-overlap: intersection 50, union 150
	r4 := NewRect(5, 0, 10, 10)
	correct := 50.0 / 150.0
	if math.Abs(IoU(r1, r4)-correct) > eps {
		t.Errorf("Expected IoU %f, got %f", correct, IoU(r1, r4))
	}
}
