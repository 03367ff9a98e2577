package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, Distance(45.4642, 9.19, 45.4642, 9.19))
}

func TestDistanceKnownCityPair(t *testing.T) {
	// Milan Duomo to Rome Colosseum, roughly 477 km great-circle.
	d := Distance(45.4642, 9.19, 41.8902, 12.4922)
	assert.InDelta(t, 477000, d, 5000)
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Distance(45.4642, 9.19, 41.8902, 12.4922)
	b := Distance(41.8902, 12.4922, 45.4642, 9.19)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceShortRange(t *testing.T) {
	// One degree of latitude is about 111.2 km; a thousandth of that is
	// about 111 m.
	d := Distance(45.0, 9.0, 45.001, 9.0)
	assert.InDelta(t, 111.2, d, 1.0)
}

func TestDistanceAcrossEquator(t *testing.T) {
	d := Distance(-0.001, 0, 0.001, 0)
	assert.InDelta(t, 222.4, d, 2.0)
}
