package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarChange(t *testing.T) {
	b := Bar{Open: 100, Close: 105}
	assert.InDelta(t, 5, b.Change(), 1e-9)
	assert.InDelta(t, 5, b.ChangePercent(), 1e-9)

	assert.Zero(t, Bar{Open: 0, Close: 105}.ChangePercent())
}

func TestCloses(t *testing.T) {
	bars := []Bar{{Close: 1}, {Close: 2}, {Close: 3}}
	assert.Equal(t, []float64{1, 2, 3}, Closes(bars))
	assert.Empty(t, Closes(nil))
}
