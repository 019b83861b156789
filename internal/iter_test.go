package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeq2Merge(t *testing.T) {
	assert := assert.New(t)

	first := maps.All(map[string]int{"A": 1, "B": 2})
	second := maps.All(map[string]int{"B": 20, "C": 30})

	merged := maps.Collect(IterSeq2Merge(first, second))
	assert.Equal(map[string]int{"A": 1, "B": 2, "C": 30}, merged)

	// Early stop.
	var values []string
	for _, value := range IterSeq2Merge(slices.All([]string{"x", "y"}), slices.All([]string{"z"})) {
		values = append(values, value)
		break
	}
	assert.Equal([]string{"x"}, values)

	// Index 0 of the second sequence is shadowed by the first.
	merged2 := maps.Collect(IterSeq2Merge(slices.All([]string{"x", "y"}), slices.All([]string{"z", "w", "v"})))
	assert.Equal(map[int]string{0: "x", 1: "y", 2: "v"}, merged2)

	assert.Empty(maps.Collect(IterSeq2Merge[string, int]()))
}
