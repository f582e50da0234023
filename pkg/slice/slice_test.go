// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/wingconfig/pkg/slice"
)

/*
TestMap transforms every element and keeps nil as nil.
*/
func TestMap(t *testing.T) {
	assert.Equal(t, []string{"ADMIN", "EDITOR"}, slice.Map([]string{"admin", "editor"}, strings.ToUpper))
	assert.Nil(t, slice.Map[string, string](nil, strings.ToUpper))
}

/*
TestUnique drops duplicates while keeping first-seen order.
*/
func TestUnique(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil", nil, nil},
		{"empty", []string{}, []string{}},
		{"no_duplicates", []string{"b", "a"}, []string{"b", "a"}},
		{"duplicates", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slice.Unique(tt.input))
		})
	}
}
