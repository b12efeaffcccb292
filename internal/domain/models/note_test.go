package models

import (
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"lowercases and trims", []string{" Work ", "URGENT"}, []string{"work", "urgent"}},
		{"drops empties", []string{"", "  ", "a"}, []string{"a"}},
		{"dedupes keeping first occurrence", []string{"b", "A", "B", "a"}, []string{"b", "a"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortedUniqueTags(t *testing.T) {
	got := SortedUniqueTags(
		[]string{"zebra", "apple"},
		[]string{"apple", "mango"},
		nil,
	)
	want := []string{"apple", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedUniqueTags = %v, want %v", got, want)
	}
}
