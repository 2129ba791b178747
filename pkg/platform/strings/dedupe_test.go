package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		key  func(string) string
		want []string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "all blank", in: []string{"", "  "}, want: []string{}},
		{
			name: "broker list from env",
			in:   []string{" kafka-1:9092", "kafka-2:9092 ", "", "kafka-1:9092"},
			want: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name: "case-insensitive key keeps first spelling",
			in:   []string{"Kafka-1:9092", "kafka-1:9092", "KAFKA-2:9092"},
			key:  strings.ToLower,
			want: []string{"Kafka-1:9092", "KAFKA-2:9092"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compact(tt.in, tt.key))
		})
	}
}

func TestCompactDoesNotAlias(t *testing.T) {
	in := []string{"a", " b"}
	out := Compact(in, nil)
	out[0] = "z"
	assert.Equal(t, "a", in[0])
}
