package view

import (
	"fmt"
	"testing"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  RenderModel
	}{
		{
			name:  "idle",
			state: State{},
			want:  RenderModel{Heading: Heading},
		},
		{
			name:  "loading hides preview and caption",
			state: State{Loading: true, PreviewURL: "/preview/a", Caption: strPtr("cat"), Confidence: floatPtr(0.87)},
			want:  RenderModel{Heading: Heading, Loading: true},
		},
		{
			name:  "preview only",
			state: State{PreviewURL: "/preview/a"},
			want:  RenderModel{Heading: Heading, ShowPreview: true, PreviewURL: "/preview/a"},
		},
		{
			name:  "caption only",
			state: State{Caption: strPtr("cat"), Confidence: floatPtr(0.87), Outcome: entity.OutcomeSuccess},
			want:  RenderModel{Heading: Heading, ShowCaption: true, Caption: "cat", Confidence: "87.00", Outcome: entity.OutcomeSuccess},
		},
		{
			name:  "preview and caption together",
			state: State{PreviewURL: "/preview/a", Caption: strPtr("cat"), Confidence: floatPtr(0.87)},
			want:  RenderModel{Heading: Heading, ShowPreview: true, PreviewURL: "/preview/a", ShowCaption: true, Caption: "cat", Confidence: "87.00"},
		},
		{
			name:  "missing confidence renders zero",
			state: State{Caption: strPtr("cat")},
			want:  RenderModel{Heading: Heading, ShowCaption: true, Caption: "cat", Confidence: "0"},
		},
		{
			name:  "zero confidence renders zero",
			state: State{Caption: strPtr("cat"), Confidence: floatPtr(0)},
			want:  RenderModel{Heading: Heading, ShowCaption: true, Caption: "cat", Confidence: "0"},
		},
		{
			name:  "empty caption hides result",
			state: State{Caption: strPtr(""), Confidence: floatPtr(0.5)},
			want:  RenderModel{Heading: Heading},
		},
		{
			name:  "failure adds notice",
			state: State{Outcome: entity.OutcomeTransportError, Error: "dial tcp: refused"},
			want:  RenderModel{Heading: Heading, Outcome: entity.OutcomeTransportError, Notice: notice(entity.OutcomeTransportError)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.state))
		})
	}
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "87.00", FormatConfidence(floatPtr(0.87)))
	assert.Equal(t, "0", FormatConfidence(nil))
	assert.Equal(t, "0", FormatConfidence(floatPtr(0)))
	assert.Equal(t, "100.00", FormatConfidence(floatPtr(1)))
	assert.Equal(t, "12.35", FormatConfidence(floatPtr(0.123456)))
}

func TestFormatConfidenceTwoDecimals(t *testing.T) {
	for i := 1; i <= 1000; i++ {
		c := float64(i) / 1000
		assert.Equal(t, fmt.Sprintf("%.2f", c*100), FormatConfidence(&c))
	}
}
