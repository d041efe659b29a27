package view

import (
	"strconv"

	"github.com/ds124wfegd/skysight/internal/entity"
)

const Heading = "SkySight"

// State is a snapshot of an UploadView.
type State struct {
	PreviewURL string
	Loading    bool
	Caption    *string
	Confidence *float64
	ReadText   []entity.ReadLine
	Outcome    entity.Outcome
	Error      string
}

type RenderModel struct {
	Heading     string            `json:"heading"`
	Loading     bool              `json:"loading"`
	ShowPreview bool              `json:"show_preview"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	ShowCaption bool              `json:"show_caption"`
	Caption     string            `json:"caption,omitempty"`
	Confidence  string            `json:"confidence,omitempty"`
	ReadText    []entity.ReadLine `json:"read_text,omitempty"`
	Outcome     entity.Outcome    `json:"outcome"`
	Notice      string            `json:"notice,omitempty"`
}

// Render turns a state snapshot into what the page shows. Preview and caption
// are independent; both are hidden while loading.
func Render(s State) RenderModel {
	m := RenderModel{
		Heading: Heading,
		Loading: s.Loading,
		Outcome: s.Outcome,
	}
	if s.Loading {
		return m
	}

	if s.PreviewURL != "" {
		m.ShowPreview = true
		m.PreviewURL = s.PreviewURL
	}

	if s.Caption != nil && *s.Caption != "" {
		m.ShowCaption = true
		m.Caption = *s.Caption
		m.Confidence = FormatConfidence(s.Confidence)
		m.ReadText = s.ReadText
	}

	if s.Outcome.Failed() {
		m.Notice = notice(s.Outcome)
	}
	return m
}

// FormatConfidence renders c as a percentage with two decimals, without the % sign.
// A missing or zero confidence renders as "0".
func FormatConfidence(c *float64) string {
	if c == nil || *c == 0 {
		return "0"
	}
	return strconv.FormatFloat(*c*100, 'f', 2, 64)
}

func notice(o entity.Outcome) string {
	switch o {
	case entity.OutcomeConfigError:
		return "The analysis service is not configured."
	case entity.OutcomeTransportError:
		return "The analysis service could not be reached."
	case entity.OutcomeStatusError:
		return "Image upload failed."
	case entity.OutcomeDecodeError:
		return "The analysis service sent an unreadable answer."
	default:
		return ""
	}
}
