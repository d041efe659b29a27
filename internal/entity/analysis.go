package entity

import "time"

// Point is one vertex of a text bounding polygon.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ReadLine struct {
	Text        string  `json:"text"`
	BoundingBox []Point `json:"bounding_box,omitempty"`
}

// Caption fields are nullable: the backend answers null when it could not caption the image.
type Caption struct {
	Text       *string  `json:"text"`
	Confidence *float64 `json:"confidence"`
}

type AnalysisResponse struct {
	Caption  *Caption   `json:"caption"`
	ReadText []ReadLine `json:"read_text"`
}

type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type AnalysisRecord struct {
	ID                string     `json:"id"`
	ViewID            string     `json:"view_id"`
	CaptionText       *string    `json:"caption_text"`
	CaptionConfidence *float64   `json:"caption_confidence"`
	ReadText          []ReadLine `json:"read_text,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// AnalysisEvent is emitted for every finished upload attempt, stale or not.
type AnalysisEvent struct {
	ViewID     string        `json:"view_id"`
	Token      uint64        `json:"token"`
	Outcome    Outcome       `json:"outcome"`
	Stale      bool          `json:"stale"`
	Caption    *string       `json:"caption,omitempty"`
	Confidence *float64      `json:"confidence,omitempty"`
	ReadText   []ReadLine    `json:"read_text,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}
