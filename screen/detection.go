package screen

import (
	"fmt"

	"github.com/hazyhaar/seamlis/geom"
)

// DefaultScoreThreshold is the detector confidence floor.
const DefaultScoreThreshold = 0.30

// Detection is one object-detection box over the rendered page. It is
// immutable once received.
type Detection struct {
	Label string    `json:"label"`
	Score float64   `json:"score"`
	Box   geom.Rect `json:"box"`
}

// ModelOutput is the raw detector output for one screenshot: boxes are
// normalized [ymin, xmin, ymax, xmax], and scores are sorted descending.
type ModelOutput struct {
	Boxes   [][4]float64 `json:"boxes"`
	Classes []int        `json:"classes"`
	Scores  []float64    `json:"scores"`
}

// DecodeModelOutput converts raw detector output into detections in screen
// pixels. Decoding stops at the first score below threshold.
func DecodeModelOutput(out ModelOutput, width, height, threshold float64) ([]Detection, error) {
	if len(out.Boxes) != len(out.Classes) || len(out.Boxes) != len(out.Scores) {
		return nil, fmt.Errorf("screen: model output length mismatch: %d boxes, %d classes, %d scores",
			len(out.Boxes), len(out.Classes), len(out.Scores))
	}
	var dets []Detection
	for i, score := range out.Scores {
		if score < threshold {
			break
		}
		label, ok := LabelForClass(out.Classes[i])
		if !ok {
			return nil, fmt.Errorf("screen: unknown class id %d", out.Classes[i])
		}
		b := out.Boxes[i]
		dets = append(dets, Detection{
			Label: label,
			Score: score,
			Box: geom.Rect{
				XMin: b[1] * width,
				XMax: b[3] * width,
				YMin: b[0] * height,
				YMax: b[2] * height,
			},
		})
	}
	return dets, nil
}
