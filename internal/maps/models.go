package maps

import "errors"

// ErrNoCredential is returned when no API key is configured.
var ErrNoCredential = errors.New("maps: no API key configured")

type Place struct {
	Name    string
	Address string
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

type MatrixResponse struct {
	Status string      `json:"status"`
	Rows   []MatrixRow `json:"rows"`
}

type MatrixRow struct {
	Elements []MatrixElement `json:"elements"`
}

type MatrixElement struct {
	Status   string     `json:"status"`
	Duration *TextValue `json:"duration"`
	Distance *TextValue `json:"distance"`
}

// TextValue pairs a provider's display text with its numeric value
// (seconds for durations, meters for distances).
type TextValue struct {
	Text  string `json:"text"`
	Value *int   `json:"value"`
}

// FirstElement returns the first element of the first row, if any.
func (m *MatrixResponse) FirstElement() (MatrixElement, bool) {
	if m == nil || len(m.Rows) == 0 || len(m.Rows[0].Elements) == 0 {
		return MatrixElement{}, false
	}
	return m.Rows[0].Elements[0], true
}
