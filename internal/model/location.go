package model

// SuggestionSourcePlaces marks suggestions resolved through place search.
const SuggestionSourcePlaces = "places"

// Location is a named place. Exactly one location is flagged as home.
type Location struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    string  `gorm:"size:120" json:"name"`
	Address *string `gorm:"size:255" json:"address"`
	IsHome  bool    `gorm:"default:false;index" json:"is_home"`
}

// HomeAddress returns the address or an empty string.
func (l *Location) HomeAddress() string {
	if l == nil || l.Address == nil {
		return ""
	}
	return *l.Address
}

// TaskLocationSuggestion is a candidate place derived from a task title.
type TaskLocationSuggestion struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	TaskID  uint    `gorm:"index" json:"task_id"`
	Label   string  `gorm:"size:180" json:"label"`
	Address *string `gorm:"size:255" json:"address"`
	Source  string  `gorm:"size:50;default:places" json:"source"`
}
