package model

import (
	"time"

	"gorm.io/datatypes"
)

// Models lists every struct here that maps to a table in the database schema.
var Models = []any{
	&Cutscene{},
	&Playback{},
}

// Cutscene is a stored cutscene definition. Steps and Subtitles keep the
// authored structure as JSON.
type Cutscene struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Name        string         `json:"name" gorm:"size:127;uniqueIndex"`
	Source      string         `json:"source" gorm:"size:255"`
	Cancellable bool           `json:"cancellable"`
	MarkerCount int            `json:"markerCount"`
	PathLength  float64        `json:"pathLength"`
	PathWKT     string         `json:"pathWkt"`
	Steps       datatypes.JSON `json:"steps"`
	Subtitles   datatypes.JSON `json:"subtitles"`
}

func (*Cutscene) TableName() string {
	return "cutscenes"
}

// Playback is one finished cutscene session.
type Playback struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time `json:"createdAt"`
	Cutscene   string    `json:"cutscene" gorm:"size:127;index"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	Ticks      uint      `json:"ticks"`
	Elapsed    float64   `json:"elapsed"`
	Cancelled  bool      `json:"cancelled"`
	Stopped    bool      `json:"stopped"`
	DeathCam   bool      `json:"deathCam"`
	MaxFrameDt float64   `json:"maxFrameDt"`
}

func (*Playback) TableName() string {
	return "playbacks"
}
