package models

import (
	"time"
)

// LocationFix одно определение местоположения, реальное или симулированное
type LocationFix struct {
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address,omitempty"`
	Accuracy    float64     `json:"accuracy"`
	Timestamp   time.Time   `json:"timestamp"`
	Simulated   bool        `json:"simulated"`
}
