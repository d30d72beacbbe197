package models

type HourlyResponseTime struct {
	Hour    int     `json:"hour"`
	AvgTime float64 `json:"avgTime"`
}

// Report сводка по инцидентам за период. Время в минутах.
type Report struct {
	TotalIncidents      int                  `json:"totalIncidents"`
	ResolvedIncidents   int                  `json:"resolvedIncidents"`
	AverageResponseTime float64              `json:"averageResponseTime"`
	IncidentsByType     map[IncidentType]int `json:"incidentsByType"`
	ResponseTimesByHour []HourlyResponseTime `json:"responseTimesByHour"`
}
