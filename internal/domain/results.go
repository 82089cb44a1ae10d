package domain

// TubeEntry is the expansion of a day's orderables for one tube.
// ExtraMlWaste is always 0 at construction.
type TubeEntry struct {
	TubeID       string  `json:"tubeId"`
	Count        float64 `json:"count"`
	ExtraMlWaste float64 `json:"extraMlWaste"`
}

// DayRow holds the computed figures for one day.
type DayRow struct {
	DailyMl    float64 `json:"dailyMl"`
	MlPerKgDay float64 `json:"mlPerKgDay"`
	PctEBV     float64 `json:"pctEBV"`
}

// WarningLevel is the severity of a warning record.
type WarningLevel string

const (
	LevelGood WarningLevel = "good"
	LevelWarn WarningLevel = "warn"
	LevelBad  WarningLevel = "bad"
)

// Warning is one threshold finding.
type Warning struct {
	Level WarningLevel `json:"level"`
	Text  string       `json:"text"`
}

// Summary is the aggregation of a patient across all days.
type Summary struct {
	WeightKg         float64  `json:"weightKg"`
	MlPerKg          float64  `json:"mlPerKg"`
	EBVMl            float64  `json:"ebvMl"`
	Rows             []DayRow `json:"rows"`
	CumulativeMl     float64  `json:"cumulativeMl"`
	CumulativePctEBV float64  `json:"cumulativePctEBV"`
}

// Report is a full calculation: the summary plus its warnings.
type Report struct {
	Summary
	Pediatric bool      `json:"pediatric"`
	Warnings  []Warning `json:"warnings"`
}
