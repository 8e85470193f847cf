package ai

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RiskLevel is the qualitative band a risk score falls into.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// PatientSnapshot is the immutable input to the risk scorer. It is a
// denormalized view of a patient's vitals; the caller owns it.
type PatientSnapshot struct {
	BirthYear     int    // 0 when the birth date is unknown
	BloodPressure string // "systolic/diastolic", e.g. "120/80"
	HeartRate     int    // beats per minute
	Condition     string // free-text condition description
}

// RiskAssessment is the result of scoring one snapshot. Factors are in
// evaluation order; Remedies contain no duplicates (first occurrence kept).
type RiskAssessment struct {
	Score     int       `json:"score"`
	RiskLevel RiskLevel `json:"riskLevel"`
	Factors   []string  `json:"factors"`
	Remedies  []string  `json:"remedies"`
}

// conditionRule maps a condition keyword to its score contribution and
// remedy text. The table is scanned in order, so factor and remedy
// emission order is deterministic.
type conditionRule struct {
	Keyword string
	Delta   int
	Remedy  string
}

// Cardiac and Heart intentionally share a remedy; dedup keeps one copy
// when a condition text matches both.
var conditionRules = []conditionRule{
	{"Diabetes", 25, "Monitor blood sugar daily; Low-sugar diet."},
	{"Cardiac", 25, "Cardiology consultation; ECG recommended."},
	{"Heart", 25, "Cardiology consultation; ECG recommended."},
	{"Stroke", 25, "Immediate neurology referral; Monitor blood pressure closely."},
	{"Cancer", 25, "Oncology referral; Schedule further screening."},
	{"Fever", 25, "Hydration; Antipyretics as needed; Rest."},
	{"Flu", 25, "Rest; Fluids; Antivirals if prescribed."},
	{"Pain", 25, "Pain management review; Avoid strenuous activity."},
}

const defaultRemedy = "Routine checkup; Maintain healthy lifestyle."

// Score converts a patient snapshot into a risk assessment. It is a
// pure function: no I/O, no errors. Malformed inputs (unparsable blood
// pressure, missing birth year) contribute nothing to the score rather
// than being rejected.
func Score(snapshot PatientSnapshot) RiskAssessment {
	score := 0
	var factors []string
	var remedies []string

	// Age. Patients between 41 and 65 contribute to the score without
	// an explicit factor entry.
	age := 0
	if snapshot.BirthYear > 0 {
		age = time.Now().Year() - snapshot.BirthYear
	}
	if age > 65 {
		score += 20
		factors = append(factors, "Age > 65")
	} else if age > 40 {
		score += 10
	}

	// Blood pressure. Anything that does not parse as "<int>/<int>"
	// is silently ignored.
	if sys, dia, ok := parseBloodPressure(snapshot.BloodPressure); ok {
		if sys > 140 || dia > 90 {
			score += 30
			factors = append(factors, "Hypertension")
		} else if sys > 130 {
			score += 15
			factors = append(factors, "Elevated BP")
		}
	}

	// Heart rate.
	if snapshot.HeartRate > 100 || snapshot.HeartRate < 50 {
		score += 20
		factors = append(factors, "Abnormal HR")
	}

	// Condition keywords, scanned in table order.
	condition := strings.ToLower(snapshot.Condition)
	for _, rule := range conditionRules {
		if strings.Contains(condition, strings.ToLower(rule.Keyword)) {
			score += rule.Delta
			factors = append(factors, "Condition: "+rule.Keyword)
			remedies = append(remedies, rule.Remedy)
		}
	}

	// Derived recommendations from the recorded factors.
	for _, factor := range factors {
		if strings.Contains(factor, "BP") || strings.Contains(factor, "Hypertension") {
			remedies = append(remedies, "Reduce salt intake; Regular walking.")
		}
		if strings.Contains(factor, "HR") {
			remedies = append(remedies, "Cardiology consultation; Avoid caffeine.")
		}
	}

	if len(remedies) == 0 {
		remedies = append(remedies, defaultRemedy)
	}

	return RiskAssessment{
		Score:     score,
		RiskLevel: levelForScore(score),
		Factors:   factors,
		Remedies:  dedupe(remedies),
	}
}

// DescribeSnapshot renders a snapshot for audit details.
func DescribeSnapshot(snapshot PatientSnapshot) string {
	return fmt.Sprintf("BP=%s HR=%d Condition=%q", snapshot.BloodPressure, snapshot.HeartRate, snapshot.Condition)
}

func parseBloodPressure(bp string) (sys, dia int, ok bool) {
	parts := strings.Split(bp, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	sys, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	dia, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return sys, dia, true
}

func levelForScore(score int) RiskLevel {
	switch {
	case score > 60:
		return RiskHigh
	case score > 30:
		return RiskModerate
	default:
		return RiskLow
	}
}

// dedupe removes duplicate strings preserving first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
