package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birthYearForAge(age int) int {
	return time.Now().Year() - age
}

func TestLevelThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{30, RiskLow},
		{31, RiskModerate},
		{60, RiskModerate},
		{61, RiskHigh},
		{95, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelForScore(tt.score), "score %d", tt.score)
	}
}

func TestBloodPressureScoring(t *testing.T) {
	tests := []struct {
		name       string
		bp         string
		wantScore  int
		wantFactor string
	}{
		{"hypertension", "145/95", 30, "Hypertension"},
		{"diastolic only hypertension", "120/95", 30, "Hypertension"},
		{"elevated systolic", "135/85", 15, "Elevated BP"},
		{"normal", "118/76", 0, ""},
		{"not a number", "notanumber", 0, ""},
		{"missing separator", "14095", 0, ""},
		{"too many parts", "140/95/10", 0, ""},
		{"empty", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(PatientSnapshot{BloodPressure: tt.bp, HeartRate: 72, Condition: "Healthy Checkup"})
			assert.Equal(t, tt.wantScore, got.Score)
			if tt.wantFactor == "" {
				assert.Empty(t, got.Factors)
			} else {
				assert.Equal(t, []string{tt.wantFactor}, got.Factors)
			}
		})
	}
}

func TestHeartRateScoring(t *testing.T) {
	tests := []struct {
		hr        int
		wantScore int
	}{
		{110, 20},
		{45, 20},
		{75, 0},
		{100, 0},
		{50, 0},
	}
	for _, tt := range tests {
		got := Score(PatientSnapshot{BloodPressure: "120/80", HeartRate: tt.hr, Condition: "Healthy Checkup"})
		assert.Equal(t, tt.wantScore, got.Score, "heart rate %d", tt.hr)
		if tt.wantScore > 0 {
			assert.Equal(t, []string{"Abnormal HR"}, got.Factors)
		}
	}
}

func TestAgeScoring(t *testing.T) {
	over65 := Score(PatientSnapshot{BirthYear: birthYearForAge(70), BloodPressure: "120/80", HeartRate: 72})
	assert.Equal(t, 20, over65.Score)
	assert.Equal(t, []string{"Age > 65"}, over65.Factors)

	// Middle age contributes to the score without a factor entry.
	middleAged := Score(PatientSnapshot{BirthYear: birthYearForAge(50), BloodPressure: "120/80", HeartRate: 72})
	assert.Equal(t, 10, middleAged.Score)
	assert.Empty(t, middleAged.Factors)

	young := Score(PatientSnapshot{BirthYear: birthYearForAge(30), BloodPressure: "120/80", HeartRate: 72})
	assert.Equal(t, 0, young.Score)

	unknown := Score(PatientSnapshot{BloodPressure: "120/80", HeartRate: 72})
	assert.Equal(t, 0, unknown.Score)
}

func TestConditionKeywords(t *testing.T) {
	got := Score(PatientSnapshot{BloodPressure: "120/80", HeartRate: 72, Condition: "Cardiac Arrhythmia"})
	assert.Equal(t, 25, got.Score)
	assert.Equal(t, []string{"Condition: Cardiac"}, got.Factors)
	assert.Equal(t, []string{"Cardiology consultation; ECG recommended."}, got.Remedies)
}

func TestSharedRemedyDeduplicated(t *testing.T) {
	// Cardiac and Heart both match and share a remedy; it must appear once.
	got := Score(PatientSnapshot{BloodPressure: "120/80", HeartRate: 72, Condition: "Cardiac arrest, heart failure"})
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, []string{"Condition: Cardiac", "Condition: Heart"}, got.Factors)
	assert.Equal(t, []string{"Cardiology consultation; ECG recommended."}, got.Remedies)
}

func TestKeywordMatchIsCaseInsensitive(t *testing.T) {
	got := Score(PatientSnapshot{BloodPressure: "120/80", HeartRate: 72, Condition: "suspected DIABETES mellitus"})
	assert.Equal(t, []string{"Condition: Diabetes"}, got.Factors)
}

func TestHighRiskScenario(t *testing.T) {
	got := Score(PatientSnapshot{
		BirthYear:     birthYearForAge(70),
		BloodPressure: "150/95",
		HeartRate:     105,
		Condition:     "Cardiac Arrhythmia",
	})

	assert.Equal(t, 95, got.Score)
	assert.Equal(t, RiskHigh, got.RiskLevel)
	assert.Equal(t, []string{"Age > 65", "Hypertension", "Abnormal HR", "Condition: Cardiac"}, got.Factors)

	require.Len(t, got.Remedies, 3)
	assert.Contains(t, got.Remedies, "Cardiology consultation; ECG recommended.")
	assert.Contains(t, got.Remedies, "Reduce salt intake; Regular walking.")
	assert.Contains(t, got.Remedies, "Cardiology consultation; Avoid caffeine.")
}

func TestHealthyScenario(t *testing.T) {
	got := Score(PatientSnapshot{
		BirthYear:     birthYearForAge(30),
		BloodPressure: "118/76",
		HeartRate:     72,
		Condition:     "Healthy Checkup",
	})

	assert.Equal(t, 0, got.Score)
	assert.Equal(t, RiskLow, got.RiskLevel)
	assert.Empty(t, got.Factors)
	assert.Equal(t, []string{"Routine checkup; Maintain healthy lifestyle."}, got.Remedies)
}

func TestRemediesNeverDuplicated(t *testing.T) {
	// Every keyword at once plus BP and HR findings.
	got := Score(PatientSnapshot{
		BirthYear:     birthYearForAge(70),
		BloodPressure: "160/100",
		HeartRate:     120,
		Condition:     "diabetes cardiac heart stroke cancer fever flu pain",
	})

	seen := make(map[string]int)
	for _, remedy := range got.Remedies {
		seen[remedy]++
	}
	for remedy, count := range seen {
		assert.Equal(t, 1, count, "remedy %q appears %d times", remedy, count)
	}
	assert.Equal(t, RiskHigh, got.RiskLevel)
}

func TestElevatedBPDerivedRemedy(t *testing.T) {
	got := Score(PatientSnapshot{BloodPressure: "135/85", HeartRate: 72, Condition: "Healthy Checkup"})
	assert.Equal(t, []string{"Reduce salt intake; Regular walking."}, got.Remedies)
}
