package diagnosis

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melonguard/melonguard-go/internal/detector"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	green := color.RGBA{30, 120, 30, 255}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, green)
		}
	}
	return img
}

func det(label string, conf float64) detector.Detection {
	return detector.Detection{
		Box:        image.Rect(10, 10, 60, 60),
		Label:      label,
		Confidence: conf,
	}
}

func TestAggregate_DiseaseOverridesHealthy(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.80),
		det(HealthyLabel, 0.95),
	}

	result := Aggregate(testImage(), dets, 0.5)

	require.Len(t, result.Diseases, 1)
	assert.Equal(t, "Downy_Mildew (80.0%)", result.Diseases[0])
	assert.InDelta(t, 0.80, result.AverageConfidence, 1e-9)
	assert.Contains(t, result.Advisory, "embun bulu")
	assert.False(t, result.Healthy())
}

func TestAggregate_DiseaseOverridesManyHealthy(t *testing.T) {
	dets := []detector.Detection{
		det(HealthyLabel, 0.99),
		det(HealthyLabel, 0.97),
		det("Virus_Gemini", 0.55),
		det(HealthyLabel, 0.96),
	}

	result := Aggregate(testImage(), dets, 0.5)

	require.Len(t, result.Diseases, 1)
	assert.Equal(t, "Virus_Gemini (55.0%)", result.Diseases[0])
	assert.Contains(t, result.Advisory, "Virus Gemini")
}

func TestAggregate_HealthyOnly(t *testing.T) {
	dets := []detector.Detection{det(HealthyLabel, 0.95)}

	result := Aggregate(testImage(), dets, 0.5)

	assert.Equal(t, []string{HealthyLabel}, result.Diseases)
	assert.InDelta(t, 0.95, result.AverageConfidence, 1e-9)
	assert.Empty(t, result.Advisory)
	assert.True(t, result.Healthy())
}

func TestAggregate_HealthyPicksHighestConfidence(t *testing.T) {
	dets := []detector.Detection{
		det(HealthyLabel, 0.70),
		det(HealthyLabel, 0.92),
		det(HealthyLabel, 0.85),
	}

	result := Aggregate(testImage(), dets, 0.5)

	assert.Equal(t, []string{HealthyLabel}, result.Diseases)
	assert.InDelta(t, 0.92, result.AverageConfidence, 1e-9)
}

func TestAggregate_EmptyDetections(t *testing.T) {
	result := Aggregate(testImage(), nil, 0.5)

	assert.Equal(t, []string{NotDetectedSentinel}, result.Diseases)
	assert.Zero(t, result.AverageConfidence)
	assert.Equal(t, advisoryNotDetected, result.Advisory)
}

func TestAggregate_SubThresholdOnlyEqualsEmpty(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.40),
		det(HealthyLabel, 0.30),
	}

	result := Aggregate(testImage(), dets, 0.5)
	empty := Aggregate(testImage(), nil, 0.5)

	assert.Equal(t, empty.Diseases, result.Diseases)
	assert.Equal(t, empty.AverageConfidence, result.AverageConfidence)
	assert.Equal(t, empty.Advisory, result.Advisory)
}

func TestAggregate_AverageOverRetainedOnly(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.90),
		det("Virus_Gemini", 0.70),
		det("Downy_Mildew", 0.20), // below threshold, excluded from the mean
	}

	result := Aggregate(testImage(), dets, 0.5)

	require.Len(t, result.Diseases, 2)
	assert.InDelta(t, 0.80, result.AverageConfidence, 1e-9)
}

func TestAggregate_MonotoneFiltering(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.90),
		det("Virus_Gemini", 0.65),
		det("Downy_Mildew", 0.40),
		det(HealthyLabel, 0.75),
		det(HealthyLabel, 0.35),
	}

	prevCount := len(dets) + 1
	for _, threshold := range []float64{0.0, 0.3, 0.5, 0.7, 0.95, 1.0} {
		result := Aggregate(testImage(), dets, threshold)
		count := 0
		if result.Diseases[0] != HealthyLabel && result.Diseases[0] != NotDetectedSentinel {
			count = len(result.Diseases)
		}
		assert.LessOrEqual(t, count, prevCount,
			"raising threshold to %v must not increase retained detections", threshold)
		prevCount = count
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.80),
		det("Virus_Gemini", 0.60),
		det(HealthyLabel, 0.95),
	}

	a := Aggregate(testImage(), dets, 0.5)
	b := Aggregate(testImage(), dets, 0.5)

	assert.Equal(t, a.Diseases, b.Diseases)
	assert.Equal(t, a.AverageConfidence, b.AverageConfidence)
	assert.Equal(t, a.Advisory, b.Advisory)
	assert.Equal(t, a.ThresholdUsed, b.ThresholdUsed)
}

func TestAggregate_AdvisoryFixedEnumerationOrder(t *testing.T) {
	// Gemini virus detected first, the advisory still lists downy mildew
	// first because advisory order is the fixed enumeration order.
	dets := []detector.Detection{
		det("Virus_Gemini", 0.70),
		det("Downy_Mildew", 0.80),
	}

	result := Aggregate(testImage(), dets, 0.5)

	downyIdx := strings.Index(result.Advisory, "embun bulu")
	geminiIdx := strings.Index(result.Advisory, "Virus Gemini")
	require.GreaterOrEqual(t, downyIdx, 0)
	require.GreaterOrEqual(t, geminiIdx, 0)
	assert.Less(t, downyIdx, geminiIdx)
}

func TestAggregate_UnknownDiseaseGetsFallbackAdvisory(t *testing.T) {
	dets := []detector.Detection{det("Leaf_Spot", 0.80)}

	result := Aggregate(testImage(), dets, 0.5)

	require.Len(t, result.Diseases, 1)
	assert.Equal(t, "Leaf_Spot (80.0%)", result.Diseases[0])
	assert.Equal(t, advisoryConsultExpert, result.Advisory)
}

func TestAggregate_ThresholdZeroKeepsEverything(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.02),
		det("Virus_Gemini", 0.01),
	}

	result := Aggregate(testImage(), dets, 0.0)

	assert.Len(t, result.Diseases, 2)
}

func TestAggregate_ThresholdOneKeepsOnlyPerfect(t *testing.T) {
	dets := []detector.Detection{
		det("Downy_Mildew", 0.999),
		det(HealthyLabel, 0.999),
	}

	result := Aggregate(testImage(), dets, 1.0)

	assert.Equal(t, []string{NotDetectedSentinel}, result.Diseases)
	assert.Zero(t, result.AverageConfidence)
}

func TestAggregate_OnlyDiseaseBoxesDrawn(t *testing.T) {
	src := testImage()

	// Healthy-only detections leave the annotated image untouched.
	healthyResult := Aggregate(src, []detector.Detection{det(HealthyLabel, 0.95)}, 0.5)
	require.NotNil(t, healthyResult.Annotated)
	assert.Equal(t, src.At(10, 10), healthyResult.Annotated.At(10, 10))

	// A disease detection draws its box border.
	diseaseResult := Aggregate(src, []detector.Detection{det("Downy_Mildew", 0.80)}, 0.5)
	require.NotNil(t, diseaseResult.Annotated)
	r, g, b, _ := diseaseResult.Annotated.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestErrorResult_WellFormed(t *testing.T) {
	result := ErrorResult(0.5, "model unavailable")

	assert.NotNil(t, result.Diseases)
	assert.Empty(t, result.Diseases)
	assert.Zero(t, result.AverageConfidence)
	assert.Equal(t, "model unavailable", result.Advisory)
	assert.Nil(t, result.Annotated)
	assert.InDelta(t, 0.5, result.ThresholdUsed, 1e-9)
}
