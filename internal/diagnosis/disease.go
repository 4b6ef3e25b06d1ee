// Package diagnosis turns raw model detections into a finalized diagnosis:
// the disease list, average confidence, advisory text and an annotated image.
package diagnosis

// Disease is the closed enumeration of disease classes the advisory table
// knows about. Label matching against the model's class set happens once, in
// ParseLabel, so a label rename in the model only ever needs one edit here.
type Disease int

const (
	DiseaseUnknown Disease = iota
	DiseaseDownyMildew
	DiseaseGeminiVirus
)

// Model class labels. These must match the deployed model's label file
// exactly, including case and underscores.
const (
	HealthyLabel     = "Daun Sehat"
	labelDownyMildew = "Downy_Mildew"
	labelGeminiVirus = "Virus_Gemini"
)

// Sentinel strings reported in the disease list when no disease is shown.
const (
	NotDetectedSentinel = "Penyakit Tidak Terdeteksi"
)

// Advisory sentences keyed by disease, plus the fixed fallback messages.
const (
	advisoryDownyMildew = "Untuk embun bulu, pastikan drainase yang baik dan pertimbangkan fungisida yang tepat. "
	advisoryGeminiVirus = "Virus Gemini sulit diobati; fokus pada pengendalian vektor (kutu kebul) dan pemusnahan tanaman terinfeksi. "

	// advisoryConsultExpert is used when diseases were detected but none of
	// them has a dedicated advisory sentence.
	advisoryConsultExpert = "Beberapa penyakit tidak terdeteksi. Mohon konsultasi dengan ahli pertanian."

	// advisoryNotDetected is used when nothing met the threshold.
	advisoryNotDetected = "Tidak ada penyakit yang terdeteksi pada daun melon ini pada tingkat keyakinan yang ditentukan. Daun mungkin sehat atau penyakit belum dapat terdeteksi."
)

// advisoryOrder fixes the enumeration order advisory sentences are emitted
// in, independent of detection order.
var advisoryOrder = []Disease{
	DiseaseDownyMildew,
	DiseaseGeminiVirus,
}

// advisoryTable maps each known disease to its advisory sentence.
var advisoryTable = map[Disease]string{
	DiseaseDownyMildew: advisoryDownyMildew,
	DiseaseGeminiVirus: advisoryGeminiVirus,
}

// ParseLabel maps a raw model class label to the disease enumeration.
// Unrecognized disease labels map to DiseaseUnknown and still participate in
// the diagnosis, they just have no dedicated advisory sentence.
func ParseLabel(label string) Disease {
	switch label {
	case labelDownyMildew:
		return DiseaseDownyMildew
	case labelGeminiVirus:
		return DiseaseGeminiVirus
	default:
		return DiseaseUnknown
	}
}

// String returns the model class label for the disease.
func (d Disease) String() string {
	switch d {
	case DiseaseDownyMildew:
		return labelDownyMildew
	case DiseaseGeminiVirus:
		return labelGeminiVirus
	default:
		return "unknown"
	}
}
