// detector.go TensorFlow Lite model lifecycle and inference entry point.
package detector

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"

	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/errors"
	"github.com/melonguard/melonguard-go/internal/logging"
)

// ErrEngineUnavailable is returned by Detect when the model failed to load at
// startup. The condition is permanent for the process lifetime, callers must
// disable the detection feature rather than retry.
var ErrEngineUnavailable = errors.NewStd("detection engine unavailable")

// Detector holds the TFLite interpreter and model metadata.
type Detector struct {
	interpreter *tflite.Interpreter
	model       *tflite.Model
	labels      []string
	inputSize   int
	iou         float64
	settings    *conf.Settings
	log         *slog.Logger

	// The interpreter reuses its tensors between invocations, one inference
	// at a time.
	mu sync.Mutex
}

// New loads the detection model and its labels. A nil Detector with an error
// means the detection capability is unavailable for the process lifetime.
func New(settings *conf.Settings) (*Detector, error) {
	d := &Detector{
		inputSize: settings.Detector.InputSize,
		iou:       settings.Detector.IoU,
		settings:  settings,
		log:       logging.ForModule("detector"),
	}

	var err error
	d.labels, err = loadLabels(settings.Detector.LabelPath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("detector: failed to load labels: %w", err)).
			Component("detector").
			Category(errors.CategoryLabelLoad).
			Context("label_path", settings.Detector.LabelPath).
			Build()
	}

	if err := d.initializeModel(); err != nil {
		return nil, errors.New(fmt.Errorf("detector: failed to initialize model: %w", err)).
			Component("detector").
			Category(errors.CategoryModelInit).
			Context("model_path", settings.Detector.ModelPath).
			Build()
	}

	d.log.Info("detection model loaded",
		"model_path", settings.Detector.ModelPath,
		"classes", len(d.labels),
		"input_size", d.inputSize)

	return d, nil
}

// initializeModel loads the TFLite model file and builds the interpreter.
func (d *Detector) initializeModel() error {
	start := time.Now()

	modelData, err := os.ReadFile(d.settings.Detector.ModelPath)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryModelLoad).
			Context("model_path", d.settings.Detector.ModelPath).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return errors.Newf("cannot load TensorFlow Lite model").
			Category(errors.CategoryModelInit).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(1)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return errors.Newf("cannot create TensorFlow Lite interpreter").
			Category(errors.CategoryModelInit).
			Build()
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		return errors.Newf("tensor allocation failed").
			Category(errors.CategoryModelInit).
			Build()
	}

	d.model = model
	d.interpreter = interpreter
	d.log.Debug("model initialized", "duration", time.Since(start))
	return nil
}

// Labels returns the model's class label set.
func (d *Detector) Labels() []string {
	return d.labels
}

// Detect runs the model on the given image and returns every detection at or
// above FloorConfidence, boxes scaled to source pixel coordinates.
func (d *Detector) Detect(img image.Image) ([]Detection, error) {
	if d == nil || d.interpreter == nil {
		return nil, ErrEngineUnavailable
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()

	input, scale := letterbox(img, d.inputSize)

	inputTensor := d.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("detector").
			Category(errors.CategoryInference).
			Build()
	}
	copy(inputTensor.Float32s(), input)

	if status := d.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed").
			Component("detector").
			Category(errors.CategoryInference).
			Build()
	}

	outputTensor := d.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return nil, errors.Newf("cannot get output tensor").
			Component("detector").
			Category(errors.CategoryInference).
			Build()
	}

	numChannels := outputTensor.Dim(1)
	numBoxes := outputTensor.Dim(outputTensor.NumDims() - 1)

	detections := decodeOutput(outputTensor.Float32s(), numChannels, numBoxes, d.labels, FloorConfidence)
	detections = nonMaxSuppression(detections, d.iou)
	detections = scaleToSource(detections, scale, img.Bounds())

	d.log.Debug("inference complete",
		"detections", len(detections),
		"duration", time.Since(start))

	return detections, nil
}
