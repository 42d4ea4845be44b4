package churn

import (
	"fmt"
)

// Model is a fitted classifier that maps a feature vector to a class label
type Model interface {
	Predict(features []float64) (float64, error)
}

// Outcome is the branch the result page renders
type Outcome int

const (
	OutcomeRetain Outcome = iota
	OutcomeChurn
)

func (o Outcome) String() string {
	if o == OutcomeRetain {
		return "retain"
	}
	return "churn"
}

// OutcomeFromLabel maps a model label to an outcome. Only an exact 0 means retain.
func OutcomeFromLabel(label float64) Outcome {
	if label == 0 {
		return OutcomeRetain
	}
	return OutcomeChurn
}

// Prediction is the result of running one record through the model
type Prediction struct {
	Record   CustomerRecord
	Features FeatureVector
	Label    float64
	Outcome  Outcome
}

// Predictor runs customer records through a model loaded at startup
type Predictor struct {
	model Model
}

// NewPredictor creates a predictor around a loaded model
func NewPredictor(model Model) *Predictor {
	return &Predictor{model: model}
}

// Predict encodes the record and asks the model for a label
func (p *Predictor) Predict(record CustomerRecord) (Prediction, error) {
	features, err := record.Features()
	if err != nil {
		return Prediction{}, fmt.Errorf("encode record: %w", err)
	}

	label, err := p.model.Predict(features[:])
	if err != nil {
		return Prediction{}, fmt.Errorf("model predict: %w", err)
	}

	return Prediction{
		Record:   record,
		Features: features,
		Label:    label,
		Outcome:  OutcomeFromLabel(label),
	}, nil
}
