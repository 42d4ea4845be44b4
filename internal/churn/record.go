package churn

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Input bounds and defaults for the customer form.
const (
	MinTenureMonths     = 0
	MaxTenureMonths     = 100
	DefaultTenureMonths = 12

	MinMonthlyCharges     = 0
	MaxMonthlyCharges     = 200
	DefaultMonthlyCharges = 70

	MinTotalCharges     = 0
	MaxTotalCharges     = 10000
	DefaultTotalCharges = 1500
)

// NumFeatures is the width of the vector the model was trained on
const NumFeatures = 5

// CustomerRecord is one submission of the customer form
type CustomerRecord struct {
	TenureMonths    int             `validate:"min=0,max=100"`
	InternetService InternetService `validate:"min=0,max=2"`
	ContractType    ContractType    `validate:"min=0,max=2"`
	MonthlyCharges  float64         `validate:"min=0,max=200"`
	TotalCharges    float64         `validate:"min=0,max=10000"`
}

// DefaultRecord returns the values the form starts with
func DefaultRecord() CustomerRecord {
	return CustomerRecord{
		TenureMonths:    DefaultTenureMonths,
		InternetService: InternetDSL,
		ContractType:    ContractMonthToMonth,
		MonthlyCharges:  DefaultMonthlyCharges,
		TotalCharges:    DefaultTotalCharges,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the record against the form bounds. Bounds are inclusive.
func (r CustomerRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid customer record: %w", err)
	}
	return nil
}

// FeatureVector is the model input, ordered
// [tenure, internet service, contract, monthly charges, total charges].
type FeatureVector [NumFeatures]float64

// Features builds the model input for the record, encoding both categorical
// fields through the label table.
func (r CustomerRecord) Features() (FeatureVector, error) {
	internet, err := Encode(r.InternetService.String())
	if err != nil {
		return FeatureVector{}, err
	}
	contract, err := Encode(r.ContractType.String())
	if err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		float64(r.TenureMonths),
		float64(internet),
		float64(contract),
		r.MonthlyCharges,
		r.TotalCharges,
	}, nil
}
