package churn

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned when a categorical value is outside the encoding table
var ErrUnknownCategory = errors.New("unknown category")

// InternetService is the customer's internet service type
type InternetService int

const (
	InternetDSL InternetService = iota
	InternetFiberOptic
	InternetNone
)

// InternetServices lists the choices in display order
var InternetServices = []InternetService{InternetDSL, InternetFiberOptic, InternetNone}

// String returns the label shown in the form and used by the encoding table
func (s InternetService) String() string {
	switch s {
	case InternetDSL:
		return "DSL"
	case InternetFiberOptic:
		return "Fiber optic"
	case InternetNone:
		return "No"
	}
	return fmt.Sprintf("InternetService(%d)", int(s))
}

// ContractType is the customer's contract term
type ContractType int

const (
	ContractMonthToMonth ContractType = iota
	ContractOneYear
	ContractTwoYear
)

// ContractTypes lists the choices in display order
var ContractTypes = []ContractType{ContractMonthToMonth, ContractOneYear, ContractTwoYear}

func (c ContractType) String() string {
	switch c {
	case ContractMonthToMonth:
		return "Month-to-month"
	case ContractOneYear:
		return "One year"
	case ContractTwoYear:
		return "Two year"
	}
	return fmt.Sprintf("ContractType(%d)", int(c))
}

// labelCodes is the label encoding shared by both categorical columns. It is
// the only mapping from labels to the integers the model was trained with.
var labelCodes = map[string]int{
	"DSL":            0,
	"Fiber optic":    1,
	"No":             2,
	"Month-to-month": 0,
	"One year":       1,
	"Two year":       2,
}

// Encode maps a form label to its integer code
func Encode(category string) (int, error) {
	code, ok := labelCodes[category]
	if !ok {
		return 0, fmt.Errorf("encode %q: %w", category, ErrUnknownCategory)
	}
	return code, nil
}

// ParseInternetService converts a form label into an InternetService. The
// label must be in the encoding table and belong to this column.
func ParseInternetService(label string) (InternetService, error) {
	code, err := Encode(label)
	if err != nil {
		return 0, fmt.Errorf("internet service: %w", err)
	}
	if code < 0 || code >= len(InternetServices) || InternetServices[code].String() != label {
		return 0, fmt.Errorf("internet service %q: %w", label, ErrUnknownCategory)
	}
	return InternetServices[code], nil
}

// ParseContractType converts a form label into a ContractType. The label
// must be in the encoding table and belong to this column.
func ParseContractType(label string) (ContractType, error) {
	code, err := Encode(label)
	if err != nil {
		return 0, fmt.Errorf("contract type: %w", err)
	}
	if code < 0 || code >= len(ContractTypes) || ContractTypes[code].String() != label {
		return 0, fmt.Errorf("contract type %q: %w", label, ErrUnknownCategory)
	}
	return ContractTypes[code], nil
}
