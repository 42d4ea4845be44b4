package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/refset/churnform/internal/churn"
)

// Form field names
const (
	fieldTenure   = "tenure"
	fieldInternet = "internet_service"
	fieldContract = "contract"
	fieldMonthly  = "monthly_charges"
	fieldTotal    = "total_charges"
)

// record struct field -> form field
var fieldNames = map[string]string{
	"TenureMonths":    fieldTenure,
	"InternetService": fieldInternet,
	"ContractType":    fieldContract,
	"MonthlyCharges":  fieldMonthly,
	"TotalCharges":    fieldTotal,
}

type option struct {
	Label    string
	Selected bool
}

// formView is what the form template renders: the raw values the user
// last submitted, the choices and any field errors.
type formView struct {
	Tenure          string
	Monthly         string
	Total           string
	InternetOptions []option
	ContractOptions []option
	Errors          map[string]string

	TenureMin, TenureMax   int
	MonthlyMin, MonthlyMax int
	TotalMin, TotalMax     int
}

func newFormView(r churn.CustomerRecord) formView {
	f := formView{
		Tenure:     strconv.Itoa(r.TenureMonths),
		Monthly:    formatNumber(r.MonthlyCharges),
		Total:      formatNumber(r.TotalCharges),
		Errors:     map[string]string{},
		TenureMin:  churn.MinTenureMonths,
		TenureMax:  churn.MaxTenureMonths,
		MonthlyMin: churn.MinMonthlyCharges,
		MonthlyMax: churn.MaxMonthlyCharges,
		TotalMin:   churn.MinTotalCharges,
		TotalMax:   churn.MaxTotalCharges,
	}
	for _, s := range churn.InternetServices {
		f.InternetOptions = append(f.InternetOptions, option{Label: s.String(), Selected: s == r.InternetService})
	}
	for _, c := range churn.ContractTypes {
		f.ContractOptions = append(f.ContractOptions, option{Label: c.String(), Selected: c == r.ContractType})
	}
	return f
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decodeForm reads a submitted form into a record. Blank or missing fields
// take their defaults. The returned view echoes the submitted values.
func decodeForm(r *http.Request) (churn.CustomerRecord, formView, error) {
	if err := r.ParseForm(); err != nil {
		return churn.CustomerRecord{}, formView{}, fmt.Errorf("parse form: %w", err)
	}

	record := churn.DefaultRecord()
	errs := map[string]string{}
	value := func(name string) string {
		return strings.TrimSpace(r.PostForm.Get(name))
	}

	if v := value(fieldTenure); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs[fieldTenure] = "must be a whole number"
		}
		record.TenureMonths = n
	}
	if v := value(fieldInternet); v != "" {
		s, err := churn.ParseInternetService(v)
		if err != nil {
			errs[fieldInternet] = "unknown internet service"
		}
		record.InternetService = s
	}
	if v := value(fieldContract); v != "" {
		c, err := churn.ParseContractType(v)
		if err != nil {
			errs[fieldContract] = "unknown contract type"
		}
		record.ContractType = c
	}
	if v := value(fieldMonthly); v != "" {
		n, err := parseNumber(v)
		if err != nil {
			errs[fieldMonthly] = "must be a number"
		}
		record.MonthlyCharges = n
	}
	if v := value(fieldTotal); v != "" {
		n, err := parseNumber(v)
		if err != nil {
			errs[fieldTotal] = "must be a number"
		}
		record.TotalCharges = n
	}

	view := newFormView(record)
	for name, raw := range map[string]string{fieldTenure: value(fieldTenure), fieldMonthly: value(fieldMonthly), fieldTotal: value(fieldTotal)} {
		if _, bad := errs[name]; bad {
			view.set(name, raw)
		}
	}

	if len(errs) == 0 {
		if err := record.Validate(); err != nil {
			boundErrors(err, errs)
		}
	}

	view.Errors = errs
	if len(errs) > 0 {
		return record, view, errInvalidForm
	}
	return record, view, nil
}

var errInvalidForm = errors.New("invalid form")

func (f *formView) set(name, raw string) {
	switch name {
	case fieldTenure:
		f.Tenure = raw
	case fieldMonthly:
		f.Monthly = raw
	case fieldTotal:
		f.Total = raw
	}
}

func parseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return n, nil
}

func boundErrors(err error, errs map[string]string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = err.Error()
		return
	}
	for _, fe := range verrs {
		name, ok := fieldNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "min":
			errs[name] = "must be at least " + fe.Param()
		case "max":
			errs[name] = "must be at most " + fe.Param()
		default:
			errs[name] = "is invalid"
		}
	}
}
