package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/refset/churnform/internal/churn"
	"github.com/refset/churnform/internal/logging"
	"github.com/refset/churnform/internal/model"
)

// Scores a fixed roster of customers against a model artifact, as a smoke
// test for a new artifact before the page is pointed at it.
func main() {
	path := os.Getenv("CHURNFORM_MODEL_PATH")
	if path == "" {
		path = "models/random_forest_model.json"
	}

	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatal("build logger:", err)
	}
	defer logger.Sync()

	forest, err := model.Load(path)
	if err != nil {
		logger.Fatal("load model", zap.Error(err))
	}
	predictor := churn.NewPredictor(forest)

	customers := []struct {
		ID     string
		Record churn.CustomerRecord
	}{
		{"CUST-001", churn.DefaultRecord()},
		{"CUST-002", churn.CustomerRecord{TenureMonths: 2, InternetService: churn.InternetFiberOptic, ContractType: churn.ContractMonthToMonth, MonthlyCharges: 105.5, TotalCharges: 211}},
		{"CUST-003", churn.CustomerRecord{TenureMonths: 64, InternetService: churn.InternetDSL, ContractType: churn.ContractTwoYear, MonthlyCharges: 55, TotalCharges: 3520}},
		{"CUST-004", churn.CustomerRecord{TenureMonths: 30, InternetService: churn.InternetNone, ContractType: churn.ContractOneYear, MonthlyCharges: 20, TotalCharges: 600}},
		{"CUST-005", churn.CustomerRecord{TenureMonths: 5, InternetService: churn.InternetFiberOptic, ContractType: churn.ContractMonthToMonth, MonthlyCharges: 90, TotalCharges: 450}},
		{"CUST-006", churn.CustomerRecord{TenureMonths: 100, InternetService: churn.InternetFiberOptic, ContractType: churn.ContractTwoYear, MonthlyCharges: 200, TotalCharges: 10000}},
	}

	logger.Info("scoring customers",
		zap.Int("customers", len(customers)),
		zap.String("model", path),
		zap.Int("trees", forest.NumTrees()))

	var churned int
	for _, c := range customers {
		pred, err := predictor.Predict(c.Record)
		if err != nil {
			logger.Warn("failed to score customer", zap.String("customer", c.ID), zap.Error(err))
			continue
		}
		proba, err := forest.PredictProba(pred.Features[:])
		if err != nil {
			logger.Warn("failed to score customer", zap.String("customer", c.ID), zap.Error(err))
			continue
		}
		if pred.Outcome == churn.OutcomeChurn {
			churned++
		}
		logger.Info("scored customer",
			zap.String("customer", c.ID),
			zap.Float64s("features", pred.Features[:]),
			zap.Stringer("outcome", pred.Outcome),
			zap.Float64s("proba", proba))
	}

	logger.Info("done", zap.Int("churn", churned), zap.Int("customers", len(customers)))
}
