package scorer

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

const regressionRMSEVersion = "1.0.0"

// regressionRMSE computes root-mean-square error between input/gt.csv and
// output/pred.csv's "value" columns (spec.md §8 scenario 3).
type regressionRMSE struct{}

func (regressionRMSE) Name() string    { return "regression_rmse" }
func (regressionRMSE) Version() string { return regressionRMSEVersion }

func (s regressionRMSE) Score(ctx context.Context, workspacePath string, params map[string]interface{}) (*model.Result, error) {
	paths := model.NewWorkspacePaths(workspacePath)

	gt, err := readCSVTable(paths.Input() + "/gt.csv")
	if err != nil {
		return model.ErrorResult(err), nil
	}
	pred, err := readCSVTable(paths.Output() + "/pred.csv")
	if err != nil {
		return model.ErrorResult(err), nil
	}
	if err := checkSameIDs(gt, pred); err != nil {
		return model.ErrorResult(err), nil
	}

	gtValCol := gt.columnIndex("value")
	predValCol := pred.columnIndex("value")
	if gtValCol < 0 || predValCol < 0 {
		return model.ErrorResult(apierrors.Newf(apierrors.CodeBadFormat, "gt.csv/pred.csv must have a %q column", "value").
			WithStage(apierrors.StageScoring)), nil
	}

	var sumSquaredErr float64
	n := len(gt.idOrder)
	for _, id := range gt.idOrder {
		gtRaw, _ := gt.value(id, gtValCol)
		predRaw, ok := pred.value(id, predValCol)
		if !ok {
			return model.ErrorResult(apierrors.Newf(apierrors.CodeMismatch, "id %q missing from predictions", id).
				WithStage(apierrors.StageScoring)), nil
		}

		gtVal, perr := strconv.ParseFloat(gtRaw, 64)
		if perr != nil {
			return model.ErrorResult(apierrors.Newf(apierrors.CodeBadFormat, "gt.csv value %q for id %q is not numeric", gtRaw, id).
				WithStage(apierrors.StageScoring).WithError(perr)), nil
		}
		predVal, perr := strconv.ParseFloat(predRaw, 64)
		if perr != nil {
			return model.ErrorResult(apierrors.Newf(apierrors.CodeBadFormat, "pred.csv value %q for id %q is not numeric", predRaw, id).
				WithStage(apierrors.StageScoring).WithError(perr)), nil
		}

		diff := predVal - gtVal
		sumSquaredErr += diff * diff
	}

	var rmse float64
	if n > 0 {
		rmse = math.Sqrt(sumSquaredErr / float64(n))
	}

	return &model.Result{
		Summary: &model.Summary{Score: rmse},
		Metrics: map[string]float64{"rmse": rmse},
		Versioning: &model.Versioning{
			Scorer:    s.Name(),
			Version:   s.Version(),
			Algorithm: "rmse",
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func init() {
	registry.Default().Register(regressionRMSE{})
}
