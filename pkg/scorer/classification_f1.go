package scorer

import (
	"context"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
)

const classificationF1Version = "1.0.0"

// classificationF1 computes macro-averaged F1 over input/gt.csv and
// output/pred.csv, both two-column (id,label) tables (spec.md §8 scenarios
// 1, 2, 5, 6).
type classificationF1 struct{}

func (classificationF1) Name() string    { return "classification_f1" }
func (classificationF1) Version() string { return classificationF1Version }

func (s classificationF1) Score(ctx context.Context, workspacePath string, params map[string]interface{}) (*model.Result, error) {
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

	gtLabelCol := gt.columnIndex("label")
	predLabelCol := pred.columnIndex("label")
	if gtLabelCol < 0 || predLabelCol < 0 {
		return model.ErrorResult(apierrors.Newf(apierrors.CodeBadFormat, "gt.csv/pred.csv must have a %q column", "label").
			WithStage(apierrors.StageScoring)), nil
	}

	f1Macro, perClassF1 := macroF1(gt, pred, gtLabelCol, predLabelCol)

	metrics := map[string]float64{"f1_macro": f1Macro}
	for label, f1 := range perClassF1 {
		metrics["f1_"+label] = f1
	}

	return &model.Result{
		Summary: &model.Summary{Score: f1Macro},
		Metrics: metrics,
		Versioning: &model.Versioning{
			Scorer:    s.Name(),
			Version:   s.Version(),
			Algorithm: "macro_f1",
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

// macroF1 computes per-class F1 (precision/recall over one-vs-rest
// confusion counts) and their unweighted mean, per spec.md §8 scenario 2's
// worked example.
func macroF1(gt, pred *csvTable, gtCol, predCol int) (float64, map[string]float64) {
	classes := map[string]struct{}{}
	truth := make(map[string]string, len(gt.idOrder))
	guess := make(map[string]string, len(pred.idOrder))

	for _, id := range gt.idOrder {
		v, _ := gt.value(id, gtCol)
		truth[id] = v
		classes[v] = struct{}{}
	}
	for _, id := range pred.idOrder {
		v, _ := pred.value(id, predCol)
		guess[id] = v
		classes[v] = struct{}{}
	}

	perClass := make(map[string]float64, len(classes))
	var sum float64
	for class := range classes {
		var tp, fp, fn int
		for _, id := range gt.idOrder {
			t := truth[id] == class
			p := guess[id] == class
			switch {
			case t && p:
				tp++
			case !t && p:
				fp++
			case t && !p:
				fn++
			}
		}
		var precision, recall, f1 float64
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		perClass[class] = f1
		sum += f1
	}

	if len(classes) == 0 {
		return 0, perClass
	}
	return sum / float64(len(classes)), perClass
}

func init() {
	registry.Default().Register(classificationF1{})
}
