package scorer

import (
	"encoding/csv"
	"os"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

// csvTable is a minimal parsed CSV: a header row and an id-keyed index into
// the remaining columns, enough for the classification/regression reference
// scorers in spec.md §8's end-to-end scenarios.
type csvTable struct {
	header  []string
	byID    map[string][]string
	idOrder []string
}

// readCSVTable reads path (expected under a workspace's input/ or output/),
// treating the first column as the row id. Missing files surface as
// MISSING_FILE; malformed rows surface as BAD_FORMAT -- both at the scoring
// stage, since this helper only runs during Score (spec.md §8 scenario 5).
func readCSVTable(path string) (*csvTable, *apierrors.Error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.Newf(apierrors.CodeMissingFile, "expected file %q not found", path).
				WithStage(apierrors.StageScoring).
				WithDetail("path", path)
		}
		return nil, apierrors.Newf(apierrors.CodeBadFormat, "failed to open %q", path).
			WithStage(apierrors.StageScoring).WithError(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apierrors.Newf(apierrors.CodeBadFormat, "malformed CSV in %q", path).
			WithStage(apierrors.StageScoring).WithError(err)
	}
	if len(rows) == 0 {
		return nil, apierrors.Newf(apierrors.CodeBadFormat, "%q has no header row", path).
			WithStage(apierrors.StageScoring)
	}

	t := &csvTable{
		header: rows[0],
		byID:   make(map[string][]string, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		id := row[0]
		t.byID[id] = row
		t.idOrder = append(t.idOrder, id)
	}
	return t, nil
}

// columnIndex returns the position of name in the header, or -1.
func (t *csvTable) columnIndex(name string) int {
	for i, h := range t.header {
		if h == name {
			return i
		}
	}
	return -1
}

// value returns column col of the row keyed by id.
func (t *csvTable) value(id string, col int) (string, bool) {
	row, ok := t.byID[id]
	if !ok || col < 0 || col >= len(row) {
		return "", false
	}
	return row[col], true
}

// checkSameIDs verifies gt and pred index the same id set, returning a
// MISMATCH error (spec.md §8 scenario 6) otherwise.
func checkSameIDs(gt, pred *csvTable) *apierrors.Error {
	if len(gt.idOrder) != len(pred.idOrder) {
		return mismatchError(gt, pred)
	}
	for _, id := range gt.idOrder {
		if _, ok := pred.byID[id]; !ok {
			return mismatchError(gt, pred)
		}
	}
	return nil
}

func mismatchError(gt, pred *csvTable) *apierrors.Error {
	return apierrors.Newf(apierrors.CodeMismatch, "prediction ids do not match ground-truth ids").
		WithStage(apierrors.StageScoring).
		WithDetail("gt_count", len(gt.idOrder)).
		WithDetail("pred_count", len(pred.idOrder))
}
