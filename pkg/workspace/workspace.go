// Package workspace implements the Workspace Manager (spec.md §4.1): it
// validates a directory against the JobSpec/workspace contract and produces
// a parsed model.JobSpec, creating empty output/logs directories as needed.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Validate verifies a directory is a conforming workspace and returns its
// parsed JobSpec. It creates empty output/ and logs/ directories if absent,
// and never modifies input/ or meta.json (spec.md §4.1 side effects).
func Validate(root string) (*model.JobSpec, *apierrors.Error) {
	paths := model.NewWorkspacePaths(root)

	info, statErr := os.Stat(root)
	if statErr != nil || !info.IsDir() {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "workspace root %q does not exist", root)
	}

	metaBytes, err := os.ReadFile(paths.Meta())
	if err != nil {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "meta.json not found under %q", root).WithError(err)
	}

	var spec model.JobSpec
	if err := json.Unmarshal(metaBytes, &spec); err != nil {
		return nil, apierrors.Newf(apierrors.CodeBadFormat, "meta.json does not parse as a JobSpec").WithError(err)
	}

	inputInfo, err := os.Stat(paths.Input())
	if err != nil || !inputInfo.IsDir() {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "input/ directory missing under %q", root)
	}
	entries, err := os.ReadDir(paths.Input())
	if err != nil || len(entries) == 0 {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "input/ directory is empty under %q", root)
	}

	if err := ensureDir(paths.Output()); err != nil {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "failed to create output/ directory").WithError(err)
	}
	if err := ensureDir(paths.Logs()); err != nil {
		return nil, apierrors.Newf(apierrors.CodeMissingFile, "failed to create logs/ directory").WithError(err)
	}

	if valErr := spec.Validate(); valErr != nil {
		return nil, valErr
	}

	log.Debugf("workspace %s validated for job %s", root, spec.JobID)
	return &spec, nil
}

func ensureDir(path string) error {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return apierrors.Newf(apierrors.CodeBadFormat, "%q exists and is not a directory", path)
		}
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// NormalizeImage appends ":latest" when no tag is given, matching the
// teacher's image-reference helpers style used across executor/cache
// lookups. Digest references ("name@sha256:...") are left untouched.
func NormalizeImage(image string) string {
	if strings.Contains(image, "@") {
		return image
	}
	lastSlash := strings.LastIndex(image, "/")
	lastColon := strings.LastIndex(image, ":")
	if lastColon > lastSlash {
		return image
	}
	return image + ":latest"
}

// HasOfflineImageArchive reports whether an image.tar or image.tar.gz file
// is present under the workspace root, and returns its path if so
// (spec.md §4.3.1 step 1: "supports offline deployments").
func HasOfflineImageArchive(root string) (string, bool) {
	paths := model.NewWorkspacePaths(root)
	for _, p := range []string{paths.ImageTar(), paths.ImageTarGz()} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// PredictionFile returns the first of the given candidate file names that
// exists as a regular file under output/.
func PredictionFile(root string, candidates ...string) (string, bool) {
	paths := model.NewWorkspacePaths(root)
	for _, name := range candidates {
		p := filepath.Join(paths.Output(), name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
