package model

import "path/filepath"

// Workspace filesystem layout, bit-compatible across implementations
// (spec.md §6).
const (
	MetaFileName   = "meta.json"
	InputDirName   = "input"
	OutputDirName  = "output"
	LogsDirName    = "logs"
	ResultFileName = "result.json"

	ContainerLogFileName = "container.log"
	RunInfoFileName      = "run_info.json"
	InspectFileName      = "inspect.json"

	ImageTarFileName   = "image.tar"
	ImageTarGzFileName = "image.tar.gz"

	// ContainerMountPath is the fixed in-container path everything is
	// mounted under (spec.md §4.3.1 step 2).
	ContainerMountPath = "/workspace"
)

// WorkspacePaths resolves the standard sub-paths of a workspace root.
type WorkspacePaths struct {
	Root string
}

func NewWorkspacePaths(root string) WorkspacePaths { return WorkspacePaths{Root: root} }

func (p WorkspacePaths) Meta() string   { return filepath.Join(p.Root, MetaFileName) }
func (p WorkspacePaths) Input() string  { return filepath.Join(p.Root, InputDirName) }
func (p WorkspacePaths) Output() string { return filepath.Join(p.Root, OutputDirName) }
func (p WorkspacePaths) Logs() string   { return filepath.Join(p.Root, LogsDirName) }

func (p WorkspacePaths) Result() string        { return filepath.Join(p.Output(), ResultFileName) }
func (p WorkspacePaths) ContainerLog() string  { return filepath.Join(p.Logs(), ContainerLogFileName) }
func (p WorkspacePaths) RunInfo() string       { return filepath.Join(p.Logs(), RunInfoFileName) }
func (p WorkspacePaths) Inspect() string       { return filepath.Join(p.Logs(), InspectFileName) }
func (p WorkspacePaths) ImageTar() string      { return filepath.Join(p.Root, ImageTarFileName) }
func (p WorkspacePaths) ImageTarGz() string    { return filepath.Join(p.Root, ImageTarGzFileName) }
