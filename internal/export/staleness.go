package export

import (
	"os"
)

// Decision is the per-item outcome of the staleness policy.
type Decision int

const (
	// DecisionSkip means the existing output is current.
	DecisionSkip Decision = iota
	// DecisionRegenerate means the item must be re-rendered.
	DecisionRegenerate
)

func (d Decision) String() string {
	if d == DecisionRegenerate {
		return "regenerate"
	}
	return "skip"
}

// CheckStaleness decides whether the output for a source needs regeneration.
// The check is dry: it reads file state and embedded metadata but has no side
// effects, so calling it twice in a row returns the same decision. The reason
// string names the first trigger that fired.
func CheckStaleness(sourcePath, outputPath string, force bool) (Decision, string) {
	if force {
		return DecisionRegenerate, "forced"
	}

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return DecisionRegenerate, "output missing"
	}

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return DecisionRegenerate, "source unreadable"
	}

	if srcInfo.ModTime().After(outInfo.ModTime()) {
		return DecisionRegenerate, "source newer than output"
	}

	meta, err := ReadMetadata(outputPath)
	if err != nil {
		return DecisionRegenerate, "metadata unreadable"
	}
	if err := meta.Validate(); err != nil {
		return DecisionRegenerate, "metadata missing required fields"
	}
	if meta.SourceMtimeUnixNs != srcInfo.ModTime().UnixNano() || meta.SourceSize != srcInfo.Size() {
		return DecisionRegenerate, "source fingerprint mismatch"
	}

	return DecisionSkip, "up to date"
}
