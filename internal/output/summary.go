package output

import (
	"os"

	"github.com/pkg/errors"
)

// AppendFile appends content to path, creating it if needed.
// GitHub renders whatever lands in $GITHUB_STEP_SUMMARY on the job page.
func AppendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
