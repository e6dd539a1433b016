package config

import (
	"fmt"
	"io"
	"os"
)

// WriteDerived copies templatePath into outPath byte-for-byte, then
// appends overrides, one per line, so that they override any earlier
// definition of the same key (spec.md §4.D step 3, §4.E step 1) —
// grounded on original_source/src/calibrator.cpp's write_config,
// which does exactly this: copy, then append two override lines.
func WriteDerived(templatePath, outPath string, overrides []string) error {
	in, err := os.Open(templatePath)
	if err != nil {
		return fmt.Errorf("config: template not found: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("config: cannot write derived config: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, line := range overrides {
		fmt.Fprintln(out, line)
	}
	return nil
}
