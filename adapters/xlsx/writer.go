package exportxlsx

import (
	"io"

	"github.com/goliatone/go-cvwizard/cv"
)

type limitedWriter struct {
	w     io.Writer
	max   int64
	count int64
}

func newLimitedWriter(w io.Writer, max int64) *limitedWriter {
	return &limitedWriter{w: w, max: max}
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.max > 0 && lw.count+int64(len(p)) > lw.max {
		return 0, cv.NewError(cv.KindValidation, "xlsx max bytes exceeded", nil)
	}
	n, err := lw.w.Write(p)
	lw.count += int64(n)
	return n, err
}
