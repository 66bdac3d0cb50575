package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ruslano69/easyjob/pkg/etl"
)

func TestTrackerKnownTotal(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)

	tr.Start(etl.OpUpload, 2500)
	tr.Advance(etl.Progress{RowsProcessed: 1000, ChunkIndex: 1})
	tr.Advance(etl.Progress{RowsProcessed: 2500, ChunkIndex: 3})
	if tr.Current() != 2500 {
		t.Errorf("Current() = %d, want 2500", tr.Current())
	}
	tr.Finish()

	out := buf.String()
	if !strings.Contains(out, "upload: 2500 rows in 3 chunks") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestTrackerUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)

	tr.Start(etl.OpExtract, -1)
	tr.Advance(etl.Progress{RowsProcessed: 10, ChunkIndex: 1})
	tr.Finish()

	if !strings.Contains(buf.String(), "extract: 10 rows in 1 chunks") {
		t.Errorf("summary missing:\n%s", buf.String())
	}
}

func TestTrackerFinishWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)
	tr.Finish()
	if buf.Len() != 0 {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

var _ etl.Observer = (*Tracker)(nil)
