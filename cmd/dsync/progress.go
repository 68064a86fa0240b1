package main

import (
	"io"

	"github.com/cheggaaa/pb/v3"
	engine "github.com/chmdznr/oss-drive-to-blob-copier/internal/sync"
)

// batchProgress draws one bar per sync batch, advancing once per file
type batchProgress struct {
	out io.Writer
	bar *pb.ProgressBar
}

func newBatchProgress(out io.Writer) *batchProgress {
	return &batchProgress{out: out}
}

func (p *batchProgress) EmitSyncEvent(event engine.Event) {
	switch event.Kind {
	case engine.EventBatchStarted:
		if event.Total == 0 {
			return
		}
		p.bar = pb.New(event.Total)
		p.bar.SetWriter(p.out)
		p.bar.SetTemplate(`{{counters . }} {{bar . }} {{percent . }} {{string . "file"}}`)
		p.bar.Start()
	case engine.EventDownloading:
		if p.bar != nil {
			p.bar.Set("file", event.Name)
		}
	case engine.EventStatusChanged:
		if p.bar != nil {
			p.bar.Increment()
		}
	case engine.EventBatchComplete:
		if p.bar != nil {
			p.bar.Finish()
			p.bar = nil
		}
	}
}
