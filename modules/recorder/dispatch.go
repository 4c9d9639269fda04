package recorder

import (
	"sync"

	"github.com/sniner/rp-recorder/pkg/track"
	"github.com/sniner/rp-recorder/pkg/writer"
)

// dispatcher feeds track events to the artifact writers from a single
// long-lived worker goroutine, so slow artifact I/O cannot stall the stream
// read loop and writes to one artifact never interleave. The queue is
// bounded; track changes arrive minutes apart, so it never fills in
// practice.
type dispatcher struct {
	events  chan track.Info
	writers []writer.Writer
	wg      sync.WaitGroup
}

func newDispatcher(writers []writer.Writer) *dispatcher {
	d := &dispatcher{
		events:  make(chan track.Info, 16),
		writers: writers,
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for t := range d.events {
			for _, w := range d.writers {
				w.AddTrack(t)
			}
		}
	}()
	return d
}

func (d *dispatcher) add(t track.Info) {
	d.events <- t
}

// close stops the worker after the queue has drained.
func (d *dispatcher) close() {
	close(d.events)
	d.wg.Wait()
}
