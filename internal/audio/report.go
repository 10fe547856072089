package audio

import "sync"

// errorQueueSize bounds the errors waiting for delivery. Reports beyond it
// are dropped; a stream that keeps failing has already said so.
const errorQueueSize = 8

// errorReporter moves stream errors off the host's callback threads. report
// never blocks, and the sink runs on the reporter's own goroutine, so a slow
// sink cannot stall audio delivery.
type errorReporter struct {
	sink ErrorFunc
	errs chan error
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newErrorReporter(sink ErrorFunc) *errorReporter {
	r := &errorReporter{
		sink: sink,
		errs: make(chan error, errorQueueSize),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *errorReporter) report(err error) {
	select {
	case r.errs <- err:
	default:
	}
}

func (r *errorReporter) run() {
	defer close(r.done)
	for {
		select {
		case err := <-r.errs:
			r.sink(err)
		case <-r.quit:
			for {
				select {
				case err := <-r.errs:
					r.sink(err)
				default:
					return
				}
			}
		}
	}
}

// close delivers whatever is already queued and waits for the sink to
// return. Reports made after close are discarded.
func (r *errorReporter) close() {
	r.once.Do(func() { close(r.quit) })
	<-r.done
}
