package logger

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// output is a log destination. errorsOnly outputs receive WARN and above.
type output struct {
	w          io.Writer
	errorsOnly bool
}

type sink struct {
	buf        *bufio.Writer
	errorsOnly bool
}

type entry struct {
	line  []byte
	level slog.Level
}

// asyncWriter fans formatted lines out to its sinks from a single goroutine
// so handlers never block on file IO unless the queue is full.
type asyncWriter struct {
	queue   chan entry
	flushes chan chan error
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	sinks []sink
	err   error
}

func newAsyncWriter(outputs []output, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:   make(chan entry, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, o := range outputs {
		if o.w != nil {
			w.sinks = append(w.sinks, sink{buf: bufio.NewWriterSize(o.w, bufSize), errorsOnly: o.errorsOnly})
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case e, ok := <-w.queue:
			if !ok {
				w.setErr(w.flush())
				return
			}
			w.setErr(w.write(e))
		case ack := <-w.flushes:
			for n := len(w.queue); n > 0; n-- {
				w.setErr(w.write(<-w.queue))
			}
			ack <- w.flush()
		}
	}
}

// Write queues a copy of line. A full queue blocks rather than dropping logs.
func (w *asyncWriter) Write(line []byte, level slog.Level) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	w.queue <- entry{line: append([]byte(nil), line...), level: level}
	return nil
}

// Flush waits until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.Err()
	}
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.Err()
}

// Err returns the first write error seen so far.
func (w *asyncWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) write(e entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.errorsOnly && e.level < slog.LevelWarn {
			continue
		}
		if _, err := s.buf.Write(e.line); err != nil {
			return err
		}
		if err := s.buf.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if err := s.buf.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
