package popup

import (
	"context"
	"errors"
	"sort"
	"time"
)

type fakeTask struct {
	at        time.Time
	seq       int
	fn        func()
	cancelled bool
	done      bool
}

// fakeScheduler is a manual clock. Callbacks run only from Advance.
type fakeScheduler struct {
	now   time.Time
	seq   int
	tasks []*fakeTask
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Now() time.Time { return s.now }

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) func() {
	s.seq++
	task := &fakeTask{at: s.now.Add(d), seq: s.seq, fn: f}
	s.tasks = append(s.tasks, task)
	return func() { task.cancelled = true }
}

// Advance moves the clock forward, running due callbacks in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.at
		next.done = true
		next.fn()
	}
	s.now = target
}

func (s *fakeScheduler) nextDue(target time.Time) *fakeTask {
	var due []*fakeTask
	for _, t := range s.tasks {
		if !t.done && !t.cancelled && !t.at.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

// Pending counts callbacks that are neither cancelled nor run.
func (s *fakeScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.done && !t.cancelled {
			n++
		}
	}
	return n
}

type fakeMixer struct {
	level    int
	reads    int
	writes   []int
	readErr  error
	writeErr error
}

func (m *fakeMixer) CurrentLevel(context.Context) (int, error) {
	m.reads++
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.level, nil
}

func (m *fakeMixer) SetLevel(_ context.Context, level int) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, level)
	m.level = level
	return nil
}

type fakeWindow struct {
	output    string
	level     int
	sets      []int
	destroyed bool
}

func (w *fakeWindow) SetLevel(level int) {
	w.level = level
	w.sets = append(w.sets, level)
}

func (w *fakeWindow) Destroy() { w.destroyed = true }

type fakeFactory struct {
	created map[string]*fakeWindow
	fail    map[string]bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(map[string]*fakeWindow), fail: make(map[string]bool)}
}

func (f *fakeFactory) NewWindow(output string, level int) (Window, error) {
	if f.fail[output] {
		return nil, errors.New("surface creation failed")
	}
	w := &fakeWindow{output: output, level: level}
	f.created[output] = w
	return w, nil
}
