package popup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupFixture struct {
	group   *Group
	mixer   *fakeMixer
	factory *fakeFactory
	sched   *fakeScheduler
	expired *int
}

func newGroupFixture(t *testing.T, level int, outputs ...string) *groupFixture {
	t.Helper()
	sched := newFakeScheduler()
	expired := 0
	timer := NewDismissTimer(testPeriod, true, sched, func() { expired++ }, nil)
	mixer := &fakeMixer{level: level}
	factory := newFakeFactory()

	g := NewGroup(mixer, timer, level, nil)
	g.SetWindowFactory(factory)
	for _, o := range outputs {
		require.NoError(t, g.OutputAdded(o))
	}
	return &groupFixture{group: g, mixer: mixer, factory: factory, sched: sched, expired: &expired}
}

func (f *groupFixture) window(id string) *fakeWindow {
	return f.factory.created[id]
}

func TestGroup_OutputAddedInitialisesFromMixer(t *testing.T) {
	f := newGroupFixture(t, 40)
	f.mixer.level = 55

	require.NoError(t, f.group.OutputAdded("DP-1"))

	assert.Equal(t, []string{"DP-1"}, f.group.Outputs())
	assert.Equal(t, 55, f.window("DP-1").level)
	assert.Equal(t, 55, f.group.Level())
	assert.Empty(t, f.mixer.writes, "adding an output never writes")
}

func TestGroup_OutputAddedUpdatesExistingWindows(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")
	f.mixer.level = 60

	require.NoError(t, f.group.OutputAdded("HDMI-A-1"))

	assert.Equal(t, 60, f.window("DP-1").level)
	assert.Equal(t, 60, f.window("HDMI-A-1").level)
}

func TestGroup_OutputAddedFallsBackOnReadError(t *testing.T) {
	f := newGroupFixture(t, 40)
	f.mixer.readErr = errors.New("device busy")

	require.NoError(t, f.group.OutputAdded("DP-1"))
	assert.Equal(t, 40, f.window("DP-1").level)
}

func TestGroup_OutputAddedTwiceIsNoop(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")
	first := f.window("DP-1")

	require.NoError(t, f.group.OutputAdded("DP-1"))
	assert.Same(t, first, f.window("DP-1"))
	assert.Equal(t, 1, f.group.Len())
}

func TestGroup_OutputAddedErrors(t *testing.T) {
	f := newGroupFixture(t, 40)
	f.factory.fail["DP-2"] = true

	assert.Error(t, f.group.OutputAdded("DP-2"))
	assert.Equal(t, 0, f.group.Len())

	g := NewGroup(&fakeMixer{}, f.group.Timer(), 0, nil)
	assert.Error(t, g.OutputAdded("DP-1"), "no factory")
}

func TestGroup_OutputRemovedDestroysWindow(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2")
	w := f.window("DP-1")

	f.group.OutputRemoved("DP-1")

	assert.True(t, w.destroyed)
	assert.Equal(t, []string{"DP-2"}, f.group.Outputs())

	assert.NotPanics(t, func() { f.group.OutputRemoved("unknown") })
}

func TestGroup_LastWindowRemovedKeepsRunning(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")

	f.group.Dispatch(Event{Kind: PointerLeave, Output: "DP-1", Crossing: CrossingNonlinear})
	f.group.Dispatch(Event{Kind: OutputRemoved, Output: "DP-1"})

	assert.Equal(t, 0, f.group.Len())
	assert.Equal(t, Armed, f.group.Timer().State(), "headless group still counts down")

	f.sched.Advance(testPeriod)
	assert.Equal(t, 1, *f.expired, "firing with no windows is a normal exit")

	require.NoError(t, f.group.OutputAdded("DP-1"))
	assert.Equal(t, 1, f.group.Len())
}

func TestGroup_BroadcastDoesNotWriteMixer(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2")

	f.group.Broadcast(70)

	assert.Equal(t, 70, f.window("DP-1").level)
	assert.Equal(t, 70, f.window("DP-2").level)
	assert.Empty(t, f.mixer.writes)

	f.group.Broadcast(150)
	assert.Equal(t, 100, f.group.Level())
}

func TestGroup_SliderChangedWritesAndSyncsSiblings(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2")
	var feedback []int
	f.group.SetFeedback(func(level int) { feedback = append(feedback, level) })

	f.group.Dispatch(Event{Kind: VolumeChanged, Source: SourceSlider, Output: "DP-1", Level: 45})

	assert.Equal(t, []int{45}, f.mixer.writes)
	assert.Equal(t, 45, f.group.Level())
	assert.Equal(t, 45, f.window("DP-2").level)
	assert.Empty(t, f.window("DP-1").sets, "the moved slider is not echoed back")
	assert.Equal(t, []int{45}, feedback)
	assert.Equal(t, Armed, f.group.Timer().State(), "interaction restarts the quiet period")
}

func TestGroup_SliderChangedSameValueSkipsWrite(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")

	f.group.SliderChanged("DP-1", 40)

	assert.Empty(t, f.mixer.writes)
	assert.Equal(t, Armed, f.group.Timer().State())
}

func TestGroup_SliderChangedWriteErrorRestoresTruth(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2")
	f.mixer.writeErr = errors.New("permission denied")

	f.group.SliderChanged("DP-1", 80)

	assert.Equal(t, 40, f.group.Level())
	assert.Equal(t, 40, f.window("DP-1").level)
	assert.Equal(t, 40, f.window("DP-2").level)
}

func TestGroup_SliderInteractionKeepsPopupAlive(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")

	f.group.Dispatch(Event{Kind: PointerLeave, Output: "DP-1", Crossing: CrossingNonlinear})
	f.sched.Advance(1500 * time.Millisecond)
	f.group.SliderChanged("DP-1", 41)
	f.sched.Advance(1500 * time.Millisecond)

	assert.Equal(t, 0, *f.expired)
	f.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, *f.expired)
}

func TestGroup_RefreshShowsMixerTruthEverywhere(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2", "HDMI-A-1")

	// Another invocation ran "inc 10" directly against the mixer.
	f.mixer.level = 50
	f.group.Dispatch(Event{Kind: VolumeChanged, Source: SourceNotifier})

	for _, id := range f.group.Outputs() {
		assert.Equal(t, 50, f.window(id).level, id)
	}
	assert.Empty(t, f.mixer.writes, "refresh never writes back")
	assert.Equal(t, 0, *f.expired, "owner keeps running")
	assert.Equal(t, Armed, f.group.Timer().State())
}

func TestGroup_CoalescedNotificationsConverge(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")

	// Two invocations changed the mixer; only one wake-up arrives.
	f.mixer.level = 50
	f.mixer.level = 35
	f.group.Refresh()
	assert.Equal(t, 35, f.window("DP-1").level)

	// A duplicate wake-up is idempotent.
	f.group.Refresh()
	assert.Equal(t, 35, f.window("DP-1").level)
	assert.Equal(t, 35, f.group.Level())
}

func TestGroup_RefreshReadErrorKeepsState(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")
	f.mixer.readErr = errors.New("gone")

	f.group.Refresh()

	assert.Equal(t, 40, f.group.Level())
	assert.Equal(t, Idle, f.group.Timer().State())
}

func TestGroup_PointerAcrossSiblingWindowsDoesNotFlicker(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2")

	f.group.Dispatch(Event{Kind: PointerLeave, Output: "DP-1", Crossing: CrossingNonlinear})
	f.sched.Advance(time.Second)
	f.group.Dispatch(Event{Kind: PointerEnter, Output: "DP-2", Crossing: CrossingNonlinear})
	// Slider inside DP-2 generates internal crossings.
	f.group.Dispatch(Event{Kind: PointerLeave, Output: "DP-2", Crossing: CrossingInferior})
	f.group.Dispatch(Event{Kind: PointerEnter, Output: "DP-2", Crossing: CrossingAncestor})

	f.sched.Advance(time.Minute)
	assert.Equal(t, 0, *f.expired)
	assert.Equal(t, Idle, f.group.Timer().State())
}

func TestGroup_DispatchTimerFired(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1")

	f.group.Dispatch(Event{Kind: PointerLeave, Crossing: CrossingNonlinear})
	gen := f.group.Timer().Generation()

	f.group.Dispatch(Event{Kind: TimerFired, Generation: gen + 1})
	assert.Equal(t, 0, *f.expired)

	f.group.Dispatch(Event{Kind: TimerFired, Generation: gen})
	assert.Equal(t, 1, *f.expired)
}

func TestGroup_DispatchOutputEvents(t *testing.T) {
	f := newGroupFixture(t, 40)
	f.factory.fail["bad"] = true

	f.group.Dispatch(Event{Kind: OutputAdded, Output: "DP-1"})
	f.group.Dispatch(Event{Kind: OutputAdded, Output: "bad"})
	assert.Equal(t, []string{"DP-1"}, f.group.Outputs())

	f.group.Dispatch(Event{Kind: OutputRemoved, Output: "DP-1"})
	assert.Equal(t, 0, f.group.Len())
}

func TestGroup_Close(t *testing.T) {
	f := newGroupFixture(t, 40, "DP-1", "DP-2")
	f.group.Timer().Pulse()

	f.group.Close()

	assert.True(t, f.window("DP-1").destroyed)
	assert.True(t, f.window("DP-2").destroyed)
	assert.Equal(t, Idle, f.group.Timer().State())
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "pointer-enter(DP-1, nonlinear)", Event{Kind: PointerEnter, Output: "DP-1", Crossing: CrossingNonlinear}.String())
	assert.Equal(t, "timer-fired(#3)", Event{Kind: TimerFired, Generation: 3}.String())
	assert.Equal(t, "volume-changed(slider, DP-1, 45)", Event{Kind: VolumeChanged, Source: SourceSlider, Output: "DP-1", Level: 45}.String())
	assert.Equal(t, "volume-changed(notifier)", Event{Kind: VolumeChanged, Source: SourceNotifier}.String())
	assert.Equal(t, "output-removed(DP-1)", Event{Kind: OutputRemoved, Output: "DP-1"}.String())
}
