package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-armillary/internal/state"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func TestModel_ViewSwitching(t *testing.T) {
	m := New(nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})

	tests := []struct {
		key  string
		want ViewMode
	}{
		{"2", ViewBodyDetail},
		{"3", ViewSky},
		{"4", ViewOrrery},
		{"1", ViewDashboard},
		{"b", ViewBodyDetail},
		{"s", ViewSky},
		{"o", ViewOrrery},
		{"d", ViewDashboard},
	}
	for _, tt := range tests {
		m = update(t, m, keyMsg(tt.key))
		assert.Equal(t, tt.want, m.viewMode, "key %q", tt.key)
	}

	for _, want := range []ViewMode{ViewBodyDetail, ViewSky, ViewOrrery, ViewDashboard} {
		m = update(t, m, keyMsg("tab"))
		assert.Equal(t, want, m.viewMode)
	}
}

func TestModel_Quit(t *testing.T) {
	_, cmd := New(nil).Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ViewBeforeResize(t *testing.T) {
	assert.Equal(t, "Initializing...", New(nil).View())
}

func TestModel_FrameUpdate(t *testing.T) {
	f := testFrame(t, 720)
	snap := state.Snapshot{Frame: f, LastCompute: time.Now(), ComputeDuration: 3 * time.Millisecond}

	m := update(t, New(nil), tea.WindowSizeMsg{Width: 140, Height: 60})
	m = update(t, m, SendFrameUpdate(snap)())

	assert.Same(t, f, m.snapshot.Frame)
	assert.Same(t, f, m.skyView.frame)
	assert.Equal(t, "Sun", m.detail.SelectedBody())

	out := m.View()
	assert.Contains(t, out, "Bodies")
	assert.Contains(t, out, "next frame in")
}

func TestModel_OpenBody(t *testing.T) {
	m := update(t, New(nil), tea.WindowSizeMsg{Width: 140, Height: 60})
	m = update(t, m, FrameUpdateMsg{Snapshot: state.Snapshot{Frame: testFrame(t, 720)}})

	m = update(t, m, OpenBodyMsg{Name: "Moon"})
	assert.Equal(t, ViewBodyDetail, m.viewMode)
	assert.Equal(t, "Moon", m.detail.SelectedBody())
}

func TestModel_SkyFocusFollowsDashboard(t *testing.T) {
	m := update(t, New(nil), tea.WindowSizeMsg{Width: 140, Height: 60})
	m = update(t, m, FrameUpdateMsg{Snapshot: state.Snapshot{Frame: testFrame(t, 720)}})

	m = update(t, m, keyMsg("down"))
	require.Equal(t, "Moon", m.dashboard.SelectedBody())

	m = update(t, m, keyMsg("3"))
	assert.Equal(t, 1, m.skyView.focusIdx)
}

func TestModel_TickReadsManager(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	mgr.Update(testFrame(t, 0), time.Millisecond, nil)

	m := update(t, New(mgr), TickMsg(time.Now()))
	require.NotNil(t, m.snapshot.Frame)
	assert.Equal(t, mgr.SessionID(), m.snapshot.SessionID)
}

func TestModel_Error(t *testing.T) {
	m := update(t, New(nil), tea.WindowSizeMsg{Width: 120, Height: 50})
	m = update(t, m, SendError(errors.New("provider down"))())
	assert.Contains(t, m.View(), "provider down")
}

func TestShimmer(t *testing.T) {
	assert.Empty(t, shimmer("", 3))
	assert.NotEmpty(t, shimmer("Computing", 3))
}
