package checkin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedback_ShowThenAutoHide(t *testing.T) {
	f := NewFeedback(40 * time.Millisecond)
	f.Show(Outcome{Kind: KindSuccess, Message: "Welcome, Juan!"})

	o, ok := f.Current()
	require.True(t, ok)
	assert.Equal(t, "Welcome, Juan!", o.Message)

	require.Eventually(t, func() bool {
		_, visible := f.Current()
		return !visible
	}, time.Second, 5*time.Millisecond)
}

func TestFeedback_NewerOutcomeCancelsStaleHide(t *testing.T) {
	f := NewFeedback(40 * time.Millisecond)
	f.Show(Outcome{Kind: KindNotFound, Message: "Student ID not found."})
	time.Sleep(25 * time.Millisecond)
	f.Show(Outcome{Kind: KindSuccess, Message: "Welcome, Ana!"})

	// Past the first outcome's hide deadline: the replacement must
	// still be on display.
	time.Sleep(25 * time.Millisecond)
	o, ok := f.Current()
	require.True(t, ok)
	assert.Equal(t, "Welcome, Ana!", o.Message)

	require.Eventually(t, func() bool {
		_, visible := f.Current()
		return !visible
	}, time.Second, 5*time.Millisecond)
}

func TestFeedback_HideClearsImmediately(t *testing.T) {
	f := NewFeedback(time.Minute)
	f.Show(Outcome{Kind: KindSuccess})
	f.Hide()
	_, ok := f.Current()
	assert.False(t, ok)
}
