package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var bucketNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func window(startOffset, endOffset time.Duration, status BookingStatus) Booking {
	return Booking{
		StartDate: bucketNow.Add(startOffset),
		EndDate:   bucketNow.Add(endOffset),
		Status:    status,
	}
}

func TestInState_TimeBuckets(t *testing.T) {
	tests := []struct {
		name    string
		booking Booking
		state   BookingState
		want    bool
	}{
		{"running booking is current", window(-time.Hour, time.Hour, StatusApproved), StateCurrent, true},
		{"start equal to now is current", window(0, time.Hour, StatusApproved), StateCurrent, true},
		{"end equal to now is not current", window(-time.Hour, 0, StatusApproved), StateCurrent, false},
		{"ended booking is past", window(-2*time.Hour, -time.Hour, StatusApproved), StatePast, true},
		{"end equal to now is not past", window(-time.Hour, 0, StatusApproved), StatePast, false},
		{"upcoming booking is future", window(time.Hour, 2*time.Hour, StatusApproved), StateFuture, true},
		{"start equal to now is not future", window(0, time.Hour, StatusApproved), StateFuture, false},
		{"elapsed waiting booking is still past", window(-2*time.Hour, -time.Hour, StatusWaiting), StatePast, true},
		{"rejected booking can be future", window(time.Hour, 2*time.Hour, StatusRejected), StateFuture, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.booking
			assert.Equal(t, tt.want, b.InState(tt.state, bucketNow))
		})
	}
}

func TestInState_StatusBuckets(t *testing.T) {
	waiting := window(-2*time.Hour, -time.Hour, StatusWaiting)
	assert.True(t, waiting.InState(StateWaiting, bucketNow))
	assert.False(t, waiting.InState(StateRejected, bucketNow))

	rejected := window(time.Hour, 2*time.Hour, StatusRejected)
	assert.True(t, rejected.InState(StateRejected, bucketNow))
	assert.False(t, rejected.InState(StateWaiting, bucketNow))

	approved := window(-time.Hour, time.Hour, StatusApproved)
	assert.False(t, approved.InState(StateWaiting, bucketNow))
	assert.False(t, approved.InState(StateRejected, bucketNow))
}

// Each booking must land in exactly one of CURRENT/PAST/FUTURE, and the three
// buckets together must reconstruct ALL.
func TestInState_TimePartition(t *testing.T) {
	bookings := []Booking{
		window(-3*time.Hour, -2*time.Hour, StatusApproved),
		window(-time.Hour, 0, StatusWaiting),
		window(-time.Hour, time.Hour, StatusApproved),
		window(0, time.Hour, StatusRejected),
		window(time.Hour, 2*time.Hour, StatusWaiting),
	}

	total := 0
	for _, b := range bookings {
		count := 0
		for _, state := range []BookingState{StateCurrent, StatePast, StateFuture} {
			if b.InState(state, bucketNow) {
				count++
			}
		}
		assert.Equal(t, 1, count, "booking [%v, %v) must be in exactly one time bucket", b.StartDate, b.EndDate)
		assert.True(t, b.InState(StateAll, bucketNow))
		total += count
	}
	assert.Equal(t, len(bookings), total)
}

func TestParseBookingState(t *testing.T) {
	state, err := ParseBookingState("")
	assert.NoError(t, err)
	assert.Equal(t, StateAll, state)

	state, err = ParseBookingState("current")
	assert.NoError(t, err)
	assert.Equal(t, StateCurrent, state)

	state, err = ParseBookingState("REJECTED")
	assert.NoError(t, err)
	assert.Equal(t, StateRejected, state)

	_, err = ParseBookingState("SOMETIME")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown state: SOMETIME")
}
